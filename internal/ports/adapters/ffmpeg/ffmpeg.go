// Package ffmpeg adapts the ffmpeg/ffprobe binaries to the engine's codec
// and prober ports.
package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/segcut/segcut/internal/faults"
	"github.com/segcut/segcut/internal/types"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) Render(ctx context.Context, inPath string, graph types.FilterGraph, opts types.EncodeOptions, outPath string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg, renderArgs(inPath, graph, opts, outPath)...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return &faults.CodecExecutionFailed{Stderr: string(b), Err: err}
	}
	return nil
}

func renderArgs(inPath string, graph types.FilterGraph, opts types.EncodeOptions, outPath string) []string {
	return []string{
		"-y",
		"-i", inPath,
		"-filter_complex", graph.Script(),
		"-map", graph.VideoOut,
		"-map", graph.AudioOut,
		"-c:v", "libx264",
		"-preset", opts.Preset,
		"-crf", strconv.Itoa(opts.CRF),
		"-r", strconv.Itoa(opts.FrameRate),
		"-threads", strconv.Itoa(opts.Threads),
		"-c:a", opts.AudioCodec,
		"-b:a", opts.AudioBitrate,
		outPath,
	}
}

type probeFormat struct {
	Duration string `json:"duration"`
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
}

type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

func (a *Adapter) Probe(ctx context.Context, path string) (types.ProbeReport, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.ProbeReport{}, &faults.ProbeFailed{Path: path, Stderr: string(b), Err: err}
	}

	var out probeOutput
	if err := json.Unmarshal(b, &out); err != nil {
		return types.ProbeReport{}, &faults.ProbeFailed{Path: path, Stderr: string(b), Err: err}
	}

	report := types.ProbeReport{}
	report.DurationSec, err = strconv.ParseFloat(strings.TrimSpace(out.Format.Duration), 64)
	if err != nil {
		return types.ProbeReport{}, &faults.ProbeFailed{Path: path, Err: fmt.Errorf("parse duration %q: %w", out.Format.Duration, err)}
	}
	for _, s := range out.Streams {
		report.Streams = append(report.Streams, types.StreamInfo{
			Type:      s.CodecType,
			Width:     s.Width,
			Height:    s.Height,
			FrameRate: parseFrameRate(s.RFrameRate),
			Codec:     s.CodecName,
		})
	}
	return report, nil
}

// MeasureSync samples the first video and audio packet timestamps in a
// half-second window after each join boundary and reports their absolute
// difference. The observed upstream behavior of always reporting zero was
// a stub; this is the real boundary measurement.
func (a *Adapter) MeasureSync(ctx context.Context, path string, joins []time.Duration) (types.SyncReport, error) {
	rep := types.SyncReport{}
	for _, j := range joins {
		at := j.Seconds()
		vpts, err := a.firstPacketPTS(ctx, path, "v:0", at)
		if err != nil {
			return types.SyncReport{}, err
		}
		apts, err := a.firstPacketPTS(ctx, path, "a:0", at)
		if err != nil {
			return types.SyncReport{}, err
		}
		drift := math.Abs(vpts-apts) * 1000
		rep.Joins = append(rep.Joins, types.JoinDrift{AtSec: at, DriftMs: drift})
		if drift > rep.MaxDriftMs {
			rep.MaxDriftMs = drift
		}
	}
	return rep, nil
}

func (a *Adapter) firstPacketPTS(ctx context.Context, path, stream string, atSec float64) (float64, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-select_streams", stream,
		"-read_intervals", fmt.Sprintf("%.3f%%+0.5", atSec),
		"-show_entries", "packet=pts_time",
		"-of", "csv=p=0",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, &faults.ProbeFailed{Path: path, Stderr: string(b), Err: err}
	}
	for _, line := range strings.Split(strings.TrimSpace(string(b)), "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, ","))
		if line == "" || line == "N/A" {
			continue
		}
		pts, err := strconv.ParseFloat(line, 64)
		if err != nil {
			continue
		}
		return pts, nil
	}
	return 0, &faults.ProbeFailed{Path: path, Err: fmt.Errorf("no %s packets near %.3fs", stream, atSec)}
}

func parseFrameRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

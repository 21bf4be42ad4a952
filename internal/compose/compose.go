// Package compose is the render orchestrator: it decides which artifacts
// to produce, drives the external codec engine and prober, and gates every
// result through duration and A/V sync validation. It persists nothing;
// artifact history is the caller's concern.
package compose

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/segcut/segcut/internal/domain/estimate"
	"github.com/segcut/segcut/internal/domain/filtergraph"
	"github.com/segcut/segcut/internal/faults"
	"github.com/segcut/segcut/internal/ports"
	"github.com/segcut/segcut/internal/types"
)

type State string

const (
	StateSingleSegment State = "SINGLE_SEGMENT"
	StateMultiSegment  State = "MULTI_SEGMENT"
)

// Decision is a pure function of (N, transitionsEnabled). A hard-cut
// artifact is always produced; review workflows need the un-smoothed
// baseline even when a transitioned artifact is also rendered.
type Decision struct {
	State        State
	Transitioned bool
}

func Decide(n int, transitionsEnabled bool) Decision {
	if n <= 1 {
		return Decision{State: StateSingleSegment}
	}
	return Decision{State: StateMultiSegment, Transitioned: transitionsEnabled}
}

type Deps struct {
	Codec  ports.CodecEngine
	Prober ports.Prober
}

type Engine struct {
	d   Deps
	log *slog.Logger
}

func New(d Deps, log *slog.Logger) Engine {
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	return Engine{d: d, log: log}
}

type Config struct {
	Encode             types.EncodeOptions
	TransitionsEnabled bool
	Transition         types.TransitionConfig
}

type Input struct {
	SourcePath string
	Segments   []types.KeepSegment
	// BaseOut and TransitionedOut are stable paths: re-running a job
	// overwrites the files while the artifact history grows.
	BaseOut         string
	TransitionedOut string
	Config          Config
}

type Result struct {
	State     State
	Artifacts []types.RenderArtifact
}

// Compose renders the hard-cut artifact and, when eligible, the
// transitioned artifact. Stages run strictly sequentially per artifact:
// compile, encode, probe, validate. Any failure is terminal for this
// attempt and leaves no artifact for the failed output.
func (e Engine) Compose(ctx context.Context, in Input) (Result, error) {
	if len(in.Segments) == 0 {
		return Result{}, &faults.InvalidPlan{Reason: "no keep segments", Index: -1}
	}

	dec := Decide(len(in.Segments), in.Config.TransitionsEnabled)
	res := Result{State: dec.State}
	e.log.Info("compose decision",
		"state", string(dec.State),
		"segments", len(in.Segments),
		"transitioned", dec.Transitioned)

	base, err := e.renderConcat(ctx, in)
	if err != nil {
		return Result{}, err
	}
	res.Artifacts = append(res.Artifacts, base)

	if dec.Transitioned {
		faded, err := e.renderCrossfade(ctx, in)
		if err != nil {
			return Result{}, err
		}
		res.Artifacts = append(res.Artifacts, faded)
	}
	return res, nil
}

func (e Engine) renderConcat(ctx context.Context, in Input) (types.RenderArtifact, error) {
	g, err := filtergraph.CompileConcat(in.Segments)
	if err != nil {
		return types.RenderArtifact{}, err
	}

	report, err := e.renderAndProbe(ctx, in.SourcePath, g, in.Config.Encode, in.BaseOut)
	if err != nil {
		return types.RenderArtifact{}, err
	}

	expected := estimate.Expected(estimate.ModeConcat, in.Segments, in.Config.Transition)
	tol := estimate.Tolerance(estimate.ModeConcat, expected, in.Config.Encode.FrameRate)
	if err := validateDuration(estimate.ModeConcat, expected, report.DurationSec, tol); err != nil {
		return types.RenderArtifact{}, err
	}

	return buildArtifact(in.BaseOut, report, nil), nil
}

func (e Engine) renderCrossfade(ctx context.Context, in Input) (types.RenderArtifact, error) {
	g, err := filtergraph.CompileCrossfade(in.Segments, in.Config.Transition)
	if err != nil {
		return types.RenderArtifact{}, err
	}

	report, err := e.renderAndProbe(ctx, in.SourcePath, g, in.Config.Encode, in.TransitionedOut)
	if err != nil {
		return types.RenderArtifact{}, err
	}

	expected := estimate.Expected(estimate.ModeCrossfade, in.Segments, in.Config.Transition)
	tol := estimate.Tolerance(estimate.ModeCrossfade, expected, in.Config.Encode.FrameRate)
	if err := validateDuration(estimate.ModeCrossfade, expected, report.DurationSec, tol); err != nil {
		return types.RenderArtifact{}, err
	}

	joins := filtergraph.JoinOffsets(in.Segments, in.Config.Transition)
	sync, err := e.d.Prober.MeasureSync(ctx, in.TransitionedOut, joins)
	if err != nil {
		return types.RenderArtifact{}, err
	}
	if err := validateSync(sync); err != nil {
		return types.RenderArtifact{}, err
	}
	e.log.Info("sync check passed", "max_drift_ms", sync.MaxDriftMs, "joins", len(sync.Joins))

	meta := &types.TransitionMeta{
		Type:        "crossfade",
		DurationMs:  in.Config.Transition.DurationMs,
		AudioFadeMs: in.Config.Transition.AudioFadeMs,
	}
	return buildArtifact(in.TransitionedOut, report, meta), nil
}

// renderAndProbe runs the one blocking stage pair. A failed or cancelled
// encode must not leave a partial file behind that could later be mistaken
// for a valid artifact.
func (e Engine) renderAndProbe(ctx context.Context, src string, g types.FilterGraph, opts types.EncodeOptions, outPath string) (types.ProbeReport, error) {
	start := time.Now()
	if err := e.d.Codec.Render(ctx, src, g, opts, outPath); err != nil {
		_ = os.Remove(outPath)
		return types.ProbeReport{}, err
	}
	e.log.Info("encode finished", "output", outPath, "elapsed", time.Since(start).Round(time.Millisecond).String())

	report, err := e.d.Prober.Probe(ctx, outPath)
	if err != nil {
		return types.ProbeReport{}, err
	}
	return report, nil
}

func buildArtifact(outPath string, report types.ProbeReport, meta *types.TransitionMeta) types.RenderArtifact {
	art := types.RenderArtifact{
		OutputLocation: outPath,
		DurationSec:    report.DurationSec,
		Transition:     meta,
		CreatedAt:      time.Now().UTC(),
	}
	if v, ok := report.VideoStream(); ok {
		art.Resolution = fmt.Sprintf("%dx%d", v.Width, v.Height)
		art.FrameRate = v.FrameRate
		art.Codec = v.Codec
	}
	return art
}

// Package pipeline wires the adapters and runs one render job: load the
// cut plan, extract keep segments, compose artifacts, persist history and
// a manifest.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/errgroup"

	"github.com/segcut/segcut/internal/compose"
	"github.com/segcut/segcut/internal/domain/segments"
	"github.com/segcut/segcut/internal/faults"
	"github.com/segcut/segcut/internal/logging"
	"github.com/segcut/segcut/internal/ports"
	"github.com/segcut/segcut/internal/ports/adapters/ffmpeg"
	"github.com/segcut/segcut/internal/ports/adapters/history"
	"github.com/segcut/segcut/internal/types"
)

type Config struct {
	InputMP4 string
	PlanPath string
	OutDir   string

	// HistoryDB is the artifact history database path. If empty, defaults
	// to history.db inside OutDir.
	HistoryDB string

	FFmpegPath  string
	FFprobePath string

	Preset       string
	CRF          int
	FrameRate    int
	// Threads <= 0 means auto-detect from physical CPU count.
	Threads      int
	AudioCodec   string
	AudioBitrate string

	TransitionsEnabled bool
	TransitionMs       int
	AudioFadeMs        int

	Logger *slog.Logger
}

func (c Config) Validate() error {
	if c.InputMP4 == "" {
		return errors.New("input is empty")
	}
	if _, err := os.Stat(c.InputMP4); err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if c.PlanPath == "" {
		return errors.New("cut plan path is required")
	}
	if _, err := os.Stat(c.PlanPath); err != nil {
		return fmt.Errorf("stat plan: %w", err)
	}
	if c.CRF < 0 || c.CRF > 51 {
		return fmt.Errorf("crf must be in [0, 51]")
	}
	if c.FrameRate <= 0 {
		return fmt.Errorf("frame rate must be > 0")
	}
	return nil
}

// Manifest is the per-job render summary written next to the outputs.
type Manifest struct {
	JobID     string                 `json:"job_id"`
	Source    string                 `json:"source"`
	Plan      string                 `json:"plan"`
	State     string                 `json:"state"`
	Artifacts []types.RenderArtifact `json:"artifacts"`
}

func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewLogger("info")
	}
	if err := runJob(ctx, cfg, logger); err != nil {
		logger.Error("render failed", "category", faults.Category(err), "error", err.Error())
		return err
	}
	return nil
}

func runJob(ctx context.Context, cfg Config, logger *slog.Logger) error {
	plan, err := loadPlan(cfg.PlanPath)
	if err != nil {
		return err
	}
	segs, err := segments.Extract(plan)
	if err != nil {
		return err
	}

	jobID := hash(cfg.InputMP4 + "|" + cfg.PlanPath)
	logger = logging.WithJob(logger, jobID)
	logger.Info("job start", "input", cfg.InputMP4, "plan", cfg.PlanPath, "segments", len(segs))

	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	name := normalizePathSegment(strings.TrimSuffix(filepath.Base(cfg.InputMP4), filepath.Ext(cfg.InputMP4)))
	if name == "" {
		name = "input"
	}

	adapter := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath)
	engine := compose.New(compose.Deps{Codec: adapter, Prober: adapter}, logger)

	res, err := engine.Compose(ctx, compose.Input{
		SourcePath:      cfg.InputMP4,
		Segments:        segs,
		BaseOut:         filepath.Join(outDir, name+"-cut.mp4"),
		TransitionedOut: filepath.Join(outDir, name+"-fade.mp4"),
		Config: compose.Config{
			Encode:             cfg.encodeOptions(),
			TransitionsEnabled: cfg.TransitionsEnabled,
			Transition: types.TransitionConfig{
				DurationMs:  cfg.TransitionMs,
				AudioFadeMs: cfg.AudioFadeMs,
			},
		},
	})
	if err != nil {
		return err
	}

	historyDB := cfg.HistoryDB
	if historyDB == "" {
		historyDB = filepath.Join(outDir, "history.db")
	}
	store, err := history.Open(historyDB)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, art := range res.Artifacts {
		recID, err := store.Append(ctx, jobID, art)
		if err != nil {
			return err
		}
		logger.Info("artifact recorded",
			"record_id", recID,
			"output", art.OutputLocation,
			"duration_sec", art.DurationSec,
			"transitioned", art.Transition != nil)
	}

	m := Manifest{
		JobID:     jobID,
		Source:    cfg.InputMP4,
		Plan:      cfg.PlanPath,
		State:     string(res.State),
		Artifacts: res.Artifacts,
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	manifestPath := filepath.Join(outDir, "render.json")
	if err := os.WriteFile(manifestPath, b, 0o644); err != nil {
		return err
	}
	logger.Info("manifest written", "path", manifestPath, "artifacts", len(res.Artifacts))
	return nil
}

// RunBatch renders one job per plan file with at most maxJobs external
// encodes in flight. Each plan gets its own output subdirectory and job
// key, so the single-writer-per-job rule holds.
func RunBatch(ctx context.Context, cfg Config, planPaths []string, maxJobs int) error {
	if maxJobs <= 0 {
		maxJobs = 1
	}
	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxJobs)
	for _, plan := range planPaths {
		jobCfg := cfg
		jobCfg.PlanPath = plan
		jobCfg.OutDir = filepath.Join(outDir, normalizePathSegment(strings.TrimSuffix(filepath.Base(plan), filepath.Ext(plan))))
		g.Go(func() error {
			return Run(ctx, jobCfg)
		})
	}
	return g.Wait()
}

func (c Config) encodeOptions() types.EncodeOptions {
	opts := types.EncodeOptions{
		Preset:       c.Preset,
		CRF:          c.CRF,
		FrameRate:    c.FrameRate,
		Threads:      c.Threads,
		AudioCodec:   c.AudioCodec,
		AudioBitrate: c.AudioBitrate,
	}
	if opts.Threads <= 0 {
		opts.Threads = autoThreads()
	}
	return opts
}

// autoThreads picks the encoder thread count from the physical core
// count, falling back to the documented default.
func autoThreads() int {
	n, err := cpu.Counts(false)
	if err != nil || n <= 0 {
		return types.DefaultEncodeOptions().Threads
	}
	return n
}

func loadPlan(path string) (types.CutPlan, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return types.CutPlan{}, fmt.Errorf("read plan: %w", err)
	}
	var plan types.CutPlan
	if err := json.Unmarshal(b, &plan); err != nil {
		return types.CutPlan{}, fmt.Errorf("parse plan %s: %w", path, err)
	}
	return plan, nil
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.CodecEngine = (*ffmpeg.Adapter)(nil)
var _ ports.Prober = (*ffmpeg.Adapter)(nil)
var _ ports.ArtifactStore = (*history.Store)(nil)

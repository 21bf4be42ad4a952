package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/segcut/segcut/internal/config"
	"github.com/segcut/segcut/internal/logging"
	"github.com/segcut/segcut/internal/pipeline"
)

func run(cmd *cobra.Command, input string) error {
	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	logLevel, _ := cmd.Flags().GetString("log-level")

	cfg := pipeline.Config{
		InputMP4:    absIn,
		FFmpegPath:  getenvDefault("SEGCUT_FFMPEG", "ffmpeg"),
		FFprobePath: getenvDefault("SEGCUT_FFPROBE", "ffprobe"),
		Logger:      logging.NewLogger(logLevel),
	}

	cfg.PlanPath, _ = cmd.Flags().GetString("plan")
	cfg.OutDir, _ = cmd.Flags().GetString("out")
	cfg.HistoryDB, _ = cmd.Flags().GetString("history")
	cfg.Preset, _ = cmd.Flags().GetString("preset")
	cfg.CRF, _ = cmd.Flags().GetInt("crf")
	cfg.FrameRate, _ = cmd.Flags().GetInt("fps")
	cfg.Threads, _ = cmd.Flags().GetInt("threads")
	cfg.AudioCodec, _ = cmd.Flags().GetString("audio-codec")
	cfg.AudioBitrate, _ = cmd.Flags().GetString("audio-bitrate")
	cfg.TransitionsEnabled, _ = cmd.Flags().GetBool("transitions")
	cfg.TransitionMs, _ = cmd.Flags().GetInt("transition-ms")
	cfg.AudioFadeMs, _ = cmd.Flags().GetInt("audio-fade-ms")

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		file, err := config.Load(path)
		if err != nil {
			return err
		}
		applyFileDefaults(cmd, &cfg, file)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Hour)
	defer cancel()

	planDir, _ := cmd.Flags().GetString("plan-dir")
	if planDir != "" {
		plans, err := collectPlans(planDir)
		if err != nil {
			return err
		}
		jobs, _ := cmd.Flags().GetInt("jobs")
		cfg.PlanPath = plans[0] // satisfies Validate; RunBatch overrides per job
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		return pipeline.RunBatch(ctx, cfg, plans, jobs)
	}

	if cfg.PlanPath == "" {
		return errors.New("--plan is required (or use --plan-dir)")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return pipeline.Run(ctx, cfg)
}

// applyFileDefaults fills cfg from the YAML file for every knob the user
// did not set explicitly on the command line.
func applyFileDefaults(cmd *cobra.Command, cfg *pipeline.Config, f config.File) {
	changed := cmd.Flags().Changed
	if !changed("preset") && f.Preset != "" {
		cfg.Preset = f.Preset
	}
	if !changed("crf") && f.CRF != nil {
		cfg.CRF = *f.CRF
	}
	if !changed("fps") && f.FrameRate != nil {
		cfg.FrameRate = *f.FrameRate
	}
	if !changed("threads") && f.Threads != nil {
		cfg.Threads = *f.Threads
	}
	if !changed("audio-codec") && f.AudioCodec != "" {
		cfg.AudioCodec = f.AudioCodec
	}
	if !changed("audio-bitrate") && f.AudioBitrate != "" {
		cfg.AudioBitrate = f.AudioBitrate
	}
	if !changed("transitions") && f.Transitions != nil {
		cfg.TransitionsEnabled = *f.Transitions
	}
	if !changed("transition-ms") && f.TransitionMs != nil {
		cfg.TransitionMs = *f.TransitionMs
	}
	if !changed("audio-fade-ms") && f.AudioFadeMs != nil {
		cfg.AudioFadeMs = *f.AudioFadeMs
	}
	if !changed("history") && f.HistoryDB != "" {
		cfg.HistoryDB = f.HistoryDB
	}
}

func collectPlans(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var plans []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		plans = append(plans, filepath.Join(dir, e.Name()))
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("no plan files in %s", dir)
	}
	sort.Strings(plans)
	return plans, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

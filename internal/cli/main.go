package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "segcut <input.mp4>",
		Short:        "Render an edited video from a cut plan, with optional crossfade transitions",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	// Visible flags
	root.Flags().String("plan", "", "Cut plan JSON file (required unless --plan-dir is set)")
	root.Flags().String("plan-dir", "", "Directory of cut plan JSON files; renders one job per plan")
	root.Flags().String("out", "out", "Output directory")
	root.Flags().Bool("transitions", false, "Also render a crossfaded artifact")
	root.Flags().Int("transition-ms", 300, "Crossfade duration in milliseconds")
	root.Flags().Int("audio-fade-ms", 300, "Audio crossfade duration in milliseconds")
	root.Flags().String("config", "", "YAML file with render defaults")

	// Encode tuning
	root.Flags().String("preset", "fast", "x264 preset")
	root.Flags().Int("crf", 20, "x264 CRF")
	root.Flags().Int("fps", 30, "Output frame rate")
	root.Flags().Int("threads", 2, "Encoder threads (0 = auto-detect)")
	root.Flags().Int("jobs", 2, "Concurrent jobs in --plan-dir mode")
	root.Flags().String("log-level", "info", "Log level: debug, info, warn, error")

	// Hidden tuning flags (internal)
	root.Flags().String("audio-codec", "aac", "Audio codec")
	root.Flags().String("audio-bitrate", "192k", "Audio bitrate")
	root.Flags().String("history", "", "Artifact history database path")
	_ = root.Flags().MarkHidden("audio-codec")
	_ = root.Flags().MarkHidden("audio-bitrate")
	_ = root.Flags().MarkHidden("history")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Package config loads optional render defaults from a YAML file. Values
// set explicitly on the command line always win over file values.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File mirrors the YAML render-defaults document. Pointer fields
// distinguish "unset" from zero values.
type File struct {
	Preset       string `yaml:"preset"`
	CRF          *int   `yaml:"crf"`
	FrameRate    *int   `yaml:"frame_rate"`
	Threads      *int   `yaml:"threads"`
	AudioCodec   string `yaml:"audio_codec"`
	AudioBitrate string `yaml:"audio_bitrate"`
	Transitions  *bool  `yaml:"transitions"`
	TransitionMs *int   `yaml:"transition_ms"`
	AudioFadeMs  *int   `yaml:"audio_fade_ms"`
	HistoryDB    string `yaml:"history_db"`
}

func Load(path string) (File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return File{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return f, nil
}

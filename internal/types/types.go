package types

import (
	"strings"
	"time"
)

// CutPlan is the external, schema-versioned cut decision list. It is
// produced and schema-validated by the planner; the engine re-checks the
// keep/cut invariants before using it.
type CutPlan struct {
	SchemaVersion string `json:"schema_version"`
	Source        string `json:"source,omitempty"`
	Cuts          []Cut  `json:"cuts"`
}

type Cut struct {
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Type       string   `json:"type"` // "keep" or "cut"
	Reason     string   `json:"reason,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// KeepSegment is a contiguous source-time range that must appear in the
// output. The ordered sequence of keep segments is immutable for the
// duration of one render.
type KeepSegment struct {
	Start time.Duration
	End   time.Duration
}

func (s KeepSegment) Duration() time.Duration { return s.End - s.Start }

// TransitionConfig applies uniformly to every join; per-join durations are
// not supported.
type TransitionConfig struct {
	DurationMs  int
	AudioFadeMs int
}

type EncodeOptions struct {
	Preset       string
	CRF          int
	FrameRate    int
	Threads      int
	AudioCodec   string
	AudioBitrate string
}

func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		Preset:       "fast",
		CRF:          20,
		FrameRate:    30,
		Threads:      2,
		AudioCodec:   "aac",
		AudioBitrate: "192k",
	}
}

// FilterGraph is a compiled filter script for the codec engine: an ordered
// list of operation nodes plus the two final output labels. It is a value
// with no behavior beyond serialization.
type FilterGraph struct {
	Nodes    []string
	VideoOut string
	AudioOut string
}

// Script renders the graph in -filter_complex grammar.
func (g FilterGraph) Script() string {
	return strings.Join(g.Nodes, ";")
}

type StreamInfo struct {
	Type      string
	Width     int
	Height    int
	FrameRate float64
	Codec     string
}

type ProbeReport struct {
	DurationSec float64
	Streams     []StreamInfo
}

// VideoStream returns the first video stream, if any.
func (r ProbeReport) VideoStream() (StreamInfo, bool) {
	for _, s := range r.Streams {
		if s.Type == "video" {
			return s, true
		}
	}
	return StreamInfo{}, false
}

// JoinDrift is the measured A/V divergence at one join boundary of the
// rendered output.
type JoinDrift struct {
	AtSec   float64 `json:"at_sec"`
	DriftMs float64 `json:"drift_ms"`
}

type SyncReport struct {
	Joins      []JoinDrift `json:"joins"`
	MaxDriftMs float64     `json:"max_drift_ms"`
}

type TransitionMeta struct {
	Type        string `json:"type"`
	DurationMs  int    `json:"duration_ms"`
	AudioFadeMs int    `json:"audio_fade_ms"`
}

// RenderArtifact describes one successfully rendered and validated output.
// Artifacts are appended to a job's history, never overwritten.
type RenderArtifact struct {
	OutputLocation string          `json:"output_location"`
	DurationSec    float64         `json:"duration_sec"`
	Resolution     string          `json:"resolution"`
	FrameRate      float64         `json:"frame_rate"`
	Codec          string          `json:"codec"`
	Transition     *TransitionMeta `json:"transition,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

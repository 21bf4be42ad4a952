// Package estimate computes the analytically expected output duration for
// a keep-range set and the tolerance the rendered result must meet.
package estimate

import (
	"time"

	"github.com/segcut/segcut/internal/types"
)

type Mode string

const (
	ModeConcat    Mode = "concat"
	ModeCrossfade Mode = "crossfade"
)

// Expected returns the mathematically expected output duration. Hard cuts
// sum the segment durations; each crossfade join overlaps two segments by
// the fade duration and removes it from the total.
func Expected(mode Mode, segs []types.KeepSegment, tc types.TransitionConfig) time.Duration {
	var total time.Duration
	for _, s := range segs {
		total += s.Duration()
	}
	if mode == ModeCrossfade && len(segs) > 1 {
		joins := time.Duration(len(segs) - 1)
		total -= joins * time.Duration(tc.DurationMs) * time.Millisecond
	}
	return total
}

// Tolerance returns the acceptable |actual - expected| for a mode. Hard
// cuts must land within one frame period. Crossfade compositing introduces
// encoder-dependent timing jitter, so its window widens to
// max(frame period, 2% of expected, 5s).
func Tolerance(mode Mode, expected time.Duration, fps int) time.Duration {
	framePeriod := time.Second / time.Duration(fps)
	if mode != ModeCrossfade {
		return framePeriod
	}
	tol := framePeriod
	if pct := expected / 50; pct > tol {
		tol = pct
	}
	if 5*time.Second > tol {
		tol = 5 * time.Second
	}
	return tol
}

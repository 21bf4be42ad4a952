package estimate

import (
	"testing"
	"time"

	"github.com/segcut/segcut/internal/types"
)

func TestExpected_Concat(t *testing.T) {
	segs := []types.KeepSegment{
		{Start: 0, End: 10 * time.Second},
		{Start: 15 * time.Second, End: 25 * time.Second},
	}
	if got := Expected(ModeConcat, segs, types.TransitionConfig{}); got != 20*time.Second {
		t.Fatalf("expected 20s, got %v", got)
	}
}

func TestExpected_CrossfadeSubtractsJoinOverlap(t *testing.T) {
	// [(0,10),(15,25)] with a 500ms fade: 10+10-0.5 = 19.5s.
	segs := []types.KeepSegment{
		{Start: 0, End: 10 * time.Second},
		{Start: 15 * time.Second, End: 25 * time.Second},
	}
	tc := types.TransitionConfig{DurationMs: 500, AudioFadeMs: 500}
	want := 19*time.Second + 500*time.Millisecond
	if got := Expected(ModeCrossfade, segs, tc); got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestTolerance_ConcatIsOneFramePeriod(t *testing.T) {
	if got := Tolerance(ModeConcat, time.Hour, 30); got != time.Second/30 {
		t.Fatalf("expected one frame period, got %v", got)
	}
	if got := Tolerance(ModeConcat, time.Second, 25); got != 40*time.Millisecond {
		t.Fatalf("expected 40ms, got %v", got)
	}
}

func TestTolerance_CrossfadeTakesWidestBound(t *testing.T) {
	cases := []struct {
		name     string
		expected time.Duration
		fps      int
		want     time.Duration
	}{
		// 19.5s output at 30fps: 1/30 ~= 33ms, 2% = 390ms, 5s dominates.
		{name: "five seconds dominates", expected: 19*time.Second + 500*time.Millisecond, fps: 30, want: 5 * time.Second},
		// 10 minutes: 2% = 12s beats the 5s floor.
		{name: "percentage dominates", expected: 10 * time.Minute, fps: 30, want: 12 * time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Tolerance(ModeCrossfade, tc.expected, tc.fps); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

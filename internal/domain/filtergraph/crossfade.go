package filtergraph

import (
	"errors"
	"fmt"
	"time"

	"github.com/segcut/segcut/internal/faults"
	"github.com/segcut/segcut/internal/types"
)

// MaxTransitionMs bounds the uniform transition duration. A transition
// longer than a typical segment would consume more runtime than it has
// source material and is almost certainly a configuration mistake.
const MaxTransitionMs = 5000

// ErrSingleSegment is returned when crossfade compilation is invoked with
// fewer than two segments. A single segment has no join and must be
// rendered through concatenation instead.
var ErrSingleSegment = errors.New("filtergraph: crossfade requires at least two segments")

// CompileCrossfade builds the transitioned graph: the same per-segment
// trims as concatenation, followed by the pairwise fold of N streams into
// one through N-1 crossfade joins.
func CompileCrossfade(segs []types.KeepSegment, tc types.TransitionConfig) (types.FilterGraph, error) {
	if err := validateTransition(tc); err != nil {
		return types.FilterGraph{}, err
	}
	if len(segs) < 2 {
		return types.FilterGraph{}, ErrSingleSegment
	}

	nodes, vids, auds := trimNodes(segs)
	fold := foldCrossfades(segs, tc, vids, auds)
	nodes = append(nodes, fold.nodes...)

	return types.FilterGraph{Nodes: nodes, VideoOut: fold.videoOut, AudioOut: fold.audioOut}, nil
}

// JoinOffsets returns, for each join, the output-timeline time at which
// the crossfade into the next segment begins. Used by the orchestrator to
// pick A/V sync sampling points.
func JoinOffsets(segs []types.KeepSegment, tc types.TransitionConfig) []time.Duration {
	fadeDur := time.Duration(tc.DurationMs) * time.Millisecond
	offsets := make([]time.Duration, 0, len(segs)-1)
	offset := segs[0].Duration()
	for _, s := range segs[1:] {
		offsets = append(offsets, offset-fadeDur)
		offset += s.Duration() - fadeDur
	}
	return offsets
}

func validateTransition(tc types.TransitionConfig) error {
	if tc.DurationMs <= 0 || tc.DurationMs > MaxTransitionMs {
		return &faults.InvalidDuration{DurationMs: tc.DurationMs}
	}
	if tc.AudioFadeMs <= 0 {
		return &faults.InvalidDuration{DurationMs: tc.AudioFadeMs}
	}
	return nil
}

type foldResult struct {
	nodes    []string
	videoOut string
	audioOut string
	// timeline is the final emitted output length:
	// sum(segment durations) - (N-1)*fade duration.
	timeline time.Duration
}

// foldCrossfades reduces N trimmed streams to one output pair through N-1
// pairwise joins. Each fold consumes the previous fold's output as its
// first input, so the fade offset is tracked against the cumulative
// emitted timeline, not the source timeline.
func foldCrossfades(segs []types.KeepSegment, tc types.TransitionConfig, vids, auds []string) foldResult {
	fadeDur := time.Duration(tc.DurationMs) * time.Millisecond
	audioFade := time.Duration(tc.AudioFadeMs) * time.Millisecond

	res := foldResult{
		videoOut: vids[0],
		audioOut: auds[0],
		timeline: segs[0].Duration(),
	}
	for i := 1; i < len(segs); i++ {
		fadeOffset := res.timeline - fadeDur

		v := fmt.Sprintf("[vx%d]", i)
		a := fmt.Sprintf("[ax%d]", i)
		res.nodes = append(res.nodes,
			fmt.Sprintf("%s%sxfade=transition=fade:duration=%s:offset=%s%s",
				res.videoOut, vids[i], fmtSeconds(fadeDur), fmtSeconds(fadeOffset), v),
			fmt.Sprintf("%s%sacrossfade=d=%s%s",
				res.audioOut, auds[i], fmtSeconds(audioFade), a),
		)
		res.videoOut = v
		res.audioOut = a

		// Each join overlaps the streams by the fade duration, shortening
		// the emitted timeline by the same amount.
		res.timeline += segs[i].Duration() - fadeDur
	}
	return res
}

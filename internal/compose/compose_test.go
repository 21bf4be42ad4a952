package compose

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/segcut/segcut/internal/faults"
	"github.com/segcut/segcut/internal/types"
)

type fakeCodec struct {
	graphs   []types.FilterGraph
	outPaths []string
	failOn   string // outPath that should fail after writing a partial file
}

func (f *fakeCodec) Render(_ context.Context, _ string, g types.FilterGraph, _ types.EncodeOptions, outPath string) error {
	f.graphs = append(f.graphs, g)
	f.outPaths = append(f.outPaths, outPath)
	if err := os.WriteFile(outPath, []byte("partial"), 0o644); err != nil {
		return err
	}
	if outPath == f.failOn {
		return &faults.CodecExecutionFailed{Stderr: "boom", Err: errors.New("exit status 1")}
	}
	return nil
}

type fakeProber struct {
	durations  map[string]float64
	maxDriftMs float64
	syncCalls  [][]time.Duration
}

func (f *fakeProber) Probe(_ context.Context, path string) (types.ProbeReport, error) {
	return types.ProbeReport{
		DurationSec: f.durations[path],
		Streams: []types.StreamInfo{
			{Type: "video", Width: 1920, Height: 1080, FrameRate: 30, Codec: "h264"},
			{Type: "audio", Codec: "aac"},
		},
	}, nil
}

func (f *fakeProber) MeasureSync(_ context.Context, _ string, joins []time.Duration) (types.SyncReport, error) {
	f.syncCalls = append(f.syncCalls, joins)
	rep := types.SyncReport{MaxDriftMs: f.maxDriftMs}
	for _, j := range joins {
		rep.Joins = append(rep.Joins, types.JoinDrift{AtSec: j.Seconds(), DriftMs: f.maxDriftMs})
	}
	return rep, nil
}

func testInput(t *testing.T, segs []types.KeepSegment, transitions bool) Input {
	t.Helper()
	tmp := t.TempDir()
	cfg := Config{
		Encode:             types.DefaultEncodeOptions(),
		TransitionsEnabled: transitions,
		Transition:         types.TransitionConfig{DurationMs: 500, AudioFadeMs: 500},
	}
	return Input{
		SourcePath:      filepath.Join(tmp, "in.mp4"),
		Segments:        segs,
		BaseOut:         filepath.Join(tmp, "out-cut.mp4"),
		TransitionedOut: filepath.Join(tmp, "out-fade.mp4"),
		Config:          cfg,
	}
}

func twoSegments() []types.KeepSegment {
	return []types.KeepSegment{
		{Start: 0, End: 10 * time.Second},
		{Start: 15 * time.Second, End: 25 * time.Second},
	}
}

func TestDecide(t *testing.T) {
	cases := []struct {
		n       int
		enabled bool
		state   State
		faded   bool
	}{
		{n: 1, enabled: true, state: StateSingleSegment, faded: false},
		{n: 1, enabled: false, state: StateSingleSegment, faded: false},
		{n: 2, enabled: true, state: StateMultiSegment, faded: true},
		{n: 2, enabled: false, state: StateMultiSegment, faded: false},
		{n: 7, enabled: true, state: StateMultiSegment, faded: true},
	}
	for _, tc := range cases {
		d := Decide(tc.n, tc.enabled)
		if d.State != tc.state || d.Transitioned != tc.faded {
			t.Fatalf("Decide(%d, %v) = %+v", tc.n, tc.enabled, d)
		}
	}
}

func TestCompose_SingleSegmentNeverTransitions(t *testing.T) {
	codec := &fakeCodec{}
	in := testInput(t, []types.KeepSegment{{Start: 0, End: 5 * time.Second}}, true)
	prober := &fakeProber{durations: map[string]float64{in.BaseOut: 5.0}}

	res, err := New(Deps{Codec: codec, Prober: prober}, nil).Compose(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if res.State != StateSingleSegment {
		t.Fatalf("expected SINGLE_SEGMENT, got %s", res.State)
	}
	if len(res.Artifacts) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(res.Artifacts))
	}
	if res.Artifacts[0].Transition != nil {
		t.Fatalf("single segment artifact must carry no transition metadata")
	}
	if len(codec.graphs) != 1 {
		t.Fatalf("expected 1 render, got %d", len(codec.graphs))
	}
}

func TestCompose_MultiSegmentWithTransitionsProducesBoth(t *testing.T) {
	codec := &fakeCodec{}
	in := testInput(t, twoSegments(), true)
	prober := &fakeProber{durations: map[string]float64{
		in.BaseOut:         20.0,
		in.TransitionedOut: 19.5,
	}}

	res, err := New(Deps{Codec: codec, Prober: prober}, nil).Compose(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Artifacts) != 2 {
		t.Fatalf("expected base + transitioned artifacts, got %d", len(res.Artifacts))
	}
	if res.Artifacts[0].Transition != nil {
		t.Fatalf("base artifact must stay un-smoothed")
	}
	meta := res.Artifacts[1].Transition
	if meta == nil || meta.Type != "crossfade" || meta.DurationMs != 500 || meta.AudioFadeMs != 500 {
		t.Fatalf("unexpected transition metadata: %+v", meta)
	}
	if res.Artifacts[0].Resolution != "1920x1080" || res.Artifacts[0].Codec != "h264" {
		t.Fatalf("artifact should carry probed stream info: %+v", res.Artifacts[0])
	}
	if len(prober.syncCalls) != 1 || len(prober.syncCalls[0]) != 1 {
		t.Fatalf("expected sync sampling at the single join, got %+v", prober.syncCalls)
	}
}

func TestCompose_MultiSegmentWithoutTransitions(t *testing.T) {
	codec := &fakeCodec{}
	in := testInput(t, twoSegments(), false)
	prober := &fakeProber{durations: map[string]float64{in.BaseOut: 20.0}}

	res, err := New(Deps{Codec: codec, Prober: prober}, nil).Compose(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Artifacts) != 1 {
		t.Fatalf("expected hard-cut artifact only, got %d", len(res.Artifacts))
	}
}

func TestCompose_DeterministicGraphs(t *testing.T) {
	in := testInput(t, twoSegments(), true)
	run := func() []types.FilterGraph {
		codec := &fakeCodec{}
		prober := &fakeProber{durations: map[string]float64{
			in.BaseOut:         20.0,
			in.TransitionedOut: 19.5,
		}}
		if _, err := New(Deps{Codec: codec, Prober: prober}, nil).Compose(context.Background(), in); err != nil {
			t.Fatal(err)
		}
		return codec.graphs
	}
	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("render counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Script() != b[i].Script() {
			t.Fatalf("graph %d differs between identical compose calls:\n%s\n%s", i, a[i].Script(), b[i].Script())
		}
	}
}

func TestCompose_DurationMismatchFailsWithoutArtifact(t *testing.T) {
	codec := &fakeCodec{}
	in := testInput(t, twoSegments(), false)
	// One frame period at 30fps is ~33ms; half a second off must fail.
	prober := &fakeProber{durations: map[string]float64{in.BaseOut: 20.5}}

	res, err := New(Deps{Codec: codec, Prober: prober}, nil).Compose(context.Background(), in)
	var dm *faults.DurationMismatch
	if !errors.As(err, &dm) {
		t.Fatalf("expected DurationMismatch, got %v", err)
	}
	if dm.Mode != "concat" || dm.ExpectedSec != 20.0 || dm.ActualSec != 20.5 {
		t.Fatalf("unexpected payload: %+v", dm)
	}
	if len(res.Artifacts) != 0 {
		t.Fatalf("failed render must leave no artifacts")
	}
}

func TestCompose_CrossfadeToleranceIsWider(t *testing.T) {
	codec := &fakeCodec{}
	in := testInput(t, twoSegments(), true)
	// Expected 19.5s with a 5s window: 24.4 passes even though the base
	// render must still match 20s within a frame.
	prober := &fakeProber{durations: map[string]float64{
		in.BaseOut:         20.0,
		in.TransitionedOut: 24.4,
	}}

	if _, err := New(Deps{Codec: codec, Prober: prober}, nil).Compose(context.Background(), in); err != nil {
		t.Fatal(err)
	}

	prober.durations[in.TransitionedOut] = 24.6
	_, err := New(Deps{Codec: codec, Prober: prober}, nil).Compose(context.Background(), in)
	var dm *faults.DurationMismatch
	if !errors.As(err, &dm) {
		t.Fatalf("expected DurationMismatch at 24.6s, got %v", err)
	}
}

func TestCompose_SyncDriftBudgetIsInclusive(t *testing.T) {
	in := testInput(t, twoSegments(), true)
	durations := map[string]float64{in.BaseOut: 20.0, in.TransitionedOut: 19.5}

	ok := &fakeProber{durations: durations, maxDriftMs: 50}
	if _, err := New(Deps{Codec: &fakeCodec{}, Prober: ok}, nil).Compose(context.Background(), in); err != nil {
		t.Fatalf("50ms drift must pass: %v", err)
	}

	over := &fakeProber{durations: durations, maxDriftMs: 51}
	_, err := New(Deps{Codec: &fakeCodec{}, Prober: over}, nil).Compose(context.Background(), in)
	var sd *faults.SyncDriftExceeded
	if !errors.As(err, &sd) {
		t.Fatalf("51ms drift must fail, got %v", err)
	}
	if sd.BudgetMs != 50 || len(sd.Joins) != 1 {
		t.Fatalf("unexpected payload: %+v", sd)
	}
}

func TestCompose_FailedEncodeRemovesPartialOutput(t *testing.T) {
	in := testInput(t, twoSegments(), false)
	codec := &fakeCodec{failOn: in.BaseOut}
	prober := &fakeProber{durations: map[string]float64{in.BaseOut: 20.0}}

	_, err := New(Deps{Codec: codec, Prober: prober}, nil).Compose(context.Background(), in)
	var ce *faults.CodecExecutionFailed
	if !errors.As(err, &ce) {
		t.Fatalf("expected CodecExecutionFailed, got %v", err)
	}
	if _, statErr := os.Stat(in.BaseOut); !os.IsNotExist(statErr) {
		t.Fatalf("partial output must be removed, stat err=%v", statErr)
	}
}

func TestCompose_InvalidTransitionDuration(t *testing.T) {
	in := testInput(t, twoSegments(), true)
	in.Config.Transition.DurationMs = 6000
	prober := &fakeProber{durations: map[string]float64{in.BaseOut: 20.0}}

	_, err := New(Deps{Codec: &fakeCodec{}, Prober: prober}, nil).Compose(context.Background(), in)
	var id *faults.InvalidDuration
	if !errors.As(err, &id) {
		t.Fatalf("expected InvalidDuration, got %v", err)
	}
}

func TestCompose_EmptySegments(t *testing.T) {
	in := testInput(t, nil, false)
	_, err := New(Deps{Codec: &fakeCodec{}, Prober: &fakeProber{}}, nil).Compose(context.Background(), in)
	var ip *faults.InvalidPlan
	if !errors.As(err, &ip) {
		t.Fatalf("expected InvalidPlan, got %v", err)
	}
}

package ports

import (
	"context"
	"time"

	"github.com/segcut/segcut/internal/types"
)

// CodecEngine runs the external encoder over a compiled filter graph. It
// is long-running and must honor ctx cancellation.
type CodecEngine interface {
	Render(ctx context.Context, inPath string, graph types.FilterGraph, opts types.EncodeOptions, outPath string) error
}

// Prober inspects rendered media. MeasureSync samples audio/video
// divergence around each join boundary of the output timeline.
type Prober interface {
	Probe(ctx context.Context, path string) (types.ProbeReport, error)
	MeasureSync(ctx context.Context, path string, joins []time.Duration) (types.SyncReport, error)
}

// ArtifactStore keeps the append-only artifact history per job key.
// Concurrent writers to the same job key are the caller's problem to
// prevent; re-running a job appends a new record, never mutates history.
type ArtifactStore interface {
	Append(ctx context.Context, jobID string, art types.RenderArtifact) (string, error)
	History(ctx context.Context, jobID string) ([]types.RenderArtifact, error)
	Close() error
}

// Package faults defines the typed error taxonomy of the composition
// engine. Every failure is terminal for the current render attempt; the
// caller decides whether to retry the whole compose call.
package faults

import (
	"errors"
	"fmt"

	"github.com/segcut/segcut/internal/types"
)

// InvalidPlan reports an empty or corrupt keep list. Index is the position
// of the offending cut entry, or -1 when the plan as a whole is unusable.
type InvalidPlan struct {
	Reason string
	Index  int
}

func (e *InvalidPlan) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid plan: %s", e.Reason)
	}
	return fmt.Sprintf("invalid plan: cut %d: %s", e.Index, e.Reason)
}

// InvalidDuration reports a transition duration outside (0, 5000] ms.
type InvalidDuration struct {
	DurationMs int
}

func (e *InvalidDuration) Error() string {
	return fmt.Sprintf("invalid transition duration %dms: must be in (0, 5000]", e.DurationMs)
}

// CodecExecutionFailed reports an external encode process error with its
// captured output.
type CodecExecutionFailed struct {
	Stderr string
	Err    error
}

func (e *CodecExecutionFailed) Error() string {
	return fmt.Sprintf("codec execution failed: %v\n%s", e.Err, e.Stderr)
}

func (e *CodecExecutionFailed) Unwrap() error { return e.Err }

// ProbeFailed reports an external media inspection error.
type ProbeFailed struct {
	Path   string
	Stderr string
	Err    error
}

func (e *ProbeFailed) Error() string {
	return fmt.Sprintf("probe %s failed: %v\n%s", e.Path, e.Err, e.Stderr)
}

func (e *ProbeFailed) Unwrap() error { return e.Err }

// DurationMismatch reports a rendered duration outside the mode-specific
// tolerance around the analytic estimate.
type DurationMismatch struct {
	Mode         string
	ExpectedSec  float64
	ActualSec    float64
	DiffSec      float64
	ToleranceSec float64
}

func (e *DurationMismatch) Error() string {
	return fmt.Sprintf("duration mismatch (%s): expected %.3fs, got %.3fs (diff %.3fs > tolerance %.3fs)",
		e.Mode, e.ExpectedSec, e.ActualSec, e.DiffSec, e.ToleranceSec)
}

// SyncDriftExceeded reports audio/video drift over the fixed budget. The
// per-join measurements are carried for diagnosis.
type SyncDriftExceeded struct {
	MaxDriftMs float64
	BudgetMs   float64
	Joins      []types.JoinDrift
}

func (e *SyncDriftExceeded) Error() string {
	return fmt.Sprintf("a/v sync drift %.1fms exceeds budget %.1fms across %d joins",
		e.MaxDriftMs, e.BudgetMs, len(e.Joins))
}

// Category buckets an error for diagnostics: "configuration" means fix
// the plan or config, "execution" means retry or escalate, and
// "quality_gate" points at source material or encoder behavior rather
// than a logic bug.
func Category(err error) string {
	var (
		ip *InvalidPlan
		id *InvalidDuration
		ce *CodecExecutionFailed
		pe *ProbeFailed
		dm *DurationMismatch
		sd *SyncDriftExceeded
	)
	switch {
	case errors.As(err, &ip), errors.As(err, &id):
		return "configuration"
	case errors.As(err, &ce), errors.As(err, &pe):
		return "execution"
	case errors.As(err, &dm), errors.As(err, &sd):
		return "quality_gate"
	}
	return "unknown"
}

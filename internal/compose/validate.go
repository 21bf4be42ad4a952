package compose

import (
	"math"
	"time"

	"github.com/segcut/segcut/internal/domain/estimate"
	"github.com/segcut/segcut/internal/faults"
	"github.com/segcut/segcut/internal/types"
)

// driftBudgetMs is a hard ceiling, boundary inclusive. Downstream
// consumers treat "render succeeded" as "the artifact is watchable", so a
// render over budget must never be reported as successful.
const driftBudgetMs = 50

func validateDuration(mode estimate.Mode, expected time.Duration, actualSec float64, tolerance time.Duration) error {
	expectedSec := expected.Seconds()
	diff := math.Abs(actualSec - expectedSec)
	if diff > tolerance.Seconds() {
		return &faults.DurationMismatch{
			Mode:         string(mode),
			ExpectedSec:  expectedSec,
			ActualSec:    actualSec,
			DiffSec:      diff,
			ToleranceSec: tolerance.Seconds(),
		}
	}
	return nil
}

func validateSync(rep types.SyncReport) error {
	if rep.MaxDriftMs > driftBudgetMs {
		return &faults.SyncDriftExceeded{
			MaxDriftMs: rep.MaxDriftMs,
			BudgetMs:   driftBudgetMs,
			Joins:      rep.Joins,
		}
	}
	return nil
}

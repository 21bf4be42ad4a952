// Package segments turns a validated cut plan into the ordered keep-range
// sequence consumed by graph compilation.
package segments

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/segcut/segcut/internal/faults"
	"github.com/segcut/segcut/internal/types"
)

// Extract filters the plan to keep entries and parses their timestamps.
// The planner owns repairing overlaps and gaps; this only rejects
// corruption it cannot safely interpret, failing on the first violation.
func Extract(plan types.CutPlan) ([]types.KeepSegment, error) {
	var out []types.KeepSegment
	for i, c := range plan.Cuts {
		if c.Type != "keep" {
			continue
		}
		start, err := parseSeconds(c.Start)
		if err != nil {
			return nil, &faults.InvalidPlan{Reason: fmt.Sprintf("bad start %q", c.Start), Index: i}
		}
		end, err := parseSeconds(c.End)
		if err != nil {
			return nil, &faults.InvalidPlan{Reason: fmt.Sprintf("bad end %q", c.End), Index: i}
		}
		if end <= start {
			return nil, &faults.InvalidPlan{Reason: fmt.Sprintf("end %s <= start %s", c.End, c.Start), Index: i}
		}
		if n := len(out); n > 0 {
			prev := out[n-1]
			if start < prev.Start {
				return nil, &faults.InvalidPlan{Reason: "keep segments out of order", Index: i}
			}
			if start < prev.End {
				return nil, &faults.InvalidPlan{Reason: "keep segments overlap", Index: i}
			}
		}
		out = append(out, types.KeepSegment{Start: start, End: end})
	}
	if len(out) == 0 {
		return nil, &faults.InvalidPlan{Reason: "no keep segments", Index: -1}
	}
	return out, nil
}

// parseSeconds reads a decimal-seconds string and rounds to whole
// milliseconds so later arithmetic stays in fixed precision.
func parseSeconds(s string) (time.Duration, error) {
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if sec < 0 || math.IsInf(sec, 0) || math.IsNaN(sec) {
		return 0, fmt.Errorf("out of range: %s", s)
	}
	return time.Duration(math.Round(sec*1000)) * time.Millisecond, nil
}

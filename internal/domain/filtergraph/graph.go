// Package filtergraph compiles keep-segment sequences into filter scripts
// for the external codec engine. Two interchangeable compilers exist over
// the same input: hard-cut concatenation and crossfaded joins.
//
// Times are carried as time.Duration throughout and only formatted to the
// codec tool's decimal-seconds grammar at node-emission time, so no float
// drift accumulates across the crossfade fold.
package filtergraph

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/segcut/segcut/internal/types"
)

var errNoSegments = errors.New("filtergraph: no segments")

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

// trimNodes emits one video trim and one matching audio trim per segment,
// each reset to a zero-based local timestamp. Concatenation and crossfade
// both assume every input starts at time zero.
//
// The last segment is trimmed by duration rather than end timestamp, so an
// exclusive-end trim cannot clip the final frame.
func trimNodes(segs []types.KeepSegment) (nodes []string, videoLabels, audioLabels []string) {
	for i, s := range segs {
		v := fmt.Sprintf("[v%d]", i)
		a := fmt.Sprintf("[a%d]", i)
		last := i == len(segs)-1
		if last {
			nodes = append(nodes,
				fmt.Sprintf("[0:v]trim=start=%s:duration=%s,setpts=PTS-STARTPTS%s", fmtSeconds(s.Start), fmtSeconds(s.Duration()), v),
				fmt.Sprintf("[0:a]atrim=start=%s:duration=%s,asetpts=PTS-STARTPTS%s", fmtSeconds(s.Start), fmtSeconds(s.Duration()), a),
			)
		} else {
			nodes = append(nodes,
				fmt.Sprintf("[0:v]trim=start=%s:end=%s,setpts=PTS-STARTPTS%s", fmtSeconds(s.Start), fmtSeconds(s.End), v),
				fmt.Sprintf("[0:a]atrim=start=%s:end=%s,asetpts=PTS-STARTPTS%s", fmtSeconds(s.Start), fmtSeconds(s.End), a),
			)
		}
		videoLabels = append(videoLabels, v)
		audioLabels = append(audioLabels, a)
	}
	return nodes, videoLabels, audioLabels
}

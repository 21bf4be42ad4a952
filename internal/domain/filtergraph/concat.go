package filtergraph

import (
	"fmt"

	"github.com/segcut/segcut/internal/types"
)

// CompileConcat builds the hard-cut graph: per-segment trims followed by
// one N-way concat of the video streams and one of the audio streams.
// N=1 needs no special handling; concatenation of one stream is itself.
func CompileConcat(segs []types.KeepSegment) (types.FilterGraph, error) {
	if len(segs) == 0 {
		return types.FilterGraph{}, errNoSegments
	}

	nodes, vids, auds := trimNodes(segs)

	inputs := ""
	for i := range segs {
		inputs += vids[i] + auds[i]
	}
	nodes = append(nodes, fmt.Sprintf("%sconcat=n=%d:v=1:a=1[outv][outa]", inputs, len(segs)))

	return types.FilterGraph{Nodes: nodes, VideoOut: "[outv]", AudioOut: "[outa]"}, nil
}

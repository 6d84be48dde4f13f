// Package rank derives the identifiers a worker task needs to join its
// communication group from its position in the job layout.
package rank

import "github.com/vk/torchrun-prelaunch/internal/layout"

// Set holds the rank identifiers of one task. It is computed once at spawn
// time and never changed.
type Set struct {
	GlobalRank     uint32
	WorldSize      uint32
	LocalRank      uint32
	GroupRank      uint32
	LocalWorldSize uint32
}

// Derive computes the rank set for the task at (nodeIndex, localIndex).
//
// Out-of-range indices are a caller bug and panic. The node count is not part
// of the result: on homogeneous layouts it is WorldSize / LocalWorldSize.
func Derive(v *layout.View, nodeIndex, localIndex int) Set {
	global := v.GlobalRank(nodeIndex, localIndex)
	return Set{
		GlobalRank:     global,
		WorldSize:      v.WorldSize(),
		LocalRank:      uint32(localIndex),
		GroupRank:      uint32(nodeIndex),
		LocalWorldSize: uint32(v.TaskCount(nodeIndex)),
	}
}

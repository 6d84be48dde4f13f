// Package layout describes the static placement of worker tasks onto the
// nodes of one job step.
//
// A View is produced once by whatever computed the job layout and is
// read-only afterwards. Global ranks across all nodes must form a contiguous
// permutation of [0, world_size).
package layout

package layout

import (
	"errors"
	"fmt"
)

// ErrLayoutInvariantViolation reports a View that breaks the layout contract,
// most importantly one where no task holds global rank 0.
var ErrLayoutInvariantViolation = errors.New("layout invariant violation")

// Node is one host of the job step and the global ranks of the tasks it runs,
// in local order.
type Node struct {
	Hostname string
	Tasks    []uint32
}

// Position addresses a single task by node index and local index.
type Position struct {
	Node  int
	Local int
}

// View is an immutable, ordered description of the job step layout.
type View struct {
	nodes []Node
}

// New builds a View from the given nodes. The input is copied, so later
// changes to the caller's slices do not leak into the View.
func New(nodes ...Node) *View {
	v := &View{nodes: make([]Node, len(nodes))}
	for i, n := range nodes {
		v.nodes[i] = Node{
			Hostname: n.Hostname,
			Tasks:    append([]uint32(nil), n.Tasks...),
		}
	}
	return v
}

// Block distributes tasksPerNode consecutive ranks onto every host in order:
// host 0 gets [0, tasksPerNode), host 1 the next block, and so on.
func Block(hosts []string, tasksPerNode int) *View {
	nodes := make([]Node, len(hosts))
	next := uint32(0)
	for i, host := range hosts {
		tasks := make([]uint32, tasksPerNode)
		for j := range tasks {
			tasks[j] = next
			next++
		}
		nodes[i] = Node{Hostname: host, Tasks: tasks}
	}
	return &View{nodes: nodes}
}

// NodeCount returns the number of nodes in the step.
func (v *View) NodeCount() int {
	return len(v.nodes)
}

// Hostname returns the hostname of the node at index n.
func (v *View) Hostname(n int) string {
	return v.node(n).Hostname
}

// TaskCount returns the number of tasks running on node n.
func (v *View) TaskCount(n int) int {
	return len(v.node(n).Tasks)
}

// GlobalRank returns the global rank recorded for the task at (n, local).
func (v *View) GlobalRank(n, local int) uint32 {
	tasks := v.node(n).Tasks
	if local < 0 || local >= len(tasks) {
		panic(fmt.Sprintf("layout: local index %d out of range [0, %d) on node %d", local, len(tasks), n))
	}
	return tasks[local]
}

// WorldSize returns the total task count across all nodes.
func (v *View) WorldSize() uint32 {
	var total uint32
	for _, n := range v.nodes {
		total += uint32(len(n.Tasks))
	}
	return total
}

// Nodes returns a copy of the node list.
func (v *View) Nodes() []Node {
	return New(v.nodes...).nodes
}

// NodeIndex looks a node up by hostname.
func (v *View) NodeIndex(hostname string) (int, bool) {
	for i, n := range v.nodes {
		if n.Hostname == hostname {
			return i, true
		}
	}
	return -1, false
}

// FindRank scans the layout in node order for the task holding the given
// global rank.
func (v *View) FindRank(rank uint32) (Position, bool) {
	for n, node := range v.nodes {
		for l, r := range node.Tasks {
			if r == rank {
				return Position{Node: n, Local: l}, true
			}
		}
	}
	return Position{}, false
}

// Validate checks that the global ranks form a permutation of
// [0, world_size) and that every hostname is set and unique.
func (v *View) Validate() error {
	if len(v.nodes) == 0 {
		return fmt.Errorf("%w: layout has no nodes", ErrLayoutInvariantViolation)
	}

	worldSize := v.WorldSize()
	seen := make([]bool, worldSize)
	hosts := make(map[string]struct{}, len(v.nodes))

	for i, node := range v.nodes {
		if node.Hostname == "" {
			return fmt.Errorf("%w: node %d has no hostname", ErrLayoutInvariantViolation, i)
		}
		if _, dup := hosts[node.Hostname]; dup {
			return fmt.Errorf("%w: duplicate node %q", ErrLayoutInvariantViolation, node.Hostname)
		}
		hosts[node.Hostname] = struct{}{}

		for _, r := range node.Tasks {
			if r >= worldSize {
				return fmt.Errorf("%w: rank %d on node %q is outside [0, %d)", ErrLayoutInvariantViolation, r, node.Hostname, worldSize)
			}
			if seen[r] {
				return fmt.Errorf("%w: rank %d assigned more than once", ErrLayoutInvariantViolation, r)
			}
			seen[r] = true
		}
	}

	if worldSize == 0 {
		return fmt.Errorf("%w: no task holds global rank 0", ErrLayoutInvariantViolation)
	}
	return nil
}

func (v *View) node(n int) Node {
	if n < 0 || n >= len(v.nodes) {
		panic(fmt.Sprintf("layout: node index %d out of range [0, %d)", n, len(v.nodes)))
	}
	return v.nodes[n]
}

package config

import (
	"fmt"
	"net/netip"

	"github.com/vk/torchrun-prelaunch/internal/layout"
)

// Model is the unified representation of a layout file.
type Model struct {
	// ControlPort is the control daemon port dialed on the rank 0 node.
	// Zero means unset.
	ControlPort uint16

	// Nodes lists explicit `node` blocks in file order.
	Nodes []*NodeSpec

	// Nodelist and TasksPerNode describe a block-distributed layout as an
	// alternative to explicit nodes.
	Nodelist     string
	TasksPerNode int

	// Env is merged into every task environment without overwriting
	// variables that are already set.
	Env map[string]string
}

// NodeSpec is one explicitly described node.
type NodeSpec struct {
	Hostname string
	Tasks    []uint32
	// Addr is the control daemon address of the node, if known statically.
	Addr netip.Addr
}

// View builds the layout described by the model and checks its invariants.
func (m *Model) View() (*layout.View, error) {
	var v *layout.View
	switch {
	case len(m.Nodes) > 0 && m.Nodelist != "":
		return nil, fmt.Errorf("layout uses both node blocks and a nodelist; pick one")
	case len(m.Nodes) > 0:
		nodes := make([]layout.Node, len(m.Nodes))
		for i, n := range m.Nodes {
			nodes[i] = layout.Node{Hostname: n.Hostname, Tasks: n.Tasks}
		}
		v = layout.New(nodes...)
	case m.Nodelist != "":
		if m.TasksPerNode <= 0 {
			return nil, fmt.Errorf("tasks_per_node must be positive when nodelist is used, got %d", m.TasksPerNode)
		}
		hosts, err := layout.ExpandHostlist(m.Nodelist)
		if err != nil {
			return nil, err
		}
		v = layout.Block(hosts, m.TasksPerNode)
	default:
		return nil, fmt.Errorf("layout defines no nodes")
	}

	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// StaticAddrs returns the statically known control daemon addresses by
// hostname.
func (m *Model) StaticAddrs() map[string]netip.Addr {
	addrs := make(map[string]netip.Addr)
	for _, n := range m.Nodes {
		if n.Addr.IsValid() {
			addrs[n.Hostname] = n.Addr
		}
	}
	return addrs
}

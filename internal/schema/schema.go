// Package schema holds the gohcl decoding targets of a layout file.
package schema

import "github.com/hashicorp/hcl/v2"

// LayoutFile is the top-level structure of one layout file. A layout may be
// split across several files; their contents are merged.
type LayoutFile struct {
	ControlPort  *int      `hcl:"control_port,optional"`
	Nodelist     *string   `hcl:"nodelist,optional"`
	TasksPerNode *int      `hcl:"tasks_per_node,optional"`
	Nodes        []*Node   `hcl:"node,block"`
	Env          *EnvBlock `hcl:"env,block"`
}

// Node is a `node` block: one host and the global ranks of its tasks, in
// local order.
type Node struct {
	Hostname string         `hcl:"hostname,label"`
	Tasks    hcl.Expression `hcl:"tasks"`
	Addr     *string        `hcl:"addr,optional"`
}

// EnvBlock holds free-form variables handed to every task.
type EnvBlock struct {
	Body hcl.Body `hcl:",remain"`
}

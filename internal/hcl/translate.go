// This file translates the decoded schema structs into config.Model values.

package hcl

import (
	"fmt"
	"math"
	"net/netip"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/torchrun-prelaunch/internal/config"
	"github.com/vk/torchrun-prelaunch/internal/schema"
)

func translatePort(port int) (uint16, error) {
	if port <= 0 || port > math.MaxUint16 {
		return 0, fmt.Errorf("control_port %d is outside 1-65535", port)
	}
	return uint16(port), nil
}

// translateNode converts a `node` block into the agnostic model.
func translateNode(n *schema.Node) (*config.NodeSpec, error) {
	tasks, err := decodeTasks(n.Tasks)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", n.Hostname, err)
	}

	spec := &config.NodeSpec{Hostname: n.Hostname, Tasks: tasks}
	if n.Addr != nil {
		addr, err := netip.ParseAddr(*n.Addr)
		if err != nil {
			return nil, fmt.Errorf("node %q: invalid addr: %w", n.Hostname, err)
		}
		spec.Addr = addr.Unmap()
	}
	return spec, nil
}

// decodeTasks evaluates a `tasks` expression into a list of global ranks.
func decodeTasks(expr hcl.Expression) ([]uint32, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, fmt.Errorf("tasks must not be null")
	}

	listVal, err := convert.Convert(val, cty.List(cty.Number))
	if err != nil {
		return nil, fmt.Errorf("tasks must be a list of numbers, got %s", val.Type().FriendlyName())
	}

	var tasks []uint32
	if err := gocty.FromCtyValue(listVal, &tasks); err != nil {
		return nil, fmt.Errorf("tasks must hold non-negative integer ranks: %w", err)
	}
	return tasks, nil
}

// translateEnv evaluates the attributes of an `env` block as strings.
func translateEnv(block *schema.EnvBlock) (map[string]string, error) {
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	env := make(map[string]string, len(attrs))
	for _, name := range names {
		val, diags := attrs[name].Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		strVal, err := convert.Convert(val, cty.String)
		if err != nil {
			return nil, fmt.Errorf("env %s: cannot convert %s to string", name, val.Type().FriendlyName())
		}
		if strVal.IsNull() {
			return nil, fmt.Errorf("env %s: value must not be null", name)
		}
		env[name] = strVal.AsString()
	}
	return env, nil
}

package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/torchrun-prelaunch/internal/config"
	"github.com/vk/torchrun-prelaunch/internal/ctxlog"
	"github.com/vk/torchrun-prelaunch/internal/fsutil"
	"github.com/vk/torchrun-prelaunch/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL layout loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file found under paths and merges them into one
// model. Node blocks keep their file order; scalar settings may be set by
// one file only.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl layout files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	model := &config.Model{Env: make(map[string]string)}
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root schema.LayoutFile
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if err := l.merge(model, &root); err != nil {
			return nil, fmt.Errorf("in %s: %w", file, err)
		}
	}

	logger.Debug("HCL loading complete.", "nodes", len(model.Nodes), "nodelist", model.Nodelist, "env", len(model.Env))
	return model, nil
}

func (l *Loader) merge(model *config.Model, root *schema.LayoutFile) error {
	if root.ControlPort != nil {
		if model.ControlPort != 0 {
			return fmt.Errorf("control_port is set more than once")
		}
		port, err := translatePort(*root.ControlPort)
		if err != nil {
			return err
		}
		model.ControlPort = port
	}
	if root.Nodelist != nil {
		if model.Nodelist != "" {
			return fmt.Errorf("nodelist is set more than once")
		}
		model.Nodelist = *root.Nodelist
	}
	if root.TasksPerNode != nil {
		if model.TasksPerNode != 0 {
			return fmt.Errorf("tasks_per_node is set more than once")
		}
		model.TasksPerNode = *root.TasksPerNode
	}

	for _, n := range root.Nodes {
		spec, err := translateNode(n)
		if err != nil {
			return err
		}
		model.Nodes = append(model.Nodes, spec)
	}

	if root.Env != nil {
		env, err := translateEnv(root.Env)
		if err != nil {
			return err
		}
		for k, v := range env {
			if _, dup := model.Env[k]; dup {
				return fmt.Errorf("env variable %q is set more than once", k)
			}
			model.Env[k] = v
		}
	}
	return nil
}

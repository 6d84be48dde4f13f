package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/miekg/dns"

	"github.com/vk/torchrun-prelaunch/internal/config"
	"github.com/vk/torchrun-prelaunch/internal/ctxlog"
	"github.com/vk/torchrun-prelaunch/internal/environ"
	"github.com/vk/torchrun-prelaunch/internal/layout"
	"github.com/vk/torchrun-prelaunch/internal/prelaunch"
	"github.com/vk/torchrun-prelaunch/internal/rendezvous"
	"github.com/vk/torchrun-prelaunch/internal/secret"
)

// Run loads the layout, resolves the rendezvous endpoint and shared secret
// once, and only then writes the task environments of the selected nodes. A
// resolution failure stops the run before a single task environment is
// written.
func (a *App) Run(ctx context.Context) error {
	logger := a.logger.With("launch_id", uuid.NewString())
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("App.Run method started.")

	model, err := a.loader.Load(ctx, a.config.LayoutPaths...)
	if err != nil {
		return fmt.Errorf("failed to load layout: %w", err)
	}
	view, err := model.View()
	if err != nil {
		return fmt.Errorf("invalid layout: %w", err)
	}
	logger.Info("Layout loaded.", "nodes", view.NodeCount(), "world_size", view.WorldSize())

	base, err := a.loadBaseEnv(model)
	if err != nil {
		return err
	}
	layoutEnv := environ.FromMap(model.Env)
	logger.Debug("Base environment ready.", "vars", base.Len(), "layout_env", layoutEnv.Keys())

	nodeIndices, err := selectNodes(view, a.config.Node)
	if err != nil {
		return err
	}

	launcher := prelaunch.NewLauncher(a.newResolver(ctx, model), a.secretSource())

	// One step serves every selected node, so they all share one endpoint
	// and one secret.
	step, err := launcher.NewStep(view, base)
	if err != nil {
		return fmt.Errorf("invalid layout: %w", err)
	}
	if err := step.Prepare(ctx); err != nil {
		return fmt.Errorf("job step launch failed: %w", err)
	}

	written := 0
	for _, n := range nodeIndices {
		tasks, err := step.Node(ctxlog.With(ctx, "host", view.Hostname(n)), n)
		if err != nil {
			return fmt.Errorf("job step launch failed on %s: %w", view.Hostname(n), err)
		}
		for _, task := range tasks {
			if err := a.writeTask(task, model); err != nil {
				return err
			}
			written++
		}
	}

	logger.Info("Task environments prepared.", "nodes", len(nodeIndices), "tasks", written)
	return nil
}

// loadBaseEnv picks the base task environment and adds the layout's env
// block underneath it.
func (a *App) loadBaseEnv(model *config.Model) (*environ.Map, error) {
	var base *environ.Map
	switch {
	case a.config.EnvFile != "":
		env, err := environ.Load(a.config.EnvFile)
		if err != nil {
			return nil, err
		}
		base = env
	case a.baseEnv != nil:
		base = a.baseEnv.Clone()
	default:
		base = environ.FromOS()
	}
	base.Merge(environ.FromMap(model.Env), false)
	return base, nil
}

func (a *App) newResolver(ctx context.Context, model *config.Model) *rendezvous.Resolver {
	nodes := a.nodes
	if nodes == nil {
		var fallback rendezvous.NodeResolver = &rendezvous.SystemResolver{}
		if a.config.DNSServer != "" {
			fallback = &rendezvous.DNSResolver{
				Server: a.config.DNSServer,
				Client: &dns.Client{Timeout: a.config.DialTimeout},
			}
		}
		nodes = rendezvous.ChainResolver{rendezvous.StaticResolver(model.StaticAddrs()), fallback}
	}

	discoverer := a.discoverer
	if discoverer == nil {
		// The mode was validated by NewConfig.
		mode, _ := rendezvous.ParseIntrospectMode(a.config.Introspect)
		discoverer = &rendezvous.TCPDiscoverer{Timeout: a.config.DialTimeout, Mode: mode}
		ctxlog.FromContext(ctx).Debug("Using TCP discoverer.", "introspect", mode.String(), "timeout", a.config.DialTimeout)
	}

	port := model.ControlPort
	if a.config.ControlPort > 0 {
		port = uint16(a.config.ControlPort)
	}
	return rendezvous.NewResolver(nodes, discoverer, port)
}

func (a *App) secretSource() prelaunch.SecretSource {
	if a.secrets != nil {
		return a.secrets
	}
	return secret.Default()
}

// selectNodes resolves the node selector to node indices. The selector is a
// hostname or a decimal node index; empty selects all nodes.
func selectNodes(v *layout.View, selector string) ([]int, error) {
	if selector == "" {
		all := make([]int, v.NodeCount())
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	if n, ok := v.NodeIndex(selector); ok {
		return []int{n}, nil
	}
	if n, err := strconv.Atoi(selector); err == nil && n >= 0 && n < v.NodeCount() {
		return []int{n}, nil
	}
	return nil, fmt.Errorf("node %q is not part of the layout", selector)
}

// writeTask emits the variables a task gains on top of its base
// environment: the layout's env block and the injected overlay.
func (a *App) writeTask(task *prelaunch.TaskEnv, model *config.Model) error {
	delta := environ.Empty()
	for k := range model.Env {
		delta.Set(k, task.Env.Get(k))
	}
	delta.Merge(environ.FromMap(task.Result.Overlay), true)

	if a.config.OutDir != "" {
		name := fmt.Sprintf("%s.%d.env", task.Hostname, task.Ranks.LocalRank)
		if err := os.MkdirAll(a.config.OutDir, 0o755); err != nil {
			return fmt.Errorf("cannot create output directory: %w", err)
		}
		return delta.Write(filepath.Join(a.config.OutDir, name))
	}

	content, err := delta.ToString()
	if err != nil {
		return fmt.Errorf("cannot render task environment: %w", err)
	}
	_, err = fmt.Fprintf(a.outW, "# %s local_rank=%d rendezvous=%s\n%s\n", task.Hostname, task.Ranks.LocalRank, task.Result.Outcome, content)
	return err
}

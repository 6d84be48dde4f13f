package prelaunch

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vk/torchrun-prelaunch/internal/ctxlog"
	"github.com/vk/torchrun-prelaunch/internal/envinject"
	"github.com/vk/torchrun-prelaunch/internal/environ"
	"github.com/vk/torchrun-prelaunch/internal/layout"
	"github.com/vk/torchrun-prelaunch/internal/rank"
	"github.com/vk/torchrun-prelaunch/internal/rendezvous"
)

// EndpointResolver computes the rendezvous endpoint of a job step.
type EndpointResolver interface {
	Resolve(ctx context.Context, v *layout.View) (rendezvous.Endpoint, error)
}

// SecretSource yields the node's shared secret.
type SecretSource interface {
	Value() (uint64, error)
}

// Launcher creates Steps sharing one resolver and secret source.
type Launcher struct {
	resolver EndpointResolver
	secrets  SecretSource
}

// NewLauncher is the constructor for Launcher.
func NewLauncher(resolver EndpointResolver, secrets SecretSource) *Launcher {
	return &Launcher{resolver: resolver, secrets: secrets}
}

// TaskEnv is the prepared environment of one task.
type TaskEnv struct {
	Hostname string
	Ranks    rank.Set
	Env      *environ.Map
	Result   envinject.Result
}

// Step is one job step as seen by the process launching its tasks.
type Step struct {
	view *layout.View
	base *environ.Map

	resolver EndpointResolver
	secrets  SecretSource

	once       sync.Once
	endpoint   rendezvous.Endpoint
	overridden bool
	secret     uint64
	err        error
}

// NewStep validates the layout and returns a Step whose tasks start from a
// copy of base.
func (l *Launcher) NewStep(v *layout.View, base *environ.Map) (*Step, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return &Step{
		view:     v,
		base:     base.Clone(),
		resolver: l.resolver,
		secrets:  l.secrets,
	}, nil
}

// Prepare produces the node-wide values of the step: the shared secret and,
// unless the base environment already names a rendezvous address or port,
// the rendezvous endpoint. It runs once; later and concurrent calls return
// the first outcome.
func (s *Step) Prepare(ctx context.Context) error {
	s.once.Do(func() {
		s.err = s.prepare(ctx)
	})
	return s.err
}

func (s *Step) prepare(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	secret, err := s.secrets.Value()
	if err != nil {
		return fmt.Errorf("shared secret: %w", err)
	}
	s.secret = secret

	if envinject.Overridden(s.base) {
		logger.Info("MASTER_ADDR or MASTER_PORT preset, skipping rendezvous resolution.")
		s.overridden = true
		return nil
	}

	ep, err := s.resolver.Resolve(ctx, s.view)
	if err != nil {
		return fmt.Errorf("rendezvous: %w", err)
	}
	s.endpoint = ep
	logger.Info("Rendezvous endpoint resolved.", "master_addr", ep.Address, "master_port", ep.Port, "fallback_port", ep.Fallback)
	return nil
}

// Endpoint returns the resolved endpoint and whether resolution was skipped
// because of a preset override. Prepare must have succeeded.
func (s *Step) Endpoint() (rendezvous.Endpoint, bool) {
	return s.endpoint, s.overridden
}

// Task prepares the environment of the task at (nodeIndex, localIndex).
func (s *Step) Task(ctx context.Context, nodeIndex, localIndex int) (*TaskEnv, error) {
	if err := s.Prepare(ctx); err != nil {
		return nil, err
	}

	ranks := rank.Derive(s.view, nodeIndex, localIndex)
	env := s.base.Clone()
	res := envinject.Apply(env, ranks, s.endpoint, s.secret)

	return &TaskEnv{
		Hostname: s.view.Hostname(nodeIndex),
		Ranks:    ranks,
		Env:      env,
		Result:   res,
	}, nil
}

// Node prepares every task on nodeIndex concurrently, in local order.
func (s *Step) Node(ctx context.Context, nodeIndex int) ([]*TaskEnv, error) {
	if err := s.Prepare(ctx); err != nil {
		return nil, err
	}

	tasks := make([]*TaskEnv, s.view.TaskCount(nodeIndex))
	g, gctx := errgroup.WithContext(ctx)
	for l := range tasks {
		g.Go(func() error {
			task, err := s.Task(gctx, nodeIndex, l)
			if err != nil {
				return err
			}
			tasks[l] = task
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Debug("Node tasks prepared.", "host", s.view.Hostname(nodeIndex), "tasks", len(tasks))
	return tasks, nil
}

package app

import (
	"io"
	"log/slog"

	"github.com/vk/torchrun-prelaunch/internal/config"
	"github.com/vk/torchrun-prelaunch/internal/environ"
	"github.com/vk/torchrun-prelaunch/internal/prelaunch"
	"github.com/vk/torchrun-prelaunch/internal/rendezvous"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	loader config.Loader

	// Collaborators below default to the real implementations in Run when
	// left nil.
	nodes      rendezvous.NodeResolver
	discoverer rendezvous.Discoverer
	secrets    prelaunch.SecretSource
	baseEnv    *environ.Map
}

// Option customizes an App, mostly to replace cluster-facing collaborators
// in tests.
type Option func(*App)

// WithNodeResolver replaces the hostname resolution chain.
func WithNodeResolver(r rendezvous.NodeResolver) Option {
	return func(a *App) { a.nodes = r }
}

// WithDiscoverer replaces the TCP discoverer.
func WithDiscoverer(d rendezvous.Discoverer) Option {
	return func(a *App) { a.discoverer = d }
}

// WithSecrets replaces the process-wide shared secret generator.
func WithSecrets(s prelaunch.SecretSource) Option {
	return func(a *App) { a.secrets = s }
}

// WithBaseEnv replaces the process environment as the base task environment.
// Config.EnvFile still takes precedence.
func WithBaseEnv(env *environ.Map) Option {
	return func(a *App) { a.baseEnv = env }
}

// NewApp is the constructor for the main application. Task environments go
// to outW, logs to logW.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader, opts ...Option) *App {
	a := &App{
		outW:   outW,
		logger: newLogger(cfg.LogLevel, cfg.LogFormat, logW),
		config: cfg,
		loader: loader,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger.Debug("Logger configured successfully.")
	return a
}

package app

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/vk/torchrun-prelaunch/internal/rendezvous"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	LayoutPaths []string // hcl files or directories

	// Node selects the node to prepare, by hostname or index. Empty means
	// every node of the layout.
	Node string
	// EnvFile is a dotenv file used as the base task environment instead of
	// the process environment.
	EnvFile string
	// OutDir receives one <host>.<local>.env file per task. Empty means
	// print to the output writer.
	OutDir string

	ControlPort int // 0 takes the port from the layout file
	DialTimeout time.Duration
	DNSServer   string
	Introspect  string

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.LayoutPaths) == 0 {
		return nil, errors.New("at least one layout path is required")
	}
	if cfg.ControlPort < 0 || cfg.ControlPort > math.MaxUint16 {
		return nil, fmt.Errorf("control port %d is outside 0-65535", cfg.ControlPort)
	}
	if cfg.DialTimeout <= 0 {
		return nil, fmt.Errorf("dial timeout must be positive, got %s", cfg.DialTimeout)
	}
	mode, err := rendezvous.ParseIntrospectMode(cfg.Introspect)
	if err != nil {
		return nil, err
	}
	// Local introspection yields a fresh ephemeral port per connection, so nodes
	// prepared by separate invocations would disagree on the endpoint.
	if mode == rendezvous.IntrospectLocal && cfg.Node != "" {
		return nil, errors.New("introspect mode 'local' requires preparing all nodes in one run; drop -node or use 'peer'")
	}

	return &cfg, nil
}

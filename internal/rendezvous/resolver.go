package rendezvous

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"github.com/vk/torchrun-prelaunch/internal/ctxlog"
	"github.com/vk/torchrun-prelaunch/internal/layout"
)

// ErrRendezvousUnreachable is returned when the rank 0 node cannot be
// resolved or its control daemon cannot be reached.
var ErrRendezvousUnreachable = errors.New("rendezvous unreachable")

// Resolver computes the rendezvous endpoint of a job step.
type Resolver struct {
	nodes       NodeResolver
	discoverer  Discoverer
	controlPort uint16
}

// NewResolver returns a Resolver probing controlPort on the rank 0 node.
// A zero controlPort means DefaultControlPort.
func NewResolver(nodes NodeResolver, discoverer Discoverer, controlPort uint16) *Resolver {
	if controlPort == 0 {
		controlPort = DefaultControlPort
	}
	return &Resolver{
		nodes:       nodes,
		discoverer:  discoverer,
		controlPort: controlPort,
	}
}

// Resolve finds the node running global rank 0 and derives the endpoint from
// a short-lived connection to its control daemon. It makes exactly one attempt and
// is safe to call concurrently. Concurrent and repeated calls agree on the
// endpoint only when the discoverer is deterministic, as TCPDiscoverer is in
// IntrospectPeer mode.
func (r *Resolver) Resolve(ctx context.Context, v *layout.View) (Endpoint, error) {
	logger := ctxlog.FromContext(ctx)

	pos, ok := v.FindRank(0)
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: no node has task id 0", layout.ErrLayoutInvariantViolation)
	}
	host := v.Hostname(pos.Node)
	logger.Debug("Found rank 0 node.", "host", host, "node_index", pos.Node)

	addr, err := r.nodes.ResolveNode(ctx, host)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: cannot resolve rank 0 node %q: %w", ErrRendezvousUnreachable, host, err)
	}

	target := netip.AddrPortFrom(addr, r.controlPort)
	self, err := r.discoverer.DiscoverSelfAddress(ctx, target)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: cannot connect to rank 0 node %q at %s: %w", ErrRendezvousUnreachable, host, target, err)
	}

	if !self.Addr().IsValid() {
		return Endpoint{}, fmt.Errorf("%w: no usable local address toward rank 0 node %q", ErrRendezvousUnreachable, host)
	}

	ep := Endpoint{Address: self.Addr().String(), Port: self.Port()}
	if ep.Port == 0 {
		ep.Port = DefaultPort
		ep.Fallback = true
		logger.Warn("Discovered rendezvous port is 0, using default.", "host", host, "port", DefaultPort)
	}

	logger.Debug("Rendezvous endpoint resolved.", "host", host, "endpoint", ep.HostPort())
	return ep, nil
}

package rendezvous

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"time"
)

// Discoverer derives the rendezvous address by contacting a target.
// TCPDiscoverer is the only implementation today; a real advertisement
// handshake can replace it without touching Resolver.
type Discoverer interface {
	DiscoverSelfAddress(ctx context.Context, target netip.AddrPort) (netip.AddrPort, error)
}

// IntrospectMode selects which side of the control daemon connection is reported.
type IntrospectMode int

const (
	// IntrospectPeer reports the address and port of the target as seen on
	// the established connection. Every caller on every node gets the same
	// answer.
	IntrospectPeer IntrospectMode = iota
	// IntrospectLocal reports the locally bound source address and port.
	// The port is ephemeral, so two connections never agree: the result is only
	// shared by callers of one prelaunch step.
	IntrospectLocal
)

// ParseIntrospectMode maps "peer" or "local" to a mode. Empty means peer.
func ParseIntrospectMode(s string) (IntrospectMode, error) {
	switch s {
	case "", "peer":
		return IntrospectPeer, nil
	case "local":
		return IntrospectLocal, nil
	default:
		return 0, fmt.Errorf("invalid introspect mode %q: must be 'local' or 'peer'", s)
	}
}

func (m IntrospectMode) String() string {
	if m == IntrospectLocal {
		return "local"
	}
	return "peer"
}

// TCPDiscoverer opens a TCP connection, reads one end's address and closes
// it. No data is exchanged.
type TCPDiscoverer struct {
	Timeout time.Duration
	Mode    IntrospectMode
}

// DiscoverSelfAddress implements Discoverer.
func (d *TCPDiscoverer) DiscoverSelfAddress(ctx context.Context, target netip.AddrPort) (netip.AddrPort, error) {
	dialer := net.Dialer{Timeout: d.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", target.String())
	if err != nil {
		return netip.AddrPort{}, err
	}
	defer conn.Close()

	addr := conn.RemoteAddr()
	if d.Mode == IntrospectLocal {
		addr = conn.LocalAddr()
	}
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		return netip.AddrPort{}, fmt.Errorf("unexpected address type %T", addr)
	}
	ap := tcpAddr.AddrPort()
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port()), nil
}

package rendezvous

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
)

// ErrUnknownHost is returned by a NodeResolver that has no address for a host.
var ErrUnknownHost = errors.New("unknown host")

// NodeResolver maps a node hostname to the address of its control daemon.
type NodeResolver interface {
	ResolveNode(ctx context.Context, hostname string) (netip.Addr, error)
}

// StaticResolver answers from a fixed hostname to address table.
type StaticResolver map[string]netip.Addr

// ResolveNode implements NodeResolver.
func (s StaticResolver) ResolveNode(_ context.Context, hostname string) (netip.Addr, error) {
	if addr, ok := s[hostname]; ok {
		return addr, nil
	}
	return netip.Addr{}, fmt.Errorf("%w: %s", ErrUnknownHost, hostname)
}

// SystemResolver uses the operating system resolver. A nil Resolver means
// net.DefaultResolver.
type SystemResolver struct {
	Resolver *net.Resolver
}

// ResolveNode implements NodeResolver.
func (s *SystemResolver) ResolveNode(ctx context.Context, hostname string) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(hostname); err == nil {
		return addr, nil
	}

	r := s.Resolver
	if r == nil {
		r = net.DefaultResolver
	}
	addrs, err := r.LookupNetIP(ctx, "ip", hostname)
	if err != nil {
		return netip.Addr{}, err
	}
	if len(addrs) == 0 {
		return netip.Addr{}, fmt.Errorf("%w: %s", ErrUnknownHost, hostname)
	}
	return addrs[0].Unmap(), nil
}

// ChainResolver asks each resolver in turn and returns the first answer.
type ChainResolver []NodeResolver

// ResolveNode implements NodeResolver.
func (c ChainResolver) ResolveNode(ctx context.Context, hostname string) (netip.Addr, error) {
	var errs []error
	for _, r := range c {
		addr, err := r.ResolveNode(ctx, hostname)
		if err == nil {
			return addr, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return netip.Addr{}, fmt.Errorf("%w: %s (no resolvers configured)", ErrUnknownHost, hostname)
	}
	return netip.Addr{}, errors.Join(errs...)
}

package app

import (
	"context"
	"net/netip"
)

// zeroPortDiscoverer simulates a discovery that learns the address but not a
// usable port.
type zeroPortDiscoverer struct{}

func (zeroPortDiscoverer) DiscoverSelfAddress(context.Context, netip.AddrPort) (netip.AddrPort, error) {
	return netip.MustParseAddrPort("10.0.0.5:0"), nil
}

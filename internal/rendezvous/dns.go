package rendezvous

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/miekg/dns"
)

// DNSResolver queries a specific nameserver, typically the one serving the
// cluster's internal zone, for A and then AAAA records.
type DNSResolver struct {
	// Server is the nameserver address in "host:port" form.
	Server string
	Client *dns.Client
}

// ResolveNode implements NodeResolver.
func (r *DNSResolver) ResolveNode(ctx context.Context, hostname string) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(hostname); err == nil {
		return addr, nil
	}

	client := r.Client
	if client == nil {
		client = new(dns.Client)
	}

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(hostname), qtype)

		in, _, err := client.ExchangeContext(ctx, msg, r.Server)
		if err != nil {
			return netip.Addr{}, fmt.Errorf("dns query for %s via %s: %w", hostname, r.Server, err)
		}
		switch in.Rcode {
		case dns.RcodeSuccess:
		case dns.RcodeNameError:
			return netip.Addr{}, fmt.Errorf("%w: %s", ErrUnknownHost, hostname)
		default:
			return netip.Addr{}, fmt.Errorf("dns query for %s via %s: %s", hostname, r.Server, dns.RcodeToString[in.Rcode])
		}

		for _, rr := range in.Answer {
			var ip []byte
			switch rec := rr.(type) {
			case *dns.A:
				ip = rec.A
			case *dns.AAAA:
				ip = rec.AAAA
			default:
				continue
			}
			if addr, ok := netip.AddrFromSlice(ip); ok {
				return addr.Unmap(), nil
			}
		}
	}
	return netip.Addr{}, fmt.Errorf("%w: %s", ErrUnknownHost, hostname)
}

package rendezvous

import (
	"net"
	"strconv"
)

const (
	// DefaultPort is used when discovery yields port 0. It matches the
	// default rendezvous port of PyTorch Elastic.
	DefaultPort uint16 = 29400

	// DefaultControlPort is the control daemon port dialed on the rank 0 node.
	DefaultControlPort uint16 = 6818
)

// Endpoint is the rendezvous address and port of one job step.
type Endpoint struct {
	Address string
	Port    uint16
	// Fallback is set when Port was substituted with DefaultPort.
	Fallback bool
}

// HostPort joins the endpoint into "host:port" form.
func (e Endpoint) HostPort() string {
	return net.JoinHostPort(e.Address, strconv.Itoa(int(e.Port)))
}

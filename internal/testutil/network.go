package testutil

import (
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

// StartControlDaemon listens on loopback and accepts and closes connections
// until the test ends. It stands in for the control daemon of a node.
func StartControlDaemon(t *testing.T) netip.AddrPort {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	return l.Addr().(*net.TCPAddr).AddrPort()
}

// ClosedPort returns a loopback address with nothing listening on it.
func ClosedPort(t *testing.T) netip.AddrPort {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ap := l.Addr().(*net.TCPAddr).AddrPort()
	require.NoError(t, l.Close())
	return ap
}

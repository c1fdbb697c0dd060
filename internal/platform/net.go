package platform

import (
	"context"
	"fmt"
	"net"
)

// DefaultProbeAddr is a public address used to find out which local
// interface routes to the internet. No packets are sent to it.
const DefaultProbeAddr = "8.8.8.8:80"

// FallbackHost is reported when the local IP cannot be detected.
const FallbackHost = "localhost"

// AllInterfacesListener listens for TCP connections on all interfaces.
type AllInterfacesListener struct {
	ListenConfig net.ListenConfig
}

func (l AllInterfacesListener) ListenTCP(ctx context.Context, port int) (net.Listener, error) {
	self := net.TCPAddr{
		IP:   net.IPv4zero,
		Port: port,
	}

	ln, err := l.ListenConfig.Listen(ctx, "tcp", self.String())
	if err != nil {
		return nil, fmt.Errorf("listen TCP: %w", err)
	}

	return ln, nil
}

// OutboundIP returns the IP of the interface used to reach probeAddr.
// Dialing UDP only selects a route, nothing goes over the wire.
// On any failure it returns [FallbackHost].
func OutboundIP(ctx context.Context, probeAddr string) string {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", probeAddr)
	if err != nil {
		return FallbackHost
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP.IsUnspecified() {
		return FallbackHost
	}

	return addr.IP.String()
}

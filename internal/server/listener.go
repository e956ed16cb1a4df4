package server

import (
	"fmt"
	"net"
)

// LoopbackListener opens plain TCP listeners restricted to loopback addresses.
// The payment callback server must never be reachable from another host.
type LoopbackListener struct{}

func NewLoopbackListener() *LoopbackListener {
	return &LoopbackListener{}
}

// Listen rejects any addr whose host is not a loopback IP or "localhost".
func (l *LoopbackListener) Listen(protocol, addr string) (net.Listener, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	if host != "localhost" {
		ip := net.ParseIP(host)
		if ip == nil || !ip.IsLoopback() {
			return nil, fmt.Errorf("refusing to listen on non-loopback address %q", addr)
		}
	}
	return net.Listen(protocol, addr)
}

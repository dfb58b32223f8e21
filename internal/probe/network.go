// Package probe implements the live network collaborators queried by the
// evaluator, plus static stand-ins for measurements supplied by callers.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// DefaultTimeout bounds a single probe call when none is configured.
const DefaultTimeout = 3 * time.Second

type dialFunc func(ctx context.Context, network, address string) (net.Conn, error)

func defaultDial(ctx context.Context, network, address string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, network, address)
}

// TCPConnectivity treats the device as online when any target accepts a TCP
// connection.
type TCPConnectivity struct {
	targets []string
	timeout time.Duration
	dial    dialFunc
}

// NewTCPConnectivity builds a connectivity probe over host:port targets.
func NewTCPConnectivity(targets []string, timeout time.Duration) *TCPConnectivity {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TCPConnectivity{targets: append([]string(nil), targets...), timeout: timeout, dial: defaultDial}
}

// IsOnline dials targets in order and stops at the first success.
func (p *TCPConnectivity) IsOnline(ctx context.Context) bool {
	for _, target := range p.targets {
		dialCtx, cancel := context.WithTimeout(ctx, p.timeout)
		conn, err := p.dial(dialCtx, "tcp", target)
		cancel()
		if err == nil {
			_ = conn.Close()
			return true
		}
		if ctx.Err() != nil {
			return false
		}
	}
	return false
}

type lookupFunc func(ctx context.Context, host string) ([]string, error)

// DNSResolver resolves hostnames through the system resolver.
type DNSResolver struct {
	timeout time.Duration
	lookup  lookupFunc
}

// NewDNSResolver builds a DNS probe; resolver nil uses net.DefaultResolver.
func NewDNSResolver(resolver *net.Resolver, timeout time.Duration) *DNSResolver {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &DNSResolver{timeout: timeout, lookup: resolver.LookupHost}
}

// Resolve reports false without error when the name does not exist or has no
// addresses; transport failures are returned as errors.
func (r *DNSResolver) Resolve(ctx context.Context, hostname string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	addrs, err := r.lookup(ctx, hostname)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return false, nil
		}
		return false, fmt.Errorf("resolve %s: %w", hostname, err)
	}
	return len(addrs) > 0, nil
}

// StaticConnectionInfo reports a configured connection type.
type StaticConnectionInfo struct {
	Type string
}

// EffectiveType returns the configured type; empty means unavailable.
func (s StaticConnectionInfo) EffectiveType(context.Context) (string, error) {
	return s.Type, nil
}

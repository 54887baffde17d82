package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const resolvConf = "/etc/resolv.conf"

// ErrNoName means the server answered without a PTR record.
var ErrNoName = errors.New("no PTR record")

// SystemResolver uses the Go resolver, which follows the host's
// configuration (hosts file, resolv.conf, or the platform API).
type SystemResolver struct {
	resolver *net.Resolver
}

// Compile-time interface guard.
var _ Resolver = (*SystemResolver)(nil)

// NewSystemResolver returns a resolver backed by net.DefaultResolver.
func NewSystemResolver() *SystemResolver {
	return &SystemResolver{resolver: net.DefaultResolver}
}

// LookupAddr returns the first name for addr without its trailing dot.
func (r *SystemResolver) LookupAddr(ctx context.Context, addr netip.Addr) (string, error) {
	names, err := r.resolver.LookupAddr(ctx, addr.String())
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", ErrNoName
	}
	return strings.TrimSuffix(names[0], "."), nil
}

// DNSResolver sends PTR queries to one DNS server with miekg/dns.
type DNSResolver struct {
	server string
	client *dns.Client
}

// Compile-time interface guard.
var _ Resolver = (*DNSResolver)(nil)

// NewDNSResolver creates a resolver for server ("host" or "host:port"). An
// empty server means the first nameserver in /etc/resolv.conf.
func NewDNSResolver(server string, timeout time.Duration) (*DNSResolver, error) {
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}
	if server == "" {
		cfg, err := dns.ClientConfigFromFile(resolvConf)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", resolvConf, err)
		}
		if len(cfg.Servers) == 0 {
			return nil, fmt.Errorf("no nameserver in %s", resolvConf)
		}
		server = net.JoinHostPort(cfg.Servers[0], cfg.Port)
	} else if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return &DNSResolver{
		server: server,
		client: &dns.Client{Net: "udp", Timeout: timeout},
	}, nil
}

// Server returns the address queries are sent to.
func (r *DNSResolver) Server() string { return r.server }

// LookupAddr queries the PTR record of addr.
func (r *DNSResolver) LookupAddr(ctx context.Context, addr netip.Addr) (string, error) {
	reverseName, err := dns.ReverseAddr(addr.String())
	if err != nil {
		return "", err
	}

	msg := new(dns.Msg)
	msg.SetQuestion(reverseName, dns.TypePTR)
	msg.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return "", fmt.Errorf("query %s: %w", r.server, err)
	}
	return ptrName(resp)
}

// ptrName extracts the first PTR target from a response.
func ptrName(resp *dns.Msg) (string, error) {
	if resp.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("%w: %s", ErrNoName, dns.RcodeToString[resp.Rcode])
	}
	for _, rr := range resp.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			return strings.TrimSuffix(ptr.Ptr, "."), nil
		}
	}
	return "", ErrNoName
}

// NewResolver returns a DNSResolver when server is set and the system
// resolver otherwise.
func NewResolver(server string, timeout time.Duration) (Resolver, error) {
	if server == "" {
		return NewSystemResolver(), nil
	}
	return NewDNSResolver(server, timeout)
}

// Package probe answers whether a single IPv4 address is live, with one echo
// request, and resolves the reverse DNS name of live addresses.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/netscope/pkg/models"
)

// Default bounds for one probe.
const (
	DefaultTimeout        = time.Second
	DefaultResolveTimeout = time.Second
)

// ErrNoReply means the echo request went unanswered.
var ErrNoReply = errors.New("no echo reply")

// Pinger sends exactly one echo request and reports the round-trip time.
type Pinger interface {
	Ping(ctx context.Context, addr netip.Addr) (time.Duration, error)
}

// Resolver looks up the name of an address. An empty name with a nil error
// is a valid answer.
type Resolver interface {
	LookupAddr(ctx context.Context, addr netip.Addr) (string, error)
}

// NewPinger builds the Pinger for a probe method ("exec" or "icmp"). The exec
// method fails here, not per probe, when ping is not on PATH.
func NewPinger(method, goos string, timeout time.Duration, privileged bool) (Pinger, error) {
	switch method {
	case "", "exec":
		if _, err := lookPath("ping"); err != nil {
			return nil, fmt.Errorf("probe method exec: %w", err)
		}
		return NewExecPinger(goos, timeout), nil
	case "icmp":
		return NewICMPPinger(timeout, privileged || goos == "windows"), nil
	default:
		return nil, fmt.Errorf("unknown probe method %q", method)
	}
}

// Prober combines a Pinger and a Resolver into the per-address liveness check.
type Prober struct {
	pinger         Pinger
	resolver       Resolver
	resolveTimeout time.Duration
	logger         *zap.Logger
}

// NewProber creates a Prober. A nil resolver disables name resolution.
func NewProber(pinger Pinger, resolver Resolver, resolveTimeout time.Duration, logger *zap.Logger) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolveTimeout <= 0 {
		resolveTimeout = DefaultResolveTimeout
	}
	return &Prober{
		pinger:         pinger,
		resolver:       resolver,
		resolveTimeout: resolveTimeout,
		logger:         logger,
	}
}

// Probe pings addr once. It returns false when no reply arrives or the ping
// itself fails; neither is an error from the caller's point of view. A live
// address whose name cannot be resolved gets an empty Hostname.
func (p *Prober) Probe(ctx context.Context, addr netip.Addr) (models.HostRecord, bool) {
	rtt, err := p.pinger.Ping(ctx, addr)
	if err != nil {
		if !errors.Is(err, ErrNoReply) {
			p.logger.Debug("probe failed", zap.Stringer("address", addr), zap.Error(err))
		}
		return models.HostRecord{}, false
	}

	rec := models.HostRecord{Address: addr, RTT: rtt}
	if p.resolver == nil {
		return rec, true
	}

	rctx, cancel := context.WithTimeout(ctx, p.resolveTimeout)
	defer cancel()
	name, err := p.resolver.LookupAddr(rctx, addr)
	if err != nil {
		p.logger.Debug("reverse lookup failed", zap.Stringer("address", addr), zap.Error(err))
		return rec, true
	}
	rec.Hostname = name
	return rec, true
}

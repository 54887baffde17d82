// Package sweep probes every host address of a scope with a bounded number of
// probes in flight.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/HerbHall/netscope/internal/metrics"
	"github.com/HerbHall/netscope/internal/netcalc"
	"github.com/HerbHall/netscope/pkg/models"
)

// DefaultMaxHosts is the host count of a /16.
const DefaultMaxHosts = 65534

var (
	// ErrInvalidConcurrency means the in-flight limit is below one.
	ErrInvalidConcurrency = errors.New("concurrency limit must be at least 1")
	// ErrInvalidScope means the scope is not an IPv4 network/broadcast pair.
	ErrInvalidScope = errors.New("invalid scope")
	// ErrScopeTooLarge means the scope holds more hosts than the configured cap.
	ErrScopeTooLarge = errors.New("scope too large")
)

// Prober checks one address.
type Prober interface {
	Probe(ctx context.Context, addr netip.Addr) (models.HostRecord, bool)
}

// Coordinator fans probes out over a scope.
type Coordinator struct {
	prober   Prober
	limiter  *rate.Limiter
	maxHosts int
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRate caps probe launches per second. Zero or less means unlimited.
func WithRate(perSecond float64) Option {
	return func(c *Coordinator) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithMaxHosts refuses scopes with more than n host addresses. Zero or less
// disables the cap.
func WithMaxHosts(n int) Option {
	return func(c *Coordinator) { c.maxHosts = n }
}

// WithMetrics records probe results on m.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Coordinator.
func New(prober Prober, opts ...Option) *Coordinator {
	c := &Coordinator{
		prober:   prober,
		maxHosts: DefaultMaxHosts,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sweep probes every address strictly between the scope's network and
// broadcast addresses, with at most limit probes in flight, and returns the
// addresses that answered sorted by address. Submission blocks while the pool
// is full. Sweep returns only after every submitted probe has finished.
// Unanswered addresses are absent from the result and never cause an error.
func (c *Coordinator) Sweep(ctx context.Context, scope models.Scope, limit int) ([]models.HostRecord, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidConcurrency, limit)
	}
	if !scope.Network.Is4() || !scope.Broadcast.Is4() || scope.Broadcast.Less(scope.Network) {
		return nil, fmt.Errorf("%w: %s-%s", ErrInvalidScope, scope.Network, scope.Broadcast)
	}
	total := netcalc.HostCount(scope.Network, scope.Broadcast)
	if c.maxHosts > 0 && total > c.maxHosts {
		return nil, fmt.Errorf("%w: %s has %d hosts, limit %d", ErrScopeTooLarge, scope, total, c.maxHosts)
	}

	var (
		mu      sync.Mutex
		records []models.HostRecord
		g       errgroup.Group
	)
	g.SetLimit(limit)

	start := time.Now()
	c.logger.Debug("sweep started",
		zap.Stringer("scope", scope),
		zap.Int("hosts", total),
		zap.Int("concurrency", limit),
	)

	for addr := range netcalc.ScopeHosts(scope) {
		if ctx.Err() != nil {
			break
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				break
			}
		}
		g.Go(func() error {
			probeStart := time.Now()
			rec, live := c.prober.Probe(ctx, addr)
			c.metrics.ObserveProbe(live, time.Since(probeStart))
			if !live {
				return nil
			}
			mu.Lock()
			records = append(records, rec)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(records, func(a, b models.HostRecord) int {
		return a.Address.Compare(b.Address)
	})

	c.logger.Debug("sweep finished",
		zap.Stringer("scope", scope),
		zap.Int("live", len(records)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if err := ctx.Err(); err != nil {
		return records, fmt.Errorf("sweep %s: %w", scope, err)
	}
	return records, nil
}

// Package detect runs a full scan: it picks the interface enumerator for the
// platform, lists the interfaces, and sweeps the scope of every interface that
// has a default gateway.
package detect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HerbHall/netscope/internal/iface"
	"github.com/HerbHall/netscope/internal/metrics"
	"github.com/HerbHall/netscope/internal/netcalc"
	"github.com/HerbHall/netscope/internal/oui"
	"github.com/HerbHall/netscope/internal/report"
	"github.com/HerbHall/netscope/internal/sweep"
	"github.com/HerbHall/netscope/pkg/models"
)

// Sweeper probes one scope.
type Sweeper interface {
	Sweep(ctx context.Context, scope models.Scope, limit int) ([]models.HostRecord, error)
}

// Options are the core scan settings.
type Options struct {
	// GOOS selects the enumerator; typically runtime.GOOS.
	GOOS string
	// Concurrency is the in-flight probe ceiling for each sweep.
	Concurrency int
	// SkipSweep reports interfaces only.
	SkipSweep bool
}

// Detector orchestrates one scan.
type Detector struct {
	opts       Options
	sweeper    Sweeper
	runner     iface.Runner
	enumerator iface.Enumerator
	vendors    *oui.Table
	metrics    *metrics.Collector
	logger     *zap.Logger
	now        func() time.Time
	newID      func() string
}

// Option configures a Detector.
type Option func(*Detector)

// WithRunner sets the command runner handed to the enumerator.
func WithRunner(r iface.Runner) Option {
	return func(d *Detector) { d.runner = r }
}

// WithEnumerator bypasses platform selection.
func WithEnumerator(e iface.Enumerator) Option {
	return func(d *Detector) { d.enumerator = e }
}

// WithVendors sets the MAC vendor table.
func WithVendors(t *oui.Table) Option {
	return func(d *Detector) {
		if t != nil {
			d.vendors = t
		}
	}
}

// WithMetrics records interface and sweep statistics on m.
func WithMetrics(m *metrics.Collector) Option {
	return func(d *Detector) { d.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Detector) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithClock sets the time source for the result timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// WithIDFunc sets the scan ID generator.
func WithIDFunc(fn func() string) Option {
	return func(d *Detector) { d.newID = fn }
}

// New creates a Detector. sweeper may be nil when opts.SkipSweep is set.
func New(opts Options, sweeper Sweeper, options ...Option) *Detector {
	d := &Detector{
		opts:    opts,
		sweeper: sweeper,
		runner:  iface.ExecRunner{},
		vendors: oui.NewTable(),
		logger:  zap.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// Run performs discovery and, unless SkipSweep is set, the sweep.
func (d *Detector) Run(ctx context.Context) (*models.ScanResult, error) {
	result, err := d.Discover(ctx)
	if err != nil {
		return nil, err
	}
	if err := d.SweepAll(ctx, result); err != nil {
		return result, err
	}
	return result, nil
}

// RunReport runs a scan and writes the interface block as soon as discovery
// finishes and the host block after every sweep has completed. The host block
// is omitted when SkipSweep is set.
func (d *Detector) RunReport(ctx context.Context, w io.Writer, f report.Formatter) (*models.ScanResult, error) {
	result, err := d.Discover(ctx)
	if err != nil {
		return nil, err
	}
	if err := f.WriteInterfaces(w, result); err != nil {
		return result, fmt.Errorf("write interfaces: %w", err)
	}
	if d.opts.SkipSweep {
		return result, nil
	}
	if err := d.SweepAll(ctx, result); err != nil {
		return result, err
	}
	if err := f.WriteHosts(w, result); err != nil {
		return result, fmt.Errorf("write hosts: %w", err)
	}
	return result, nil
}

// Discover selects the enumerator and lists the interfaces. Failure here is
// fatal for the scan.
func (d *Detector) Discover(ctx context.Context) (*models.ScanResult, error) {
	result := &models.ScanResult{
		ID:        d.newID(),
		Platform:  d.opts.GOOS,
		StartedAt: d.now(),
	}

	e := d.enumerator
	if e == nil {
		var err error
		e, err = iface.Select(d.opts.GOOS, d.runner, d.logger.Named("iface"))
		if err != nil {
			return nil, err
		}
	}

	disc, err := e.Enumerate(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate interfaces with %s: %w", e.Name(), err)
	}
	result.Hostname = disc.Hostname
	result.Interfaces = disc.Interfaces
	for i := range result.Interfaces {
		if mac := result.Interfaces[i].MACAddress; mac != "" {
			result.Interfaces[i].Vendor = d.vendors.Describe(mac)
		}
	}
	result.EndedAt = d.now()
	d.metrics.SetInterfaces(len(disc.Interfaces))

	d.logger.Info("interfaces discovered",
		zap.String("enumerator", e.Name()),
		zap.String("hostname", disc.Hostname),
		zap.Int("count", len(disc.Interfaces)),
	)
	return result, nil
}

// SweepAll sweeps, in order, the scope of every interface with a gateway and
// stores the live hosts on result. A host reachable through several
// interfaces is reported once, attributed to the first interface.
func (d *Detector) SweepAll(ctx context.Context, result *models.ScanResult) error {
	if d.opts.SkipSweep {
		return nil
	}
	if d.sweeper == nil {
		return errors.New("detect: no sweeper configured")
	}

	seen := make(map[netip.Addr]bool)
	for _, ifc := range result.Interfaces {
		if !ifc.HasGateway() {
			d.logger.Debug("skipping interface without gateway", zap.String("interface", ifc.Name))
			continue
		}
		scope, err := netcalc.NewScope(ifc.IP, ifc.SubnetMask)
		if err != nil {
			d.logger.Warn("skipping interface", zap.String("interface", ifc.Name), zap.Error(err))
			continue
		}

		start := d.now()
		hosts, err := d.sweeper.Sweep(ctx, scope, d.opts.Concurrency)
		switch {
		case errors.Is(err, sweep.ErrScopeTooLarge):
			d.logger.Warn("scope too large, not swept",
				zap.String("interface", ifc.Name),
				zap.Stringer("scope", scope),
			)
			continue
		case err != nil:
			return fmt.Errorf("sweep %s: %w", ifc.Name, err)
		}
		d.metrics.ObserveSweep(ifc.Name, d.now().Sub(start))

		for _, h := range hosts {
			if seen[h.Address] {
				continue
			}
			seen[h.Address] = true
			h.Interface = ifc.Name
			result.LiveHosts = append(result.LiveHosts, h)
		}
		d.logger.Info("scope swept",
			zap.String("interface", ifc.Name),
			zap.Stringer("scope", scope),
			zap.Int("live", len(hosts)),
		)
	}

	result.Swept = true
	result.EndedAt = d.now()
	return nil
}

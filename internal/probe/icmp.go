package probe

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// ICMPPinger pings in-process via pro-bing.
type ICMPPinger struct {
	timeout    time.Duration
	privileged bool
}

// Compile-time interface guard.
var _ Pinger = (*ICMPPinger)(nil)

// NewICMPPinger creates an in-process pinger. Unprivileged mode uses UDP
// ICMP sockets, which Linux only allows when net.ipv4.ping_group_range
// covers the caller.
func NewICMPPinger(timeout time.Duration, privileged bool) *ICMPPinger {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ICMPPinger{timeout: timeout, privileged: privileged}
}

// Ping sends one echo request.
func (c *ICMPPinger) Ping(ctx context.Context, addr netip.Addr) (time.Duration, error) {
	pinger, err := probing.NewPinger(addr.String())
	if err != nil {
		return 0, fmt.Errorf("create pinger: %w", err)
	}

	pinger.Count = 1
	pinger.Timeout = c.timeout
	pinger.SetPrivileged(c.privileged)

	// Run pinger in a goroutine for context cancellation.
	done := make(chan error, 1)
	go func() {
		done <- pinger.Run()
	}()

	select {
	case runErr := <-done:
		if runErr != nil {
			return 0, fmt.Errorf("ping %s: %w", addr, runErr)
		}
		stats := pinger.Statistics()
		if stats.PacketsRecv == 0 {
			return 0, ErrNoReply
		}
		return stats.AvgRtt, nil
	case <-ctx.Done():
		pinger.Stop()
		<-done
		return 0, ErrNoReply
	}
}

package probe

import (
	"bytes"
	"context"
	"errors"
	"net/netip"
	"os/exec"
	"regexp"
	"strconv"
	"time"
)

// unreachable is printed by Windows ping with exit status 0 when a router
// answers on behalf of the target.
var unreachable = []byte("Destination host unreachable")

var rttPattern = regexp.MustCompile(`time[=<]([0-9.]+) ?ms`)

// lookPath locates the ping tool.
var lookPath = exec.LookPath

// CommandFunc runs a command and returns its combined output.
type CommandFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ExecPinger probes with the operating system's ping tool.
type ExecPinger struct {
	goos    string
	timeout time.Duration
	command CommandFunc
}

// Compile-time interface guard.
var _ Pinger = (*ExecPinger)(nil)

// NewExecPinger creates a Pinger that runs `ping` with single-packet
// arguments for goos.
func NewExecPinger(goos string, timeout time.Duration) *ExecPinger {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecPinger{goos: goos, timeout: timeout, command: execCommand}
}

// WithCommand replaces the command runner.
func (p *ExecPinger) WithCommand(fn CommandFunc) *ExecPinger {
	p.command = fn
	return p
}

// Ping runs ping once. A non-zero exit means no reply.
func (p *ExecPinger) Ping(ctx context.Context, addr netip.Addr) (time.Duration, error) {
	// The tool's own wait is the primary bound; the context catches a hung
	// process.
	ctx, cancel := context.WithTimeout(ctx, p.timeout+time.Second)
	defer cancel()

	start := time.Now()
	out, err := p.command(ctx, "ping", PingArgs(p.goos, p.timeout, addr)...)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return 0, err
		}
		return 0, ErrNoReply
	}
	if p.goos == "windows" && bytes.Contains(out, unreachable) {
		return 0, ErrNoReply
	}

	if m := rttPattern.FindSubmatch(out); m != nil {
		if ms, perr := strconv.ParseFloat(string(m[1]), 64); perr == nil {
			return time.Duration(ms * float64(time.Millisecond)), nil
		}
	}
	return elapsed, nil
}

// PingArgs returns the ping arguments that send one request and wait at most
// timeout for the reply.
func PingArgs(goos string, timeout time.Duration, addr netip.Addr) []string {
	secs := int((timeout + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	ms := int(timeout / time.Millisecond)
	if ms < 1 {
		ms = 1
	}

	target := addr.String()
	switch goos {
	case "windows":
		return []string{"-n", "1", "-w", strconv.Itoa(ms), target}
	case "darwin":
		return []string{"-c", "1", "-W", strconv.Itoa(ms), target}
	case "freebsd", "dragonfly":
		return []string{"-c", "1", "-t", strconv.Itoa(secs), target}
	case "openbsd", "netbsd":
		// -t sets the TTL (OpenBSD) or TOS (NetBSD) here.
		return []string{"-c", "1", "-w", strconv.Itoa(secs), target}
	default:
		return []string{"-c", "1", "-W", strconv.Itoa(secs), target}
	}
}

// Package iface discovers the host's IPv4 interfaces by running the platform's
// network configuration tools and parsing their textual output.
package iface

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/HerbHall/netscope/pkg/models"
)

var (
	// ErrPlatformUnsupported means no known configuration tool exists for the
	// running platform.
	ErrPlatformUnsupported = errors.New("platform unsupported")
	// ErrUnexpectedOutput means a tool ran but its output did not match the
	// grammar the parser expects.
	ErrUnexpectedOutput = errors.New("unexpected tool output")
)

// ToolError describes an external tool that could not be run, exited
// abnormally, or produced output that could not be parsed.
type ToolError struct {
	Tool   string
	Args   []string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	cmd := strings.TrimSpace(e.Tool + " " + strings.Join(e.Args, " "))
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", cmd, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", cmd, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Discovery is the result of one enumeration.
type Discovery struct {
	Hostname   string
	Interfaces []models.Interface
}

// Enumerator lists the host's interfaces. Implementations differ per platform.
type Enumerator interface {
	// Name identifies the strategy (e.g., "ip", "ifconfig", "ipconfig").
	Name() string
	// Enumerate runs the platform tools and returns the parsed interfaces.
	Enumerate(ctx context.Context) (*Discovery, error)
}

// Runner executes external commands.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	LookPath(name string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Compile-time interface guard.
var _ Runner = ExecRunner{}

// Run executes the command and returns its stdout. Failures are returned as
// *ToolError carrying the command's stderr.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), &ToolError{
			Tool:   name,
			Args:   args,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.Bytes(), nil
}

// LookPath reports where name is on PATH.
func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// run executes a tool and normalises any failure into a *ToolError.
func run(ctx context.Context, r Runner, name string, args ...string) (string, error) {
	out, err := r.Run(ctx, name, args...)
	if err != nil {
		var te *ToolError
		if errors.As(err, &te) {
			return string(out), te
		}
		return string(out), &ToolError{Tool: name, Args: args, Err: err}
	}
	return string(out), nil
}

func parseFailure(name string, args []string, err error) error {
	return &ToolError{Tool: name, Args: args, Err: err}
}

// hostname asks the `hostname` tool first and falls back to the kernel's view.
func hostname(ctx context.Context, r Runner, logger *zap.Logger) string {
	out, err := run(ctx, r, "hostname")
	if name := strings.TrimSpace(out); err == nil && name != "" {
		return name
	}
	logger.Debug("hostname tool failed, using os.Hostname", zap.Error(err))
	name, _ := os.Hostname()
	return name
}

// isLoopback reports whether an adapter name is a loopback device.
func isLoopback(name string) bool {
	return name == "lo" || name == "lo0"
}

// lines splits tool output into lines without trailing carriage returns.
func lines(out string) []string {
	var res []string
	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		res = append(res, strings.TrimRight(sc.Text(), "\r"))
	}
	return res
}

// appendUnique appends iface unless an interface with the same name exists.
func appendUnique(list []models.Interface, iface models.Interface) []models.Interface {
	for _, existing := range list {
		if existing.Name == iface.Name {
			return list
		}
	}
	return append(list, iface)
}

// applyGateways sets Gateway on each interface named in gateways.
func applyGateways(list []models.Interface, gateways map[string]netip.Addr) {
	for i := range list {
		if gw, ok := gateways[list[i].Name]; ok {
			list[i].Gateway = gw
		}
	}
}

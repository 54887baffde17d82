package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FakeResponse is the scripted result of one command.
type FakeResponse struct {
	Stdout string
	Err    error
}

// FakeRunner replays scripted command output. Commands are keyed by their
// full command line, e.g. "ip addr show".
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string]FakeResponse
	paths     map[string]bool
	calls     []string
}

// NewFakeRunner returns a FakeRunner with no scripted commands.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		responses: make(map[string]FakeResponse),
		paths:     make(map[string]bool),
	}
}

// On scripts the output of a command line.
func (f *FakeRunner) On(cmdline, stdout string) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmdline] = FakeResponse{Stdout: stdout}
	return f
}

// Fail scripts a command line to fail with err.
func (f *FakeRunner) Fail(cmdline string, err error) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmdline] = FakeResponse{Err: err}
	return f
}

// WithPath marks tools as present on PATH.
func (f *FakeRunner) WithPath(tools ...string) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range tools {
		f.paths[t] = true
	}
	return f
}

// Run returns the scripted response. Unscripted commands fail.
func (f *FakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	cmdline := strings.TrimSpace(name + " " + strings.Join(args, " "))

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmdline)
	resp, ok := f.responses[cmdline]
	if !ok {
		return nil, fmt.Errorf("exec: %q: executable file not found in $PATH", name)
	}
	return []byte(resp.Stdout), resp.Err
}

// LookPath succeeds for tools registered with WithPath.
func (f *FakeRunner) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.paths[name] {
		return "/usr/bin/" + name, nil
	}
	return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
}

// Calls returns the command lines run so far.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

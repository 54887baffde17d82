package iface

import (
	"errors"
	"testing"

	"github.com/HerbHall/netscope/internal/testutil"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		name     string
		goos     string
		tools    []string
		wantName string
		wantErr  error
	}{
		{name: "linux with iproute2", goos: "linux", tools: []string{"ip", "ifconfig"}, wantName: "ip"},
		{name: "linux net-tools only", goos: "linux", tools: []string{"ifconfig", "route"}, wantName: "ifconfig"},
		{name: "linux without tools", goos: "linux", wantErr: ErrPlatformUnsupported},
		{name: "darwin", goos: "darwin", wantName: "ifconfig+route-get"},
		{name: "freebsd", goos: "freebsd", wantName: "ifconfig+route-get"},
		{name: "openbsd", goos: "openbsd", wantName: "ifconfig+route-get"},
		{name: "windows", goos: "windows", wantName: "ipconfig"},
		{name: "plan9", goos: "plan9", wantErr: ErrPlatformUnsupported},
		{name: "js", goos: "js", wantErr: ErrPlatformUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := testutil.NewFakeRunner().WithPath(tt.tools...)
			e, err := Select(tt.goos, runner, nil)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Select(%q) error = %v, want %v", tt.goos, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Select(%q) error = %v", tt.goos, err)
			}
			if e.Name() != tt.wantName {
				t.Errorf("Select(%q).Name() = %q, want %q", tt.goos, e.Name(), tt.wantName)
			}
		})
	}
}

func TestToolError(t *testing.T) {
	base := errors.New("exit status 2")
	err := error(&ToolError{Tool: "ip", Args: []string{"addr", "show"}, Stderr: "Object \"adr\" is unknown", Err: base})

	if !errors.Is(err, base) {
		t.Error("errors.Is(ToolError, base) = false, want true")
	}
	want := `ip addr show: exit status 2: Object "adr" is unknown`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	bare := &ToolError{Tool: "hostname", Err: base}
	if got := bare.Error(); got != "hostname: exit status 2" {
		t.Errorf("Error() = %q, want %q", got, "hostname: exit status 2")
	}
}

func TestLines(t *testing.T) {
	got := lines("a\r\nb\n\nc")
	want := []string{"a", "b", "", "c"}
	if len(got) != len(want) {
		t.Fatalf("lines() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("lines()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

package probe

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func TestPingArgs(t *testing.T) {
	addr := netip.MustParseAddr("10.0.0.7")
	tests := []struct {
		goos    string
		timeout time.Duration
		want    string
	}{
		{"linux", time.Second, "-c 1 -W 1 10.0.0.7"},
		{"linux", 1500 * time.Millisecond, "-c 1 -W 2 10.0.0.7"},
		{"linux", 100 * time.Millisecond, "-c 1 -W 1 10.0.0.7"},
		{"darwin", time.Second, "-c 1 -W 1000 10.0.0.7"},
		{"freebsd", time.Second, "-c 1 -t 1 10.0.0.7"},
		{"dragonfly", time.Second, "-c 1 -t 1 10.0.0.7"},
		{"openbsd", 3 * time.Second, "-c 1 -w 3 10.0.0.7"},
		{"netbsd", 1500 * time.Millisecond, "-c 1 -w 2 10.0.0.7"},
		{"windows", time.Second, "-n 1 -w 1000 10.0.0.7"},
		{"windows", 250 * time.Millisecond, "-n 1 -w 250 10.0.0.7"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%v", tt.goos, tt.timeout), func(t *testing.T) {
			got := strings.Join(PingArgs(tt.goos, tt.timeout, addr), " ")
			if got != tt.want {
				t.Errorf("PingArgs(%q, %v) = %q, want %q", tt.goos, tt.timeout, got, tt.want)
			}
		})
	}
}

func scripted(out string, err error) (CommandFunc, *[]string) {
	var seen []string
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		seen = append(seen, name+" "+strings.Join(args, " "))
		return []byte(out), err
	}, &seen
}

func TestExecPinger_Ping(t *testing.T) {
	addr := netip.MustParseAddr("192.168.1.1")
	tests := []struct {
		name    string
		goos    string
		out     string
		err     error
		wantRTT time.Duration
		wantErr error
	}{
		{
			name: "linux reply",
			goos: "linux",
			out: "PING 192.168.1.1 (192.168.1.1) 56(84) bytes of data.\n" +
				"64 bytes from 192.168.1.1: icmp_seq=1 ttl=64 time=2.50 ms\n",
			wantRTT: 2500 * time.Microsecond,
		},
		{
			name: "windows reply",
			goos: "windows",
			out: "Pinging 192.168.1.1 with 32 bytes of data:\r\n" +
				"Reply from 192.168.1.1: bytes=32 time<1ms TTL=64\r\n",
			wantRTT: time.Millisecond,
		},
		{
			name: "windows unreachable with zero exit",
			goos: "windows",
			out: "Pinging 192.168.1.1 with 32 bytes of data:\r\n" +
				"Reply from 192.168.1.50: Destination host unreachable.\r\n",
			wantErr: ErrNoReply,
		},
		{
			name:    "non-zero exit",
			goos:    "linux",
			out:     "1 packets transmitted, 0 received, 100% packet loss\n",
			err:     errors.New("exit status 1"),
			wantErr: ErrNoReply,
		},
		{
			name:    "tool missing",
			goos:    "linux",
			err:     &exec.Error{Name: "ping", Err: exec.ErrNotFound},
			wantErr: exec.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, seen := scripted(tt.out, tt.err)
			p := NewExecPinger(tt.goos, time.Second).WithCommand(cmd)

			rtt, err := p.Ping(context.Background(), addr)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Ping() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Ping() error = %v", err)
			}
			if rtt != tt.wantRTT {
				t.Errorf("Ping() rtt = %v, want %v", rtt, tt.wantRTT)
			}
			if len(*seen) != 1 || !strings.HasPrefix((*seen)[0], "ping ") {
				t.Errorf("commands = %q, want one ping", *seen)
			}
		})
	}
}

func TestExecPinger_NoRTTInOutput(t *testing.T) {
	cmd, _ := scripted("1 received\n", nil)
	rtt, err := NewExecPinger("linux", time.Second).WithCommand(cmd).Ping(context.Background(), netip.MustParseAddr("10.0.0.1"))
	if err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if rtt < 0 || rtt > time.Second {
		t.Errorf("Ping() rtt = %v, want measured elapsed time", rtt)
	}
}

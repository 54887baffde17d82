package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/HerbHall/netscope/internal/testutil"
	"github.com/HerbHall/netscope/pkg/models"
)

func sampleResult() *models.ScanResult {
	return &models.ScanResult{
		ID:        "4d3c2b1a-0000-4000-8000-000000000001",
		Hostname:  "workstation",
		Platform:  "linux",
		StartedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndedAt:   time.Date(2025, 1, 1, 0, 0, 5, 0, time.UTC),
		Swept:     true,
		Interfaces: []models.Interface{
			testutil.NewInterface(),
			testutil.NewInterface(
				testutil.WithName("wlan0"),
				testutil.WithIP("10.0.0.7", "255.255.255.0"),
				testutil.WithGateway(""),
				func(i *models.Interface) { i.MACAddress = "" },
			),
		},
		LiveHosts: []models.HostRecord{
			testutil.NewHost("192.168.1.20", ""),
			testutil.NewHost("192.168.1.1", "router.lan"),
			testutil.NewHost("192.168.1.3", "nas.lan"),
		},
	}
}

func TestText_WriteInterfaces(t *testing.T) {
	var buf bytes.Buffer
	if err := (Text{}).WriteInterfaces(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteInterfaces() error = %v", err)
	}

	want := "Hostname: workstation\n" +
		"---------------------\n" +
		"Interface: eth0\n" +
		"\tIP                  192.168.1.10\n" +
		"\tSubnet Mask         255.255.255.0\n" +
		"\tGateway             192.168.1.1\n" +
		"\tMAC Address         52:54:00:12:34:56\n" +
		"\n" +
		"Interface: wlan0\n" +
		"\tIP                  10.0.0.7\n" +
		"\tSubnet Mask         255.255.255.0\n" +
		"\tGateway             \n" +
		"\n"
	if got := buf.String(); got != want {
		t.Errorf("WriteInterfaces() =\n%s\nwant\n%s", got, want)
	}
}

func TestText_WriteHosts(t *testing.T) {
	var buf bytes.Buffer
	if err := (Text{}).WriteHosts(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteHosts() error = %v", err)
	}

	want := "Hosts:\n" +
		"\tIP                  Hostname\n" +
		"\t192.168.1.1         router.lan\n" +
		"\t192.168.1.3         nas.lan\n" +
		"\t192.168.1.20        \n"
	if got := buf.String(); got != want {
		t.Errorf("WriteHosts() =\n%s\nwant\n%s", got, want)
	}
}

func TestText_WriteHosts_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := (Text{}).WriteHosts(&buf, &models.ScanResult{}); err != nil {
		t.Fatalf("WriteHosts() error = %v", err)
	}
	want := "Hosts:\n\tIP                  Hostname\n"
	if got := buf.String(); got != want {
		t.Errorf("WriteHosts() = %q, want %q", got, want)
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	f := JSON{}
	if err := f.WriteInterfaces(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteInterfaces() error = %v", err)
	}
	if err := f.WriteHosts(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteHosts() error = %v", err)
	}

	dec := json.NewDecoder(&buf)
	var ifaces interfacesDoc
	if err := dec.Decode(&ifaces); err != nil {
		t.Fatalf("decode interfaces: %v", err)
	}
	var hosts hostsDoc
	if err := dec.Decode(&hosts); err != nil {
		t.Fatalf("decode hosts: %v", err)
	}

	if ifaces.Hostname != "workstation" || len(ifaces.Interfaces) != 2 {
		t.Errorf("interfaces doc = %+v", ifaces)
	}
	if ifaces.Interfaces[1].Gateway != "" {
		t.Errorf("wlan0 gateway = %q, want empty", ifaces.Interfaces[1].Gateway)
	}
	if len(hosts.LiveHosts) != 3 || hosts.LiveHosts[0].Address != "192.168.1.1" {
		t.Errorf("hosts doc = %+v, want 3 hosts sorted by address", hosts)
	}
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	f := YAML{}
	if err := f.WriteInterfaces(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteInterfaces() error = %v", err)
	}
	if err := f.WriteHosts(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteHosts() error = %v", err)
	}

	dec := yaml.NewDecoder(&buf)
	var ifaces interfacesDoc
	if err := dec.Decode(&ifaces); err != nil {
		t.Fatalf("decode interfaces: %v", err)
	}
	var hosts hostsDoc
	if err := dec.Decode(&hosts); err != nil {
		t.Fatalf("decode hosts: %v", err)
	}

	if ifaces.Interfaces[0].MACAddress != "52:54:00:12:34:56" {
		t.Errorf("eth0 mac = %q", ifaces.Interfaces[0].MACAddress)
	}
	if len(hosts.LiveHosts) != 3 || hosts.LiveHosts[2].Address != "192.168.1.20" {
		t.Errorf("hosts doc = %+v, want 3 hosts sorted by address", hosts)
	}
}

type failingWriter struct{ err error }

func (f failingWriter) Write([]byte) (int, error) { return 0, f.err }

func TestFormatters_PropagateWriterErrors(t *testing.T) {
	sinkErr := errors.New("disk full")
	for _, name := range Formats {
		t.Run(name, func(t *testing.T) {
			f, err := New(name)
			if err != nil {
				t.Fatalf("New(%q) error = %v", name, err)
			}
			if err := f.WriteInterfaces(failingWriter{sinkErr}, sampleResult()); !errors.Is(err, sinkErr) {
				t.Errorf("WriteInterfaces() error = %v, want %v", err, sinkErr)
			}
			if err := f.WriteHosts(failingWriter{sinkErr}, sampleResult()); !errors.Is(err, sinkErr) {
				t.Errorf("WriteHosts() error = %v, want %v", err, sinkErr)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"", false},
		{"text", false},
		{"JSON", false},
		{"yaml", false},
		{"yml", false},
		{"xml", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			_, err := New(tt.format)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownFormat) {
					t.Errorf("New(%q) error = %v, want ErrUnknownFormat", tt.format, err)
				}
				if err != nil && !strings.Contains(err.Error(), "xml") {
					t.Errorf("New(%q) error = %v, want format name in message", tt.format, err)
				}
				return
			}
			if err != nil {
				t.Errorf("New(%q) error = %v", tt.format, err)
			}
		})
	}
}

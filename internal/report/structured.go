package report

import (
	"encoding/json"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/HerbHall/netscope/pkg/models"
)

type interfaceDoc struct {
	Name       string `json:"name" yaml:"name"`
	IP         string `json:"ip" yaml:"ip"`
	SubnetMask string `json:"subnet_mask" yaml:"subnet_mask"`
	Gateway    string `json:"gateway" yaml:"gateway"`
	MACAddress string `json:"mac_address,omitempty" yaml:"mac_address,omitempty"`
	Vendor     string `json:"vendor,omitempty" yaml:"vendor,omitempty"`
}

type interfacesDoc struct {
	ID         string         `json:"id" yaml:"id"`
	Hostname   string         `json:"hostname" yaml:"hostname"`
	Platform   string         `json:"platform" yaml:"platform"`
	StartedAt  time.Time      `json:"started_at" yaml:"started_at"`
	Interfaces []interfaceDoc `json:"interfaces" yaml:"interfaces"`
}

type hostDoc struct {
	Address   string  `json:"address" yaml:"address"`
	Hostname  string  `json:"hostname" yaml:"hostname"`
	RTTMillis float64 `json:"rtt_ms,omitempty" yaml:"rtt_ms,omitempty"`
	Interface string  `json:"interface,omitempty" yaml:"interface,omitempty"`
}

type hostsDoc struct {
	ID        string    `json:"id" yaml:"id"`
	Swept     bool      `json:"swept" yaml:"swept"`
	EndedAt   time.Time `json:"ended_at" yaml:"ended_at"`
	LiveHosts []hostDoc `json:"live_hosts" yaml:"live_hosts"`
}

func newInterfacesDoc(r *models.ScanResult) interfacesDoc {
	doc := interfacesDoc{
		ID:         r.ID,
		Hostname:   r.Hostname,
		Platform:   r.Platform,
		StartedAt:  r.StartedAt,
		Interfaces: make([]interfaceDoc, 0, len(r.Interfaces)),
	}
	for _, i := range r.Interfaces {
		doc.Interfaces = append(doc.Interfaces, interfaceDoc{
			Name:       i.Name,
			IP:         addrString(i.IP),
			SubnetMask: addrString(i.SubnetMask),
			Gateway:    addrString(i.Gateway),
			MACAddress: i.MACAddress,
			Vendor:     i.Vendor,
		})
	}
	return doc
}

func newHostsDoc(r *models.ScanResult) hostsDoc {
	doc := hostsDoc{
		ID:        r.ID,
		Swept:     r.Swept,
		EndedAt:   r.EndedAt,
		LiveHosts: make([]hostDoc, 0, len(r.LiveHosts)),
	}
	for _, h := range sortedHosts(r.LiveHosts) {
		doc.LiveHosts = append(doc.LiveHosts, hostDoc{
			Address:   h.Address.String(),
			Hostname:  h.Hostname,
			RTTMillis: float64(h.RTT) / float64(time.Millisecond),
			Interface: h.Interface,
		})
	}
	return doc
}

// JSON renders each block as one JSON document.
type JSON struct {
	Indent string
}

func (f JSON) encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", f.Indent)
	return enc.Encode(v)
}

// WriteInterfaces writes the interfaces document.
func (f JSON) WriteInterfaces(w io.Writer, result *models.ScanResult) error {
	return f.encode(w, newInterfacesDoc(result))
}

// WriteHosts writes the hosts document.
func (f JSON) WriteHosts(w io.Writer, result *models.ScanResult) error {
	return f.encode(w, newHostsDoc(result))
}

// YAML renders each block as a YAML document. Documents are separated by
// "---" so the combined output is a valid YAML stream.
type YAML struct{}

func (YAML) encode(w io.Writer, v any) error {
	if _, err := io.WriteString(w, "---\n"); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// WriteInterfaces writes the interfaces document.
func (f YAML) WriteInterfaces(w io.Writer, result *models.ScanResult) error {
	return f.encode(w, newInterfacesDoc(result))
}

// WriteHosts writes the hosts document.
func (f YAML) WriteHosts(w io.Writer, result *models.ScanResult) error {
	return f.encode(w, newHostsDoc(result))
}

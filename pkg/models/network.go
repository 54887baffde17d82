package models

import (
	"net/netip"
	"time"
)

// Interface is one network adapter's IPv4 configuration as reported by the OS.
type Interface struct {
	Name       string     `json:"name"`
	MACAddress string     `json:"mac_address,omitempty"`
	IP         netip.Addr `json:"ip"`
	SubnetMask netip.Addr `json:"subnet_mask"`
	Gateway    netip.Addr `json:"gateway"`
	// Vendor is the manufacturer derived from the MAC prefix, if known.
	Vendor string `json:"vendor,omitempty"`
}

// HasGateway reports whether the interface carries a default route.
func (i Interface) HasGateway() bool {
	return i.Gateway.IsValid()
}

// Scope is the IPv4 range addressable on one interface's subnet.
type Scope struct {
	Network   netip.Addr `json:"network"`
	Broadcast netip.Addr `json:"broadcast"`
	Bits      int        `json:"bits"`
}

// Prefix returns the scope in CIDR form.
func (s Scope) Prefix() netip.Prefix {
	return netip.PrefixFrom(s.Network, s.Bits)
}

func (s Scope) String() string {
	return s.Prefix().String()
}

// HostRecord is an address that answered a liveness probe.
// Hostname is empty when reverse resolution failed.
type HostRecord struct {
	Address   netip.Addr    `json:"address"`
	Hostname  string        `json:"hostname"`
	RTT       time.Duration `json:"rtt,omitempty"`
	Interface string        `json:"interface,omitempty"`
}

// ScanResult is the full output of one run. LiveHosts is a set: its order is
// whatever order probes completed in.
type ScanResult struct {
	ID         string       `json:"id"`
	Hostname   string       `json:"hostname"`
	Platform   string       `json:"platform"`
	StartedAt  time.Time    `json:"started_at"`
	EndedAt    time.Time    `json:"ended_at"`
	Swept      bool         `json:"swept"`
	Interfaces []Interface  `json:"interfaces"`
	LiveHosts  []HostRecord `json:"live_hosts"`
}

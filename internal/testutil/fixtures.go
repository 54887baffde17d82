package testutil

import (
	"net/netip"

	"github.com/HerbHall/netscope/pkg/models"
)

// NewInterface returns an Interface with sensible defaults, suitable for test
// fixtures. Override individual fields with options.
func NewInterface(opts ...func(*models.Interface)) models.Interface {
	i := models.Interface{
		Name:       "eth0",
		MACAddress: "52:54:00:12:34:56",
		IP:         netip.MustParseAddr("192.168.1.10"),
		SubnetMask: netip.MustParseAddr("255.255.255.0"),
		Gateway:    netip.MustParseAddr("192.168.1.1"),
	}
	for _, opt := range opts {
		opt(&i)
	}
	return i
}

// WithName sets the interface name.
func WithName(name string) func(*models.Interface) {
	return func(i *models.Interface) { i.Name = name }
}

// WithIP sets the interface address and mask.
func WithIP(ip, mask string) func(*models.Interface) {
	return func(i *models.Interface) {
		i.IP = netip.MustParseAddr(ip)
		i.SubnetMask = netip.MustParseAddr(mask)
	}
}

// WithGateway sets the default gateway. An empty string clears it.
func WithGateway(gw string) func(*models.Interface) {
	return func(i *models.Interface) {
		if gw == "" {
			i.Gateway = netip.Addr{}
			return
		}
		i.Gateway = netip.MustParseAddr(gw)
	}
}

// NewHost returns a HostRecord for addr.
func NewHost(addr, hostname string) models.HostRecord {
	return models.HostRecord{Address: netip.MustParseAddr(addr), Hostname: hostname}
}

package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/HerbHall/netscope/pkg/models"
)

// Text renders the human-readable report.
type Text struct{}

// WriteInterfaces writes:
//
//	Hostname: <name>
//	----------------
//	Interface: <name>
//		IP                  <ip>
//		Subnet Mask         <mask>
//		Gateway             <gateway>
func (Text) WriteInterfaces(w io.Writer, result *models.ScanResult) error {
	bw := bufio.NewWriter(w)

	header := "Hostname: " + result.Hostname
	fmt.Fprintln(bw, header)
	fmt.Fprintln(bw, strings.Repeat("-", len(header)))
	for _, iface := range result.Interfaces {
		fmt.Fprintf(bw, "Interface: %s\n", iface.Name)
		row(bw, "IP", addrString(iface.IP))
		row(bw, "Subnet Mask", addrString(iface.SubnetMask))
		row(bw, "Gateway", addrString(iface.Gateway))
		if iface.MACAddress != "" {
			row(bw, "MAC Address", iface.MACAddress)
		}
		if iface.Vendor != "" {
			row(bw, "Vendor", iface.Vendor)
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

// WriteHosts writes the "Hosts:" table sorted by address.
func (Text) WriteHosts(w io.Writer, result *models.ScanResult) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "Hosts:")
	row(bw, "IP", "Hostname")
	for _, h := range sortedHosts(result.LiveHosts) {
		row(bw, h.Address.String(), h.Hostname)
	}
	return bw.Flush()
}

func row(w io.Writer, label, value string) {
	fmt.Fprintf(w, "\t%-20s%s\n", label, value)
}

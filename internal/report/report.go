// Package report renders a scan result to a writer as plain text, JSON or
// YAML.
package report

import (
	"errors"
	"fmt"
	"io"
	"net/netip"
	"slices"
	"strings"

	"github.com/HerbHall/netscope/pkg/models"
)

// ErrUnknownFormat is returned by New for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown output format")

// Formatter writes the two report blocks. Errors from the writer are
// returned unchanged.
type Formatter interface {
	// WriteInterfaces writes the hostname and the interface table.
	WriteInterfaces(w io.Writer, result *models.ScanResult) error
	// WriteHosts writes the live host table.
	WriteHosts(w io.Writer, result *models.ScanResult) error
}

// Formats lists the names accepted by New.
var Formats = []string{"text", "json", "yaml"}

// New returns the Formatter for format.
func New(format string) (Formatter, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return Text{}, nil
	case "json":
		return JSON{Indent: "  "}, nil
	case "yaml", "yml":
		return YAML{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, format, strings.Join(Formats, ", "))
	}
}

// sortedHosts returns the live hosts ordered by address.
func sortedHosts(hosts []models.HostRecord) []models.HostRecord {
	out := slices.Clone(hosts)
	slices.SortFunc(out, func(a, b models.HostRecord) int {
		return a.Address.Compare(b.Address)
	})
	return out
}

// addrString renders an unset address as an empty string.
func addrString(a netip.Addr) string {
	if !a.IsValid() {
		return ""
	}
	return a.String()
}

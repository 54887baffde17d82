// Package oui maps MAC address prefixes to manufacturers. The full IEEE MA-L
// registry is read with klauspost/oui when a registry file is available; an
// embedded subset of common vendors covers the rest.
package oui

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	ieee "github.com/klauspost/oui"
)

//go:embed oui.txt
var rawData []byte

// LocallyAdministered is reported for addresses with the U/L bit set, which
// carry no manufacturer prefix (QEMU, Docker, randomised Wi-Fi MACs).
const LocallyAdministered = "locally administered"

// EmbeddedSource is reported by Source when no registry file is loaded.
const EmbeddedSource = "embedded"

// systemRegistries lists where distributions install the IEEE oui.txt
// (Debian/Ubuntu ieee-data, hwdata, BSD misc).
var systemRegistries = []string{
	"/usr/share/ieee-data/oui.txt",
	"/var/lib/ieee-data/oui.txt",
	"/usr/share/hwdata/oui.txt",
	"/usr/share/misc/oui.txt",
}

// registry is the query side of a klauspost/oui database.
type registry interface {
	Query(mac string) (*ieee.Entry, error)
}

// Table provides MAC address prefix to manufacturer lookup. The embedded
// subset is loaded on first use. Safe for concurrent readers.
type Table struct {
	registry registry
	source   string

	once  sync.Once
	table map[string]string
}

// NewTable creates a lookup table over the embedded registry subset only.
func NewTable() *Table {
	return &Table{source: EmbeddedSource}
}

// Open creates a table backed by the IEEE registry file at path. An empty
// path uses the first installed system registry, or the embedded subset alone
// when none is installed. An explicit path that cannot be read is an error.
func Open(path string) (*Table, error) {
	if path != "" {
		db, err := ieee.OpenStaticFile(path)
		if err != nil {
			return nil, fmt.Errorf("open OUI registry %s: %w", path, err)
		}
		return &Table{registry: db, source: path}, nil
	}

	for _, candidate := range systemRegistries {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		db, err := ieee.OpenStaticFile(candidate)
		if err != nil {
			continue
		}
		return &Table{registry: db, source: candidate}, nil
	}
	return NewTable(), nil
}

// Source names the registry file in use, or EmbeddedSource.
func (t *Table) Source() string {
	return t.source
}

// Lookup returns the manufacturer for mac, or an empty string.
// The MAC can be in any common format (AA:BB:CC:DD:EE:FF, AA-BB-CC-DD-EE-FF,
// AABBCCDDEEFF, AABB.CCDD.EEFF).
func (t *Table) Lookup(mac string) string {
	prefix := normalize(mac)
	if prefix == "" {
		return ""
	}

	if t.registry != nil {
		entry, err := t.registry.Query(strings.ToLower(prefix) + ":00:00:00")
		if err == nil && entry != nil && entry.Manufacturer != "" {
			return entry.Manufacturer
		}
	}

	t.once.Do(t.load)
	return t.table[prefix]
}

// Describe returns the manufacturer, LocallyAdministered, or an empty string.
func (t *Table) Describe(mac string) string {
	if v := t.Lookup(mac); v != "" {
		return v
	}
	if IsLocallyAdministered(mac) {
		return LocallyAdministered
	}
	return ""
}

// IsLocallyAdministered reports whether the second-least-significant bit of
// the first octet is set.
func IsLocallyAdministered(mac string) bool {
	prefix := normalize(mac)
	if prefix == "" {
		return false
	}
	first, err := strconv.ParseUint(prefix[0:2], 16, 8)
	if err != nil {
		return false
	}
	return first&0x02 != 0
}

func (t *Table) load() {
	t.table = make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(rawData))
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		prefix, vendor, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		prefix = strings.ToUpper(strings.TrimSpace(prefix))
		vendor = strings.TrimSpace(vendor)
		if prefix != "" && vendor != "" {
			t.table[prefix] = vendor
		}
	}
}

// normalize returns the first three octets as "AA:BB:CC", or an empty string
// when mac does not start with six hex digits.
func normalize(mac string) string {
	mac = strings.ToUpper(mac)
	mac = strings.NewReplacer(":", "", "-", "", ".", "").Replace(mac)
	if len(mac) < 6 {
		return ""
	}
	for _, c := range mac[:6] {
		if !strings.ContainsRune("0123456789ABCDEF", c) {
			return ""
		}
	}
	return mac[0:2] + ":" + mac[2:4] + ":" + mac[4:6]
}

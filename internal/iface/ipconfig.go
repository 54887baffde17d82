package iface

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	"go.uber.org/zap"

	"github.com/HerbHall/netscope/internal/netcalc"
	"github.com/HerbHall/netscope/pkg/models"
)

var ipconfigArgs = []string{"/all"}

// Ipconfig enumerates interfaces from the Windows `ipconfig /all` dump.
type Ipconfig struct {
	runner Runner
	logger *zap.Logger
}

// Compile-time interface guard.
var _ Enumerator = (*Ipconfig)(nil)

// NewIpconfig creates a Windows enumerator.
func NewIpconfig(runner Runner, logger *zap.Logger) *Ipconfig {
	return &Ipconfig{runner: runner, logger: logger}
}

func (e *Ipconfig) Name() string { return "ipconfig" }

// Enumerate runs `ipconfig /all` and parses it.
func (e *Ipconfig) Enumerate(ctx context.Context) (*Discovery, error) {
	out, err := run(ctx, e.runner, "ipconfig", ipconfigArgs...)
	if err != nil {
		return nil, err
	}
	d, err := ParseIpconfig(out)
	if err != nil {
		return nil, parseFailure("ipconfig", ipconfigArgs, err)
	}
	if d.Hostname == "" {
		d.Hostname = hostname(ctx, e.runner, e.logger)
	}

	e.logger.Debug("interfaces enumerated",
		zap.String("tool", e.Name()),
		zap.Int("count", len(d.Interfaces)),
	)
	return d, nil
}

// ipconfigRecord is the in-progress adapter record. It only becomes an
// Interface when the block's NetBIOS line is reached.
type ipconfigRecord struct {
	name    string
	mac     string
	ip      netip.Addr
	mask    string
	gateway netip.Addr
}

func (r *ipconfigRecord) finalize() (models.Interface, bool) {
	if r == nil || r.name == "" || !r.ip.IsValid() {
		return models.Interface{}, false
	}
	mask, err := netcalc.ParseMask(r.mask)
	if err != nil {
		return models.Interface{}, false
	}
	return models.Interface{
		Name:       r.name,
		MACAddress: r.mac,
		IP:         r.ip,
		SubnetMask: mask,
		Gateway:    r.gateway,
	}, true
}

// ParseIpconfig parses `ipconfig /all` output. Fields are read in textual
// order (Host Name, adapter header, Physical Address, IPv4 Address, Subnet
// Mask, Default Gateway) and an adapter is emitted only when its
// "NetBIOS over Tcpip" line is reached. Incomplete blocks produce nothing.
func ParseIpconfig(out string) (*Discovery, error) {
	if strings.TrimSpace(out) == "" {
		return nil, fmt.Errorf("%w: empty output", ErrUnexpectedOutput)
	}

	d := &Discovery{}
	var (
		cur            *ipconfigRecord
		gatewayPending bool
	)

	for _, line := range lines(out) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if name, ok := adapterHeader(line); ok {
			cur = &ipconfigRecord{name: name}
			gatewayPending = false
			continue
		}

		label, value, labelled := ipconfigField(trimmed)
		if !labelled {
			// Continuation line, e.g. a second Default Gateway value.
			if gatewayPending && cur != nil && !cur.gateway.IsValid() {
				if gw, err := netip.ParseAddr(trimmed); err == nil && gw.Is4() {
					cur.gateway = gw
				}
			}
			continue
		}
		gatewayPending = false

		switch {
		case label == "Host Name":
			d.Hostname = value
		case cur == nil:
			continue
		case strings.HasPrefix(label, "Physical Address"):
			cur.mac = strings.ToUpper(strings.ReplaceAll(value, "-", ":"))
		case strings.HasPrefix(label, "IPv4 Address"), label == "IP Address",
			label == "Autoconfiguration IPv4 Address":
			if cur.ip.IsValid() {
				continue
			}
			value, _, _ = strings.Cut(value, "(")
			if ip, err := netip.ParseAddr(strings.TrimSpace(value)); err == nil && ip.Is4() {
				cur.ip = ip
			}
		case strings.HasPrefix(label, "Subnet Mask"):
			if cur.mask == "" {
				cur.mask = value
			}
		case strings.HasPrefix(label, "Default Gateway"):
			gatewayPending = true
			if gw, err := netip.ParseAddr(value); err == nil && gw.Is4() {
				cur.gateway = gw
			}
		case strings.HasPrefix(label, "NetBIOS over Tcpip"):
			if iface, ok := cur.finalize(); ok {
				d.Interfaces = appendUnique(d.Interfaces, iface)
			}
			cur = nil
		}
	}
	return d, nil
}

// adapterHeader recognises non-indented "<Kind> adapter <Name>:" lines.
func adapterHeader(line string) (string, bool) {
	if line[0] == ' ' || line[0] == '\t' || !strings.HasSuffix(line, ":") {
		return "", false
	}
	_, name, found := strings.Cut(strings.TrimSuffix(line, ":"), " adapter ")
	if !found {
		return "", false
	}
	return strings.TrimSpace(name), true
}

// ipconfigField splits "Label . . . . : value" into its parts. Lines without
// a dot-leader label report labelled=false.
func ipconfigField(trimmed string) (label, value string, labelled bool) {
	left, right, found := strings.Cut(trimmed, " : ")
	if !found {
		before, ok := strings.CutSuffix(trimmed, " :")
		if !ok {
			return "", "", false
		}
		left, right = before, ""
	}
	label = strings.TrimRight(left, " .")
	if label == "" {
		return "", "", false
	}
	return label, strings.TrimSpace(right), true
}

package iface

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"go.uber.org/zap"

	"github.com/HerbHall/netscope/internal/netcalc"
	"github.com/HerbHall/netscope/pkg/models"
)

var (
	routeTableArgs = []string{"-n"}
	routeGetArgs   = []string{"-n", "get", "default"}
)

// Ifconfig enumerates interfaces with the legacy `ifconfig` and `route`
// tools. On BSD-derived systems the default route comes from a single
// `route -n get default` query; on Linux it comes from the `route -n` table.
type Ifconfig struct {
	runner   Runner
	logger   *zap.Logger
	routeGet bool
}

// Compile-time interface guard.
var _ Enumerator = (*Ifconfig)(nil)

// NewIfconfig creates an enumerator for Linux systems without iproute2.
func NewIfconfig(runner Runner, logger *zap.Logger) *Ifconfig {
	return &Ifconfig{runner: runner, logger: logger}
}

// NewIfconfigBSD creates an enumerator for macOS and the BSDs.
func NewIfconfigBSD(runner Runner, logger *zap.Logger) *Ifconfig {
	return &Ifconfig{runner: runner, logger: logger, routeGet: true}
}

func (e *Ifconfig) Name() string {
	if e.routeGet {
		return "ifconfig+route-get"
	}
	return "ifconfig"
}

// Enumerate runs ifconfig and the route query and joins the results.
func (e *Ifconfig) Enumerate(ctx context.Context) (*Discovery, error) {
	host := hostname(ctx, e.runner, e.logger)

	out, err := run(ctx, e.runner, "ifconfig")
	if err != nil {
		return nil, err
	}
	ifaces, err := ParseIfconfig(out)
	if err != nil {
		return nil, parseFailure("ifconfig", nil, err)
	}

	gateways, err := e.defaultRoute(ctx)
	if err != nil {
		return nil, err
	}
	applyGateways(ifaces, gateways)

	e.logger.Debug("interfaces enumerated",
		zap.String("tool", e.Name()),
		zap.Int("count", len(ifaces)),
		zap.Int("default_routes", len(gateways)),
	)
	return &Discovery{Hostname: host, Interfaces: ifaces}, nil
}

func (e *Ifconfig) defaultRoute(ctx context.Context) (map[string]netip.Addr, error) {
	gateways := make(map[string]netip.Addr)

	if !e.routeGet {
		out, err := run(ctx, e.runner, "route", routeTableArgs...)
		if err != nil {
			return nil, err
		}
		name, gw, ok, err := ParseRouteTable(out)
		if err != nil {
			return nil, parseFailure("route", routeTableArgs, err)
		}
		if ok {
			gateways[name] = gw
		}
		return gateways, nil
	}

	out, err := run(ctx, e.runner, "route", routeGetArgs...)
	if err != nil {
		// A host without a default route makes route(8) exit non-zero.
		var te *ToolError
		if errors.As(err, &te) && strings.Contains(te.Stderr+out, "not in table") {
			e.logger.Debug("no default route")
			return gateways, nil
		}
		return nil, err
	}
	name, gw, ok := ParseRouteGet(out)
	if ok {
		gateways[name] = gw
	}
	return gateways, nil
}

// ifconfigBlock accumulates one adapter section of ifconfig output.
type ifconfigBlock struct {
	name string
	mac  string
	ip   netip.Addr
	mask netip.Addr
}

func (b *ifconfigBlock) flush(list []models.Interface) []models.Interface {
	if b == nil || b.name == "" || isLoopback(b.name) || !b.ip.IsValid() {
		return list
	}
	return appendUnique(list, models.Interface{
		Name:       b.name,
		MACAddress: b.mac,
		IP:         b.ip,
		SubnetMask: b.mask,
	})
}

// ParseIfconfig parses ifconfig output in the BSD/macOS form
// ("inet 10.0.0.2 netmask 0xffffff00"), the current net-tools form
// ("inet 10.0.0.2  netmask 255.255.255.0") and the old net-tools form
// ("inet addr:10.0.0.2  Bcast:...  Mask:255.255.255.0"). A section starts at
// every non-indented line; the first inet line of a section is kept.
func ParseIfconfig(out string) ([]models.Interface, error) {
	var (
		list    []models.Interface
		cur     *ifconfigBlock
		headers int
	)

	for _, line := range lines(out) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if line[0] != ' ' && line[0] != '\t' {
			list = cur.flush(list)
			cur = &ifconfigBlock{name: ifconfigName(line)}
			if hw, ok := keywordValue(strings.Fields(line), "HWaddr"); ok {
				cur.mac = strings.ToUpper(hw)
			}
			headers++
			continue
		}
		if cur == nil {
			continue
		}

		tokens := strings.Fields(line)
		switch tokens[0] {
		case "ether":
			if len(tokens) > 1 {
				cur.mac = strings.ToUpper(tokens[1])
			}
		case "inet":
			if cur.ip.IsValid() {
				continue
			}
			ip, mask, err := parseInetLine(tokens)
			if err != nil {
				return nil, err
			}
			cur.ip, cur.mask = ip, mask
		}
	}
	list = cur.flush(list)

	if headers == 0 && strings.TrimSpace(out) != "" {
		return nil, fmt.Errorf("%w: no adapter sections", ErrUnexpectedOutput)
	}
	return list, nil
}

// ifconfigName extracts the adapter name from a section header line.
func ifconfigName(line string) string {
	field := strings.Fields(line)[0]
	return strings.TrimSuffix(field, ":")
}

func parseInetLine(tokens []string) (netip.Addr, netip.Addr, error) {
	if len(tokens) < 2 {
		return netip.Addr{}, netip.Addr{}, fmt.Errorf("%w: bare inet line", ErrUnexpectedOutput)
	}

	rawIP := strings.TrimPrefix(tokens[1], "addr:")
	ip, err := netip.ParseAddr(rawIP)
	if err != nil {
		return netip.Addr{}, netip.Addr{}, fmt.Errorf("%w: inet value %q", ErrUnexpectedOutput, tokens[1])
	}

	var rawMask string
	if v, ok := keywordValue(tokens, "netmask"); ok {
		rawMask = v
	} else {
		for _, tok := range tokens[2:] {
			if v, ok := strings.CutPrefix(tok, "Mask:"); ok {
				rawMask = v
				break
			}
		}
	}
	if rawMask == "" {
		return netip.Addr{}, netip.Addr{}, fmt.Errorf("%w: no netmask for %s", ErrUnexpectedOutput, ip)
	}
	mask, err := netcalc.ParseMask(rawMask)
	if err != nil {
		return netip.Addr{}, netip.Addr{}, fmt.Errorf("%w: %w", ErrUnexpectedOutput, err)
	}
	return ip, mask, nil
}

// ParseRouteTable finds the default entry (destination 0.0.0.0) in `route -n`
// output. ok is false when the table has no default entry.
func ParseRouteTable(out string) (name string, gateway netip.Addr, ok bool, err error) {
	for _, line := range lines(out) {
		tokens := strings.Fields(line)
		if len(tokens) == 0 || tokens[0] != "0.0.0.0" {
			continue
		}
		if len(tokens) < 8 {
			return "", netip.Addr{}, false, fmt.Errorf("%w: short route entry %q", ErrUnexpectedOutput, line)
		}
		gw, perr := netip.ParseAddr(tokens[1])
		if perr != nil {
			return "", netip.Addr{}, false, fmt.Errorf("%w: gateway %q", ErrUnexpectedOutput, tokens[1])
		}
		if gw.IsUnspecified() {
			continue
		}
		return tokens[7], gw, true, nil
	}
	return "", netip.Addr{}, false, nil
}

// ParseRouteGet reads the "gateway:" and "interface:" lines of
// `route -n get default`. ok is false unless both are present and the
// gateway is an IPv4 address.
func ParseRouteGet(out string) (name string, gateway netip.Addr, ok bool) {
	for _, line := range lines(out) {
		key, value, found := strings.Cut(strings.TrimSpace(line), ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "gateway":
			if gw, err := netip.ParseAddr(value); err == nil && gw.Is4() {
				gateway = gw
			}
		case "interface":
			name = value
		}
	}
	return name, gateway, name != "" && gateway.IsValid()
}

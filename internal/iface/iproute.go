package iface

import (
	"context"
	"fmt"
	"net/netip"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/HerbHall/netscope/internal/netcalc"
	"github.com/HerbHall/netscope/pkg/models"
)

var (
	ipAddrArgs  = []string{"addr", "show"}
	ipRouteArgs = []string{"route", "show"}
)

// IPRoute enumerates interfaces with the iproute2 `ip` tool (modern Linux).
type IPRoute struct {
	runner Runner
	logger *zap.Logger
}

// Compile-time interface guard.
var _ Enumerator = (*IPRoute)(nil)

// NewIPRoute creates an iproute2-backed enumerator.
func NewIPRoute(runner Runner, logger *zap.Logger) *IPRoute {
	return &IPRoute{runner: runner, logger: logger}
}

func (e *IPRoute) Name() string { return "ip" }

// Enumerate runs `ip addr show` and `ip route show` and joins the results.
func (e *IPRoute) Enumerate(ctx context.Context) (*Discovery, error) {
	host := hostname(ctx, e.runner, e.logger)

	out, err := run(ctx, e.runner, "ip", ipAddrArgs...)
	if err != nil {
		return nil, err
	}
	ifaces, err := ParseIPAddr(out)
	if err != nil {
		return nil, parseFailure("ip", ipAddrArgs, err)
	}

	out, err = run(ctx, e.runner, "ip", ipRouteArgs...)
	if err != nil {
		return nil, err
	}
	gateways, err := ParseIPRoute(out)
	if err != nil {
		return nil, parseFailure("ip", ipRouteArgs, err)
	}
	applyGateways(ifaces, gateways)

	e.logger.Debug("interfaces enumerated",
		zap.String("tool", e.Name()),
		zap.Int("count", len(ifaces)),
		zap.Int("default_routes", len(gateways)),
	)
	return &Discovery{Hostname: host, Interfaces: ifaces}, nil
}

// ipAddrBlock accumulates one adapter section of `ip addr show`.
type ipAddrBlock struct {
	name string
	mac  string
	ip   netip.Addr
	mask netip.Addr
}

func (b *ipAddrBlock) flush(list []models.Interface) []models.Interface {
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

// ParseIPAddr parses `ip addr show` output. Adapter sections start with a
// line beginning with the numeric index ("2: eth0: <...>"); the first "inet"
// line of a section gives its address. Loopback adapters are dropped.
func ParseIPAddr(out string) ([]models.Interface, error) {
	var (
		list    []models.Interface
		cur     *ipAddrBlock
		headers int
	)

	for _, line := range lines(out) {
		if line == "" {
			continue
		}
		if unicode.IsDigit(rune(line[0])) {
			list = cur.flush(list)
			fields := strings.SplitN(line, ":", 3)
			if len(fields) < 3 {
				return nil, fmt.Errorf("%w: adapter header %q", ErrUnexpectedOutput, line)
			}
			name := strings.TrimSpace(fields[1])
			if at := strings.IndexByte(name, '@'); at > 0 {
				name = name[:at]
			}
			cur = &ipAddrBlock{name: name}
			headers++
			continue
		}
		if cur == nil {
			continue
		}

		tokens := strings.Fields(line)
		if len(tokens) < 2 {
			continue
		}
		switch tokens[0] {
		case "link/ether":
			cur.mac = strings.ToUpper(tokens[1])
		case "inet":
			if cur.ip.IsValid() {
				continue
			}
			prefix, err := netip.ParsePrefix(tokens[1])
			if err != nil {
				// Point-to-point links print "inet A peer B/len".
				addr, aerr := netip.ParseAddr(tokens[1])
				if aerr != nil {
					return nil, fmt.Errorf("%w: inet value %q", ErrUnexpectedOutput, tokens[1])
				}
				prefix = netip.PrefixFrom(addr, 32)
				if p := peerPrefix(tokens); p.IsValid() {
					prefix = netip.PrefixFrom(addr, p.Bits())
				}
			}
			cur.ip = prefix.Addr()
			cur.mask = netcalc.MaskFromBits(prefix.Bits())
		}
	}
	list = cur.flush(list)

	if headers == 0 && strings.TrimSpace(out) != "" {
		return nil, fmt.Errorf("%w: no adapter sections", ErrUnexpectedOutput)
	}
	return list, nil
}

func peerPrefix(tokens []string) netip.Prefix {
	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i] == "peer" {
			p, err := netip.ParsePrefix(tokens[i+1])
			if err == nil {
				return p
			}
		}
	}
	return netip.Prefix{}
}

// ParseIPRoute parses `ip route show` output and returns the default gateway
// per interface name. Default routes without a "via" hop are ignored.
func ParseIPRoute(out string) (map[string]netip.Addr, error) {
	gateways := make(map[string]netip.Addr)
	for _, line := range lines(out) {
		if !strings.HasPrefix(line, "default") {
			continue
		}
		tokens := strings.Fields(line)
		via, hasVia := keywordValue(tokens, "via")
		dev, hasDev := keywordValue(tokens, "dev")
		if !hasDev {
			return nil, fmt.Errorf("%w: default route without device %q", ErrUnexpectedOutput, line)
		}
		if !hasVia {
			continue
		}
		gw, err := netip.ParseAddr(via)
		if err != nil {
			return nil, fmt.Errorf("%w: gateway %q", ErrUnexpectedOutput, via)
		}
		if !gw.Is4() {
			continue
		}
		if _, seen := gateways[dev]; !seen {
			gateways[dev] = gw
		}
	}
	return gateways, nil
}

// keywordValue returns the token following key.
func keywordValue(tokens []string, key string) (string, bool) {
	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i] == key {
			return tokens[i+1], true
		}
	}
	return "", false
}

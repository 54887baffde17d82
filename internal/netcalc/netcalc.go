// Package netcalc provides IPv4 subnet arithmetic over address/mask pairs.
package netcalc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"math"
	"math/bits"
	"net/netip"
	"strconv"
	"strings"

	"github.com/HerbHall/netscope/pkg/models"
)

var (
	// ErrNotIPv4 is returned when an address or mask is not IPv4.
	ErrNotIPv4 = errors.New("not an IPv4 address")
	// ErrInvalidMask is returned for masks that cannot be parsed or, in
	// strict mode, are not a contiguous run of leading ones.
	ErrInvalidMask = errors.New("invalid subnet mask")
)

// Network returns ip AND mask. Both must be IPv4.
func Network(ip, mask netip.Addr) netip.Addr {
	return fromUint32(toUint32(ip) & toUint32(mask))
}

// Broadcast returns ip OR NOT mask. Both must be IPv4.
func Broadcast(ip, mask netip.Addr) netip.Addr {
	return fromUint32(toUint32(ip) | ^toUint32(mask))
}

// Hosts yields every address strictly between network and broadcast.
// The sequence holds no state and can be ranged over any number of times.
func Hosts(network, broadcast netip.Addr) iter.Seq[netip.Addr] {
	lo, hi := toUint32(network), toUint32(broadcast)
	return func(yield func(netip.Addr) bool) {
		if hi <= lo {
			return
		}
		for u := lo + 1; u < hi; u++ {
			if !yield(fromUint32(u)) {
				return
			}
		}
	}
}

// HostCount returns the number of addresses Hosts yields, saturating at
// math.MaxInt where int cannot hold it.
func HostCount(network, broadcast netip.Addr) int {
	lo, hi := toUint32(network), toUint32(broadcast)
	if hi <= lo || hi-lo == 1 {
		return 0
	}
	n := uint64(hi-lo) - 1
	if n > math.MaxInt {
		return math.MaxInt
	}
	return int(n)
}

// ParseMask parses a subnet mask in dotted-decimal ("255.255.255.0") or
// hexadecimal ("0xffffff00") form. Non-contiguous masks are passed through.
func ParseMask(s string) (netip.Addr, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		hex := s[2:]
		if len(hex) != 8 {
			return netip.Addr{}, fmt.Errorf("%w: %q", ErrInvalidMask, s)
		}
		var b [4]byte
		for i := range b {
			v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
			if err != nil {
				return netip.Addr{}, fmt.Errorf("%w: %q", ErrInvalidMask, s)
			}
			b[i] = byte(v)
		}
		return netip.AddrFrom4(b), nil
	}

	mask, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %q", ErrInvalidMask, s)
	}
	if !mask.Is4() {
		return netip.Addr{}, fmt.Errorf("%w: %q", ErrNotIPv4, s)
	}
	return mask, nil
}

// ParseMaskStrict is ParseMask that also rejects non-contiguous masks.
func ParseMaskStrict(s string) (netip.Addr, error) {
	mask, err := ParseMask(s)
	if err != nil {
		return netip.Addr{}, err
	}
	if !ValidMask(mask) {
		return netip.Addr{}, fmt.Errorf("%w: %q is not contiguous", ErrInvalidMask, s)
	}
	return mask, nil
}

// ValidMask reports whether mask is a left-justified run of set bits.
func ValidMask(mask netip.Addr) bool {
	if !mask.Is4() {
		return false
	}
	inv := ^toUint32(mask)
	return inv&(inv+1) == 0
}

// PrefixLen returns the number of leading set bits in mask.
func PrefixLen(mask netip.Addr) int {
	return bits.LeadingZeros32(^toUint32(mask))
}

// MaskFromBits returns the dotted mask for a prefix length in [0, 32].
func MaskFromBits(n int) netip.Addr {
	if n <= 0 {
		return netip.AddrFrom4([4]byte{})
	}
	if n >= 32 {
		return netip.AddrFrom4([4]byte{255, 255, 255, 255})
	}
	return fromUint32(^uint32(0) << (32 - n))
}

// NewScope derives the network range of an interface address and mask.
func NewScope(ip, mask netip.Addr) (models.Scope, error) {
	if !ip.Is4() && !ip.Is4In6() {
		return models.Scope{}, fmt.Errorf("%w: %s", ErrNotIPv4, ip)
	}
	if !mask.Is4() {
		return models.Scope{}, fmt.Errorf("%w: mask %s", ErrNotIPv4, mask)
	}
	ip = ip.Unmap()
	return models.Scope{
		Network:   Network(ip, mask),
		Broadcast: Broadcast(ip, mask),
		Bits:      PrefixLen(mask),
	}, nil
}

// ScopeHosts yields the usable host addresses of a scope.
func ScopeHosts(s models.Scope) iter.Seq[netip.Addr] {
	return Hosts(s.Network, s.Broadcast)
}

func toUint32(a netip.Addr) uint32 {
	b := a.Unmap().As4()
	return binary.BigEndian.Uint32(b[:])
}

func fromUint32(u uint32) netip.Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], u)
	return netip.AddrFrom4(b)
}

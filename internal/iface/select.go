package iface

import (
	"fmt"

	"go.uber.org/zap"
)

// Select returns the Enumerator for the given GOOS. On Linux, where both tool
// families may exist, iproute2 is preferred and ifconfig is the fallback.
func Select(goos string, runner Runner, logger *zap.Logger) (Enumerator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch goos {
	case "linux":
		if _, err := runner.LookPath("ip"); err == nil {
			return NewIPRoute(runner, logger), nil
		}
		if _, err := runner.LookPath("ifconfig"); err == nil {
			logger.Debug("ip not found, falling back to ifconfig")
			return NewIfconfig(runner, logger), nil
		}
		return nil, fmt.Errorf("%w: %s: neither ip nor ifconfig found", ErrPlatformUnsupported, goos)
	case "darwin", "freebsd", "openbsd", "netbsd", "dragonfly":
		return NewIfconfigBSD(runner, logger), nil
	case "windows":
		return NewIpconfig(runner, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrPlatformUnsupported, goos)
	}
}

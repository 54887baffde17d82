// Package version holds NetScope build information, injected with
//
//	-ldflags "-X github.com/HerbHall/netscope/internal/version.Version=..."
package version

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns the --version line.
func Info() string {
	return fmt.Sprintf("NetScope %s %s/%s (commit: %s, built: %s, go: %s)",
		Version, runtime.GOOS, runtime.GOARCH, GitCommit, BuildDate, runtime.Version())
}

// Short returns just the version string (e.g., "0.1.0" or "dev").
func Short() string {
	return Version
}

// Fields returns the build information as log fields.
func Fields() []zap.Field {
	return []zap.Field{
		zap.String("version", Version),
		zap.String("git_commit", GitCommit),
		zap.String("build_date", BuildDate),
		zap.String("go_version", runtime.Version()),
	}
}

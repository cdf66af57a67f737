// Package version carries build metadata for --version.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is set via build-time ldflags in release builds:
// go build -ldflags "-X git.home.luguber.info/inful/streamsite/internal/version.Version=v0.3.0".
var Version = "dev"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Resolved returns Version, falling back to the module version recorded by
// `go install` when no ldflags were given.
func Resolved() string {
	if Version != "dev" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return Version
}

// String returns the line printed by --version.
func String() string {
	return fmt.Sprintf("streamsite %s (commit %s, built %s)", Resolved(), GitCommit, BuildTime)
}

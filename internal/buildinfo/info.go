// Package buildinfo carries release metadata stamped by the linker:
//
//	go build -ldflags "-X github.com/fortneer/fluxo/internal/buildinfo.Version=v1.2.0"
package buildinfo

import "fmt"

var (
	// Version will be set via ldflags during build.
	Version = "dev"
	// Commit will be set via ldflags during build.
	Commit = "none"
	// Date will be set via ldflags during build.
	Date = "unknown"
)

// String is the version line printed by fluxo --version.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}

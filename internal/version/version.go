// Package version holds build metadata injected at link time.
package version

import "fmt"

// Set via -ldflags "-X github.com/HerbHall/occutrend/internal/version.Version=..."
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Short returns just the version string.
func Short() string {
	return Version
}

// Info returns the full version line for the CLI.
func Info() string {
	return fmt.Sprintf("occutrend %s (commit %s, built %s)", Version, Commit, Date)
}

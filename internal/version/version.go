// Package version exposes build metadata injected at link time.
package version

// Set via -ldflags at build time, e.g.
//
//	go build -ldflags "-X .../internal/version.Version=0.3.0 -X .../internal/version.Commit=$(git rev-parse --short HEAD)"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns the version string for headers and log lines.
func Short() string {
	return Version
}

// Map returns all build metadata for the health endpoint.
func Map() map[string]string {
	return map[string]string{
		"version": Version,
		"commit":  Commit,
		"date":    Date,
	}
}

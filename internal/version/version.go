// Package version carries build metadata injected with -ldflags.
package version

var (
	// Version is the release tag, e.g. v0.3.0.
	Version = "dev"
	// Commit is the git revision the binary was built from.
	Commit = ""
	// BuildDate is the UTC build timestamp.
	BuildDate = ""
)

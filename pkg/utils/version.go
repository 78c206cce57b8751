// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

// Build metadata stamped via -ldflags; the version command and the MCP
// server implementation info report these.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

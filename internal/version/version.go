// Package version carries the build version, overridable at link time.
package version

// Version is stamped via -ldflags "-X .../internal/version.Version=...".
var Version = "2.0.0-dev"

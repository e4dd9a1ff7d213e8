// Package buildinfo holds the version string stamped into release builds via -ldflags.
package buildinfo

// Version is overridden at build time with -ldflags "-X .../internal/buildinfo.Version=...".
var Version = "dev"

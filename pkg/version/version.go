// Package version holds the build version, set at link time with
// -ldflags "-X storyvoice/pkg/version.Version=...".
package version

// Version is the storyvoice release.
var Version = "0.3.0"

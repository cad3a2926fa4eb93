// Package version holds build-time version metadata, populated via
// -ldflags at build time. Zero values are used for `go run`/tests.
package version

var (
	// GitRelease is the tagged release version, e.g. "v0.4.1".
	GitRelease = "dev"
	// GitCommit is the short commit hash of the build.
	GitCommit = "unknown"
	// GitCommitDate is the commit timestamp of the build.
	GitCommitDate = "unknown"
	// GoInfo is the Go toolchain version used to build the binary.
	GoInfo = "unknown"
)

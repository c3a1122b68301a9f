// Package version reports the build version of a command. The values are
// stamped with -ldflags and fall back to the VCS settings recorded by the
// Go toolchain.
package version

//go:build !release

// Package assert checks internal invariants of the runtime. Assertions panic in development builds
// and compile to no-ops when built with the release tag.
package assert

import "fmt"

// That panics with the formatted message if cond is false.
func That(cond bool, format string, args ...any) { //nolint:goprintffuncname // it's ok
	if !cond {
		panic(fmt.Sprintf("assertion failed: "+format, args...))
	}
}

// Enabled reports whether assertions are checked in this build.
const Enabled = true

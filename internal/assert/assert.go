//go:build debug

// Package assert checks algorithmic invariants. The checks only run in
// builds tagged "debug"; release builds compile them to no-ops.
package assert

import "fmt"

// Enabled reports whether assertions are compiled in
const Enabled = true

// That panics with the formatted message when cond is false
func That(cond bool, format string, args ...any) {
	if !cond {
		panic("assertion failed: " + fmt.Sprintf(format, args...))
	}
}

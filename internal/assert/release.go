//go:build !debug

package assert

// Enabled reports whether assertions are compiled in
const Enabled = false

// That is a no-op outside debug builds
func That(cond bool, format string, args ...any) {}

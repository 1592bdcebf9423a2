//go:build release

package assert

func That(bool, string, ...any) {}

const Enabled = false

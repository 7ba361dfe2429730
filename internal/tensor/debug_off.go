//go:build !fnstackdebug

package tensor

// DebugChecks enables invariant verification after every graph step.
// Build with -tags fnstackdebug to turn it on.
const DebugChecks = false

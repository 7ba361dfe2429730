//go:build fnstackdebug

package tensor

// DebugChecks enables invariant verification after every graph step.
const DebugChecks = true

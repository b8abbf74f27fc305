// Package scan runs the conservative whole-program reachability
// pre-pass that drives metadata pruning and devirtualization.
package scan

import "aotc/internal/target"

// Setting is the user's tri-state scan control.
type Setting struct {
	ForceOn  bool
	ForceOff bool
}

// ShouldRun decides whether the scanner runs. Force-disable always
// wins; force-enable wins next. The auto default only trusts the
// scanner for backends whose inlining and devirtualization behavior it
// models: optimizing native single-module builds.
func ShouldRun(cfg *target.CompilationConfig, s Setting, multiFile bool) bool {
	if s.ForceOff {
		return false
	}
	if s.ForceOn {
		return true
	}
	if cfg.Optimization == target.OptNone {
		return false
	}
	if cfg.Codegen != target.CodegenNative {
		return false
	}
	if multiFile {
		return false
	}
	return true
}

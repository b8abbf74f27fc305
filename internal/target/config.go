package target

import (
	"fmt"

	"aotc/internal/diag"
)

// OptimizationMode selects the codegen optimization profile.
type OptimizationMode uint8

const (
	OptNone OptimizationMode = iota
	OptBlended
	OptPreferSize
	OptPreferSpeed
)

func (m OptimizationMode) String() string {
	switch m {
	case OptNone:
		return "none"
	case OptBlended:
		return "blended"
	case OptPreferSize:
		return "prefer-size"
	case OptPreferSpeed:
		return "prefer-speed"
	}
	return "unknown"
}

// CodegenMode selects the code generation backend family.
type CodegenMode uint8

const (
	// CodegenNative is the default JIT-style native backend.
	CodegenNative CodegenMode = iota
	// CodegenPortableC lowers to portable C-like output.
	CodegenPortableC
	// CodegenWasm targets WebAssembly.
	CodegenWasm
	// CodegenFixedImage compiles ahead for a fixed runtime image.
	CodegenFixedImage
)

func (m CodegenMode) String() string {
	switch m {
	case CodegenNative:
		return "native"
	case CodegenPortableC:
		return "cee-c"
	case CodegenWasm:
		return "wasm"
	case CodegenFixedImage:
		return "fixed-image"
	}
	return "unknown"
}

// ParseCodegenMode maps a backend selector string to a CodegenMode.
func ParseCodegenMode(s string) (CodegenMode, error) {
	switch s {
	case "", "native":
		return CodegenNative, nil
	case "cee-c", "c":
		return CodegenPortableC, nil
	case "wasm":
		return CodegenWasm, nil
	case "fixed-image":
		return CodegenFixedImage, nil
	default:
		return CodegenNative, diag.Configf(diag.CfgInfo, "unsupported backend: %s (supported: native, cee-c, wasm, fixed-image)", s)
	}
}

// Feature is a removable runtime feature tracked in the removed-feature
// bitset.
type Feature uint32

const (
	FeatureReflection Feature = 1 << iota
	FeatureEventPipe
	FeatureGlobalization
)

// Options is the raw, unvalidated configuration as collected from flags
// and the manifest.
type Options struct {
	ArchName string
	OSName   string

	Codegen CodegenMode

	OptBlended     bool
	OptPreferSize  bool
	OptPreferSpeed bool

	DebugInfo      bool
	StackTraceData bool
	FoldBodies     bool
	SharedGenerics bool

	DisableReflection bool

	RuntimeOptions []string
	Jobs           int
}

// CompilationConfig is the validated, immutable compilation
// configuration. Construct it only through Resolve.
type CompilationConfig struct {
	Arch Architecture
	OS   OperatingSystem
	// ABI is derived from the codegen mode and never set directly.
	ABI string

	Codegen      CodegenMode
	Optimization OptimizationMode

	DebugInfo      bool
	StackTraceData bool
	FoldBodies     bool
	SharedGenerics bool

	RemovedFeatures Feature

	RuntimeOptions []string
	Jobs           int
}

// TargetTriple renders the conventional arch-os-abi triple.
func (c *CompilationConfig) TargetTriple() string {
	return fmt.Sprintf("%s-%s-%s", c.Arch, c.OS, c.ABI)
}

// HasRemovedFeature reports whether the feature was compiled out.
func (c *CompilationConfig) HasRemovedFeature(f Feature) bool {
	return c.RemovedFeatures&f != 0
}

// Resolve validates Options into a CompilationConfig. It reports a
// warning through r when -Os and -Ot are both requested (PreferSize
// wins) and when the wasm backend overrides the requested architecture.
func Resolve(opts Options, r diag.Reporter) (*CompilationConfig, error) {
	if r == nil {
		r = diag.NopReporter{}
	}

	arch, err := ParseArchitecture(opts.ArchName)
	if err != nil {
		return nil, err
	}
	os, err := ParseOS(opts.OSName)
	if err != nil {
		return nil, err
	}

	if opts.Codegen == CodegenWasm && arch != ArchWasm32 {
		if opts.ArchName != "" {
			r.Report(diag.NewWarning(diag.CfgWasmArchForced, "",
				fmt.Sprintf("wasm backend ignores requested architecture %q; using wasm32", opts.ArchName)))
		}
		arch = ArchWasm32
	}

	opt := OptNone
	switch {
	case opts.OptPreferSize && opts.OptPreferSpeed:
		r.Report(diag.NewWarning(diag.CfgOptConflict, "",
			"-Os and -Ot are mutually exclusive; preferring size"))
		opt = OptPreferSize
	case opts.OptPreferSize:
		opt = OptPreferSize
	case opts.OptPreferSpeed:
		opt = OptPreferSpeed
	case opts.OptBlended:
		opt = OptBlended
	}

	var removed Feature
	if opts.DisableReflection {
		removed |= FeatureReflection
	}

	cfg := &CompilationConfig{
		Arch:            arch,
		OS:              os,
		ABI:             abiFor(opts.Codegen),
		Codegen:         opts.Codegen,
		Optimization:    opt,
		DebugInfo:       opts.DebugInfo,
		StackTraceData:  opts.StackTraceData,
		FoldBodies:      opts.FoldBodies,
		SharedGenerics:  opts.SharedGenerics,
		RemovedFeatures: removed,
		RuntimeOptions:  append([]string(nil), opts.RuntimeOptions...),
		Jobs:            opts.Jobs,
	}
	return cfg, nil
}

func abiFor(mode CodegenMode) string {
	switch mode {
	case CodegenPortableC:
		return "cee"
	case CodegenWasm:
		return "wasm"
	case CodegenFixedImage:
		return "fixed"
	default:
		return "nativeaot"
	}
}

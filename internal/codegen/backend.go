// Package codegen runs the real compilation pass: it hands the final
// root set to a code generation backend and collects the concrete
// universe of compiled methods and constructed types.
package codegen

import (
	"context"
	"fmt"

	"aotc/internal/depgraph"
	"aotc/internal/diag"
	"aotc/internal/image"
	"aotc/internal/rootset"
	"aotc/internal/target"
)

// VTableLayout supplies scan-derived virtual-dispatch-table slices.
type VTableLayout interface {
	UsedSlots(typeName string) []string
}

// DictLayout supplies scan-derived generic-dictionary layouts.
type DictLayout interface {
	Layout(identity string) []string
}

// DevirtOracle answers whether a virtual call site may be resolved
// statically.
type DevirtOracle interface {
	Devirtualize(site image.VirtualSite) (string, bool)
}

// Input is everything a backend consumes. The three advisors are nil
// when no scan ran; the backend must then compute its own conservative
// equivalents.
type Input struct {
	Config *target.CompilationConfig
	Set    *image.Set
	Group  rootset.ModuleGroup
	Roots  []rootset.Root

	// MetadataRoots and InteropRoots are the two managers' demands,
	// appended as additional compilation roots: they participate in
	// reachability, not just as passive advisors.
	MetadataRoots []string
	InteropRoots  []string

	VTables VTableLayout
	Dicts   DictLayout
	Oracle  DevirtOracle

	Recorder *depgraph.Recorder
}

// Backend is a pluggable code generation backend.
type Backend interface {
	Name() string
	Compile(ctx context.Context, in Input) (*Result, error)
}

// New returns the backend for a codegen mode.
func New(mode target.CodegenMode) (Backend, error) {
	switch mode {
	case target.CodegenNative, target.CodegenPortableC, target.CodegenWasm, target.CodegenFixedImage:
		return &genericBackend{mode: mode}, nil
	default:
		return nil, diag.Configf(diag.CompBackendFailed, "no backend registered for codegen mode %d", mode)
	}
}

// Compile appends the manager roots and runs the backend.
func Compile(ctx context.Context, backend Backend, in Input) (*Result, error) {
	if len(in.MetadataRoots) > 0 {
		in.Roots = append(append([]rootset.Root(nil), in.Roots...),
			rootset.NewMetadataManagerRoot(in.MetadataRoots))
	}
	if len(in.InteropRoots) > 0 {
		in.Roots = append(append([]rootset.Root(nil), in.Roots...),
			rootset.NewInteropStubsRoot(in.InteropRoots))
	}
	res, err := backend.Compile(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("backend %s failed: %w", backend.Name(), err)
	}
	return res, nil
}

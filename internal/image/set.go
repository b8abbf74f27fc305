package image

import (
	"fmt"

	"aotc/internal/diag"
)

// DefaultSystemModule is the module that must always be reachable for
// runtime support.
const DefaultSystemModule = "System.Core"

// Set partitions resolved modules into inputs (to be compiled) and
// references (resolve-only). Input order is the declaration order of the
// command line and is load-bearing for export emission.
type Set struct {
	inputs     map[string]*Module
	references map[string]*Module
	inputOrder []string
	refOrder   []string

	// SystemModule names the designated runtime-support module.
	SystemModule string
}

// NewSet builds an empty set with the given system module name (empty
// selects the default).
func NewSet(systemModule string) *Set {
	if systemModule == "" {
		systemModule = DefaultSystemModule
	}
	return &Set{
		inputs:       make(map[string]*Module),
		references:   make(map[string]*Module),
		SystemModule: systemModule,
	}
}

// AddInput registers a module for compilation. Duplicate names keep the
// first registration.
func (s *Set) AddInput(mod *Module) bool {
	if _, ok := s.inputs[mod.Name]; ok {
		return false
	}
	s.inputs[mod.Name] = mod
	s.inputOrder = append(s.inputOrder, mod.Name)
	return true
}

// AddReference registers a resolve-only module.
func (s *Set) AddReference(mod *Module) bool {
	if _, ok := s.references[mod.Name]; ok {
		return false
	}
	if _, ok := s.inputs[mod.Name]; ok {
		return false
	}
	s.references[mod.Name] = mod
	s.refOrder = append(s.refOrder, mod.Name)
	return true
}

// Input returns the named input module, or nil.
func (s *Set) Input(name string) *Module { return s.inputs[name] }

// Inputs returns input modules in declaration order.
func (s *Set) Inputs() []*Module {
	out := make([]*Module, 0, len(s.inputOrder))
	for _, name := range s.inputOrder {
		out = append(out, s.inputs[name])
	}
	return out
}

// References returns reference modules in declaration order.
func (s *Set) References() []*Module {
	out := make([]*Module, 0, len(s.refOrder))
	for _, name := range s.refOrder {
		out = append(out, s.references[name])
	}
	return out
}

// Lookup finds a module among inputs first, then references.
func (s *Set) Lookup(name string) *Module {
	if mod, ok := s.inputs[name]; ok {
		return mod
	}
	return s.references[name]
}

// All returns inputs then references, each in declaration order.
func (s *Set) All() []*Module {
	return append(s.Inputs(), s.References()...)
}

// IsInput reports whether the named module is compiled (not
// reference-only).
func (s *Set) IsInput(name string) bool {
	_, ok := s.inputs[name]
	return ok
}

// FindMethod resolves a canonical method identity across all modules.
func (s *Set) FindMethod(qualified string) (*Method, *Module) {
	for _, mod := range s.All() {
		if m := mod.FindMethodByQualifiedName(qualified); m != nil {
			return m, mod
		}
	}
	return nil, nil
}

// FindType resolves a type name across all modules.
func (s *Set) FindType(name string) (*Type, *Module) {
	for _, mod := range s.All() {
		if t := mod.FindType(name); t != nil {
			return t, mod
		}
	}
	return nil, nil
}

// ResolveSet loads module images from disk. A reference module that
// fails to load is skipped with a warning. An input module that fails to
// load is also skipped with a warning, unless that leaves zero usable
// input modules, which is fatal.
func ResolveSet(inputPaths, referencePaths []string, systemModule string, r diag.Reporter) (*Set, error) {
	if r == nil {
		r = diag.NopReporter{}
	}
	set := NewSet(systemModule)

	for _, path := range inputPaths {
		mod, err := Load(path)
		if err != nil {
			r.Report(diag.NewWarning(diag.ResBadImage, path,
				fmt.Sprintf("skipping input module: %v", err)))
			continue
		}
		if !set.AddInput(mod) {
			r.Report(diag.NewWarning(diag.ResDuplicateModule, mod.Name,
				"duplicate input module; first registration wins"))
		}
	}
	if len(set.inputs) == 0 {
		return nil, diag.Configf(diag.ResNoUsableInputs, "no usable input modules")
	}

	for _, path := range referencePaths {
		mod, err := Load(path)
		if err != nil {
			r.Report(diag.NewWarning(diag.ResBadImage, path,
				fmt.Sprintf("skipping reference module: %v", err)))
			continue
		}
		set.AddReference(mod)
	}
	return set, nil
}

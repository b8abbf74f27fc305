package rootset

import (
	"strings"

	"aotc/internal/diag"
	"aotc/internal/image"
	"aotc/internal/target"
)

// Options collects the root-control inputs of one compilation.
type Options struct {
	// SingleMethod, when set, compiles exactly one method in isolation.
	SingleMethod *MethodSpec

	// WholeVersionBubble widens fixed-image compilations to every
	// reference module.
	WholeVersionBubble bool

	// MultiFile selects the shared multi-module group.
	MultiFile bool

	// NativeLibrary marks a native-library build (no entry point
	// required; initializer and runtime-configuration roots added).
	NativeLibrary bool

	// InitModules names modules whose library initializers run before
	// the entry point, in execution order. Order is load-bearing.
	InitModules []string

	// Descriptors are parsed root-descriptor files, appended last.
	Descriptors []DescriptorFile
}

// Select is the compilation-root strategy selector: a pure decision
// tree from (config, modules, options) to exactly one module-group
// variant plus the initial root set. Re-running it on identical inputs
// yields a structurally identical result.
func Select(cfg *target.CompilationConfig, set *image.Set, opts Options) (ModuleGroup, []Root, error) {
	group, roots, err := selectPrimary(cfg, set, opts)
	if err != nil {
		return ModuleGroup{}, nil, err
	}

	// Native-library output adds its initializer wrapper and the
	// runtime-configuration root regardless of the branch taken above.
	if opts.NativeLibrary {
		inits, err := resolveInitializers(set, opts.InitModules)
		if err != nil {
			return ModuleGroup{}, nil, err
		}
		roots = append(roots, Root{
			Kind:         KindNativeLibraryInitializer,
			Initializers: inits,
		})
		roots = append(roots, Root{
			Kind:    KindRuntimeConfiguration,
			Options: append([]string(nil), cfg.RuntimeOptions...),
		})
	} else if len(cfg.RuntimeOptions) > 0 {
		roots = append(roots, Root{
			Kind:    KindRuntimeConfiguration,
			Options: append([]string(nil), cfg.RuntimeOptions...),
		})
	}

	// Auxiliary descriptor files convert 1:1 into external-annotation
	// roots, appended after everything else.
	for _, file := range opts.Descriptors {
		root := Root{Kind: KindExternalAnnotation, Source: file.Path}
		for _, spec := range file.Roots {
			identity, err := resolveMethodSpec(set, spec, diag.RootBadDescriptor)
			if err != nil {
				return ModuleGroup{}, nil, err
			}
			root.Methods = append(root.Methods, identity)
		}
		roots = append(roots, root)
	}

	return group, roots, nil
}

func selectPrimary(cfg *target.CompilationConfig, set *image.Set, opts Options) (ModuleGroup, []Root, error) {
	switch {
	case opts.SingleMethod != nil:
		return selectSingleMethod(set, *opts.SingleMethod)
	case cfg.Codegen == target.CodegenFixedImage:
		return selectFixedImage(set, opts)
	case opts.MultiFile:
		return selectMultiFile(set, opts)
	default:
		return selectSingleFile(set, opts)
	}
}

// selectSingleMethod handles the isolation mode: one method, one root.
func selectSingleMethod(set *image.Set, spec MethodSpec) (ModuleGroup, []Root, error) {
	identity, err := resolveMethodSpec(set, spec, diag.RootMethodNotFound)
	if err != nil {
		return ModuleGroup{}, nil, err
	}
	group := newSingleMethodGroup(moduleNames(set.Inputs()), identity)
	return group, []Root{{Kind: KindSingleMethod, Methods: []string{identity}}}, nil
}

func selectFixedImage(set *image.Set, opts Options) (ModuleGroup, []Root, error) {
	inputs := set.Inputs()
	roots := make([]Root, 0, len(inputs))
	for _, mod := range inputs {
		root := Root{Kind: KindFixedImageExport, Module: mod.Name}
		for i := range mod.Methods {
			root.Methods = append(root.Methods, mod.Methods[i].QualifiedName())
		}
		roots = append(roots, root)
	}

	bubble := moduleNames(inputs)
	if opts.WholeVersionBubble {
		// Unparsable reference modules were already skipped with a
		// warning during resolution.
		bubble = append(bubble, moduleNames(set.References())...)
	}
	group := newGroup(GroupFixedImage, moduleNames(inputs), bubble)
	return group, roots, nil
}

func selectMultiFile(set *image.Set, opts Options) (ModuleGroup, []Root, error) {
	inputs := set.Inputs()
	var roots []Root
	for _, mod := range inputs {
		if mod.HasEntryPoint() {
			inits, err := resolveInitializers(set, opts.InitModules)
			if err != nil {
				return ModuleGroup{}, nil, err
			}
			roots = append(roots, Root{
				Kind:         KindMainEntry,
				Module:       mod.Name,
				Entry:        mod.EntryPoint,
				Initializers: inits,
			})
			continue
		}
		// Without an entry point no reachability root exists, so every
		// public method is retained.
		root := Root{Kind: KindLibrary, Module: mod.Name}
		for _, m := range mod.PublicMethods() {
			root.Methods = append(root.Methods, m.QualifiedName())
		}
		roots = append(roots, root)
	}
	group := newGroup(GroupMultiFileShared, moduleNames(inputs), nil)
	return group, roots, nil
}

func selectSingleFile(set *image.Set, opts Options) (ModuleGroup, []Root, error) {
	inputs := set.Inputs()

	var entryModules []*image.Module
	for _, mod := range inputs {
		if mod.HasEntryPoint() {
			entryModules = append(entryModules, mod)
		}
	}
	if len(entryModules) > 1 {
		names := make([]string, 0, len(entryModules))
		for _, mod := range entryModules {
			names = append(names, mod.Name)
		}
		return ModuleGroup{}, nil, diag.Configf(diag.RootMultipleEntry,
			"multiple entry points: %s", strings.Join(names, ", "))
	}

	var roots []Root
	switch {
	case len(entryModules) == 1:
		inits, err := resolveInitializers(set, opts.InitModules)
		if err != nil {
			return ModuleGroup{}, nil, err
		}
		entry := entryModules[0]
		roots = append(roots, Root{
			Kind:         KindMainEntry,
			Module:       entry.Name,
			Entry:        entry.EntryPoint,
			Initializers: inits,
		})
	case !opts.NativeLibrary:
		return ModuleGroup{}, nil, diag.Configf(diag.RootNoEntry, "no entry point")
	}

	if opts.NativeLibrary {
		for _, mod := range inputs {
			root := Root{Kind: KindExportedMethods, Module: mod.Name}
			for _, m := range mod.ExportedMethods() {
				root.Methods = append(root.Methods, m.QualifiedName())
			}
			roots = append(roots, root)
		}
	}

	// Runtime support lives in the system module; when it is only a
	// reference, its exports must stay reachable anyway.
	if !set.IsInput(set.SystemModule) {
		if sys := set.Lookup(set.SystemModule); sys != nil {
			root := Root{Kind: KindExportedMethods, Module: sys.Name}
			for _, m := range sys.ExportedMethods() {
				root.Methods = append(root.Methods, m.QualifiedName())
			}
			roots = append(roots, root)
		}
	}

	group := newGroup(GroupSingleFile, moduleNames(inputs), nil)
	return group, roots, nil
}

// resolveMethodSpec resolves a user-written method spec to exactly one
// (possibly instantiated) method identity.
func resolveMethodSpec(set *image.Set, spec MethodSpec, notFoundCode diag.Code) (string, error) {
	spec = spec.Normalize()
	typ, mod := set.FindType(spec.TypeName)
	if typ == nil {
		return "", diag.Configf(diag.RootTypeNotFound, "type %q not found in any input or reference module", spec.TypeName)
	}
	candidates := mod.FindMethods(spec.TypeName, spec.MethodName)
	if len(candidates) == 0 {
		return "", diag.Configf(notFoundCode, "method %q not found on type %q", spec.MethodName, spec.TypeName)
	}

	var matched []*image.Method
	for _, m := range candidates {
		if m.GenericParams == len(spec.GenericArgs) {
			matched = append(matched, m)
		}
	}
	if len(matched) == 0 {
		return "", diag.Configf(diag.RootGenericArity,
			"method %s.%s declares %d generic parameter(s) but %d argument(s) were supplied",
			spec.TypeName, spec.MethodName, candidates[0].GenericParams, len(spec.GenericArgs))
	}
	if len(matched) > 1 {
		return "", diag.Configf(notFoundCode,
			"method %s.%s is ambiguous: %d overloads match", spec.TypeName, spec.MethodName, len(matched))
	}

	m := matched[0]
	if m.GenericParams > 0 {
		return m.Instantiate(spec.GenericArgs), nil
	}
	return m.QualifiedName(), nil
}

// resolveInitializers resolves each named module's initializer in the
// order the names were supplied. Initializers may have cross-module
// dependencies, so the order must be preserved exactly.
func resolveInitializers(set *image.Set, moduleNames []string) ([]string, error) {
	var out []string
	for _, name := range moduleNames {
		mod := set.Lookup(name)
		if mod == nil {
			return nil, diag.Configf(diag.RootMissingInitModule, "initializer module %q is not a resolved module", name)
		}
		if init := mod.Initializer(); init != nil {
			out = append(out, init.QualifiedName())
		}
	}
	return out, nil
}

func moduleNames(mods []*image.Module) []string {
	out := make([]string, 0, len(mods))
	for _, mod := range mods {
		out = append(out, mod.Name)
	}
	return out
}

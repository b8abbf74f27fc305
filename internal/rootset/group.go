package rootset

// GroupKind discriminates the CompilationModuleGroup variant. Exactly
// one is selected per run.
type GroupKind uint8

const (
	// GroupSingleMethod compiles exactly one method in isolation.
	GroupSingleMethod GroupKind = iota + 1
	// GroupSingleFile compiles one module fully; everything else is a
	// reference boundary.
	GroupSingleFile
	// GroupMultiFileShared compiles several input modules sharing
	// generic instantiations across them.
	GroupMultiFileShared
	// GroupFixedImage compiles ahead for a pre-existing runtime image,
	// optionally spanning a version bubble of reference modules.
	GroupFixedImage
)

func (k GroupKind) String() string {
	switch k {
	case GroupSingleMethod:
		return "single-method"
	case GroupSingleFile:
		return "single-file"
	case GroupMultiFileShared:
		return "multi-file-shared"
	case GroupFixedImage:
		return "fixed-image-single-assembly"
	default:
		return "unknown"
	}
}

// ModuleGroup is the compilation's world view: what counts as compiled
// versus reference-only.
type ModuleGroup struct {
	Kind GroupKind

	// CompiledModules lists module names whose code is generated, in
	// declaration order.
	CompiledModules []string

	// Methods restricts code generation to the listed method
	// identities; only set for GroupSingleMethod.
	Methods []string

	// VersionBubble lists modules treated as versioning together for
	// cross-module decisions; only set for GroupFixedImage.
	VersionBubble []string

	compiled map[string]struct{}
	methods  map[string]struct{}
	bubble   map[string]struct{}
}

func newGroup(kind GroupKind, compiled, bubble []string) ModuleGroup {
	g := ModuleGroup{
		Kind:            kind,
		CompiledModules: compiled,
		VersionBubble:   bubble,
		compiled:        make(map[string]struct{}, len(compiled)),
	}
	for _, name := range compiled {
		g.compiled[name] = struct{}{}
	}
	if len(bubble) > 0 {
		g.bubble = make(map[string]struct{}, len(bubble))
		for _, name := range bubble {
			g.bubble[name] = struct{}{}
		}
	}
	return g
}

func newSingleMethodGroup(modules []string, identity string) ModuleGroup {
	g := newGroup(GroupSingleMethod, modules, nil)
	g.Methods = []string{identity}
	g.methods = map[string]struct{}{identity: {}}
	return g
}

// ContainsModule reports whether the named module's code is generated
// by this compilation.
func (g *ModuleGroup) ContainsModule(name string) bool {
	_, ok := g.compiled[name]
	return ok
}

// ContainsMethod reports whether the identified method's code is
// generated by this compilation. Module-scoped groups answer with a
// module-membership test; the single-method group admits only the
// requested method, so everything else becomes a reference.
func (g *ModuleGroup) ContainsMethod(identity, module string) bool {
	if g.Kind == GroupSingleMethod {
		_, ok := g.methods[identity]
		return ok
	}
	return g.ContainsModule(module)
}

// InVersionBubble reports whether cross-module optimization decisions
// may span the named module.
func (g *ModuleGroup) InVersionBubble(name string) bool {
	if g.Kind != GroupFixedImage {
		return g.ContainsModule(name)
	}
	_, ok := g.bubble[name]
	return ok
}

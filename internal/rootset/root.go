// Package rootset decides the compilation's world view: which
// CompilationModuleGroup variant applies and which roots must be
// compiled regardless of reachability.
package rootset

// Kind discriminates the Root variant.
type Kind uint8

const (
	// KindSingleMethod roots one concrete or instantiated method.
	KindSingleMethod Kind = iota + 1
	// KindExportedMethods roots every method a module marks for native
	// export.
	KindExportedMethods
	// KindMainEntry roots the program entry point plus its ordered
	// library initializers.
	KindMainEntry
	// KindLibrary roots every public method of a module.
	KindLibrary
	// KindRuntimeConfiguration synthesizes a method applying named
	// runtime options.
	KindRuntimeConfiguration
	// KindNativeLibraryInitializer wraps the library-initializer
	// ordering for native-library output.
	KindNativeLibraryInitializer
	// KindExternalAnnotation carries roots declared in an auxiliary
	// descriptor file.
	KindExternalAnnotation
	// KindMetadataManager lets the metadata manager participate in
	// reachability.
	KindMetadataManager
	// KindInteropStubs lets the interop stub manager participate in
	// reachability.
	KindInteropStubs
	// KindFixedImageExport roots a module compiled for a fixed runtime
	// image.
	KindFixedImageExport
)

func (k Kind) String() string {
	switch k {
	case KindSingleMethod:
		return "single-method"
	case KindExportedMethods:
		return "exported-methods"
	case KindMainEntry:
		return "main-entry"
	case KindLibrary:
		return "library"
	case KindRuntimeConfiguration:
		return "runtime-configuration"
	case KindNativeLibraryInitializer:
		return "native-library-initializer"
	case KindExternalAnnotation:
		return "external-annotation"
	case KindMetadataManager:
		return "metadata-manager"
	case KindInteropStubs:
		return "interop-stubs"
	case KindFixedImageExport:
		return "fixed-image-export"
	default:
		return "unknown"
	}
}

// Root is one "must compile regardless of reachability" entity. Roots
// are additive and order-independent for correctness; only diagnostics
// depend on emission order.
type Root struct {
	Kind Kind

	// Module names the module the root is scoped to, where relevant.
	Module string

	// Methods lists resolved method identities, in declaration order.
	// Meaning by kind: the single method (SingleMethod), exported
	// methods (ExportedMethods, FixedImageExport), public methods
	// (Library), descriptor entries (ExternalAnnotation), manager
	// demands (MetadataManager, InteropStubs).
	Methods []string

	// Entry is the entry-point method identity for MainEntry.
	Entry string

	// Initializers is the ordered library-initializer list for
	// MainEntry and NativeLibraryInitializer. Order is load-bearing.
	Initializers []string

	// Options carries runtime option strings for RuntimeConfiguration.
	Options []string

	// Source is the descriptor file path for ExternalAnnotation.
	Source string
}

// NewMetadataManagerRoot wraps the metadata manager's demanded methods
// as a compilation root.
func NewMetadataManagerRoot(methods []string) Root {
	return Root{Kind: KindMetadataManager, Methods: methods}
}

// NewInteropStubsRoot wraps the interop stub manager's demanded stub
// methods as a compilation root.
func NewInteropStubsRoot(methods []string) Root {
	return Root{Kind: KindInteropStubs, Methods: methods}
}

// ExportedMethodNames folds the export-tagged roots into the export
// table: declaration order across modules, first occurrence wins.
func ExportedMethodNames(roots []Root) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, root := range roots {
		if root.Kind != KindExportedMethods {
			continue
		}
		for _, m := range root.Methods {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}

package rootset

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"aotc/internal/diag"
	"aotc/internal/image"
	"aotc/internal/target"
)

func appModule() *image.Module {
	return &image.Module{
		Name:       "app",
		EntryPoint: "App.Program.Main",
		Types:      []image.Type{{Name: "App.Program"}, {Name: "App.Util"}},
		Methods: []image.Method{
			{Owner: "App.Program", Name: "Main", Flags: image.FlagEntryPoint | image.FlagPublic},
			{Owner: "App.Util", Name: "Convert", GenericParams: 2, Flags: image.FlagPublic},
			{Owner: "App.Util", Name: "Helper", Flags: image.FlagPublic},
			{Owner: "App.Util", Name: "Export1", Flags: image.FlagPublic | image.FlagExported},
		},
	}
}

func libModule(name string) *image.Module {
	return &image.Module{
		Name:  name,
		Types: []image.Type{{Name: name + ".Lib"}},
		Methods: []image.Method{
			{Owner: name + ".Lib", Name: "Init", Flags: image.FlagInitializer},
			{Owner: name + ".Lib", Name: "Public", Flags: image.FlagPublic},
			{Owner: name + ".Lib", Name: "internalOnly"},
		},
	}
}

func sysModule() *image.Module {
	return &image.Module{
		Name:  image.DefaultSystemModule,
		Types: []image.Type{{Name: "System.Runtime"}},
		Methods: []image.Method{
			{Owner: "System.Runtime", Name: "Startup", Flags: image.FlagExported | image.FlagPublic},
		},
	}
}

func setOf(inputs []*image.Module, refs []*image.Module) *image.Set {
	set := image.NewSet("")
	for _, m := range inputs {
		set.AddInput(m)
	}
	for _, m := range refs {
		set.AddReference(m)
	}
	return set
}

func mustConfig(t *testing.T, opts target.Options) *target.CompilationConfig {
	t.Helper()
	cfg, err := target.Resolve(opts, nil)
	if err != nil {
		t.Fatalf("target.Resolve: %v", err)
	}
	return cfg
}

func TestExactlyOneGroupVariant(t *testing.T) {
	cases := []struct {
		name    string
		codegen target.CodegenMode
		opts    Options
		want    GroupKind
	}{
		{"single method", target.CodegenNative, Options{SingleMethod: &MethodSpec{TypeName: "App.Util", MethodName: "Helper"}}, GroupSingleMethod},
		{"fixed image", target.CodegenFixedImage, Options{}, GroupFixedImage},
		{"multi file", target.CodegenNative, Options{MultiFile: true}, GroupMultiFileShared},
		{"single file default", target.CodegenNative, Options{}, GroupSingleFile},
		// single-method wins over every other selector
		{"single method beats fixed image", target.CodegenFixedImage,
			Options{SingleMethod: &MethodSpec{TypeName: "App.Util", MethodName: "Helper"}, MultiFile: true}, GroupSingleMethod},
	}
	for _, tc := range cases {
		cfg := mustConfig(t, target.Options{Codegen: tc.codegen})
		set := setOf([]*image.Module{appModule()}, nil)
		group, _, err := Select(cfg, set, tc.opts)
		if err != nil {
			t.Fatalf("%s: Select error: %v", tc.name, err)
		}
		if group.Kind != tc.want {
			t.Fatalf("%s: group = %v, want %v", tc.name, group.Kind, tc.want)
		}
	}
}

func TestSingleMethodArity(t *testing.T) {
	cfg := mustConfig(t, target.Options{})
	set := setOf([]*image.Module{appModule()}, nil)

	// App.Util.Convert declares 2 generic parameters.
	cases := []struct {
		args    []string
		wantErr bool
	}{
		{nil, true},
		{[]string{"Int32"}, true},
		{[]string{"Int32", "String"}, false},
		{[]string{"Int32", "String", "Byte"}, true},
	}
	for _, tc := range cases {
		spec := &MethodSpec{TypeName: "App.Util", MethodName: "Convert", GenericArgs: tc.args}
		group, roots, err := Select(cfg, set, Options{SingleMethod: spec})
		if tc.wantErr {
			var cfgErr *diag.ConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Code != diag.RootGenericArity {
				t.Fatalf("args=%v: err = %v, want arity ConfigError", tc.args, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("args=%v: Select error: %v", tc.args, err)
		}
		if group.Kind != GroupSingleMethod {
			t.Fatalf("group = %v", group.Kind)
		}
		if len(roots) != 1 || roots[0].Kind != KindSingleMethod {
			t.Fatalf("roots = %+v, want one single-method root", roots)
		}
		if got := roots[0].Methods[0]; got != "App.Util.Convert[Int32,String]" {
			t.Fatalf("instantiated identity = %q", got)
		}
	}
}

func TestSingleMethodGroupScope(t *testing.T) {
	cfg := mustConfig(t, target.Options{})
	set := setOf([]*image.Module{appModule()}, nil)

	group, _, err := Select(cfg, set, Options{SingleMethod: &MethodSpec{TypeName: "App.Util", MethodName: "Helper"}})
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if !group.ContainsMethod("App.Util.Helper", "app") {
		t.Fatalf("requested method must be in scope")
	}
	// Other methods stay out of scope even though their module is an
	// input.
	if group.ContainsMethod("App.Program.Main", "app") {
		t.Fatalf("single-method group admits more than the requested method")
	}

	// Module-scoped groups answer with module membership.
	whole, _, err := Select(cfg, set, Options{})
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if !whole.ContainsMethod("App.Program.Main", "app") || whole.ContainsMethod("Sys.Boot", "sys") {
		t.Fatalf("module-scoped group must follow module membership")
	}
}

func TestSingleMethodNotFound(t *testing.T) {
	cfg := mustConfig(t, target.Options{})
	set := setOf([]*image.Module{appModule()}, nil)

	_, _, err := Select(cfg, set, Options{SingleMethod: &MethodSpec{TypeName: "App.Nope", MethodName: "X"}})
	var cfgErr *diag.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Code != diag.RootTypeNotFound {
		t.Fatalf("err = %v, want RootTypeNotFound", err)
	}

	_, _, err = Select(cfg, set, Options{SingleMethod: &MethodSpec{TypeName: "App.Util", MethodName: "Missing"}})
	if !errors.As(err, &cfgErr) || cfgErr.Code != diag.RootMethodNotFound {
		t.Fatalf("err = %v, want RootMethodNotFound", err)
	}
}

func TestMultipleEntryPointsIsFatal(t *testing.T) {
	second := appModule()
	second.Name = "app2"
	cfg := mustConfig(t, target.Options{})
	set := setOf([]*image.Module{appModule(), second}, nil)

	_, _, err := Select(cfg, set, Options{})
	var cfgErr *diag.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Code != diag.RootMultipleEntry {
		t.Fatalf("err = %v, want RootMultipleEntry", err)
	}
}

func TestNoEntryPointRequiresNativeLibrary(t *testing.T) {
	cfg := mustConfig(t, target.Options{})
	set := setOf([]*image.Module{libModule("lib")}, nil)

	_, _, err := Select(cfg, set, Options{})
	var cfgErr *diag.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Code != diag.RootNoEntry {
		t.Fatalf("err = %v, want RootNoEntry", err)
	}

	group, roots, err := Select(cfg, set, Options{NativeLibrary: true})
	if err != nil {
		t.Fatalf("native-library Select error: %v", err)
	}
	if group.Kind != GroupSingleFile {
		t.Fatalf("group = %v", group.Kind)
	}
	var kinds []Kind
	for _, r := range roots {
		kinds = append(kinds, r.Kind)
	}
	wantKinds := []Kind{KindExportedMethods, KindNativeLibraryInitializer, KindRuntimeConfiguration}
	if !reflect.DeepEqual(kinds, wantKinds) {
		t.Fatalf("root kinds = %v, want %v", kinds, wantKinds)
	}
}

func TestSystemModuleExportsRootedWhenReference(t *testing.T) {
	cfg := mustConfig(t, target.Options{})
	set := setOf([]*image.Module{appModule()}, []*image.Module{sysModule()})

	_, roots, err := Select(cfg, set, Options{})
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	found := false
	for _, r := range roots {
		if r.Kind == KindExportedMethods && r.Module == image.DefaultSystemModule {
			found = true
			if len(r.Methods) != 1 || r.Methods[0] != "System.Runtime.Startup" {
				t.Fatalf("system exports = %v", r.Methods)
			}
		}
	}
	if !found {
		t.Fatalf("system module exports must be rooted: %+v", roots)
	}
}

func TestMultiFileLibraryRoots(t *testing.T) {
	cfg := mustConfig(t, target.Options{})
	set := setOf([]*image.Module{libModule("liba"), libModule("libb")}, nil)

	group, roots, err := Select(cfg, set, Options{MultiFile: true})
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if group.Kind != GroupMultiFileShared {
		t.Fatalf("group = %v", group.Kind)
	}
	if len(roots) != 2 {
		t.Fatalf("len(roots) = %d, want 2", len(roots))
	}
	for i, name := range []string{"liba", "libb"} {
		if roots[i].Kind != KindLibrary || roots[i].Module != name {
			t.Fatalf("roots[%d] = %+v", i, roots[i])
		}
		// Only public methods are retained.
		if len(roots[i].Methods) != 1 || roots[i].Methods[0] != name+".Lib.Public" {
			t.Fatalf("roots[%d].Methods = %v", i, roots[i].Methods)
		}
	}
}

func TestInitializerOrderPreserved(t *testing.T) {
	cfg := mustConfig(t, target.Options{})
	set := setOf([]*image.Module{appModule(), libModule("libb"), libModule("liba")}, nil)

	_, roots, err := Select(cfg, set, Options{InitModules: []string{"liba", "libb"}})
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	var main *Root
	for i := range roots {
		if roots[i].Kind == KindMainEntry {
			main = &roots[i]
		}
	}
	if main == nil {
		t.Fatalf("no main-entry root: %+v", roots)
	}
	want := []string{"liba.Lib.Init", "libb.Lib.Init"}
	if !reflect.DeepEqual(main.Initializers, want) {
		t.Fatalf("initializers = %v, want %v (supplied order)", main.Initializers, want)
	}
}

func TestUnknownInitializerModuleIsFatal(t *testing.T) {
	cfg := mustConfig(t, target.Options{})
	set := setOf([]*image.Module{appModule()}, nil)

	_, _, err := Select(cfg, set, Options{InitModules: []string{"ghost"}})
	var cfgErr *diag.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Code != diag.RootMissingInitModule {
		t.Fatalf("err = %v, want RootMissingInitModule", err)
	}
}

func TestSelectIsIdempotent(t *testing.T) {
	cfg := mustConfig(t, target.Options{Codegen: target.CodegenFixedImage})
	set := setOf([]*image.Module{appModule()}, []*image.Module{sysModule()})
	opts := Options{WholeVersionBubble: true}

	g1, r1, err := Select(cfg, set, opts)
	if err != nil {
		t.Fatalf("first Select: %v", err)
	}
	g2, r2, err := Select(cfg, set, opts)
	if err != nil {
		t.Fatalf("second Select: %v", err)
	}
	if !reflect.DeepEqual(g1, g2) {
		t.Fatalf("module groups differ between runs")
	}
	if !reflect.DeepEqual(r1, r2) {
		t.Fatalf("root sets differ between runs")
	}
	if !g1.InVersionBubble(image.DefaultSystemModule) {
		t.Fatalf("whole-bubble compilation must include reference modules")
	}
}

func TestDescriptorRoots(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roots.yaml")
	data := `roots:
  - type: App.Util
    method: Helper
  - type: App.Util
    method: Convert
    generic-args: [Int32, String]
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}
	files, err := LoadDescriptors([]string{path})
	if err != nil {
		t.Fatalf("LoadDescriptors: %v", err)
	}

	cfg := mustConfig(t, target.Options{})
	set := setOf([]*image.Module{appModule()}, nil)
	_, roots, err := Select(cfg, set, Options{Descriptors: files})
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	last := roots[len(roots)-1]
	if last.Kind != KindExternalAnnotation || last.Source != path {
		t.Fatalf("last root = %+v, want external annotation", last)
	}
	want := []string{"App.Util.Helper", "App.Util.Convert[Int32,String]"}
	if !reflect.DeepEqual(last.Methods, want) {
		t.Fatalf("descriptor methods = %v, want %v", last.Methods, want)
	}
}

func TestExportedMethodNamesFold(t *testing.T) {
	roots := []Root{
		{Kind: KindLibrary, Methods: []string{"ignored"}},
		{Kind: KindExportedMethods, Methods: []string{"A.B", "A.C"}},
		{Kind: KindExportedMethods, Methods: []string{"A.C", "D.E"}},
	}
	got := ExportedMethodNames(roots)
	want := []string{"A.B", "A.C", "D.E"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExportedMethodNames = %v, want %v", got, want)
	}
}

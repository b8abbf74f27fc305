package image

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"aotc/internal/diag"
)

func writeImage(t *testing.T, dir, name string, mod *Module) string {
	t.Helper()
	path := filepath.Join(dir, name+".aimg")
	if err := Write(path, mod); err != nil {
		t.Fatalf("Write(%s): %v", name, err)
	}
	return path
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mod := &Module{
		Name:       "app",
		EntryPoint: "App.Program.Main",
		Types:      []Type{{Name: "App.Program"}},
		Methods: []Method{
			{Owner: "App.Program", Name: "Main", Flags: FlagEntryPoint},
			{Owner: "App.Program", Name: "Helper", GenericParams: 1},
		},
	}
	path := writeImage(t, dir, "app", mod)

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "app" {
		t.Fatalf("Name = %q, want app", got.Name)
	}
	if got.EntryMethod() == nil {
		t.Fatalf("expected entry method to resolve")
	}
	if q := got.Methods[1].QualifiedName(); q != "App.Program.Helper`1" {
		t.Fatalf("QualifiedName = %q", q)
	}
}

func TestDecodeRejectsSchemaMismatch(t *testing.T) {
	data, err := Encode(&Module{Schema: SchemaVersion + 1, Name: "old"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := Decode(data); !errors.Is(err, ErrBadImage) {
		t.Fatalf("Decode = %v, want ErrBadImage", err)
	}
}

func TestResolveSetSkipsBadReference(t *testing.T) {
	dir := t.TempDir()
	good := writeImage(t, dir, "app", &Module{Name: "app"})
	bad := filepath.Join(dir, "junk.aimg")
	if err := os.WriteFile(bad, []byte("not an image"), 0o600); err != nil {
		t.Fatalf("write junk: %v", err)
	}

	bag := diag.NewBag(10)
	set, err := ResolveSet([]string{good}, []string{bad}, "", diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("ResolveSet: %v", err)
	}
	if len(set.References()) != 0 {
		t.Fatalf("bad reference must be skipped")
	}
	if !bag.HasWarnings() {
		t.Fatalf("expected a skip warning")
	}
}

func TestResolveSetFatalWithoutUsableInputs(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "junk.aimg")
	if err := os.WriteFile(bad, []byte("garbage"), 0o600); err != nil {
		t.Fatalf("write junk: %v", err)
	}

	_, err := ResolveSet([]string{bad}, nil, "", nil)
	var cfgErr *diag.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Code != diag.ResNoUsableInputs {
		t.Fatalf("code = %v, want ResNoUsableInputs", cfgErr.Code)
	}
}

func TestSetOrderAndPartition(t *testing.T) {
	set := NewSet("")
	set.AddInput(&Module{Name: "b"})
	set.AddInput(&Module{Name: "a"})
	set.AddReference(&Module{Name: "sys"})

	inputs := set.Inputs()
	if len(inputs) != 2 || inputs[0].Name != "b" || inputs[1].Name != "a" {
		t.Fatalf("inputs out of declaration order: %v", inputs)
	}
	if set.IsInput("sys") {
		t.Fatalf("reference must not be an input")
	}
	if set.SystemModule != DefaultSystemModule {
		t.Fatalf("SystemModule = %q", set.SystemModule)
	}
	// A reference with an input's name is ignored.
	if set.AddReference(&Module{Name: "a"}) {
		t.Fatalf("reference shadowing an input must be rejected")
	}
}

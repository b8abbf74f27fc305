package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aotc/internal/image"
)

func writeFixtureImage(t *testing.T, dir string) string {
	t.Helper()
	mod := &image.Module{
		Name:       "app",
		EntryPoint: "App.Program.Main",
		Types:      []image.Type{{Name: "App.Program"}},
		Methods: []image.Method{
			{Owner: "App.Program", Name: "Main", BodySize: 10, Flags: image.FlagEntryPoint},
		},
	}
	path := filepath.Join(dir, "app.img")
	if err := image.Write(path, mod); err != nil {
		t.Fatalf("image.Write: %v", err)
	}
	return path
}

func TestCompileCommandEndToEnd(t *testing.T) {
	dir := t.TempDir()
	input := writeFixtureImage(t, dir)
	out := filepath.Join(dir, "app.obj")

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"compile", "-o", out, "--ui", "off", input})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute: %v\nstderr: %s", err, stderr.String())
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("object file missing: %v", err)
	}
	if !strings.Contains(stdout.String(), "wrote "+out) {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestCompileCommandMissingOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeFixtureImage(t, dir)

	// Flag state persists across Execute calls in the same process.
	compileFlags.out = ""

	var stderr bytes.Buffer
	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"compile", "--ui", "off", input})
	if err := rootCmd.Execute(); err == nil {
		t.Fatalf("expected missing-output error")
	} else if !strings.Contains(err.Error(), "output filename must be specified") {
		t.Fatalf("error = %v", err)
	}
}

func TestManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "aotc.toml")
	content := `
[compile]
out = "build/app.obj"
backend = "native"
system-module = "Sys.Core"
references = ["refs/sys.img"]
jobs = 3
`
	if err := os.WriteFile(manifest, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, ok, err := loadManifest(dir)
	if err != nil || !ok {
		t.Fatalf("loadManifest = %v, %v", ok, err)
	}
	c := m.Config.Compile
	if c.Out != filepath.Join(dir, "build", "app.obj") {
		t.Fatalf("out = %q", c.Out)
	}
	if len(c.References) != 1 || c.References[0] != filepath.Join(dir, "refs", "sys.img") {
		t.Fatalf("references = %v", c.References)
	}
	if c.SystemModule != "Sys.Core" || c.Jobs != 3 {
		t.Fatalf("manifest = %+v", c)
	}
}

func TestManifestDiscoveryWalksUp(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "aotc.toml"), []byte("[compile]\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0o750); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	path, ok, err := findManifest(nested)
	if err != nil || !ok {
		t.Fatalf("findManifest = %v, %v", ok, err)
	}
	if path != filepath.Join(dir, "aotc.toml") {
		t.Fatalf("path = %q", path)
	}
}

func TestBadManifestIsConfigError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "aotc.toml"), []byte("not toml ["), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, ok, err := loadManifest(dir)
	if !ok || err == nil {
		t.Fatalf("loadManifest = %v, %v", ok, err)
	}
}

func TestReadUIMode(t *testing.T) {
	cases := []struct {
		in      string
		want    uiMode
		wantErr bool
	}{
		{"", uiModeAuto, false},
		{"auto", uiModeAuto, false},
		{"ON", uiModeOn, false},
		{"off", uiModeOff, false},
		{"fancy", "", true},
	}
	for _, tc := range cases {
		got, err := readUIMode(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("readUIMode(%q) error = %v", tc.in, err)
		}
		if !tc.wantErr && got != tc.want {
			t.Fatalf("readUIMode(%q) = %q", tc.in, got)
		}
	}
}

func TestReadColorMode(t *testing.T) {
	if on, err := readColorMode("on"); err != nil || !on {
		t.Fatalf("readColorMode(on) = %v, %v", on, err)
	}
	if off, err := readColorMode("off"); err != nil || off {
		t.Fatalf("readColorMode(off) = %v, %v", off, err)
	}
	if _, err := readColorMode("sometimes"); err == nil {
		t.Fatalf("expected error for invalid color mode")
	}
}

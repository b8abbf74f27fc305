package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"aotc/internal/diag"
)

// responseManifest is an optional aotc.toml found by walking up from the
// working directory. It supplies compile defaults; explicit flags always
// win over manifest values.
type responseManifest struct {
	Path   string
	Root   string
	Config manifestConfig
}

type manifestConfig struct {
	Compile compileSection `toml:"compile"`
}

type compileSection struct {
	Out          string   `toml:"out"`
	Backend      string   `toml:"backend"`
	References   []string `toml:"references"`
	SystemModule string   `toml:"system-module"`
	TargetArch   string   `toml:"target-arch"`
	TargetOS     string   `toml:"target-os"`
	Jobs         int      `toml:"jobs"`
}

func findManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "aotc.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadManifest(startDir string) (*responseManifest, bool, error) {
	path, ok, err := findManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	var cfg manifestConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, true, diag.Configf(diag.CfgBadManifest, "%s: failed to parse TOML: %v", path, err)
	}
	// Relative reference paths in the manifest are relative to the
	// manifest, not to the invocation directory.
	root := filepath.Dir(path)
	for i, ref := range cfg.Compile.References {
		if !filepath.IsAbs(ref) {
			cfg.Compile.References[i] = filepath.Join(root, ref)
		}
	}
	if cfg.Compile.Out != "" && !filepath.IsAbs(cfg.Compile.Out) {
		cfg.Compile.Out = filepath.Join(root, cfg.Compile.Out)
	}
	return &responseManifest{Path: path, Root: root, Config: cfg}, true, nil
}

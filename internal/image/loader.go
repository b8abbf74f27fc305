package image

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// SchemaVersion is the current image container version. Increment when
// the payload format changes; mismatched images are rejected.
const SchemaVersion uint16 = 1

// ErrBadImage marks a file that is not a valid bytecode image.
var ErrBadImage = errors.New("not a valid bytecode image")

// Load reads and decodes one module image from disk.
func Load(path string) (*Module, error) {
	// #nosec G304 -- path comes from the user's module list
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module %q: %w", path, err)
	}
	mod, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("module %q: %w", path, err)
	}
	mod.Path = path
	if mod.Name == "" {
		mod.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return mod, nil
}

// Decode decodes an image payload.
func Decode(data []byte) (*Module, error) {
	var mod Module
	if err := msgpack.Unmarshal(data, &mod); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}
	if mod.Schema != SchemaVersion {
		return nil, fmt.Errorf("%w: schema %d (expected %d)", ErrBadImage, mod.Schema, SchemaVersion)
	}
	return &mod, nil
}

// Encode serialises a module image. Used by tests and tooling that
// produce fixture images.
func Encode(mod *Module) ([]byte, error) {
	if mod.Schema == 0 {
		mod.Schema = SchemaVersion
	}
	return msgpack.Marshal(mod)
}

// Write encodes and writes a module image to disk.
func Write(path string, mod *Module) error {
	data, err := Encode(mod)
	if err != nil {
		return fmt.Errorf("failed to encode module %q: %w", mod.Name, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write module image: %w", err)
	}
	return nil
}

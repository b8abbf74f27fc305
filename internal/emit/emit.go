// Package emit writes the compilation's artifacts: the object file, the
// native export definition file and the optional dependency trace logs.
package emit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"aotc/internal/codegen"
	"aotc/internal/depgraph"
	"aotc/internal/diag"
)

// ObjectSchemaVersion is the object container version.
const ObjectSchemaVersion uint16 = 1

// Object is the serialised object-file container. Like the module
// image it is a versioned msgpack payload.
type Object struct {
	Schema  uint16           `msgpack:"schema"`
	Target  string           `msgpack:"target"`
	Backend string           `msgpack:"backend"`
	Symbols []codegen.Symbol `msgpack:"symbols"`
}

// WriteObject serialises the compile result to path. The write is
// atomic: a temp file in the destination directory is renamed over the
// target, so an interrupted compilation never leaves a truncated
// object behind.
func WriteObject(path, targetTriple, backendName string, res *codegen.Result) error {
	obj := Object{
		Schema:  ObjectSchemaVersion,
		Target:  targetTriple,
		Backend: backendName,
		Symbols: res.Symbols,
	}
	data, err := msgpack.Marshal(&obj)
	if err != nil {
		return &diag.ConfigError{Code: diag.EmitObjectFailed, Msg: "failed to encode object file", Err: err}
	}
	if err := writeAtomic(path, data); err != nil {
		return &diag.ConfigError{Code: diag.EmitObjectFailed, Msg: fmt.Sprintf("failed to write %s", path), Err: err}
	}
	return nil
}

// ReadObject decodes an object file, for tests and downstream tooling.
func ReadObject(path string) (*Object, error) {
	// #nosec G304 -- path comes from the user's command line
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var obj Object
	if err := msgpack.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("object %q: %w", path, err)
	}
	if obj.Schema != ObjectSchemaVersion {
		return nil, fmt.Errorf("object %q: schema %d (expected %d)", path, obj.Schema, ObjectSchemaVersion)
	}
	return &obj, nil
}

// WriteExports writes the export definition file: a header line
// followed by one exported name per line, in declaration order.
func WriteExports(path string, names []string) error {
	var sb strings.Builder
	sb.WriteString("EXPORTS\n")
	for _, name := range names {
		sb.WriteString("  ")
		sb.WriteString(name)
		sb.WriteByte('\n')
	}
	if err := writeAtomic(path, []byte(sb.String())); err != nil {
		return &diag.ConfigError{Code: diag.EmitExportFailed, Msg: fmt.Sprintf("failed to write %s", path), Err: err}
	}
	return nil
}

// WriteDepLog writes a recorded dependency trace to path.
func WriteDepLog(path string, rec *depgraph.Recorder, code diag.Code) error {
	f, err := os.Create(path) // #nosec G304 -- path comes from the user's command line
	if err != nil {
		return &diag.ConfigError{Code: code, Msg: fmt.Sprintf("failed to create %s", path), Err: err}
	}
	if err := rec.WriteLog(f); err != nil {
		f.Close()
		return &diag.ConfigError{Code: code, Msg: fmt.Sprintf("failed to write %s", path), Err: err}
	}
	if err := f.Close(); err != nil {
		return &diag.ConfigError{Code: code, Msg: fmt.Sprintf("failed to write %s", path), Err: err}
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

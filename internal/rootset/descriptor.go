package rootset

import (
	"fmt"
	"os"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"aotc/internal/diag"
)

// MethodSpec names one method the way the user does: a fully qualified
// type name, a method name, and optional generic-argument type names.
type MethodSpec struct {
	TypeName    string   `yaml:"type"`
	MethodName  string   `yaml:"method"`
	GenericArgs []string `yaml:"generic-args,omitempty"`
}

// Normalize NFC-normalizes the spec's names so lookups do not depend on
// the Unicode form of the source that produced the image.
func (s MethodSpec) Normalize() MethodSpec {
	out := MethodSpec{
		TypeName:   norm.NFC.String(s.TypeName),
		MethodName: norm.NFC.String(s.MethodName),
	}
	for _, a := range s.GenericArgs {
		out.GenericArgs = append(out.GenericArgs, norm.NFC.String(a))
	}
	return out
}

func (s MethodSpec) String() string {
	if len(s.GenericArgs) == 0 {
		return s.TypeName + "." + s.MethodName
	}
	return fmt.Sprintf("%s.%s[%d args]", s.TypeName, s.MethodName, len(s.GenericArgs))
}

// DescriptorFile is a parsed root-descriptor file: a list of method
// specs declared as roots outside the compiler's own analysis.
type DescriptorFile struct {
	Path  string
	Roots []MethodSpec `yaml:"roots"`
}

// LoadDescriptor parses one YAML root-descriptor file.
func LoadDescriptor(path string) (*DescriptorFile, error) {
	// #nosec G304 -- path comes from the user's --root-descriptor flag
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, diag.Configf(diag.RootBadDescriptor, "failed to read root descriptor %q: %v", path, err)
	}
	var file DescriptorFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, diag.Configf(diag.RootBadDescriptor, "failed to parse root descriptor %q: %v", path, err)
	}
	file.Path = path
	return &file, nil
}

// LoadDescriptors parses descriptor files preserving the supplied order.
func LoadDescriptors(paths []string) ([]DescriptorFile, error) {
	out := make([]DescriptorFile, 0, len(paths))
	for _, path := range paths {
		file, err := LoadDescriptor(path)
		if err != nil {
			return nil, err
		}
		out = append(out, *file)
	}
	return out, nil
}

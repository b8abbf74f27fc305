// Package image models resolved bytecode modules: the method and type
// tables the driver roots, scans and compiles. The binary container is a
// versioned msgpack payload; the format internals stay behind Load/Write.
package image

import (
	"fmt"
	"strings"
)

// MethodFlags mark rooting-relevant properties of a method.
type MethodFlags uint8

const (
	// FlagPublic marks a method visible outside its module.
	FlagPublic MethodFlags = 1 << iota
	// FlagExported marks a method for native export tables.
	FlagExported
	// FlagEntryPoint marks the program entry point.
	FlagEntryPoint
	// FlagInitializer marks the module library initializer.
	FlagInitializer
	// FlagSynthesized marks compiler-generated helpers the scanner does
	// not model.
	FlagSynthesized
)

// VirtualSite is a virtual call site: the statically known declaring
// type and the slot method name.
type VirtualSite struct {
	DeclaringType string `msgpack:"type"`
	Method        string `msgpack:"method"`
}

// Method is one row of a module's method table.
type Method struct {
	Owner         string        `msgpack:"owner"`
	Name          string        `msgpack:"name"`
	GenericParams int           `msgpack:"generic_params,omitempty"`
	BodySize      int           `msgpack:"body_size,omitempty"`
	Flags         MethodFlags   `msgpack:"flags,omitempty"`
	Calls         []string      `msgpack:"calls,omitempty"`
	VirtualCalls  []VirtualSite `msgpack:"virtual_calls,omitempty"`
	Constructs    []string      `msgpack:"constructs,omitempty"`
}

// QualifiedName renders the canonical method identity,
// "Namespace.Type.Method" with a backtick arity suffix for generics.
func (m *Method) QualifiedName() string {
	if m.GenericParams > 0 {
		return fmt.Sprintf("%s.%s`%d", m.Owner, m.Name, m.GenericParams)
	}
	return m.Owner + "." + m.Name
}

// Instantiate renders the identity of a generic instantiation over the
// given type argument names. The caller validates arity.
func (m *Method) Instantiate(typeArgs []string) string {
	return fmt.Sprintf("%s.%s[%s]", m.Owner, m.Name, strings.Join(typeArgs, ","))
}

func (m *Method) Is(flag MethodFlags) bool { return m.Flags&flag != 0 }

// Type is one row of a module's type table.
type Type struct {
	Name       string   `msgpack:"name"`
	Base       string   `msgpack:"base,omitempty"`
	Interfaces []string `msgpack:"interfaces,omitempty"`
	// VirtualSlots names the virtual methods this type declares or
	// overrides, in slot order.
	VirtualSlots []string `msgpack:"virtual_slots,omitempty"`
}

// Module is a resolved bytecode module.
type Module struct {
	Schema     uint16   `msgpack:"schema"`
	Name       string   `msgpack:"name"`
	EntryPoint string   `msgpack:"entry_point,omitempty"`
	Types      []Type   `msgpack:"types,omitempty"`
	Methods    []Method `msgpack:"methods,omitempty"`

	// Path records where the module was loaded from; not serialised.
	Path string `msgpack:"-"`
}

// HasEntryPoint reports whether the module declares a program entry.
func (m *Module) HasEntryPoint() bool { return m.EntryPoint != "" }

// EntryMethod returns the entry-point method, or nil.
func (m *Module) EntryMethod() *Method {
	if m.EntryPoint == "" {
		return nil
	}
	return m.FindMethodByQualifiedName(m.EntryPoint)
}

// Initializer returns the module library initializer method, or nil.
func (m *Module) Initializer() *Method {
	for i := range m.Methods {
		if m.Methods[i].Is(FlagInitializer) {
			return &m.Methods[i]
		}
	}
	return nil
}

// FindType looks a type up by name.
func (m *Module) FindType(name string) *Type {
	for i := range m.Types {
		if m.Types[i].Name == name {
			return &m.Types[i]
		}
	}
	return nil
}

// FindMethods returns every method of the named type with the given
// simple name, in declaration order.
func (m *Module) FindMethods(typeName, methodName string) []*Method {
	var out []*Method
	for i := range m.Methods {
		if m.Methods[i].Owner == typeName && m.Methods[i].Name == methodName {
			out = append(out, &m.Methods[i])
		}
	}
	return out
}

// FindMethodByQualifiedName resolves a canonical method identity.
func (m *Module) FindMethodByQualifiedName(qualified string) *Method {
	for i := range m.Methods {
		if m.Methods[i].QualifiedName() == qualified {
			return &m.Methods[i]
		}
	}
	return nil
}

// ExportedMethods returns methods marked for native export, in
// declaration order.
func (m *Module) ExportedMethods() []*Method {
	var out []*Method
	for i := range m.Methods {
		if m.Methods[i].Is(FlagExported) {
			out = append(out, &m.Methods[i])
		}
	}
	return out
}

// PublicMethods returns methods visible outside the module, in
// declaration order.
func (m *Module) PublicMethods() []*Method {
	var out []*Method
	for i := range m.Methods {
		if m.Methods[i].Is(FlagPublic) {
			out = append(out, &m.Methods[i])
		}
	}
	return out
}

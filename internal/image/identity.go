package image

import "strings"

// ParseIdentity splits a method identity into its uninstantiated base
// and generic arguments: "A.B.M[X,Y]" -> ("A.B.M", [X Y]). Identities
// without brackets pass through unchanged.
func ParseIdentity(identity string) (base string, args []string) {
	open := strings.IndexByte(identity, '[')
	if open < 0 || !strings.HasSuffix(identity, "]") {
		return identity, nil
	}
	base = identity[:open]
	inner := identity[open+1 : len(identity)-1]
	if inner == "" {
		return base, nil
	}
	for _, a := range strings.Split(inner, ",") {
		args = append(args, strings.TrimSpace(a))
	}
	return base, args
}

// ResolveIdentity finds the method a canonical identity refers to,
// returning its generic arguments when the identity is an
// instantiation. Returns nil when no module defines the method.
func (s *Set) ResolveIdentity(identity string) (*Method, []string) {
	base, args := ParseIdentity(identity)
	if len(args) == 0 {
		m, _ := s.FindMethod(identity)
		return m, nil
	}
	dot := strings.LastIndexByte(base, '.')
	if dot < 0 {
		return nil, nil
	}
	owner, name := base[:dot], base[dot+1:]
	for _, mod := range s.All() {
		for _, m := range mod.FindMethods(owner, name) {
			if m.GenericParams == len(args) {
				return m, args
			}
		}
	}
	return nil, nil
}

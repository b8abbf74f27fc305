package image

// DerivesFrom reports whether typeName equals baseName or reaches it
// through base classes or interfaces.
func (s *Set) DerivesFrom(typeName, baseName string) bool {
	visited := make(map[string]struct{})
	var walk func(name string) bool
	walk = func(name string) bool {
		if name == "" {
			return false
		}
		if name == baseName {
			return true
		}
		if _, ok := visited[name]; ok {
			return false
		}
		visited[name] = struct{}{}
		t, _ := s.FindType(name)
		if t == nil {
			return false
		}
		if walk(t.Base) {
			return true
		}
		for _, iface := range t.Interfaces {
			if walk(iface) {
				return true
			}
		}
		return false
	}
	return walk(typeName)
}

// Overrides returns every implementation a virtual slot may dispatch
// to across all resolved modules, in module/type declaration order.
func (s *Set) Overrides(site VirtualSite) []*Method {
	var out []*Method
	for _, mod := range s.All() {
		for i := range mod.Types {
			t := &mod.Types[i]
			if !s.DerivesFrom(t.Name, site.DeclaringType) {
				continue
			}
			methods := mod.FindMethods(t.Name, site.Method)
			if len(methods) == 0 {
				continue
			}
			out = append(out, methods[0])
		}
	}
	return out
}

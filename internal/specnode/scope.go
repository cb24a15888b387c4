package specnode

// Scope is a lexical variable environment with an optional parent.
// Lookups check the local bindings first, then climb the parent chain.
// Child scopes never mutate an ancestor.
type Scope struct {
	vars   map[string]any
	parent *Scope
}

// NewScope creates a root scope with the given bindings. A nil map is
// treated as empty.
func NewScope(vars map[string]any) *Scope {
	if vars == nil {
		vars = map[string]any{}
	}
	return &Scope{vars: vars}
}

// Child creates a scope that inherits from s.
func (s *Scope) Child(vars map[string]any) *Scope {
	if vars == nil {
		vars = map[string]any{}
	}
	return &Scope{vars: vars, parent: s}
}

// Bind sets a variable in the local scope only.
func (s *Scope) Bind(name string, value any) {
	s.vars[name] = value
}

// Lookup resolves a dotted name against the scope chain. The first
// segment selects a binding (local first, then ancestors); remaining
// segments dig into nested maps.
func (s *Scope) Lookup(name string) (any, bool) {
	head := name
	rest := ""
	if i := indexDot(name); i >= 0 {
		head, rest = name[:i], name[i+1:]
	}

	v, ok := s.lookupFlat(head)
	if !ok {
		return nil, false
	}
	for rest != "" {
		key := rest
		if i := indexDot(rest); i >= 0 {
			key, rest = rest[:i], rest[i+1:]
		} else {
			rest = ""
		}
		m, isMap := v.(map[string]any)
		if !isMap {
			return nil, false
		}
		v, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return v, true
}

func (s *Scope) lookupFlat(name string) (any, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Flatten collapses the scope chain into a single map, with local
// bindings shadowing inherited ones. Used to build the expression
// evaluation context.
func (s *Scope) Flatten() map[string]any {
	out := map[string]any{}
	var collect func(*Scope)
	collect = func(cur *Scope) {
		if cur == nil {
			return
		}
		collect(cur.parent)
		for k, v := range cur.vars {
			out[k] = v
		}
	}
	collect(s)
	return out
}

func indexDot(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

package yaiwr

import "sort"

// BindingKind tells what a scope entry holds.
type BindingKind int

const (
	BindValue    BindingKind = iota // a plain Value
	BindFunction                    // a declared *Function
	BindUninit                      // `let x;` placeholder
)

// Binding is one scope entry.
type Binding struct {
	Kind  BindingKind
	Value Value
	Fun   *Function
}

// Scope is a lexical environment frame with a parent link. Lookups and
// assignments walk parent-ward; declarations only touch this frame.
//
// Parents are shared: several child scopes and any number of closures may
// point at the same parent, and every holder sees in-place updates. A scope
// stays alive for as long as a child, closure or call frame references it.
type Scope struct {
	parent *Scope
	table  map[string]Binding
}

// NewRootScope creates an empty scope with no parent.
func NewRootScope() *Scope { return &Scope{table: make(map[string]Binding)} }

// NewChildScope creates an empty scope whose parent is the given scope.
func NewChildScope(parent *Scope) *Scope {
	return &Scope{parent: parent, table: make(map[string]Binding)}
}

// Parent returns the enclosing scope, or nil for a root.
func (s *Scope) Parent() *Scope { return s.parent }

// Declare binds name to v in this scope, shadowing any outer binding and
// overwriting an existing binding in this scope.
func (s *Scope) Declare(name string, v Value) {
	s.table[name] = Binding{Kind: BindValue, Value: v}
}

// DeclareFunction binds name to f in this scope.
func (s *Scope) DeclareFunction(name string, f *Function) {
	s.table[name] = Binding{Kind: BindFunction, Fun: f}
}

// DeclareUninit binds name to the uninitialised placeholder in this scope.
func (s *Scope) DeclareUninit(name string) {
	s.table[name] = Binding{Kind: BindUninit}
}

// Assign updates the nearest existing binding of name. It never creates a
// binding; if no visible frame declares name it returns ErrUndeclaredVariable.
func (s *Scope) Assign(name string, v Value) error {
	for e := s; e != nil; e = e.parent {
		if _, ok := e.table[name]; ok {
			e.table[name] = Binding{Kind: BindValue, Value: v}
			return nil
		}
	}
	return newError(ErrUndeclaredVariable, name)
}

// Lookup returns the nearest visible binding of name.
func (s *Scope) Lookup(name string) (Binding, error) {
	for e := s; e != nil; e = e.parent {
		if b, ok := e.table[name]; ok {
			return b, nil
		}
	}
	return Binding{}, newError(ErrUndefinedReference, name)
}

// HasOwn reports whether name is bound directly in this scope.
func (s *Scope) HasOwn(name string) bool {
	_, ok := s.table[name]
	return ok
}

// Len returns the number of bindings held directly by this scope.
func (s *Scope) Len() int { return len(s.table) }

// Names returns this scope's own binding names, sorted.
func (s *Scope) Names() []string {
	out := make([]string, 0, len(s.table))
	for k := range s.table {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

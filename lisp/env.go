package lisp

import orderedmap "github.com/wk8/go-ordered-map/v2"

// Env is a lexically-scoped mapping from Symbol to Value, with a parent
// link. A single mutable table per frame, not a persistent structure: a
// second def! in the same frame must update the binding in place rather
// than shadow it, which a plain map gives for free.
//
// The top-level (global) frame uses an ordered map so that `env` (the
// arity-0 introspection builtin), called at top level, enumerates bindings
// in definition order rather than Go's randomized map order. Child frames
// use a plain map, so their enumeration order is not defined.
type Env struct {
	parent *Env
	vars   map[Symbol]Value
	global *orderedmap.OrderedMap[Symbol, Value] // non-nil only at the root
}

// NewEnv creates a child environment with the given parent. A nil parent
// makes this the root (global) environment.
func NewEnv(parent *Env) *Env {
	e := &Env{parent: parent, vars: map[Symbol]Value{}}
	if parent == nil {
		e.global = orderedmap.New[Symbol, Value]()
	}
	return e
}

// Put inserts or replaces the binding for id in this frame only. It
// returns the previously-bound value in this frame, if any.
func (e *Env) Put(id Symbol, v Value) (Value, bool) {
	if e.global != nil {
		prev, had := e.global.Get(id)
		e.global.Set(id, v)
		return prev, had
	}
	prev, had := e.vars[id]
	e.vars[id] = v
	return prev, had
}

// Get walks the parent chain, returning the first binding found for id.
func (e *Env) Get(id Symbol) (Value, error) {
	for env := e; env != nil; env = env.parent {
		if env.global != nil {
			if v, ok := env.global.Get(id); ok {
				return v, nil
			}
			continue
		}
		if v, ok := env.vars[id]; ok {
			return v, nil
		}
	}
	return nil, UnboundIdentifier(id)
}

// Root follows the parent chain to the top-level environment.
func (e *Env) Root() *Env {
	env := e
	for env.parent != nil {
		env = env.parent
	}
	return env
}

// Frame returns the (symbol, value) pairs bound directly in this frame, in
// definition order when this is the global frame.
func (e *Env) Frame() []Binding {
	if e.global != nil {
		bs := make([]Binding, 0, e.global.Len())
		for pair := e.global.Oldest(); pair != nil; pair = pair.Next() {
			bs = append(bs, Binding{Symbol: pair.Key, Value: pair.Value})
		}
		return bs
	}
	bs := make([]Binding, 0, len(e.vars))
	for k, v := range e.vars {
		bs = append(bs, Binding{Symbol: k, Value: v})
	}
	return bs
}

// Binding is one (symbol, value) pair of an environment frame.
type Binding struct {
	Symbol Symbol
	Value  Value
}

package lisp

import (
	"fmt"
	"io"
)

// NativeFunc is the signature of a built-in procedure: it receives the
// interpreter (so it can re-enter Eval, as eval/apply/map/swap! do), the
// already-evaluated argument list, and the caller's environment. When a
// built-in is invoked through apply, map or swap! the environment is nil.
type NativeFunc func(in *Interpreter, args []Value, callerEnv *Env) (Value, error)

// Procedure is a callable Lisp value: either a reference to a native Go
// function (a built-in) or a body plus the environment captured at
// definition time (a closure). One type covers both cases because
// procedures are first-class values here, not a fixed registration table.
type Procedure struct {
	Name     string // "" for an unnamed lambda
	Params   []Symbol
	Variadic bool // last Params entry binds the rest-argument list
	Native   NativeFunc
	Body     []Value // non-empty for language-defined procedures
	Env      *Env    // captured defining environment; nil for natives
	Macro    bool
}

// Argc is the number of mandatory parameters.
func (p *Procedure) Argc() int {
	if p.Variadic {
		return len(p.Params) - 1
	}
	return len(p.Params)
}

// CheckArity reports an ARITY_MISMATCH exception if n actual arguments
// cannot be bound to p's parameter list.
func (p *Procedure) CheckArity(n int) error {
	argc := p.Argc()
	if n < argc || (!p.Variadic && n > argc) {
		return ArityMismatch(p.describeName(), p.describeArity(), n)
	}
	return nil
}

func (p *Procedure) describeName() string {
	if p.Name == "" {
		return "#<procedure>"
	}
	return p.Name
}

func (p *Procedure) describeArity() string {
	if p.Variadic {
		return fmt.Sprintf("at least %d argument(s)", p.Argc())
	}
	return fmt.Sprintf("%d argument(s)", p.Argc())
}

func (p *Procedure) WriteTo(w io.Writer, _ bool) error {
	tag := "procedure"
	if p.Macro {
		tag = "macro"
	}
	if p.Name == "" {
		_, err := fmt.Fprintf(w, "#<%s>", tag)
		return err
	}
	_, err := fmt.Fprintf(w, "#<%s:%s>", tag, p.Name)
	return err
}

func (p *Procedure) Equal(other Value) bool {
	o, ok := other.(*Procedure)
	return ok && o == p
}

// Bind creates the call-frame environment for a language-defined
// procedure invocation: parent is the procedure's captured defining
// environment (the closure), never the caller's.
func (p *Procedure) Bind(args []Value) *Env {
	env := NewEnv(p.Env)
	argc := p.Argc()
	for i := 0; i < argc; i++ {
		env.Put(p.Params[i], args[i])
	}
	if p.Variadic {
		env.Put(p.Params[argc], NewList(args[argc:]...))
	}
	return env
}

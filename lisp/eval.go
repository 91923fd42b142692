package lisp

import "fmt"

// Special-form keywords. This set is closed and hard-coded: user code can
// never redefine or shadow them, and macroexpand refuses to treat a list
// headed by one of them as a macro call even if the symbol happens to be
// bound.
const (
	symDef           Symbol = "def!"
	symDefmacro      Symbol = "defmacro!"
	symLetStar       Symbol = "let*"
	symIf            Symbol = "if"
	symDo            Symbol = "do"
	symFnStar        Symbol = "fn*"
	symQuote         Symbol = "quote"
	symQuasiquote    Symbol = "quasiquote"
	symUnquote       Symbol = "unquote"
	symSpliceUnquote Symbol = "splice-unquote"
	symMacroexpand   Symbol = "macroexpand"
	symTryStar       Symbol = "try*"
	symCatchStar     Symbol = "catch*"
	symAmp           Symbol = "&"
)

var specialForms = map[Symbol]bool{
	symDef: true, symDefmacro: true, symLetStar: true, symIf: true,
	symDo: true, symFnStar: true, symQuote: true, symQuasiquote: true,
	symUnquote: true, symSpliceUnquote: true, symMacroexpand: true,
	symTryStar: true,
}

// Interpreter holds the global environment and is the re-entry point for
// eval/apply/map/swap!/macro-expansion, threaded through every built-in
// that needs to call back into the evaluator.
type Interpreter struct {
	Global  *Env
	gensyms int
}

// nextGensym returns a fresh symbol guaranteed not to collide with any
// previous gensym from this interpreter, used by the prelude's or/and
// macros to avoid double-evaluating their first argument.
func (in *Interpreter) nextGensym() Symbol {
	in.gensyms++
	return Symbol(fmt.Sprintf("G__%d", in.gensyms))
}

// NewInterpreter creates an interpreter with an empty global environment.
// Use RegisterCore (core.go) to populate it with the built-in table.
func NewInterpreter() *Interpreter {
	return &Interpreter{Global: NewEnv(nil)}
}

// Eval is the evaluator's single public operation. It is recursive through
// non-tail procedure application but flattens every tail position (if/do/
// let*/named-procedure-call) into a loop.
func (in *Interpreter) Eval(ast Value, env *Env) (Value, error) {
	for {
		switch node := ast.(type) {
		case Symbol:
			return env.Get(node)
		case *List:
			if node.IsEmpty() {
				return node, nil
			}

			expanded, err := in.macroexpand(node, env)
			if err != nil {
				return nil, err
			}
			list, ok := expanded.(*List)
			if !ok {
				ast = expanded
				continue
			}
			if list.IsEmpty() {
				return list, nil
			}

			if sym, ok := list.Head().(Symbol); ok && specialForms[sym] {
				switch sym {
				case symDef:
					return in.evalDef(list, env)
				case symDefmacro:
					return in.evalDefmacro(list, env)
				case symLetStar:
					nextAst, nextEnv, err := in.prepLetStar(list, env)
					if err != nil {
						return nil, err
					}
					ast, env = nextAst, nextEnv
					continue
				case symIf:
					nextAst, err := in.prepIf(list, env)
					if err != nil {
						return nil, err
					}
					ast = nextAst
					continue
				case symDo:
					nextAst, err := in.prepDo(list, env)
					if err != nil {
						return nil, err
					}
					ast = nextAst
					continue
				case symFnStar:
					return in.evalFnStar(list, env)
				case symQuote:
					return evalQuote(list)
				case symQuasiquote:
					return in.evalQuasiquoteForm(list, env)
				case symMacroexpand:
					arg, err := exactlyOne(symMacroexpand, list)
					if err != nil {
						return nil, err
					}
					return in.macroexpand(arg, env)
				case symTryStar:
					return in.evalTryStar(list, env)
				default:
					return nil, Syntaxf("%s: is a reserved form and cannot be evaluated directly", sym)
				}
			}

			// Procedure application.
			head, err := in.Eval(list.Head(), env)
			if err != nil {
				return nil, err
			}
			args, err := in.evalArgs(list.Tail(), env)
			if err != nil {
				return nil, err
			}
			proc, ok := head.(*Procedure)
			if !ok {
				return nil, TypeError("application", "procedure", head)
			}
			if err := proc.CheckArity(len(args)); err != nil {
				return nil, err
			}

			switch {
			case proc.Native != nil:
				return proc.Native(in, args, env)
			case proc.Name == "":
				// Lambda (unnamed): non-tail, a fresh Go stack frame.
				// Unnamed procedures do not get TCO.
				last, callEnv, err := in.evalBodyButLast(proc.Body, proc.Bind(args))
				if err != nil {
					return nil, err
				}
				return in.Eval(last, callEnv)
			default:
				// Named language-defined procedure: reuse this loop
				// iteration instead of recursing (the TCO case).
				last, callEnv, err := in.evalBodyButLast(proc.Body, proc.Bind(args))
				if err != nil {
					return nil, err
				}
				ast, env = last, callEnv
				continue
			}
		default:
			return ast, nil // self-evaluating
		}
	}
}

// evalArgs evaluates each element of args left to right (program order).
func (in *Interpreter) evalArgs(args *List, env *Env) ([]Value, error) {
	elems := args.Slice()
	out := make([]Value, len(elems))
	for i, e := range elems {
		v, err := in.Eval(e, env)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// evalBodyButLast evaluates every body expression but the last (non-tail,
// in callEnv) and returns the final expression unevaluated so the caller
// can either recurse into it (lambda) or loop back to it (named
// procedure, for TCO).
func (in *Interpreter) evalBodyButLast(body []Value, callEnv *Env) (Value, *Env, error) {
	for i := 0; i < len(body)-1; i++ {
		if _, err := in.Eval(body[i], callEnv); err != nil {
			return nil, nil, err
		}
	}
	return body[len(body)-1], callEnv, nil
}

func exactlyOne(form Symbol, list *List) (Value, error) {
	args := list.Tail().Slice()
	if len(args) != 1 {
		return nil, Syntaxf("%s: expected 1 argument, got %d", form, len(args))
	}
	return args[0], nil
}

// macroexpand repeatedly replaces a macro call with the result of applying
// its macro to the call's unevaluated arguments, until the form is no
// longer a macro call. Special-form keywords are never treated as macro
// calls, closing the special-form set against shadowing.
func (in *Interpreter) macroexpand(ast Value, env *Env) (Value, error) {
	for {
		list, ok := ast.(*List)
		if !ok || list.IsEmpty() {
			return ast, nil
		}
		sym, ok := list.Head().(Symbol)
		if !ok || specialForms[sym] {
			return ast, nil
		}
		v, err := env.Get(sym)
		if err != nil {
			return ast, nil // unbound: not a macro call, let application fail normally
		}
		proc, ok := v.(*Procedure)
		if !ok || !proc.Macro {
			return ast, nil
		}
		args := list.Tail().Slice()
		if err := proc.CheckArity(len(args)); err != nil {
			return nil, err
		}
		expanded, err := in.applyProcedure(proc, args)
		if err != nil {
			return nil, err
		}
		ast = expanded
	}
}

// applyProcedure fully evaluates a call to proc with already-gathered
// arguments, used by macro expansion (where the "arguments" are
// unevaluated forms passed as the macro's literal Value arguments).
func (in *Interpreter) applyProcedure(proc *Procedure, args []Value) (Value, error) {
	if proc.Native != nil {
		return proc.Native(in, args, proc.Env)
	}
	last, callEnv, err := in.evalBodyButLast(proc.Body, proc.Bind(args))
	if err != nil {
		return nil, err
	}
	return in.Eval(last, callEnv)
}

func (in *Interpreter) evalDef(list *List, env *Env) (Value, error) {
	args := list.Tail().Slice()
	if len(args) != 2 {
		return nil, Syntaxf("def!: expected 2 arguments, got %d", len(args))
	}
	sym, ok := args[0].(Symbol)
	if !ok {
		return nil, Syntaxf("def!: binding target must be a symbol, got %s", String(args[0]))
	}
	v, err := in.Eval(args[1], env)
	if err != nil {
		return nil, err
	}
	if proc, ok := v.(*Procedure); ok && proc.Name == "" {
		proc.Name = string(sym)
	}
	env.Put(sym, v)
	return v, nil
}

func (in *Interpreter) evalDefmacro(list *List, env *Env) (Value, error) {
	args := list.Tail().Slice()
	if len(args) != 2 {
		return nil, Syntaxf("defmacro!: expected 2 arguments, got %d", len(args))
	}
	sym, ok := args[0].(Symbol)
	if !ok {
		return nil, Syntaxf("defmacro!: binding target must be a symbol, got %s", String(args[0]))
	}
	fnExpr, ok := args[1].(*List)
	if !ok || fnExpr.IsEmpty() {
		return nil, Syntaxf("defmacro!: expected a literal fn* form")
	}
	if head, ok := fnExpr.Head().(Symbol); !ok || head != symFnStar {
		return nil, Syntaxf("defmacro!: expected a literal fn* form")
	}
	v, err := in.Eval(fnExpr, env)
	if err != nil {
		return nil, err
	}
	proc, ok := v.(*Procedure)
	if !ok {
		return nil, Syntaxf("defmacro!: expected fn* to produce a procedure")
	}
	proc.Macro = true
	proc.Name = string(sym)
	env.Put(sym, proc)
	return proc, nil
}

func (in *Interpreter) prepLetStar(list *List, env *Env) (Value, *Env, error) {
	rest := list.Tail().Slice()
	if len(rest) < 2 {
		return nil, nil, Syntaxf("let*: expected bindings and a non-empty body")
	}
	bindingsList, ok := rest[0].(*List)
	if !ok {
		return nil, nil, Syntaxf("let*: bindings must be a list, got %s", String(rest[0]))
	}
	bindings := bindingsList.Slice()
	if len(bindings)%2 != 0 {
		return nil, nil, Syntaxf("let*: bindings must have an even number of forms")
	}

	child := NewEnv(env)
	for i := 0; i < len(bindings); i += 2 {
		sym, ok := bindings[i].(Symbol)
		if !ok {
			return nil, nil, Syntaxf("let*: binding target must be a symbol, got %s", String(bindings[i]))
		}
		v, err := in.Eval(bindings[i+1], child)
		if err != nil {
			return nil, nil, err
		}
		child.Put(sym, v)
	}

	body := rest[1:]
	last, callEnv, err := in.evalBodyButLast(body, child)
	if err != nil {
		return nil, nil, err
	}
	return last, callEnv, nil
}

func (in *Interpreter) prepIf(list *List, env *Env) (Value, error) {
	args := list.Tail().Slice()
	if len(args) < 2 || len(args) > 3 {
		return nil, Syntaxf("if: expected 2 or 3 arguments, got %d", len(args))
	}
	cond, err := in.Eval(args[0], env)
	if err != nil {
		return nil, err
	}
	if Truthy(cond) {
		return args[1], nil
	}
	if len(args) == 3 {
		return args[2], nil
	}
	return Nil, nil
}

func (in *Interpreter) prepDo(list *List, env *Env) (Value, error) {
	body := list.Tail().Slice()
	if len(body) == 0 {
		return nil, Syntaxf("do: expected at least 1 argument")
	}
	last, _, err := in.evalBodyButLast(body, env)
	return last, err
}

func (in *Interpreter) evalFnStar(list *List, env *Env) (Value, error) {
	rest := list.Tail().Slice()
	if len(rest) < 2 {
		return nil, Syntaxf("fn*: expected a parameter list and a non-empty body")
	}
	paramsList, ok := rest[0].(*List)
	if !ok {
		return nil, Syntaxf("fn*: parameters must be a list, got %s", String(rest[0]))
	}
	params, variadic, err := parseParams(paramsList)
	if err != nil {
		return nil, err
	}
	body := rest[1:]
	if len(body) == 0 {
		return nil, Syntaxf("fn*: empty body")
	}
	return &Procedure{Params: params, Variadic: variadic, Body: body, Env: env}, nil
}

func parseParams(l *List) ([]Symbol, bool, error) {
	raw := l.Slice()
	params := make([]Symbol, 0, len(raw))
	variadic := false
	for i, r := range raw {
		sym, ok := r.(Symbol)
		if !ok {
			return nil, false, Syntaxf("fn*: parameters must be symbols, got %s", String(r))
		}
		if sym == symAmp {
			if i != len(raw)-2 {
				return nil, false, Syntaxf("fn*: '&' must appear exactly once, immediately before the rest parameter")
			}
			variadic = true
			continue
		}
		params = append(params, sym)
	}
	return params, variadic, nil
}

func evalQuote(list *List) (Value, error) {
	return exactlyOne(symQuote, list)
}

func (in *Interpreter) evalTryStar(list *List, env *Env) (Value, error) {
	args := list.Tail().Slice()
	if len(args) != 2 {
		return nil, Syntaxf("try*: expected 2 arguments, got %d", len(args))
	}
	catchForm, ok := args[1].(*List)
	if !ok {
		return nil, Syntaxf("try*: expected a (catch* SYM EXPR) form")
	}
	catchParts := catchForm.Slice()
	if len(catchParts) != 3 {
		return nil, Syntaxf("try*: expected (catch* SYM EXPR)")
	}
	if head, ok := catchParts[0].(Symbol); !ok || head != symCatchStar {
		return nil, Syntaxf("try*: expected a catch* clause")
	}
	sym, ok := catchParts[1].(Symbol)
	if !ok {
		return nil, Syntaxf("try*: catch* variable must be a symbol, got %s", String(catchParts[1]))
	}

	v, err := in.Eval(args[0], env)
	if err == nil {
		return v, nil
	}
	exc, ok := err.(*Exception)
	if !ok {
		return nil, err // host-level/syntax fault: not catchable
	}
	child := NewEnv(env)
	child.Put(sym, exc.Payload)
	return in.Eval(catchParts[2], child)
}

// evalQuasiquoteForm implements the (quasiquote X) special form. Unlike
// quote, it evaluates embedded unquote/splice-unquote sub-forms as it
// reshapes X, so it produces a finished Value directly rather than a new
// AST for the eval loop to revisit.
func (in *Interpreter) evalQuasiquoteForm(list *List, env *Env) (Value, error) {
	x, err := exactlyOne(symQuasiquote, list)
	if err != nil {
		return nil, err
	}
	return in.quasiquote(x, env)
}

func (in *Interpreter) quasiquote(x Value, env *Env) (Value, error) {
	l, ok := x.(*List)
	if !ok || l.IsEmpty() {
		return x, nil
	}
	if head, ok := l.Head().(Symbol); ok {
		switch head {
		case symUnquote:
			arg, err := exactlyOne(symUnquote, l)
			if err != nil {
				return nil, err
			}
			return in.Eval(arg, env)
		case symSpliceUnquote:
			return nil, Syntaxf("splice-unquote: not valid as the entire argument of quasiquote")
		}
	}
	return in.quasiquoteWalk(l, env)
}

// quasiquoteWalk builds the reshaped list for a quasiquote sub-form that
// is not itself an (unquote Y) form.
func (in *Interpreter) quasiquoteWalk(l *List, env *Env) (Value, error) {
	elems := l.Slice()
	var out []Value
	for _, e := range elems {
		sub, ok := e.(*List)
		if !ok || sub.IsEmpty() {
			out = append(out, e)
			continue
		}
		head, ok := sub.Head().(Symbol)
		if !ok {
			expanded, err := in.quasiquoteWalk(sub, env)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded)
			continue
		}
		switch head {
		case symSpliceUnquote:
			arg, err := exactlyOne(symSpliceUnquote, sub)
			if err != nil {
				return nil, err
			}
			spliced, err := in.Eval(arg, env)
			if err != nil {
				return nil, err
			}
			sl, ok := spliced.(*List)
			if !ok {
				return nil, TypeError("splice-unquote", "list", spliced)
			}
			out = append(out, sl.Slice()...)
		case symUnquote:
			arg, err := exactlyOne(symUnquote, sub)
			if err != nil {
				return nil, err
			}
			v, err := in.Eval(arg, env)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		default:
			expanded, err := in.quasiquoteWalk(sub, env)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded)
		}
	}
	return NewList(out...), nil
}

package lisp

import (
	"fmt"
	"os"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"github.com/pkg/errors"
)

// RegisterCore populates in.Global with the fixed built-in procedure
// table, one registration loop since every entry shares the same
// Procedure/NativeFunc shape.
func RegisterCore(in *Interpreter) {
	table := orderedmap.New[string, *Procedure]()
	add := func(name string, minArgs int, variadic bool, fn NativeFunc) {
		table.Set(name, native(name, minArgs, variadic, fn))
	}

	add("+", 2, true, coreAdd)
	add("-", 2, true, coreSub)
	add("*", 2, true, coreMul)
	add("/", 2, true, coreDiv)
	add("%", 2, false, coreMod)
	add("=", 2, false, coreEq)
	add(">", 2, false, coreGt)
	add("even?", 1, false, coreEvenp)

	add("list?", 1, false, typePred(func(v Value) bool { _, ok := v.(*List); return ok }))
	add("empty?", 1, false, typePred(func(v Value) bool { l, ok := v.(*List); return ok && l.IsEmpty() }))
	add("symbol?", 1, false, typePred(func(v Value) bool { _, ok := v.(Symbol); return ok }))
	add("string?", 1, false, typePred(func(v Value) bool { _, ok := v.(Str); return ok }))
	add("true?", 1, false, typePred(func(v Value) bool { return v == True }))
	add("false?", 1, false, typePred(func(v Value) bool { return v == False }))
	add("procedure?", 1, false, typePred(func(v Value) bool { p, ok := v.(*Procedure); return ok && !p.Macro }))
	add("builtin?", 1, false, typePred(func(v Value) bool { p, ok := v.(*Procedure); return ok && p.Native != nil }))
	add("atom?", 1, false, typePred(func(v Value) bool { _, ok := v.(*Atom); return ok }))
	add("macro?", 1, false, typePred(func(v Value) bool { p, ok := v.(*Procedure); return ok && p.Macro }))
	add("exn?", 1, false, typePred(func(v Value) bool { _, ok := v.(*Exception); return ok }))

	add("type", 1, false, coreType)
	add("arity", 1, false, coreArity)
	add("env", 0, false, coreEnv)
	add("addr", 1, false, coreAddr)
	add("refc", 1, false, coreRefc)

	add("list", 0, true, coreList)
	add("count", 1, false, coreCount)
	add("list-ref", 2, false, coreListRef)
	add("nth", 2, false, coreListRef)
	add("list-rest", 1, false, coreRest)
	add("rest", 1, false, coreRest)
	add("cons", 2, false, coreCons)
	add("concat", 0, true, coreConcat)

	add("pr-str", 0, true, corePrStr)
	add("str", 0, true, coreStr)
	add("prn", 0, true, corePrn)
	add("println", 0, true, corePrintln)

	add("symbol", 1, false, coreSymbol)

	add("atom", 1, false, coreAtom)
	add("deref", 1, false, coreDeref)
	add("reset!", 2, false, coreReset)
	add("swap!", 2, true, coreSwap)

	add("exn", 1, false, coreExn)
	add("exn-datum", 1, false, coreExnDatum)
	add("throw", 1, false, coreThrow)

	add("apply", 2, true, coreApply)
	add("read-string", 1, false, coreReadString)
	add("slurp", 1, false, coreSlurp)
	add("eval", 1, false, coreEval)
	add("map", 2, false, coreMap)

	add("time-ms", 0, false, coreTimeMs)
	add("gensym", 0, false, func(in *Interpreter, _ []Value, _ *Env) (Value, error) {
		return in.nextGensym(), nil
	})

	for pair := table.Oldest(); pair != nil; pair = pair.Next() {
		in.Global.Put(Symbol(pair.Key), pair.Value)
	}
}

func native(name string, minArgs int, variadic bool, fn NativeFunc) *Procedure {
	n := minArgs
	if variadic {
		n++
	}
	params := make([]Symbol, n)
	for i := range params {
		params[i] = Symbol("_")
	}
	return &Procedure{Name: name, Params: params, Variadic: variadic, Native: fn}
}

func typePred(pred func(Value) bool) NativeFunc {
	return func(_ *Interpreter, args []Value, _ *Env) (Value, error) {
		return BoolValue(pred(args[0])), nil
	}
}

func asInteger(who string, v Value) (Integer, error) {
	n, ok := v.(Integer)
	if !ok {
		return 0, TypeError(who, "integer", v)
	}
	return n, nil
}

func asList(who string, v Value) (*List, error) {
	l, ok := v.(*List)
	if !ok {
		return nil, TypeError(who, "list", v)
	}
	return l, nil
}

func coreAdd(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	var sum Integer
	for _, a := range args {
		n, err := asInteger("+", a)
		if err != nil {
			return nil, err
		}
		sum += n
	}
	return sum, nil
}

func coreSub(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	first, err := asInteger("-", args[0])
	if err != nil {
		return nil, err
	}
	acc := first
	for _, a := range args[1:] {
		n, err := asInteger("-", a)
		if err != nil {
			return nil, err
		}
		acc -= n
	}
	return acc, nil
}

func coreMul(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	acc := Integer(1)
	for _, a := range args {
		n, err := asInteger("*", a)
		if err != nil {
			return nil, err
		}
		acc *= n
	}
	return acc, nil
}

func coreDiv(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	first, err := asInteger("/", args[0])
	if err != nil {
		return nil, err
	}
	acc := first
	for _, a := range args[1:] {
		n, err := asInteger("/", a)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, DivisionByZero()
		}
		acc /= n
	}
	return acc, nil
}

func coreMod(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	a, err := asInteger("%", args[0])
	if err != nil {
		return nil, err
	}
	b, err := asInteger("%", args[1])
	if err != nil {
		return nil, err
	}
	if b == 0 {
		return nil, DivisionByZero()
	}
	return a % b, nil
}

func coreEq(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	return BoolValue(args[0].Equal(args[1])), nil
}

func coreGt(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	a, err := asInteger(">", args[0])
	if err != nil {
		return nil, err
	}
	b, err := asInteger(">", args[1])
	if err != nil {
		return nil, err
	}
	return BoolValue(a > b), nil
}

func coreEvenp(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	n, err := asInteger("even?", args[0])
	if err != nil {
		return nil, err
	}
	return BoolValue(n%2 == 0), nil
}

func coreType(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	switch v := args[0].(type) {
	case Integer:
		return Symbol("integer"), nil
	case Symbol:
		return Symbol("symbol"), nil
	case Str:
		return Symbol("string"), nil
	case *List:
		return Symbol("list"), nil
	case *Procedure:
		if v.Macro {
			return Symbol("macro"), nil
		}
		return Symbol("procedure"), nil
	case *Atom:
		return Symbol("atom"), nil
	case *Exception:
		return Symbol("exception"), nil
	default:
		switch v {
		case Nil:
			return Symbol("nil"), nil
		case True, False:
			return Symbol("boolean"), nil
		}
		return Symbol("unknown"), nil
	}
}

// arity reports a procedure's (argc variadic?) pair. Go's GC leaves
// nothing for refc to report (see coreRefc); arity is likewise a read of
// Procedure metadata rather than anything the evaluator tracks per call.
func coreArity(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	p, ok := args[0].(*Procedure)
	if !ok {
		return nil, TypeError("arity", "procedure", args[0])
	}
	return NewList(Integer(p.Argc()), BoolValue(p.Variadic)), nil
}

func coreEnv(in *Interpreter, _ []Value, env *Env) (Value, error) {
	if env == nil {
		env = in.Global
	}
	bindings := env.Frame()
	vs := make([]Value, len(bindings))
	for i, b := range bindings {
		vs[i] = NewList(b.Symbol, b.Value)
	}
	return NewList(vs...), nil
}

func coreAddr(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	switch v := args[0].(type) {
	case *Atom:
		return Str(fmt.Sprintf("%p", v)), nil
	case *Procedure:
		return Str(fmt.Sprintf("%p", v)), nil
	case *List:
		return Str(fmt.Sprintf("%p", v)), nil
	default:
		return nil, TypeError("addr", "a reference type (atom, procedure or list)", args[0])
	}
}

// refc is a documented no-op: Go's garbage collector tracks reachability,
// not per-value reference counts, so there is nothing real to report.
func coreRefc(_ *Interpreter, _ []Value, _ *Env) (Value, error) {
	return Integer(0), nil
}

func coreList(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	cp := make([]Value, len(args))
	copy(cp, args)
	return NewList(cp...), nil
}

func coreCount(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	if args[0] == Nil {
		return Integer(0), nil
	}
	l, err := asList("count", args[0])
	if err != nil {
		return nil, err
	}
	return Integer(l.Len()), nil
}

func coreListRef(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	l, err := asList("list-ref", args[0])
	if err != nil {
		return nil, err
	}
	idx, err := asInteger("list-ref", args[1])
	if err != nil {
		return nil, err
	}
	i := int(idx)
	c := l
	for ; i > 0 && !c.IsEmpty(); i-- {
		c = c.Tail()
	}
	if c.IsEmpty() {
		return nil, NewException(Str("list-ref: index out of range"))
	}
	return c.Head(), nil
}

func coreRest(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	l, err := asList("list-rest", args[0])
	if err != nil {
		return nil, err
	}
	return l.Tail(), nil
}

func coreCons(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	l, err := asList("cons", args[1])
	if err != nil {
		return nil, err
	}
	return l.Cons(args[0]), nil
}

func coreConcat(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	out := Empty
	for i := len(args) - 1; i >= 0; i-- {
		l, err := asList("concat", args[i])
		if err != nil {
			return nil, err
		}
		out = l.Append(out)
	}
	return out, nil
}

func corePrStr(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	return Str(prStr(args, " ", true)), nil
}

func coreStr(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	return Str(prStr(args, "", false)), nil
}

func corePrn(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	fmt.Println(prStr(args, " ", true))
	return Nil, nil
}

func corePrintln(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	fmt.Println(prStr(args, " ", false))
	return Nil, nil
}

func coreSymbol(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	s, ok := args[0].(Str)
	if !ok {
		return nil, TypeError("symbol", "string", args[0])
	}
	return Symbol(s), nil
}

func coreAtom(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	return NewAtom(args[0]), nil
}

func coreDeref(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	a, ok := args[0].(*Atom)
	if !ok {
		return nil, TypeError("deref", "atom", args[0])
	}
	return a.Value, nil
}

func coreReset(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	a, ok := args[0].(*Atom)
	if !ok {
		return nil, TypeError("reset!", "atom", args[0])
	}
	a.Value = args[1]
	return a.Value, nil
}

func coreSwap(in *Interpreter, args []Value, env *Env) (Value, error) {
	a, ok := args[0].(*Atom)
	if !ok {
		return nil, TypeError("swap!", "atom", args[0])
	}
	proc, ok := args[1].(*Procedure)
	if !ok {
		return nil, TypeError("swap!", "procedure", args[1])
	}
	callArgs := append([]Value{a.Value}, args[2:]...)
	if err := proc.CheckArity(len(callArgs)); err != nil {
		return nil, err
	}
	v, err := in.applyProcedure(proc, callArgs)
	if err != nil {
		return nil, err
	}
	a.Value = v
	return v, nil
}

func coreExn(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	return NewException(args[0]), nil
}

// throw raises args[0] as a catchable exception, unwinding through Eval's
// normal error return until a try*/catch* (or the REPL) observes it. Unlike
// exn, which only constructs an *Exception value, throw is what actually
// signals one.
func coreThrow(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	return nil, NewException(args[0])
}

func coreExnDatum(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	exc, ok := args[0].(*Exception)
	if !ok {
		return nil, TypeError("exn-datum", "exception", args[0])
	}
	return exc.Payload, nil
}

func coreApply(in *Interpreter, args []Value, _ *Env) (Value, error) {
	proc, ok := args[0].(*Procedure)
	if !ok {
		return nil, TypeError("apply", "procedure", args[0])
	}
	last, err := asList("apply", args[len(args)-1])
	if err != nil {
		return nil, err
	}
	callArgs := append([]Value{}, args[1:len(args)-1]...)
	callArgs = append(callArgs, last.Slice()...)
	if err := proc.CheckArity(len(callArgs)); err != nil {
		return nil, err
	}
	return in.applyProcedure(proc, callArgs)
}

func coreReadString(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	s, ok := args[0].(Str)
	if !ok {
		return nil, TypeError("read-string", "string", args[0])
	}
	v, err := Read(string(s))
	if err != nil {
		return nil, errors.Wrap(err, "read-string")
	}
	return v, nil
}

func coreSlurp(_ *Interpreter, args []Value, _ *Env) (Value, error) {
	s, ok := args[0].(Str)
	if !ok {
		return nil, TypeError("slurp", "string", args[0])
	}
	data, err := os.ReadFile(string(s))
	if err != nil {
		return nil, errors.Wrapf(err, "slurp %q", string(s))
	}
	return Str(data), nil
}

func coreEval(in *Interpreter, args []Value, _ *Env) (Value, error) {
	return in.Eval(args[0], in.Global)
}

func coreMap(in *Interpreter, args []Value, _ *Env) (Value, error) {
	proc, ok := args[0].(*Procedure)
	if !ok {
		return nil, TypeError("map", "procedure", args[0])
	}
	l, err := asList("map", args[1])
	if err != nil {
		return nil, err
	}
	if err := proc.CheckArity(1); err != nil {
		return nil, err
	}
	elems := l.Slice()
	out := make([]Value, len(elems))
	for i, e := range elems {
		v, err := in.applyProcedure(proc, []Value{e})
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return NewList(out...), nil
}

func coreTimeMs(_ *Interpreter, _ []Value, _ *Env) (Value, error) {
	return Integer(time.Now().UnixMilli()), nil
}

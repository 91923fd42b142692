package lisp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInterpreter() *Interpreter {
	in := NewInterpreter()
	RegisterCore(in)
	forms, err := ReadAll(PreludeSource)
	if err != nil {
		panic(err)
	}
	for _, f := range forms {
		if _, err := in.Eval(f, in.Global); err != nil {
			panic(err)
		}
	}
	return in
}

func evalString(t *testing.T, in *Interpreter, src string) Value {
	t.Helper()
	form, err := Read(src)
	require.NoError(t, err)
	v, err := in.Eval(form, in.Global)
	require.NoError(t, err)
	return v
}

func TestSelfEvaluation(t *testing.T) {
	in := newTestInterpreter()
	cases := []string{"1", "-5", `"hi"`, "nil", "true", "false"}
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			want, err := Read(src)
			require.NoError(t, err)
			got := evalString(t, in, src)
			assert.True(t, want.Equal(got))
		})
	}
}

func TestQuoteIdentity(t *testing.T) {
	in := newTestInterpreter()
	got := evalString(t, in, "(quote (1 2 3))")
	want := NewList(Integer(1), Integer(2), Integer(3))
	assert.True(t, want.Equal(got))
}

func TestArithmetic(t *testing.T) {
	in := newTestInterpreter()
	cases := []struct {
		src  string
		want Value
	}{
		{"(+ 1 2 3)", Integer(6)},
		{"(- 10 3 2)", Integer(5)},
		{"(* 2 3 4)", Integer(24)},
		{"(/ 20 2 5)", Integer(2)},
		{"(% 7 3)", Integer(1)},
		{"(= 1 1)", True},
		{"(> 2 1)", True},
		{"(even? 4)", True},
		{"(even? 3)", False},
		{"(< 1 2)", True},
		{"(<= 2 2)", True},
		{"(>= 2 3)", False},
		{"(not false)", True},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			got := evalString(t, in, tc.src)
			assert.True(t, tc.want.Equal(got))
		})
	}
}

func TestUnaryArithmeticIsArityMismatch(t *testing.T) {
	in := newTestInterpreter()
	for _, src := range []string{"(+ 1)", "(- 5)", "(* 5)", "(/ 5)"} {
		t.Run(src, func(t *testing.T) {
			_, err := in.Eval(mustRead(t, src), in.Global)
			require.Error(t, err)
			_, ok := err.(*Exception)
			assert.True(t, ok)
		})
	}
}

func TestDivisionByZeroIsCatchable(t *testing.T) {
	in := newTestInterpreter()
	got := evalString(t, in, `(try* (/ 1 0) (catch* e "caught"))`)
	assert.Equal(t, Str("caught"), got)
}

func TestLexicalScope(t *testing.T) {
	in := newTestInterpreter()
	got := evalString(t, in, `
		(do
		  (def! make-adder (fn* (n) (fn* (x) (+ x n))))
		  (def! add5 (make-adder 5))
		  (add5 10))`)
	assert.Equal(t, Integer(15), got)
}

func TestLetStarSequentialVisibility(t *testing.T) {
	in := newTestInterpreter()
	got := evalString(t, in, "(let* (a 1 b (+ a 1)) (+ a b))")
	assert.Equal(t, Integer(3), got)
}

func TestIfBranches(t *testing.T) {
	in := newTestInterpreter()
	assert.Equal(t, Integer(1), evalString(t, in, "(if true 1 2)"))
	assert.Equal(t, Integer(2), evalString(t, in, "(if false 1 2)"))
	assert.Equal(t, Nil, evalString(t, in, "(if false 1)"))
}

func TestDoEvaluatesInOrderReturnsLast(t *testing.T) {
	in := newTestInterpreter()
	evalString(t, in, "(def! log (atom (list)))")
	got := evalString(t, in, `
		(do
		  (swap! log (fn* (l) (concat l (list 1))))
		  (swap! log (fn* (l) (concat l (list 2))))
		  (deref log))`)
	assert.True(t, NewList(Integer(1), Integer(2)).Equal(got))
}

func TestTailRecursionDoesNotOverflow(t *testing.T) {
	in := newTestInterpreter()
	evalString(t, in, `
		(def! countdown
		  (fn* (n)
		    (if (= n 0) 0 (countdown (- n 1)))))`)
	got := evalString(t, in, "(countdown 1000000)")
	assert.Equal(t, Integer(0), got)
}

func TestMacroExpansionAndExpandIdempotence(t *testing.T) {
	in := newTestInterpreter()
	evalString(t, in, `(defmacro! unless (fn* (pred a b) (list 'if pred b a)))`)
	got := evalString(t, in, "(unless false 1 2)")
	assert.Equal(t, Integer(1), got)

	form := mustRead(t, "(unless false 1 2)")
	expandedOnce, err := in.macroexpand(form, in.Global)
	require.NoError(t, err)
	expandedTwice, err := in.macroexpand(expandedOnce, in.Global)
	require.NoError(t, err)
	assert.True(t, expandedOnce.Equal(expandedTwice), "macroexpand is a fixpoint once a form is no longer a macro call")
}

func TestAtomResetThenDeref(t *testing.T) {
	in := newTestInterpreter()
	evalString(t, in, "(def! a (atom 1))")
	evalString(t, in, "(reset! a 2)")
	got := evalString(t, in, "(deref a)")
	assert.Equal(t, Integer(2), got)
}

func TestQuasiquoteNoOpOnUnquoteFreeInput(t *testing.T) {
	in := newTestInterpreter()
	got := evalString(t, in, "(quasiquote (1 2 3))")
	want := NewList(Integer(1), Integer(2), Integer(3))
	assert.True(t, want.Equal(got))
}

func TestQuasiquoteUnquoteAndSplice(t *testing.T) {
	in := newTestInterpreter()
	evalString(t, in, "(def! x 5)")
	evalString(t, in, "(def! xs (list 6 7))")
	got := evalString(t, in, "(quasiquote (1 (unquote x) (splice-unquote xs) 8))")
	want := NewList(Integer(1), Integer(5), Integer(6), Integer(7), Integer(8))
	assert.True(t, want.Equal(got))
}

func TestCountBoundaryCases(t *testing.T) {
	in := newTestInterpreter()
	assert.Equal(t, Integer(0), evalString(t, in, "(count nil)"))
	assert.Equal(t, Integer(3), evalString(t, in, "(count (list 1 2 3))"))

	_, err := in.Eval(mustRead(t, "(count 42)"), in.Global)
	require.Error(t, err)
	_, ok := err.(*Exception)
	assert.True(t, ok)
}

func TestEmptyBodyFnStarIsSyntaxError(t *testing.T) {
	in := newTestInterpreter()
	_, err := in.Eval(mustRead(t, "(fn* (x))"), in.Global)
	require.Error(t, err)
	_, ok := err.(*SyntaxError)
	assert.True(t, ok)
}

func TestOddBindingsLetStarIsSyntaxError(t *testing.T) {
	in := newTestInterpreter()
	_, err := in.Eval(mustRead(t, "(let* (a 1 b) a)"), in.Global)
	require.Error(t, err)
	_, ok := err.(*SyntaxError)
	assert.True(t, ok)
}

func TestUncaughtExceptionDoesNotPanic(t *testing.T) {
	in := newTestInterpreter()
	_, err := in.Eval(mustRead(t, "(throw \"boom\")"), in.Global)
	require.Error(t, err)
	exc, ok := err.(*Exception)
	require.True(t, ok)
	assert.Equal(t, Str("boom"), exc.Payload)
}

func TestCond(t *testing.T) {
	in := newTestInterpreter()
	got := evalString(t, in, `(cond false 1 false 2 true 3)`)
	assert.Equal(t, Integer(3), got)
}

func TestOrAndShortCircuit(t *testing.T) {
	in := newTestInterpreter()
	evalString(t, in, "(def! calls (atom 0))")
	evalString(t, in, "(def! bump (fn* () (do (swap! calls (fn* (n) (+ n 1))) true)))")
	got := evalString(t, in, "(or true (bump))")
	assert.Equal(t, True, got)
	assert.Equal(t, Integer(0), evalString(t, in, "(deref calls)"))
}

func mustRead(t *testing.T, src string) Value {
	t.Helper()
	v, err := Read(src)
	require.NoError(t, err)
	return v
}

package lisp

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoreApply(t *testing.T) {
	in := newTestInterpreter()
	got := evalString(t, in, "(apply + 1 2 (list 3 4))")
	assert.Equal(t, Integer(10), got)
}

func TestCoreMap(t *testing.T) {
	in := newTestInterpreter()
	evalString(t, in, "(def! inc (fn* (x) (+ x 1)))")
	got := evalString(t, in, "(map inc (list 1 2 3))")
	assert.True(t, NewList(Integer(2), Integer(3), Integer(4)).Equal(got))
}

func TestCoreExnRoundTrip(t *testing.T) {
	in := newTestInterpreter()
	got := evalString(t, in, `(try* (throw "oops") (catch* e e))`)
	assert.Equal(t, Str("oops"), got)
}

func TestCoreExnConstructsWithoutThrowing(t *testing.T) {
	in := newTestInterpreter()
	got := evalString(t, in, `(exn "oops")`)
	exc, ok := got.(*Exception)
	require.True(t, ok)
	assert.Equal(t, Str("oops"), exc.Payload)
	assert.Equal(t, Str("oops"), evalString(t, in, `(exn-datum (exn "oops"))`))
}

func TestThrowCaughtScenario(t *testing.T) {
	in := newTestInterpreter()
	got := evalString(t, in, `(try* (throw "boom") (catch* e (str "caught:" e)))`)
	assert.Equal(t, Str("caught:boom"), got)
}

func TestCorePrStrAndStr(t *testing.T) {
	in := newTestInterpreter()
	assert.Equal(t, Str(`1 "a" x`), evalString(t, in, `(pr-str 1 "a" 'x)`))
	assert.Equal(t, Str("1ax"), evalString(t, in, `(str 1 "a" 'x)`))
}

func TestCoreSymbol(t *testing.T) {
	in := newTestInterpreter()
	got := evalString(t, in, `(symbol "abc")`)
	assert.Equal(t, Symbol("abc"), got)
}

func TestCoreReadString(t *testing.T) {
	in := newTestInterpreter()
	got := evalString(t, in, `(read-string "(1 2 3)")`)
	assert.True(t, NewList(Integer(1), Integer(2), Integer(3)).Equal(got))
}

func TestCoreSlurp(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "golisp-slurp-*.lisp")
	require.NoError(t, err)
	_, err = f.WriteString("hello")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	in := newTestInterpreter()
	got := evalString(t, in, `(slurp "`+f.Name()+`")`)
	assert.Equal(t, Str("hello"), got)
}

func TestCoreTypeIntrospection(t *testing.T) {
	in := newTestInterpreter()
	cases := []struct {
		src  string
		want Value
	}{
		{"(type 1)", Symbol("integer")},
		{"(type 'x)", Symbol("symbol")},
		{`(type "s")`, Symbol("string")},
		{"(type (list 1))", Symbol("list")},
		{"(type nil)", Symbol("nil")},
		{"(type true)", Symbol("boolean")},
		{"(type (atom 1))", Symbol("atom")},
		{"(type +)", Symbol("procedure")},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			assert.Equal(t, tc.want, evalString(t, in, tc.src))
		})
	}
}

func TestCoreArity(t *testing.T) {
	in := newTestInterpreter()
	evalString(t, in, "(def! f (fn* (a b) (+ a b)))")
	assert.True(t, NewList(Integer(2), False).Equal(evalString(t, in, "(arity f)")))

	evalString(t, in, "(def! g (fn* (a & rest) a))")
	assert.True(t, NewList(Integer(1), True).Equal(evalString(t, in, "(arity g)")))
}

func TestCoreEnvListsGlobalBindingsInOrder(t *testing.T) {
	in := newTestInterpreter()
	got := evalString(t, in, "(env)")
	l, ok := got.(*List)
	require.True(t, ok)
	assert.True(t, l.Len() > 0)

	elems := l.Slice()
	firstPair, ok := elems[0].(*List)
	require.True(t, ok)
	assert.Equal(t, Symbol("+"), firstPair.Head(), "core table is bound first, starting with +")
	lastPair, ok := elems[len(elems)-1].(*List)
	require.True(t, ok)
	assert.Equal(t, Symbol("and"), lastPair.Head(), "the prelude's last definition is and")
}

func TestCoreSwapAndReset(t *testing.T) {
	in := newTestInterpreter()
	evalString(t, in, "(def! a (atom 10))")
	got := evalString(t, in, "(swap! a + 5)")
	assert.Equal(t, Integer(15), got)
	got = evalString(t, in, `(reset! a 0)`)
	assert.Equal(t, Integer(0), got)
}

func TestCoreConsAndListOps(t *testing.T) {
	in := newTestInterpreter()
	assert.True(t, NewList(Integer(1), Integer(2)).Equal(evalString(t, in, "(cons 1 (list 2))")))
	assert.Equal(t, Integer(2), evalString(t, in, "(list-ref (list 1 2 3) 1)"))
	assert.True(t, NewList(Integer(2), Integer(3)).Equal(evalString(t, in, "(rest (list 1 2 3))")))
}

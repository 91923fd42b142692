package lisp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvPutGet(t *testing.T) {
	root := NewEnv(nil)
	root.Put(Symbol("x"), Integer(1))

	v, err := root.Get(Symbol("x"))
	require.NoError(t, err)
	assert.Equal(t, Integer(1), v)
}

func TestEnvSecondPutUpdatesInPlace(t *testing.T) {
	root := NewEnv(nil)
	root.Put(Symbol("x"), Integer(1))
	prev, had := root.Put(Symbol("x"), Integer(2))

	assert.True(t, had)
	assert.Equal(t, Integer(1), prev)
	v, err := root.Get(Symbol("x"))
	require.NoError(t, err)
	assert.Equal(t, Integer(2), v)
}

func TestEnvLookupWalksParentChain(t *testing.T) {
	root := NewEnv(nil)
	root.Put(Symbol("x"), Integer(1))
	child := NewEnv(root)
	grandchild := NewEnv(child)

	v, err := grandchild.Get(Symbol("x"))
	require.NoError(t, err)
	assert.Equal(t, Integer(1), v)
}

func TestEnvChildShadowsParentWithoutMutatingIt(t *testing.T) {
	root := NewEnv(nil)
	root.Put(Symbol("x"), Integer(1))
	child := NewEnv(root)
	child.Put(Symbol("x"), Integer(2))

	cv, err := child.Get(Symbol("x"))
	require.NoError(t, err)
	assert.Equal(t, Integer(2), cv)

	rv, err := root.Get(Symbol("x"))
	require.NoError(t, err)
	assert.Equal(t, Integer(1), rv)
}

func TestEnvUnboundIsCatchableException(t *testing.T) {
	root := NewEnv(nil)
	_, err := root.Get(Symbol("nope"))
	require.Error(t, err)
	_, ok := err.(*Exception)
	assert.True(t, ok, "unbound lookups raise a catchable *Exception")
}

func TestEnvRoot(t *testing.T) {
	root := NewEnv(nil)
	child := NewEnv(root)
	grandchild := NewEnv(child)
	assert.Same(t, root, grandchild.Root())
}

func TestEnvFrameOrderIsDefinitionOrderAtRoot(t *testing.T) {
	root := NewEnv(nil)
	root.Put(Symbol("b"), Integer(2))
	root.Put(Symbol("a"), Integer(1))
	root.Put(Symbol("c"), Integer(3))

	frame := root.Frame()
	require.Len(t, frame, 3)
	assert.Equal(t, []Symbol{"b", "a", "c"}, []Symbol{frame[0].Symbol, frame[1].Symbol, frame[2].Symbol})
}

// Package lisp implements the value model, environment, and evaluator of a
// small Lisp dialect in the Make-a-Lisp tradition.
package lisp

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Value is a tagged Lisp value. Every value variant in this interpreter
// implements this interface.
type Value interface {
	// WriteTo serializes the value to w. When quoted is true the value is
	// written in its readable form; otherwise in its display form.
	WriteTo(w io.Writer, quoted bool) error

	// Equal reports whether the receiver is structurally equal to other:
	// lists element-wise, procedures/atoms by identity, exceptions by
	// payload.
	Equal(other Value) bool
}

// String renders v the way pr-str with readable=true would.
func String(v Value) string {
	var sb strings.Builder
	_ = v.WriteTo(&sb, true)
	return sb.String()
}

// Display renders v the way str (readable=false) would.
func Display(v Value) string {
	var sb strings.Builder
	_ = v.WriteTo(&sb, false)
	return sb.String()
}

// Integer is a 32-bit signed integer value.
type Integer int32

func (i Integer) WriteTo(w io.Writer, _ bool) error {
	_, err := io.WriteString(w, strconv.FormatInt(int64(i), 10))
	return err
}

func (i Integer) Equal(other Value) bool {
	o, ok := other.(Integer)
	return ok && i == o
}

// Symbol is an interned identifier, used both for bindings and as the
// syntactic head of special forms. Equality is by name.
type Symbol string

func (s Symbol) WriteTo(w io.Writer, _ bool) error {
	_, err := io.WriteString(w, string(s))
	return err
}

func (s Symbol) Equal(other Value) bool {
	o, ok := other.(Symbol)
	return ok && s == o
}

// Str is an immutable sequence of bytes, printed either quoted-and-escaped
// (readable) or as raw bytes (display).
type Str string

func (s Str) WriteTo(w io.Writer, quoted bool) error {
	if !quoted {
		_, err := io.WriteString(w, string(s))
		return err
	}
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range string(s) {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	_, err := io.WriteString(w, sb.String())
	return err
}

func (s Str) Equal(other Value) bool {
	o, ok := other.(Str)
	return ok && s == o
}

// singleton is the shared implementation behind Nil, True and False: three
// distinct, identity-comparable values with no payload.
type singleton struct {
	name string
}

func (s *singleton) WriteTo(w io.Writer, _ bool) error {
	_, err := io.WriteString(w, s.name)
	return err
}

func (s *singleton) Equal(other Value) bool {
	o, ok := other.(*singleton)
	return ok && o == s
}

var (
	// Nil is the singleton nil value.
	Nil Value = &singleton{name: "nil"}
	// True is the singleton boolean true value.
	True Value = &singleton{name: "true"}
	// False is the singleton boolean false value.
	False Value = &singleton{name: "false"}
)

// Truthy reports whether v counts as true in an `if` condition: everything
// except nil and false.
func Truthy(v Value) bool {
	return v != Nil && v != False
}

// BoolValue converts a Go bool to the True/False singleton.
func BoolValue(b bool) Value {
	if b {
		return True
	}
	return False
}

// List is a persistent, singly-linked cons list. Cons (prepending an
// element) is O(1) and shares its tail with the original list — lists are
// observationally immutable once built. Empty is a distinguished Value,
// never Go nil.
type List struct {
	head Value
	tail *List
}

// Empty is the singleton empty list.
var Empty = &List{}

// NewList builds a list from vs, left to right.
func NewList(vs ...Value) *List {
	l := Empty
	for i := len(vs) - 1; i >= 0; i-- {
		l = l.Cons(vs[i])
	}
	return l
}

// Cons returns a new list with v prepended to l.
func (l *List) Cons(v Value) *List {
	return &List{head: v, tail: l}
}

// IsEmpty reports whether l is the empty list.
func (l *List) IsEmpty() bool {
	return l == Empty
}

// Head returns the first element. On the empty list it returns Go nil,
// which is not a Value; callers must check IsEmpty first (mirrors the
// evaluator's own discipline of checking list shape before destructuring).
func (l *List) Head() Value {
	return l.head
}

// Tail returns the list without its first element.
func (l *List) Tail() *List {
	if l.tail == nil {
		return Empty
	}
	return l.tail
}

// Len returns the number of elements in l.
func (l *List) Len() int {
	n := 0
	for c := l; !c.IsEmpty(); c = c.Tail() {
		n++
	}
	return n
}

// Slice materializes l as a Go slice, left to right.
func (l *List) Slice() []Value {
	vs := make([]Value, 0, l.Len())
	for c := l; !c.IsEmpty(); c = c.Tail() {
		vs = append(vs, c.Head())
	}
	return vs
}

// Append returns a fresh list containing the elements of l followed by the
// elements of other, sharing other's spine but copying l's.
func (l *List) Append(other *List) *List {
	vs := l.Slice()
	out := other
	for i := len(vs) - 1; i >= 0; i-- {
		out = out.Cons(vs[i])
	}
	return out
}

func (l *List) WriteTo(w io.Writer, quoted bool) error {
	if _, err := io.WriteString(w, "("); err != nil {
		return err
	}
	for c, first := l, true; !c.IsEmpty(); c, first = c.Tail(), false {
		if !first {
			if _, err := io.WriteString(w, " "); err != nil {
				return err
			}
		}
		if err := c.Head().WriteTo(w, quoted); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, ")")
	return err
}

func (l *List) Equal(other Value) bool {
	o, ok := other.(*List)
	if !ok {
		return false
	}
	a, b := l, o
	for {
		switch {
		case a.IsEmpty() && b.IsEmpty():
			return true
		case a.IsEmpty() != b.IsEmpty():
			return false
		case !a.Head().Equal(b.Head()):
			return false
		}
		a, b = a.Tail(), b.Tail()
	}
}

// Atom is a mutable single-slot cell, the only mutable Value. Equality is
// by identity, never by payload.
type Atom struct {
	Value Value
}

// NewAtom wraps v in a fresh, uniquely-identified Atom.
func NewAtom(v Value) *Atom {
	return &Atom{Value: v}
}

func (a *Atom) WriteTo(w io.Writer, quoted bool) error {
	if _, err := io.WriteString(w, "(atom "); err != nil {
		return err
	}
	if err := a.Value.WriteTo(w, quoted); err != nil {
		return err
	}
	_, err := io.WriteString(w, ")")
	return err
}

func (a *Atom) Equal(other Value) bool {
	o, ok := other.(*Atom)
	return ok && o == a
}

// Exception wraps a payload Value produced by throw and caught by try*. It
// also implements error so it can travel the normal Go error-return path
// through Eval.
type Exception struct {
	Payload Value
}

// NewException wraps payload as a throwable Exception.
func NewException(payload Value) *Exception {
	return &Exception{Payload: payload}
}

func (e *Exception) Error() string {
	return fmt.Sprintf("exception: %s", String(e.Payload))
}

func (e *Exception) WriteTo(w io.Writer, quoted bool) error {
	return e.Payload.WriteTo(w, quoted)
}

func (e *Exception) Equal(other Value) bool {
	o, ok := other.(*Exception)
	return ok && e.Payload.Equal(o.Payload)
}

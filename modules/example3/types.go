package example3

import (
	"fmt"

	"github.com/specialistvlad/ctybind/internal/bind"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Example has several constructors.
type Example struct {
	source string
}

// newExample is not bound; CreateExample wraps it.
func newExample(a int) Example {
	return Example{source: fmt.Sprintf("int %d", a)}
}

// CreateExample is a factory returning by value.
func CreateExample(a int) Example { return newExample(a) }

func NewExampleString(s string) *Example {
	return &Example{source: fmt.Sprintf("string %q", s)}
}

func NewExamplePair(a, b int) *Example {
	return &Example{source: fmt.Sprintf("pair %d,%d", a, b)}
}

func NewExampleFloat(f float64) *Example {
	return &Example{source: fmt.Sprintf("float %g", f)}
}

// Source tells which constructor built e.
func (e *Example) Source() string { return e.source }

// MyVector supports arithmetic operators.
type MyVector struct {
	x, y float32
}

func NewMyVector(x, y float32) *MyVector { return &MyVector{x: x, y: y} }

func (v *MyVector) Add(o *MyVector) *MyVector { return &MyVector{v.x + o.x, v.y + o.y} }

func (v *MyVector) Scale(f float32) *MyVector { return &MyVector{v.x * f, v.y * f} }

// IAdd adds o in place and returns v.
func (v *MyVector) IAdd(o *MyVector) *MyVector {
	v.x += o.x
	v.y += o.y
	return v
}

// IScale scales in place and returns v.
func (v *MyVector) IScale(f float32) *MyVector {
	v.x *= f
	v.y *= f
	return v
}

func (v *MyVector) String() string {
	return fmt.Sprintf("[%f, %f]", v.x, v.y)
}

// Pickleable round-trips through its state tuple.
type Pickleable struct {
	value string
	extra int
}

func NewPickleable(value string) *Pickleable { return &Pickleable{value: value} }

func (p *Pickleable) Value() string { return p.value }

func (p *Pickleable) SetExtra(extra int) { p.extra = extra }

func (p *Pickleable) Extra() int { return p.extra }

// PickleableState returns the tuple that fully encodes p.
func PickleableState(p *Pickleable) cty.Value {
	return cty.TupleVal([]cty.Value{
		cty.StringVal(p.value),
		cty.NumberIntVal(int64(p.extra)),
	})
}

// PickleableFromState validates a state tuple and builds a new value.
func PickleableFromState(t cty.Value) (*Pickleable, error) {
	if t.IsNull() || !t.Type().IsTupleType() || t.LengthInt() != 2 {
		return nil, fmt.Errorf("%w: Invalid state!", bind.ErrInvalidState)
	}
	elems := t.AsValueSlice()
	if elems[0].IsNull() || elems[0].Type() != cty.String {
		return nil, fmt.Errorf("%w: value must be a string", bind.ErrInvalidState)
	}
	if elems[1].IsNull() || elems[1].Type() != cty.Number {
		return nil, fmt.Errorf("%w: extra must be a number", bind.ErrInvalidState)
	}
	var extra int
	if err := gocty.FromCtyValue(elems[1], &extra); err != nil {
		return nil, fmt.Errorf("%w: extra: %v", bind.ErrInvalidState, err)
	}
	p := NewPickleable(elems[0].AsString())
	p.SetExtra(extra)
	return p, nil
}

// A keeps foo and foo2 unexported; scripts reach them through
// publicist. foo2 is virtual.
type A struct {
	ov *bind.Overrides
}

func (a *A) foo() int { return 42 }

func (a *A) foo2() int {
	if r, ok := bind.Override[int](a.ov, "foo2"); ok {
		return r
	}
	return 24
}

// Self implements bind.SelfOwner.
func (a *A) Self() *bind.Object { return a.ov.Self() }

// publicist exposes A's unexported methods to the bindings.
type publicist A

func (p *publicist) Foo() int { return (*A)(p).foo() }

func (p *publicist) Foo2() int { return (*A)(p).foo2() }

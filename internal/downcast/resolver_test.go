package downcast

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shapeKind int

const (
	kindShape shapeKind = iota
	kindSquare
	kindCircle
	kindBogus
)

// shape is a tagged base with no methods beyond its tag accessor.
type shape struct {
	kind  shapeKind
	Label string
	side  float64
}

func (s *shape) Kind() shapeKind { return s.kind }

// square shares shape's layout, so the projection is a pointer conversion.
type square shape

func (s *square) Side() float64 { return s.side }

type circle struct {
	base   *shape
	Radius float64
}

func newShape(label string) *shape { return &shape{kind: kindShape, Label: label} }

func newSquare(side float64) *square {
	return &square{kind: kindSquare, Label: "square", side: side}
}

var _ Hook = (*Resolver[shapeKind, *shape])(nil)

func testResolver() *Resolver[shapeKind, *shape] {
	return New[shapeKind, *shape]("shape", kindShape,
		Variant[shapeKind, *shape]{
			Tag:      kindSquare,
			Identity: "square",
			Cast:     func(s *shape) any { return (*square)(s) },
		},
		Variant[shapeKind, *shape]{
			Tag:      kindCircle,
			Identity: "circle",
			Cast:     func(s *shape) any { return &circle{base: s, Radius: s.side} },
		},
	)
}

func TestResolve_DerivedVariant(t *testing.T) {
	t.Parallel()
	r := testResolver()

	sq := newSquare(3)
	res := r.Resolve((*shape)(sq))

	assert.Equal(t, Identity("square"), res.Identity)
	got, ok := res.Value.(*square)
	require.True(t, ok, "expected *square, got %T", res.Value)
	assert.Same(t, sq, got, "the projection must not move the pointer")
	assert.Equal(t, 3.0, got.Side())
	assert.Equal(t, "square", got.Label)
}

func TestResolve_Null(t *testing.T) {
	t.Parallel()
	r := testResolver()

	res := r.Resolve(nil)
	assert.True(t, res.IsNull())
	assert.Equal(t, Identity(""), res.Identity)
	assert.Nil(t, res.Value)
}

func TestResolve_BaseTagPassesThrough(t *testing.T) {
	t.Parallel()
	r := testResolver()

	s := newShape("plain")
	res := r.Resolve(s)
	assert.Equal(t, Identity("shape"), res.Identity)
	assert.Same(t, s, res.Value)
}

func TestResolve_Idempotent(t *testing.T) {
	t.Parallel()
	r := testResolver()

	sq := newSquare(2)
	first := r.Resolve((*shape)(sq))
	again := r.Resolve((*shape)(first.Value.(*square)))
	assert.Equal(t, first, again)
}

func TestResolve_PayloadVariant(t *testing.T) {
	t.Parallel()
	r := testResolver()

	s := &shape{kind: kindCircle, side: 1.5}
	res := r.Resolve(s)
	require.Equal(t, Identity("circle"), res.Identity)
	c := res.Value.(*circle)
	assert.Same(t, s, c.base)
	assert.Equal(t, 1.5, c.Radius)
}

func TestResolve_UnregisteredTagPanics(t *testing.T) {
	t.Parallel()
	r := testResolver()

	assert.PanicsWithValue(t, "downcast: shape value carries unregistered tag 3", func() {
		r.Resolve(&shape{kind: kindBogus})
	})
}

func TestResolveAny(t *testing.T) {
	t.Parallel()
	r := testResolver()

	cases := []struct {
		name string
		in   any
		want Identity
	}{
		{name: "untyped nil", in: nil, want: ""},
		{name: "typed nil", in: (*shape)(nil), want: ""},
		{name: "foreign type", in: "not a shape", want: ""},
		{name: "base", in: newShape("b"), want: "shape"},
		{name: "variant", in: (*shape)(newSquare(1)), want: "square"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, r.ResolveAny(tc.in).Identity)
		})
	}
}

func TestNew_Misuse(t *testing.T) {
	t.Parallel()

	sq := func(s *shape) any { return (*square)(s) }

	t.Run("duplicate tag", func(t *testing.T) {
		assert.Panics(t, func() {
			New[shapeKind, *shape]("shape", kindShape,
				Variant[shapeKind, *shape]{Tag: kindSquare, Identity: "a", Cast: sq},
				Variant[shapeKind, *shape]{Tag: kindSquare, Identity: "b", Cast: sq},
			)
		})
	})
	t.Run("variant reuses base tag", func(t *testing.T) {
		assert.Panics(t, func() {
			New[shapeKind, *shape]("shape", kindShape,
				Variant[shapeKind, *shape]{Tag: kindShape, Identity: "a", Cast: sq},
			)
		})
	})
	t.Run("empty identity", func(t *testing.T) {
		assert.Panics(t, func() {
			New[shapeKind, *shape]("shape", kindShape,
				Variant[shapeKind, *shape]{Tag: kindSquare, Cast: sq},
			)
		})
	})
	t.Run("missing cast", func(t *testing.T) {
		assert.Panics(t, func() {
			New[shapeKind, *shape]("shape", kindShape,
				Variant[shapeKind, *shape]{Tag: kindSquare, Identity: "a"},
			)
		})
	})
	t.Run("empty base", func(t *testing.T) {
		assert.Panics(t, func() { New[shapeKind, *shape]("", kindShape) })
	})
}

func TestIdentitiesAndBaseType(t *testing.T) {
	t.Parallel()
	r := testResolver()

	assert.Equal(t, Identity("shape"), r.BaseIdentity())
	assert.Equal(t, []Identity{"shape", "square", "circle"}, r.Identities())
	assert.Equal(t, "*downcast.shape", r.BaseType().String())
}

func TestResolve_Concurrent(t *testing.T) {
	t.Parallel()
	r := testResolver()
	sq := newSquare(4)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				res := r.Resolve((*shape)(sq))
				if res.Identity != "square" {
					t.Errorf("unexpected identity %q", res.Identity)
					return
				}
			}
		}()
	}
	wg.Wait()
}

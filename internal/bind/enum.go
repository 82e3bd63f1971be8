package bind

import (
	"fmt"
	"log/slog"
	"reflect"
)

// Integer is the set of Go types an enumeration can be declared over.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

type enumSpec struct {
	names    []string
	byName   map[string]*Object
	byValue  map[int64]*Object
	nameOf   map[int64]string
	exported bool
}

// member returns the singleton object for val. Values outside the
// declared members still convert, but get a fresh object each time.
func (e *enumSpec) member(cls *Class, val any) *Object {
	if obj, ok := e.byValue[enumInt(val)]; ok {
		return obj
	}
	return NewObject(cls, val)
}

func enumInt(v any) int64 {
	rv := reflect.ValueOf(v)
	if isUnsigned(rv.Kind()) {
		return int64(rv.Uint())
	}
	return rv.Int()
}

// EnumBuilder declares the members of an enumeration over E.
type EnumBuilder[E Integer] struct {
	class *Class
}

// NewEnum declares E as an enumeration named name inside s.
func NewEnum[E Integer](s Scope, name string, opts ...ClassOption) *EnumBuilder[E] {
	c := newClass(s, name, reflect.TypeOf((*E)(nil)).Elem())
	c.enum = &enumSpec{
		byName:  make(map[string]*Object),
		byValue: make(map[int64]*Object),
		nameOf:  make(map[int64]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	slog.Debug("Declared enum.", "enum", c.QualifiedName())
	return &EnumBuilder[E]{class: c}
}

// Value adds a member. Names and values must be unique.
func (b *EnumBuilder[E]) Value(name string, v E) *EnumBuilder[E] {
	e := b.class.enum
	n := enumInt(v)
	if _, dup := e.byName[name]; dup {
		panic(fmt.Sprintf("bind: %s: duplicate member %q", b.class.DisplayName(), name))
	}
	if prev, dup := e.nameOf[n]; dup {
		panic(fmt.Sprintf("bind: %s: %q and %q share value %d", b.class.DisplayName(), prev, name, n))
	}
	obj := NewObject(b.class, v)
	e.names = append(e.names, name)
	e.byName[name] = obj
	e.byValue[n] = obj
	e.nameOf[n] = name
	return b
}

// ExportValues makes the members visible in the enclosing scope as well
// as under the enum itself.
func (b *EnumBuilder[E]) ExportValues() *EnumBuilder[E] {
	b.class.enum.exported = true
	return b
}

// Class returns the enum class.
func (b *EnumBuilder[E]) Class() *Class { return b.class }

// EnumMembers returns the declared members in declaration order.
func (c *Class) EnumMembers() []*Object {
	if c.enum == nil {
		return nil
	}
	out := make([]*Object, len(c.enum.names))
	for i, name := range c.enum.names {
		out[i] = c.enum.byName[name]
	}
	return out
}

// EnumMember looks up a member by name.
func (c *Class) EnumMember(name string) (*Object, bool) {
	if c.enum == nil {
		return nil, false
	}
	obj, ok := c.enum.byName[name]
	return obj, ok
}

// EnumName returns the member name of an enum object, or "???" for a
// value that matches no declared member.
func EnumName(obj *Object) string {
	if obj.Class.enum == nil {
		return ""
	}
	if name, ok := obj.Class.enum.nameOf[enumInt(obj.Value)]; ok {
		return name
	}
	return "???"
}

// EnumValue returns the integer value of an enum object.
func EnumValue(obj *Object) int64 {
	return enumInt(obj.Value)
}

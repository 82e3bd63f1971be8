package bind_test

import (
	"context"
	"strings"
	"testing"

	"github.com/specialistvlad/ctybind/internal/bind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestClass_Attributes(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	pet := e.construct(t, "example::Pet", str("Molly"))
	name, err := bind.GetAttr(e.ctx, e.conv, pet, "name")
	require.NoError(t, err)
	assert.Equal(t, "Molly", name.AsString())

	require.NoError(t, bind.SetAttr(e.ctx, e.conv, pet, "name", str("Charly")))
	assert.Equal(t, "Charly", e.invoke(t, pet, "getName").AsString())

	// Pet accepts attributes it does not declare.
	require.NoError(t, bind.SetAttr(e.ctx, e.conv, pet, "age", num(2)))
	age, err := bind.GetAttr(e.ctx, e.conv, pet, "age")
	require.NoError(t, err)
	assert.True(t, num(2).RawEquals(age))
	assert.Equal(t, []string{"age"}, pet.DictKeys())

	_, err = bind.GetAttr(e.ctx, e.conv, pet, "missing")
	require.ErrorIs(t, err, bind.ErrNoSuchAttribute)
	assert.Contains(t, err.Error(), "'example.Pet' object has no attribute 'missing'")

	_, err = bind.GetAttr(e.ctx, e.conv, pet, "getName")
	require.ErrorIs(t, err, bind.ErrNoSuchAttribute)
	assert.Contains(t, err.Error(), "use call()")

	// Widget does not.
	w := e.construct(t, "example::Widget")
	err = bind.SetAttr(e.ctx, e.conv, w, "x", num(1))
	require.ErrorIs(t, err, bind.ErrNoSuchAttribute)

	// A property without a setter is read-only.
	catVal, err := e.fn(t, "example3::make_cat").Call(e.ctx, e.conv, nil, nil)
	require.NoError(t, err)
	cat := objectOf(t, catVal)
	kind, err := bind.GetAttr(e.ctx, e.conv, cat, "kind")
	require.NoError(t, err)
	assert.Equal(t, "Cat", kind.AsString())
	err = bind.SetAttr(e.ctx, e.conv, cat, "kind", str("Dog"))
	require.ErrorIs(t, err, bind.ErrReadOnlyAttribute)

	_, err = bind.Invoke(e.ctx, e.conv, w, "nope", nil, nil)
	require.ErrorIs(t, err, bind.ErrNoSuchMethod)
}

func TestClass_FieldByReference(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	kind := e.class(t, "example::EnumPet::Kind")
	dog, ok := kind.EnumMember("Dog")
	require.True(t, ok)
	pet := e.construct(t, "example::EnumPet", str("Lucy"), dog.CtyValue())

	attrVal, err := bind.GetAttr(e.ctx, e.conv, pet, "attr")
	require.NoError(t, err)
	attrs := objectOf(t, attrVal)
	assert.Equal(t, "example.EnumPet.Attributes", attrs.Class.DisplayName())
	assert.Contains(t, attrs.KeptAlive(), pet)

	// Writing through the returned object changes the owner.
	require.NoError(t, bind.SetAttr(e.ctx, e.conv, attrs, "age", num(3)))
	again, err := bind.GetAttr(e.ctx, e.conv, pet, "attr")
	require.NoError(t, err)
	age, err := bind.GetAttr(e.ctx, e.conv, objectOf(t, again), "age")
	require.NoError(t, err)
	assert.True(t, num(3).RawEquals(age))
}

func TestClass_Inheritance(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	dog := e.construct(t, "example::Dog", str("Molly"))
	assert.Equal(t, "Molly", e.invoke(t, dog, "getName").AsString())
	assert.Equal(t, "woof!", e.invoke(t, dog, "bark").AsString())
	assert.True(t, dog.Class.IsSubclassOf(e.class(t, "example::Pet")))

	// A Dog returned as *Pet is only a Pet.
	stored, err := e.fn(t, "example::pet_store").Call(e.ctx, e.conv, nil, nil)
	require.NoError(t, err)
	pet := objectOf(t, stored)
	assert.Equal(t, "example::Pet", pet.Class.QualifiedName())
	_, err = bind.Invoke(e.ctx, e.conv, pet, "bark", nil, nil)
	require.ErrorIs(t, err, bind.ErrNoSuchMethod)

	// An interface return exposes the dynamic type.
	stored2, err := e.fn(t, "example::pet_store2").Call(e.ctx, e.conv, nil, nil)
	require.NoError(t, err)
	poly := objectOf(t, stored2)
	assert.Equal(t, "example::PolymorphicDog", poly.Class.QualifiedName())
	assert.Equal(t, "bark", e.invoke(t, poly, "bark").AsString())
}

func TestClass_Overloads(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	w := e.construct(t, "example::Widget")

	testCases := []struct {
		name   string
		method string
		args   []cty.Value
		want   cty.Value
	}{
		{name: "ints", method: "add", args: []cty.Value{num(1), num(2)}, want: num(3)},
		{name: "floats", method: "add", args: []cty.Value{cty.NumberFloatVal(1.5), cty.NumberFloatVal(2.25)}, want: num(3)},
		{name: "mutable", method: "foo_mutable", args: []cty.Value{num(1), cty.NumberFloatVal(2.5)}, want: num(3)},
		{name: "value receiver", method: "foo_const", args: []cty.Value{num(1), cty.NumberFloatVal(2.5)}, want: num(3)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.invoke(t, w, tc.method, tc.args...)
			assert.True(t, tc.want.RawEquals(got), "want %#v, got %#v", tc.want, got)
		})
	}

	_, err := bind.Invoke(e.ctx, e.conv, w, "add", []cty.Value{str("a"), num(1)}, nil)
	require.ErrorIs(t, err, bind.ErrNoMatchingOverload)
	assert.Contains(t, err.Error(), "Invoked with")
}

func TestClass_Constructors(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	testCases := []struct {
		name string
		args []cty.Value
		want string
	}{
		{name: "factory by value", args: []cty.Value{num(1)}, want: "int 1"},
		{name: "string", args: []cty.Value{str("s")}, want: `string "s"`},
		{name: "pair", args: []cty.Value{num(1), num(2)}, want: "pair 1,2"},
		{name: "float", args: []cty.Value{cty.NumberFloatVal(1.5)}, want: "float 1.5"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			obj := e.construct(t, "example3::Example", tc.args...)
			assert.Equal(t, tc.want, e.invoke(t, obj, "source").AsString())
		})
	}

	_, err := e.class(t, "example::PolymorphicPet").Construct(e.ctx, e.conv, nil, nil)
	require.ErrorIs(t, err, bind.ErrNotConstructible)
}

func TestClass_Enum(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	kind := e.class(t, "example::EnumPet::Kind")
	require.True(t, kind.IsEnum())
	require.Len(t, kind.EnumMembers(), 2)

	// Enum arguments accept members or, after conversion, their values.
	pet := e.construct(t, "example::EnumPet", str("Lucy"), num(1))
	typ, err := bind.GetAttr(e.ctx, e.conv, pet, "type")
	require.NoError(t, err)
	member := objectOf(t, typ)
	assert.Equal(t, "Cat", bind.EnumName(member))
	assert.Equal(t, int64(1), bind.EnumValue(member))

	cat, ok := kind.EnumMember("Cat")
	require.True(t, ok)
	assert.Same(t, cat, member, "enum members are singletons")

	name, err := bind.GetAttr(e.ctx, e.conv, member, "name")
	require.NoError(t, err)
	assert.Equal(t, "Cat", name.AsString())

	repr, err := bind.Repr(e.ctx, e.conv, typ)
	require.NoError(t, err)
	assert.Equal(t, "<Kind.Cat: 1>", repr)

	// Exported values live in the enclosing namespace.
	var exported []string
	for _, obj := range e.class(t, "example::EnumPet").Namespace().Exported() {
		exported = append(exported, bind.EnumName(obj))
	}
	assert.ElementsMatch(t, []string{"Dog", "Cat"}, exported)

	_, err = kind.Construct(e.ctx, e.conv, []cty.Value{num(7)}, nil)
	require.ErrorIs(t, err, bind.ErrConversion)
}

func TestClass_Downcast(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	zoo, err := e.fn(t, "example3::pet_zoo").Call(e.ctx, e.conv, nil, nil)
	require.NoError(t, err)
	pets := zoo.AsValueSlice()
	require.Len(t, pets, 2)

	cat := objectOf(t, pets[0])
	assert.Equal(t, "example3::Pet", cat.Class.QualifiedName())

	zembra := objectOf(t, pets[1])
	assert.Equal(t, "example3::Zembra", zembra.Class.QualifiedName())
	assert.Equal(t, "woof!", e.invoke(t, zembra, "bark").AsString())

	// Base attributes still work through the upcast.
	require.NoError(t, bind.SetAttr(e.ctx, e.conv, zembra, "age", num(4)))
	age, err := bind.GetAttr(e.ctx, e.conv, zembra, "age")
	require.NoError(t, err)
	assert.True(t, num(4).RawEquals(age))

	dogVal, err := e.fn(t, "example3::make_dog").Call(e.ctx, e.conv, nil, nil)
	require.NoError(t, err)
	dog := objectOf(t, dogVal)
	assert.Equal(t, "example3::Pet", dog.Class.QualifiedName())
	kind, err := bind.GetAttr(e.ctx, e.conv, dog, "kind")
	require.NoError(t, err)
	assert.Equal(t, "Dog", kind.AsString())
}

func TestClass_Operators(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	vec := func(x, y float64) cty.Value {
		return e.construct(t, "example3::MyVector", cty.NumberFloatVal(x), cty.NumberFloatVal(y)).CtyValue()
	}
	repr := func(v cty.Value) string {
		s, err := bind.Repr(e.ctx, e.conv, v)
		require.NoError(t, err)
		return s
	}

	v1, v2 := vec(1, 2), vec(3, 4)

	sum, err := bind.BinaryOp(e.ctx, e.conv, bind.OpAdd, v1, v2)
	require.NoError(t, err)
	assert.Equal(t, "[4.000000, 6.000000]", repr(sum))

	scaled, err := bind.BinaryOp(e.ctx, e.conv, bind.OpMul, v1, cty.NumberFloatVal(2))
	require.NoError(t, err)
	assert.Equal(t, "[2.000000, 4.000000]", repr(scaled))

	reflected, err := bind.BinaryOp(e.ctx, e.conv, bind.OpMul, cty.NumberFloatVal(3), v1)
	require.NoError(t, err)
	assert.Equal(t, "[3.000000, 6.000000]", repr(reflected))

	// In-place operators return the left operand itself.
	inPlace, err := bind.BinaryOp(e.ctx, e.conv, bind.OpIAdd, v1, v2)
	require.NoError(t, err)
	assert.Same(t, objectOf(t, v1), objectOf(t, inPlace))
	assert.Equal(t, "[4.000000, 6.000000]", repr(v1))

	// Neither -= nor - is bound.
	_, err = bind.BinaryOp(e.ctx, e.conv, bind.OpISub, v1, v2)
	require.ErrorIs(t, err, bind.ErrUnsupportedOperand)

	_, err = bind.BinaryOp(e.ctx, e.conv, bind.OpMul, v1, v2)
	require.ErrorIs(t, err, bind.ErrUnsupportedOperand)

	plain, err := bind.BinaryOp(e.ctx, e.conv, bind.OpSub, num(5), num(3))
	require.NoError(t, err)
	assert.True(t, num(2).RawEquals(plain))
}

func TestRepr(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	pet := e.construct(t, "example::Pet", str("Molly"))
	widget := e.construct(t, "example::Widget")

	testCases := []struct {
		name  string
		value cty.Value
		repr  string
		str   string
	}{
		{name: "null", value: cty.NullVal(cty.String), repr: "None", str: "None"},
		{name: "string", value: str("it's"), repr: `'it\'s'`, str: "it's"},
		{name: "int", value: num(3), repr: "3", str: "3"},
		{name: "float", value: cty.NumberFloatVal(1.5), repr: "1.5", str: "1.5"},
		{name: "bool", value: cty.True, repr: "True", str: "True"},
		{
			name:  "list",
			value: cty.TupleVal([]cty.Value{num(1), str("a"), cty.False}),
			repr:  "[1, 'a', False]",
			str:   "[1, 'a', False]",
		},
		{
			name:  "object",
			value: cty.ObjectVal(map[string]cty.Value{"b": num(2), "a": str("x")}),
			repr:  "{'a': 'x', 'b': 2}",
			str:   "{'a': 'x', 'b': 2}",
		},
		{name: "bound repr", value: pet.CtyValue(), repr: "<example.Pet named 'Molly'>", str: "<example.Pet named 'Molly'>"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := bind.Repr(e.ctx, e.conv, tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.repr, r)
			s, err := bind.Str(e.ctx, e.conv, tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.str, s)
		})
	}

	r, err := bind.Repr(e.ctx, e.conv, widget.CtyValue())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(r, "<example.Widget object at "), r)
	assert.Contains(t, r, widget.ID.String())
}

func TestTrampoline(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	// Built from Go, an Animal has no implementation.
	animal := e.construct(t, "example3::Animal")
	_, err := e.fn(t, "example3::call_go").Call(e.ctx, e.conv, []cty.Value{animal.CtyValue()}, nil)
	require.ErrorIs(t, err, bind.ErrPureVirtual)
	assert.Contains(t, err.Error(), `"Animal::go"`)

	// A Dog built from Go uses its own methods.
	dog := e.construct(t, "example3::Dog")
	got, err := e.fn(t, "example3::call_go").Call(e.ctx, e.conv, []cty.Value{dog.CtyValue()}, nil)
	require.NoError(t, err)
	assert.Equal(t, "woof! woof! woof! ", got.AsString())

	// A script class overriding bark only changes what go prints.
	husky, err := bind.NewScriptClass("Husky", "", e.class(t, "example3::Dog"), map[string]bind.OverrideFunc{
		"bark": func(ctx context.Context, self *bind.Object, args []cty.Value) (cty.Value, error) {
			return str("yip!"), nil
		},
	})
	require.NoError(t, err)
	assert.True(t, husky.IsScript())
	h, err := husky.Construct(e.ctx, e.conv, nil, nil)
	require.NoError(t, err)
	got, err = e.fn(t, "example3::call_go").Call(e.ctx, e.conv, []cty.Value{h.CtyValue()}, nil)
	require.NoError(t, err)
	assert.Equal(t, "yip! yip! yip! ", got.AsString())

	_, err = husky.Construct(e.ctx, e.conv, []cty.Value{num(1)}, nil)
	require.ErrorIs(t, err, bind.ErrArgumentCount)

	_, err = bind.NewScriptClass("Bad", "", e.class(t, "example::Pet"), nil)
	require.ErrorIs(t, err, bind.ErrNotSubclassable)
}

func TestTrampoline_ProtectedMembers(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	a := e.class(t, "example3::A")

	plain, err := bind.NewScriptClass("Plain", "", a, nil)
	require.NoError(t, err)
	obj, err := plain.Construct(e.ctx, e.conv, nil, nil)
	require.NoError(t, err)
	assert.True(t, num(42).RawEquals(e.invoke(t, obj, "foo")))
	assert.True(t, num(24).RawEquals(e.invoke(t, obj, "foo2")))

	overridden, err := bind.NewScriptClass("B", "", a, map[string]bind.OverrideFunc{
		"foo2": func(ctx context.Context, self *bind.Object, args []cty.Value) (cty.Value, error) {
			return num(7), nil
		},
	})
	require.NoError(t, err)
	obj, err = overridden.Construct(e.ctx, e.conv, nil, nil)
	require.NoError(t, err)
	assert.True(t, num(7).RawEquals(e.invoke(t, obj, "foo2")))
}

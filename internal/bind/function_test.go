package bind_test

import (
	"bytes"
	"testing"

	"github.com/specialistvlad/ctybind/internal/bind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestFunction_Call(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	testCases := []struct {
		name    string
		fn      string
		pos     []cty.Value
		kw      map[string]cty.Value
		want    cty.Value
		wantErr error
	}{
		{name: "plain", fn: "example::add", pos: []cty.Value{num(1), num(2)}, want: num(3)},
		{name: "converted string", fn: "example::add", pos: []cty.Value{str("1"), num(2)}, want: num(3)},
		{name: "too few", fn: "example::add", pos: []cty.Value{num(1)}, wantErr: bind.ErrArgumentCount},
		{name: "null for int", fn: "example::add", pos: []cty.Value{cty.NullVal(cty.Number), num(1)}, wantErr: bind.ErrNullArgument},
		{name: "fraction for int", fn: "example::add", pos: []cty.Value{cty.NumberFloatVal(1.5), num(1)}, wantErr: bind.ErrConversion},
		{name: "keywords", fn: "example::add1", kw: map[string]cty.Value{"i": num(1), "j": num(2)}, want: num(3)},
		{name: "missing named", fn: "example::add2", pos: []cty.Value{num(1)}, wantErr: bind.ErrMissingArgument},
		{name: "all defaults", fn: "example::add3", want: num(3)},
		{name: "one default", fn: "example::add3", pos: []cty.Value{num(10)}, want: num(12)},
		{name: "keyword default", fn: "example::add3", kw: map[string]cty.Value{"j": num(5)}, want: num(6)},
		{name: "unknown keyword", fn: "example::add3", kw: map[string]cty.Value{"k": num(5)}, wantErr: bind.ErrUnexpectedKeyword},
		{name: "keyword for unnamed", fn: "example::add", kw: map[string]cty.Value{"i": num(5)}, wantErr: bind.ErrUnexpectedKeyword},
		{name: "keyword-only by keyword", fn: "example2::add_keyword", pos: []cty.Value{num(1)}, kw: map[string]cty.Value{"b": num(2)}, want: num(3)},
		{name: "keyword-only positionally", fn: "example2::add_keyword", pos: []cty.Value{num(1), num(2)}, wantErr: bind.ErrArgumentCount},
		{name: "positional-only positionally", fn: "example2::add_positional", pos: []cty.Value{num(1)}, kw: map[string]cty.Value{"b": num(2)}, want: num(3)},
		{name: "positional-only by keyword", fn: "example2::add_positional", kw: map[string]cty.Value{"a": num(1), "b": num(2)}, wantErr: bind.ErrUnexpectedKeyword},
		{name: "no convert accepts number", fn: "example2::floats_only", pos: []cty.Value{cty.NumberFloatVal(1.5)}, want: cty.NumberFloatVal(0.75)},
		{name: "no convert rejects string", fn: "example2::floats_only", pos: []cty.Value{str("1.5")}, wantErr: bind.ErrConversion},
		{name: "none allowed", fn: "example2::allow_None", pos: []cty.Value{cty.NullVal(cty.DynamicPseudoType)}, want: str("obj isNone")},
		{name: "none not given", fn: "example2::allow_None", pos: []cty.Value{num(1)}, want: str("obj is not None")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := e.fn(t, tc.fn).Call(e.ctx, e.conv, tc.pos, tc.kw)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.want.RawEquals(got), "want %#v, got %#v", tc.want, got)
		})
	}
}

func TestFunction_OverloadsPerType(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	var out bytes.Buffer
	ctx := bind.WithOutput(e.ctx, &out)
	f := e.fn(t, "example2::print_t")

	_, err := f.Call(ctx, e.conv, []cty.Value{str("x")}, nil)
	require.NoError(t, err)
	_, err = f.Call(ctx, e.conv, []cty.Value{num(7)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "x7", out.String())
	assert.Len(t, f.Signatures(e.conv.Classes()), 2)

	_, err = f.Call(ctx, e.conv, []cty.Value{cty.EmptyObjectVal}, nil)
	require.ErrorIs(t, err, bind.ErrNoMatchingOverload)
	assert.Contains(t, err.Error(), "The following argument types are supported")
}

func TestFunction_ContextInjection(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	var out bytes.Buffer
	ctx := bind.WithOutput(e.ctx, &out)
	dict := cty.ObjectVal(map[string]cty.Value{"b": num(2), "a": str("x")})

	_, err := e.fn(t, "example2::print_dict").Call(ctx, e.conv, []cty.Value{dict}, nil)
	require.NoError(t, err)
	assert.Equal(t, "key= a,value= x\nkey= b,value= 2\n", out.String())
}

func TestFunction_Help(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	f := e.fn(t, "example::add3")
	assert.Equal(t, "example::add3", f.QualifiedName())
	assert.Equal(t, "A function that adds two integers", f.Doc())
	help := f.Help(e.conv.Classes())
	assert.Contains(t, help, "A function that adds two integers")
	assert.Contains(t, help, "i")
}

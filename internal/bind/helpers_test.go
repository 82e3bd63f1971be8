package bind_test

import (
	"context"
	"strings"
	"testing"

	"github.com/specialistvlad/ctybind/internal/bind"
	"github.com/specialistvlad/ctybind/internal/registry"
	"github.com/specialistvlad/ctybind/internal/testutil"
	"github.com/specialistvlad/ctybind/modules/example"
	"github.com/specialistvlad/ctybind/modules/example2"
	"github.com/specialistvlad/ctybind/modules/example3"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

var (
	num = cty.NumberIntVal
	str = cty.StringVal
)

// env is a registry loaded with the tutorial modules.
type env struct {
	ctx  context.Context
	reg  *registry.Registry
	conv *bind.Converter
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx, _ := testutil.Context(t)
	reg := registry.New()
	require.NoError(t, reg.Load(ctx, []registry.Module{&example.Module{}, &example2.Module{}, &example3.Module{}}))
	return &env{ctx: ctx, reg: reg, conv: reg.Converter()}
}

// fn looks up a function by its qualified name, e.g. "example::add".
func (e *env) fn(t *testing.T, qualified string) *bind.Function {
	t.Helper()
	mod, name, ok := strings.Cut(qualified, "::")
	require.True(t, ok)
	m, ok := e.reg.Module(mod)
	require.True(t, ok, "module %s", mod)
	f, ok := m.Function(name)
	require.True(t, ok, "function %s", qualified)
	return f
}

func (e *env) class(t *testing.T, qualified string) *bind.Class {
	t.Helper()
	c, ok := e.reg.ClassByName(qualified)
	require.True(t, ok, "class %s", qualified)
	return c
}

func (e *env) construct(t *testing.T, qualified string, args ...cty.Value) *bind.Object {
	t.Helper()
	obj, err := e.class(t, qualified).Construct(e.ctx, e.conv, args, nil)
	require.NoError(t, err)
	return obj
}

func (e *env) invoke(t *testing.T, obj *bind.Object, method string, args ...cty.Value) cty.Value {
	t.Helper()
	v, err := bind.Invoke(e.ctx, e.conv, obj, method, args, nil)
	require.NoError(t, err)
	return v
}

func objectOf(t *testing.T, v cty.Value) *bind.Object {
	t.Helper()
	obj, ok := bind.ObjectFromValue(v)
	require.True(t, ok, "not an object: %#v", v)
	return obj
}

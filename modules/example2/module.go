// Package example2 binds the argument-passing tutorial: keep-alive,
// dict arguments, keyword-only and positional-only arguments, arguments
// that refuse conversion or null, and per-type overloads.
package example2

import (
	"context"
	"fmt"
	"sort"

	"github.com/specialistvlad/ctybind/internal/bind"
	"github.com/specialistvlad/ctybind/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the bound module with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Add(Bind())
}

// MyContainer hands out references into its storage.
type MyContainer struct {
	data []int
}

func NewMyContainer() *MyContainer {
	return &MyContainer{data: []int{42}}
}

// Get returns a reference to the element at index.
func (c *MyContainer) Get(index int) *int {
	return &c.data[index]
}

// PrintDict writes every key/value pair, sorted by key.
func PrintDict(ctx context.Context, dict map[string]cty.Value) error {
	keys := make([]string, 0, len(dict))
	for k := range dict {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conv := bind.ConverterFrom(ctx)
	w := bind.Output(ctx)
	for _, k := range keys {
		s, err := bind.Str(ctx, conv, dict[k])
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "key= %s,value= %s\n", k, s)
	}
	return nil
}

// AllowNone tells whether obj was null.
func AllowNone(obj cty.Value) string {
	if obj.IsNull() {
		return "obj isNone"
	}
	return "obj is not None"
}

func printT[T string | int](ctx context.Context, t T) {
	fmt.Fprint(bind.Output(ctx), t)
}

// Bind declares the "example2" module.
func Bind() *bind.Module {
	m := bind.NewModule("example2", "")

	bind.NewClass[*MyContainer](m, "MyContainer").
		Init(NewMyContainer).
		Def("get", (*MyContainer).Get, bind.KeepAlive(0, 1))
	m.Def("print_dict", PrintDict)

	m.Def("add_keyword", func(a, b int) int { return a + b },
		bind.Arg("a"), bind.KwOnly(), bind.Arg("b"))

	m.Def("add_positional", func(a, b int) int { return a + b },
		bind.Arg("a"), bind.PosOnly(), bind.Arg("b"))

	m.Def("floats_only", func(f float32) float64 { return 0.5 * float64(f) },
		bind.Arg("f").NoConvert())

	m.Def("allow_None", AllowNone, bind.Arg("obj").None(true))

	// Each instantiation is bound separately.
	m.Def("print_t", printT[string])
	m.Def("print_t", printT[int])

	return m
}

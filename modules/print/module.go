// Package print binds helpers that write to the script output.
package print

import (
	"context"
	"fmt"
	"sort"

	"github.com/specialistvlad/ctybind/internal/bind"
	"github.com/specialistvlad/ctybind/internal/ctxlog"
	"github.com/specialistvlad/ctybind/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the bound module with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Add(Bind())
}

// Values writes one line per key, sorted by key. A null map prints a
// single "(null)" line.
func Values(ctx context.Context, values map[string]cty.Value) error {
	ctxlog.FromContext(ctx).Debug("Printing values.", "count", len(values))
	w := bind.Output(ctx)

	if values == nil {
		fmt.Fprintln(w, "      (null)")
		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conv := bind.ConverterFrom(ctx)
	for _, k := range keys {
		s, err := bind.Repr(ctx, conv, values[k])
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "      %s = %s\n", k, s)
	}
	return nil
}

// Line writes the printable form of each value, space separated.
func Line(ctx context.Context, values []cty.Value) error {
	conv := bind.ConverterFrom(ctx)
	w := bind.Output(ctx)
	for i, v := range values {
		if i > 0 {
			fmt.Fprint(w, " ")
		}
		s, err := bind.Str(ctx, conv, v)
		if err != nil {
			return err
		}
		fmt.Fprint(w, s)
	}
	fmt.Fprintln(w)
	return nil
}

// Bind declares the "print" module.
func Bind() *bind.Module {
	m := bind.NewModule("print", "Writes values to the script output.")
	m.Def("values", Values, bind.Doc("Prints a mapping, one key per line."),
		bind.Arg("values").None(true))
	m.Def("line", Line, bind.Doc("Prints a list of values on one line."))
	return m
}

package registry

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/specialistvlad/ctybind/internal/bind"
	"github.com/zclconf/go-cty/cty"
)

// Module is the interface that every bound module must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the bound modules and the class indexes for a single
// application instance.
type Registry struct {
	modules  map[string]*bind.Module
	order    []string
	byType   map[reflect.Type]*bind.Class
	byName   map[string]*bind.Class
	children map[*bind.Class][]*bind.Class
	conv     *bind.Converter
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	r := &Registry{
		modules:  make(map[string]*bind.Module),
		byType:   make(map[reflect.Type]*bind.Class),
		byName:   make(map[string]*bind.Class),
		children: make(map[*bind.Class][]*bind.Class),
	}
	r.conv = bind.NewConverter(r)
	return r
}

// Add registers a fully declared module. Classes declared on the module
// after Add are not indexed.
func (r *Registry) Add(m *bind.Module) {
	if _, exists := r.modules[m.Name]; exists {
		panic(fmt.Sprintf("module with name '%s' already registered", m.Name))
	}
	slog.Debug("Registering module.", "name", m.Name, "classes", len(m.Classes()), "functions", len(m.Functions()))
	r.modules[m.Name] = m
	r.order = append(r.order, m.Name)

	for _, c := range m.Classes() {
		if prev, exists := r.byType[c.GoType]; exists {
			panic(fmt.Sprintf("Go type %s bound twice: '%s' and '%s'", c.GoType, prev.QualifiedName(), c.QualifiedName()))
		}
		r.byType[c.GoType] = c
		r.byName[c.QualifiedName()] = c
		if p := c.Parent(); p != nil {
			r.children[p] = append(r.children[p], c)
		}
	}
}

// Module looks up a registered module by name.
func (r *Registry) Module(name string) (*bind.Module, bool) {
	m, ok := r.modules[name]
	return m, ok
}

// Modules returns the registered modules in registration order.
func (r *Registry) Modules() []*bind.Module {
	out := make([]*bind.Module, len(r.order))
	for i, name := range r.order {
		out[i] = r.modules[name]
	}
	return out
}

// ClassByType returns the class bound to exactly t.
func (r *Registry) ClassByType(t reflect.Type) (*bind.Class, bool) {
	c, ok := r.byType[t]
	return c, ok
}

// ClassByName returns the class with the qualified name, e.g.
// "example3::Zembra".
func (r *Registry) ClassByName(name string) (*bind.Class, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Subclasses returns the registered direct subclasses of c.
func (r *Registry) Subclasses(c *bind.Class) []*bind.Class {
	return r.children[c]
}

// ClassNames lists every registered class in sorted order.
func (r *Registry) ClassNames() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Converter returns the converter backed by this registry.
func (r *Registry) Converter() *bind.Converter { return r.conv }

// Wrap is the marshalling entry point: it exposes v, statically typed as
// declared, to scripts. A nil declared type uses the dynamic type.
func (r *Registry) Wrap(v any, declared reflect.Type) (cty.Value, error) {
	if v == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	return r.conv.ToCty(reflect.ValueOf(v), declared)
}

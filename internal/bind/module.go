package bind

import (
	"fmt"
	"log/slog"
)

// Scope is somewhere classes and enums can be declared: a module or an
// enclosing class.
type Scope interface {
	namespace() *Namespace
}

// Namespace holds the classes and enums declared directly in a scope.
type Namespace struct {
	module  *Module
	owner   *Class
	classes []*Class
}

// Module returns the module the namespace belongs to.
func (ns *Namespace) Module() *Module { return ns.module }

// Owner returns the enclosing class, or nil at module level.
func (ns *Namespace) Owner() *Class { return ns.owner }

// Classes returns the classes and enums declared in this scope.
func (ns *Namespace) Classes() []*Class { return ns.classes }

// Exported returns the enum members exported into this scope, in
// declaration order.
func (ns *Namespace) Exported() []*Object {
	var out []*Object
	for _, c := range ns.classes {
		if c.enum == nil || !c.enum.exported {
			continue
		}
		out = append(out, c.EnumMembers()...)
	}
	return out
}

func (ns *Namespace) add(c *Class) {
	for _, existing := range ns.classes {
		if existing.Name == c.Name {
			panic(fmt.Sprintf("bind: %s already declared", c.QualifiedName()))
		}
	}
	ns.classes = append(ns.classes, c)
	ns.module.classes = append(ns.module.classes, c)
}

// Module is a host namespace: the unit a script imports as "name::...".
type Module struct {
	Name string
	Doc  string

	ns        Namespace
	functions map[string]*Function
	funcOrder []string
	attrs     map[string]any
	attrOrder []string
	classes   []*Class
}

// NewModule creates an empty module.
func NewModule(name, doc string) *Module {
	m := &Module{
		Name:      name,
		Doc:       doc,
		functions: make(map[string]*Function),
		attrs:     make(map[string]any),
	}
	m.ns.module = m
	return m
}

func (m *Module) namespace() *Namespace { return &m.ns }

// Def binds fn under name. Binding the same name again adds an overload.
func (m *Module) Def(name string, fn any, opts ...Option) *Module {
	f, ok := m.functions[name]
	if !ok {
		f = &Function{Name: name, module: m}
		m.functions[name] = f
		m.funcOrder = append(m.funcOrder, name)
	}
	f.add(newOverload(m.Name+"::"+name, fn, false, opts))
	slog.Debug("Bound function.", "module", m.Name, "function", name, "overloads", len(f.overloads))
	return m
}

// Attr exports a Go value as a module attribute, replacing any previous
// value of the same name.
func (m *Module) Attr(name string, v any) *Module {
	if _, ok := m.attrs[name]; !ok {
		m.attrOrder = append(m.attrOrder, name)
	}
	m.attrs[name] = v
	return m
}

// Function looks up a bound free function.
func (m *Module) Function(name string) (*Function, bool) {
	f, ok := m.functions[name]
	return f, ok
}

// Functions returns the bound free functions in registration order.
func (m *Module) Functions() []*Function {
	out := make([]*Function, len(m.funcOrder))
	for i, name := range m.funcOrder {
		out[i] = m.functions[name]
	}
	return out
}

// AttrNames returns attribute names in registration order.
func (m *Module) AttrNames() []string { return m.attrOrder }

// AttrValue returns the Go value of an attribute.
func (m *Module) AttrValue(name string) (any, bool) {
	v, ok := m.attrs[name]
	return v, ok
}

// Classes returns every class and enum of the module, nested ones
// included, in declaration order.
func (m *Module) Classes() []*Class { return m.classes }

// Root returns the module-level namespace.
func (m *Module) Root() *Namespace { return &m.ns }

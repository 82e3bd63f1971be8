package host

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/ctybind/internal/bind"
	"github.com/specialistvlad/ctybind/internal/ctxlog"
	"github.com/specialistvlad/ctybind/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Shelf is the persistent store behind the shelve_* builtins.
type Shelf interface {
	Put(ctx context.Context, key, class, payload string) error
	Get(ctx context.Context, key string) (string, error)
	Keys(ctx context.Context) ([]string, error)
}

// callable is anything scripts can call by name.
type callable struct {
	fn    *bind.Function
	class *bind.Class
}

// Host exposes a registry to scripts.
type Host struct {
	reg          *registry.Registry
	conv         *bind.Converter
	shelf        Shelf
	pickleFormat bind.Format

	callables     map[string]callable
	scriptClasses map[string]*bind.Class
}

// Option configures a Host.
type Option func(*Host)

// WithShelf enables the shelve_* builtins.
func WithShelf(s Shelf) Option {
	return func(h *Host) { h.shelf = s }
}

// WithPickleFormat sets the format pickle uses when none is given.
func WithPickleFormat(f bind.Format) Option {
	return func(h *Host) { h.pickleFormat = f }
}

// New creates a host for every module in reg.
func New(reg *registry.Registry, opts ...Option) *Host {
	h := &Host{
		reg:           reg,
		conv:          reg.Converter(),
		pickleFormat:  bind.FormatJSON,
		callables:     make(map[string]callable),
		scriptClasses: make(map[string]*bind.Class),
	}
	for _, opt := range opts {
		opt(h)
	}
	for _, m := range reg.Modules() {
		for _, f := range m.Functions() {
			h.callables[f.QualifiedName()] = callable{fn: f}
		}
		for _, c := range m.Classes() {
			h.callables[c.QualifiedName()] = callable{class: c}
		}
	}
	return h
}

// Converter returns the converter scripts' values go through.
func (h *Host) Converter() *bind.Converter { return h.conv }

// DeclareClass makes a script-defined class callable by its bare name.
func (h *Host) DeclareClass(c *bind.Class) error {
	if _, taken := h.callables[c.Name]; taken {
		return fmt.Errorf("class %q is already declared", c.Name)
	}
	if _, taken := builtinNames[c.Name]; taken {
		return fmt.Errorf("class %q shadows a builtin function", c.Name)
	}
	h.callables[c.Name] = callable{class: c}
	h.scriptClasses[c.Name] = c
	return nil
}

// ClassByName finds a bound class by qualified name or a script class by
// its bare name.
func (h *Host) ClassByName(name string) (*bind.Class, bool) {
	if c, ok := h.scriptClasses[name]; ok {
		return c, true
	}
	return h.reg.ClassByName(name)
}

// EvalContext builds the evaluation context. Calls made through it run
// with ctx.
func (h *Host) EvalContext(ctx context.Context) *hcl.EvalContext {
	logger := ctxlog.FromContext(ctx)
	funcs := h.builtins(ctx)
	for name, c := range h.callables {
		funcs[name] = h.callableFunc(ctx, name, c)
	}
	vars := h.Variables()
	logger.Debug("Built HCL evaluation context.", "functions", len(funcs), "variables", len(vars))
	return &hcl.EvalContext{Variables: vars, Functions: funcs}
}

// Variables returns one object per module with its attributes, enums
// and exported enum members.
func (h *Host) Variables() map[string]cty.Value {
	vars := make(map[string]cty.Value)
	for _, m := range h.reg.Modules() {
		attrs := h.namespaceVars(m.Root())
		for _, name := range m.AttrNames() {
			v, _ := m.AttrValue(name)
			cv, err := h.conv.Wrap(v)
			if err != nil {
				panic(fmt.Sprintf("host: module %s attribute %s: %v", m.Name, name, err))
			}
			attrs[name] = cv
		}
		vars[m.Name] = cty.ObjectVal(attrs)
	}
	return vars
}

func (h *Host) namespaceVars(ns *bind.Namespace) map[string]cty.Value {
	vars := make(map[string]cty.Value)
	for _, obj := range ns.Exported() {
		vars[bind.EnumName(obj)] = obj.CtyValue()
	}
	for _, c := range ns.Classes() {
		if c.IsEnum() {
			members := make(map[string]cty.Value)
			for _, obj := range c.EnumMembers() {
				members[bind.EnumName(obj)] = obj.CtyValue()
			}
			vars[c.Name] = cty.ObjectVal(members)
			continue
		}
		if inner := h.namespaceVars(c.Namespace()); len(inner) > 0 {
			vars[c.Name] = cty.ObjectVal(inner)
		}
	}
	return vars
}

// call invokes a callable with already-split arguments.
func (h *Host) call(ctx context.Context, c callable, pos []cty.Value, kw map[string]cty.Value) (cty.Value, error) {
	if c.fn != nil {
		return c.fn.Call(ctx, h.conv, pos, kw)
	}
	obj, err := c.class.Construct(ctx, h.conv, pos, kw)
	if err != nil {
		return cty.NilVal, err
	}
	return obj.CtyValue(), nil
}

func (h *Host) callableFunc(ctx context.Context, name string, c callable) function.Function {
	desc := ""
	if c.fn != nil {
		desc = c.fn.Doc()
	} else {
		desc = c.class.Doc
	}
	return function.New(&function.Spec{
		Description: desc,
		VarParam: &function.Parameter{
			Name:             "args",
			Type:             cty.DynamicPseudoType,
			AllowNull:        true,
			AllowDynamicType: true,
		},
		Type: function.StaticReturnType(cty.DynamicPseudoType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			ctxlog.FromContext(ctx).Debug("Calling bound callable.", "name", name, "args", len(args))
			return h.call(ctx, c, args, nil)
		},
	})
}

// lookup finds a callable by name for kwcall and help.
func (h *Host) lookup(name string) (callable, bool) {
	c, ok := h.callables[name]
	return c, ok
}

// CallableNames lists every callable name in sorted order.
func (h *Host) CallableNames() []string {
	names := make([]string, 0, len(h.callables))
	for name := range h.callables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

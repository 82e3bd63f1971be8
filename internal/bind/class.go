package bind

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/ctybind/internal/downcast"
)

// Class describes how one Go type is exposed to scripts.
type Class struct {
	Name   string
	Doc    string
	GoType reflect.Type

	module *Module
	outer  *Class
	ns     Namespace

	parent *Class
	upcast func(any) any

	init        *Function
	methods     map[string]*Function
	methodOrder []string
	attrs       map[string]*Attribute
	attrOrder   []string
	ops         map[Op]*Function
	rops        map[Op]*Function
	repr        *Function
	pickle      *pickleSpec
	dynamic     bool
	trampoline  func(*Overrides) any
	hook        downcast.Hook
	enum        *enumSpec

	script    bool
	overrides map[string]OverrideFunc
}

// Attribute is a readable and optionally writable property of a class.
type Attribute struct {
	Name     string
	get      *Function
	set      *Function
	internal bool
}

// ReadOnly reports whether the attribute has no setter.
func (a *Attribute) ReadOnly() bool { return a.set == nil }

func newClass(s Scope, name string, goType reflect.Type) *Class {
	ns := s.namespace()
	c := &Class{
		Name:    name,
		GoType:  goType,
		module:  ns.module,
		outer:   ns.owner,
		methods: make(map[string]*Function),
		attrs:   make(map[string]*Attribute),
		ops:     make(map[Op]*Function),
		rops:    make(map[Op]*Function),
	}
	c.ns = Namespace{module: ns.module, owner: c}
	ns.add(c)
	return c
}

// path is the class name prefixed with its enclosing classes.
func (c *Class) path() []string {
	if c.outer == nil {
		return []string{c.Name}
	}
	return append(c.outer.path(), c.Name)
}

// QualifiedName is the name scripts use for the constructor, e.g.
// "example::EnumPet::Attributes". Script-defined classes have no module.
func (c *Class) QualifiedName() string {
	if c.module == nil {
		return c.Name
	}
	return c.module.Name + "::" + strings.Join(c.path(), "::")
}

// DisplayName is the dotted name used in reprs and error messages.
func (c *Class) DisplayName() string {
	if c.module == nil {
		return c.Name
	}
	return c.module.Name + "." + strings.Join(c.path(), ".")
}

// Module returns the declaring module, nil for script classes.
func (c *Class) Module() *Module { return c.module }

// Parent returns the base class, if any.
func (c *Class) Parent() *Class { return c.parent }

// Namespace returns the scope holding classes nested in c.
func (c *Class) Namespace() *Namespace { return &c.ns }

// HasUpcast reports whether Inherit was given an upcast function.
func (c *Class) HasUpcast() bool { return c.upcast != nil }

// IsEnum reports whether c is an enumeration.
func (c *Class) IsEnum() bool { return c.enum != nil }

// IsScript reports whether c was declared by a script.
func (c *Class) IsScript() bool { return c.script }

// Constructor returns the bound constructors, or nil.
func (c *Class) Constructor() *Function { return c.init }

// IsSubclassOf reports whether c is other or derives from it.
func (c *Class) IsSubclassOf(other *Class) bool {
	for k := c; k != nil; k = k.parent {
		if k == other {
			return true
		}
	}
	return false
}

// Dynamic reports whether scripts may set undeclared attributes.
func (c *Class) Dynamic() bool {
	for k := c; k != nil; k = k.parent {
		if k.dynamic || k.script {
			return true
		}
	}
	return false
}

// LookupMethod finds a bound method on c or its ancestors.
func (c *Class) LookupMethod(name string) (*Function, bool) {
	for k := c; k != nil; k = k.parent {
		if f, ok := k.methods[name]; ok {
			return f, true
		}
	}
	return nil, false
}

// LookupAttribute finds a declared attribute on c or its ancestors.
func (c *Class) LookupAttribute(name string) (*Attribute, bool) {
	for k := c; k != nil; k = k.parent {
		if a, ok := k.attrs[name]; ok {
			return a, true
		}
	}
	return nil, false
}

// LookupOverride finds a script-supplied method body.
func (c *Class) LookupOverride(name string) (OverrideFunc, bool) {
	for k := c; k != nil; k = k.parent {
		if fn, ok := k.overrides[name]; ok {
			return fn, true
		}
	}
	return nil, false
}

func (c *Class) lookupOp(op Op, reflected bool) (*Function, bool) {
	for k := c; k != nil; k = k.parent {
		table := k.ops
		if reflected {
			table = k.rops
		}
		if f, ok := table[op]; ok {
			return f, true
		}
	}
	return nil, false
}

func (c *Class) lookupRepr() *Function {
	for k := c; k != nil; k = k.parent {
		if k.repr != nil {
			return k.repr
		}
	}
	return nil
}

func (c *Class) lookupPickle() *pickleSpec {
	for k := c; k != nil; k = k.parent {
		if k.pickle != nil {
			return k.pickle
		}
	}
	return nil
}

// DowncastHook returns the hook installed on c itself, if any.
func (c *Class) DowncastHook() downcast.Hook { return c.hook }

func (c *Class) trampolineFactory() func(*Overrides) any {
	for k := c; k != nil; k = k.parent {
		if k.trampoline != nil {
			return k.trampoline
		}
	}
	return nil
}

// Subclassable reports whether scripts may derive from c.
func (c *Class) Subclassable() bool { return c.trampolineFactory() != nil }

// MethodNames lists the methods visible on c, ancestors included.
func (c *Class) MethodNames() []string {
	seen := make(map[string]bool)
	var out []string
	for k := c; k != nil; k = k.parent {
		for _, name := range k.methodOrder {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
		for name := range k.overrides {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}

// AttributeNames lists the declared attributes visible on c.
func (c *Class) AttributeNames() []string {
	seen := make(map[string]bool)
	var out []string
	for k := c; k != nil; k = k.parent {
		for _, name := range k.attrOrder {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Help renders the class documentation shown by the help builtin.
func (c *Class) Help(classes Classes) string {
	var b strings.Builder
	fmt.Fprintf(&b, "class %s", c.DisplayName())
	if c.parent != nil {
		fmt.Fprintf(&b, "(%s)", c.parent.DisplayName())
	}
	b.WriteString("\n")
	if c.Doc != "" {
		fmt.Fprintf(&b, "    %s\n", c.Doc)
	}
	if c.init != nil {
		for _, sig := range c.init.Signatures(classes) {
			fmt.Fprintf(&b, "    %s\n", strings.Replace(sig, c.init.Name, "__init__", 1))
		}
	}
	for _, name := range c.MethodNames() {
		if f, ok := c.LookupMethod(name); ok {
			for _, sig := range f.Signatures(classes) {
				fmt.Fprintf(&b, "    %s\n", sig)
			}
			continue
		}
		fmt.Fprintf(&b, "    %s(...)  [script]\n", name)
	}
	for _, name := range c.AttributeNames() {
		a, _ := c.LookupAttribute(name)
		mode := "rw"
		if a.ReadOnly() {
			mode = "ro"
		}
		fmt.Fprintf(&b, "    .%s (%s)\n", name, mode)
	}
	if c.enum != nil {
		for _, n := range c.enum.names {
			fmt.Fprintf(&b, "    %s = %d\n", n, enumInt(c.enum.byName[n].Value))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Construct creates a new instance from script arguments.
func (c *Class) Construct(ctx context.Context, conv *Converter, pos []cty.Value, kw map[string]cty.Value) (*Object, error) {
	switch {
	case c.script:
		return c.constructScript(ctx, conv, pos, kw)
	case c.enum != nil:
		return c.constructEnum(conv, pos, kw)
	case c.init == nil:
		return nil, fmt.Errorf("%s: %w", c.DisplayName(), ErrNotConstructible)
	}

	sel, err := c.init.resolve(conv, nil, pos, kw)
	if err != nil {
		return nil, err
	}
	out, err := sel.ov.invoke(withConverter(ctx, conv), sel.in)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%s: constructor must return exactly one value", c.DisplayName())
	}
	return c.adopt(out[0])
}

// adopt wraps a constructor or setstate result as an instance of c
// without consulting dynamic types: the class asked for is the class
// created.
func (c *Class) adopt(rv reflect.Value) (*Object, error) {
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Errorf("%s: constructor returned nil", c.DisplayName())
		}
		rv = rv.Elem()
	}
	switch {
	case rv.Kind() == reflect.Ptr && rv.IsNil():
		return nil, fmt.Errorf("%s: constructor returned nil", c.DisplayName())
	case c.GoType.Kind() == reflect.Ptr && rv.Type() == c.GoType.Elem():
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		rv = p
	case !rv.Type().AssignableTo(c.GoType):
		return nil, fmt.Errorf("%s: constructor returned %s", c.DisplayName(), rv.Type())
	}
	return NewObject(c, rv.Interface()), nil
}

func (c *Class) constructEnum(conv *Converter, pos []cty.Value, kw map[string]cty.Value) (*Object, error) {
	if len(pos) != 1 || len(kw) != 0 {
		return nil, fmt.Errorf("%w: %s expects one value", ErrArgumentCount, c.DisplayName())
	}
	rv, err := conv.enumFromNumber(c, pos[0], c.GoType)
	if err != nil {
		return nil, err
	}
	return c.enum.member(c, rv.Interface()), nil
}

// ClassBuilder declares the bindings of a Go type T.
type ClassBuilder[T any] struct {
	class *Class
}

// ClassOption configures a class at declaration time.
type ClassOption func(*Class)

// WithDoc sets the class docstring.
func WithDoc(doc string) ClassOption {
	return func(c *Class) { c.Doc = doc }
}

// DynamicAttr lets scripts attach undeclared attributes to instances.
func DynamicAttr() ClassOption {
	return func(c *Class) { c.dynamic = true }
}

// NewClass declares T as a class named name inside s.
func NewClass[T any](s Scope, name string, opts ...ClassOption) *ClassBuilder[T] {
	c := newClass(s, name, reflect.TypeOf((*T)(nil)).Elem())
	for _, opt := range opts {
		opt(c)
	}
	slog.Debug("Declared class.", "class", c.QualifiedName(), "go_type", c.GoType.String())
	return &ClassBuilder[T]{class: c}
}

func (b *ClassBuilder[T]) namespace() *Namespace { return &b.class.ns }

// Class returns the class being built.
func (b *ClassBuilder[T]) Class() *Class { return b.class }

// Inherit makes the class derive from parent. upcast maps a T to the
// parent's Go value; it may be nil when T is already assignable to P.
func Inherit[T, P any](b *ClassBuilder[T], parent *ClassBuilder[P], upcast func(T) P) *ClassBuilder[T] {
	b.class.parent = parent.class
	if upcast != nil {
		b.class.upcast = func(v any) any {
			t, ok := v.(T)
			if !ok {
				return v
			}
			return upcast(t)
		}
	}
	return b
}

// Init adds a constructor overload. fn returns T, the value T points to,
// or either of those plus an error.
func (b *ClassBuilder[T]) Init(fn any, opts ...Option) *ClassBuilder[T] {
	if b.class.init == nil {
		b.class.init = &Function{Name: b.class.Name, owner: b.class}
	}
	b.class.init.add(newOverload(b.class.QualifiedName(), fn, false, opts))
	return b
}

// Def adds a method overload. fn's first parameter, after an optional
// context.Context, is the receiver.
func (b *ClassBuilder[T]) Def(name string, fn any, opts ...Option) *ClassBuilder[T] {
	c := b.class
	f, ok := c.methods[name]
	if !ok {
		f = &Function{Name: name, owner: c}
		c.methods[name] = f
		c.methodOrder = append(c.methodOrder, name)
	}
	f.add(newOverload(c.DisplayName()+"."+name, fn, true, opts))
	return b
}

// DefReadwrite exposes the struct field goField as a read/write
// attribute. Struct-typed fields are returned by reference.
func (b *ClassBuilder[T]) DefReadwrite(name, goField string) *ClassBuilder[T] {
	get, set := b.fieldAccessors(goField)
	return b.defAttribute(name, get, set, true)
}

// DefReadonly exposes the struct field goField as a read-only attribute.
func (b *ClassBuilder[T]) DefReadonly(name, goField string) *ClassBuilder[T] {
	get, _ := b.fieldAccessors(goField)
	return b.defAttribute(name, get, nil, true)
}

// DefProperty exposes a getter and optional setter as an attribute.
func (b *ClassBuilder[T]) DefProperty(name string, get, set any) *ClassBuilder[T] {
	return b.defAttribute(name, get, set, false)
}

func (b *ClassBuilder[T]) defAttribute(name string, get, set any, internal bool) *ClassBuilder[T] {
	c := b.class
	attr := &Attribute{
		Name:     name,
		get:      &Function{Name: name, owner: c},
		internal: internal,
	}
	attr.get.add(newOverload(c.DisplayName()+"."+name, get, true, nil))
	if set != nil {
		attr.set = &Function{Name: name, owner: c}
		attr.set.add(newOverload(c.DisplayName()+"."+name, set, true, nil))
	}
	if _, exists := c.attrs[name]; !exists {
		c.attrOrder = append(c.attrOrder, name)
	}
	c.attrs[name] = attr
	return b
}

func (b *ClassBuilder[T]) fieldAccessors(goField string) (get, set any) {
	c := b.class
	st := c.GoType
	if st.Kind() == reflect.Ptr {
		st = st.Elem()
	}
	if st.Kind() != reflect.Struct {
		panic(fmt.Sprintf("bind: %s: field access needs a struct type, got %s", c.DisplayName(), c.GoType))
	}
	field, ok := st.FieldByName(goField)
	if !ok || !field.IsExported() {
		panic(fmt.Sprintf("bind: %s has no exported field %q", st, goField))
	}

	byRef := field.Type.Kind() == reflect.Struct && c.GoType.Kind() == reflect.Ptr
	retType := field.Type
	if byRef {
		retType = reflect.PointerTo(field.Type)
	}
	fieldOf := func(recv reflect.Value) reflect.Value {
		if recv.Kind() == reflect.Ptr {
			recv = recv.Elem()
		}
		return recv.FieldByIndex(field.Index)
	}

	getter := reflect.MakeFunc(
		reflect.FuncOf([]reflect.Type{c.GoType}, []reflect.Type{retType}, false),
		func(args []reflect.Value) []reflect.Value {
			fv := fieldOf(args[0])
			if byRef {
				return []reflect.Value{fv.Addr()}
			}
			return []reflect.Value{fv}
		},
	)
	if c.GoType.Kind() != reflect.Ptr {
		return getter.Interface(), nil
	}
	setter := reflect.MakeFunc(
		reflect.FuncOf([]reflect.Type{c.GoType, field.Type}, nil, false),
		func(args []reflect.Value) []reflect.Value {
			fieldOf(args[0]).Set(args[1])
			return nil
		},
	)
	return getter.Interface(), setter.Interface()
}

// Operator binds fn(self, other) to op.
func (b *ClassBuilder[T]) Operator(op Op, fn any) *ClassBuilder[T] {
	return b.addOp(b.class.ops, op, fn)
}

// ROperator binds the reflected form fn(other, self), used when the
// left operand does not handle op, as in 2.0 * vec.
func (b *ClassBuilder[T]) ROperator(op Op, fn any) *ClassBuilder[T] {
	rv := reflect.ValueOf(fn)
	ft := rv.Type()
	if ft.Kind() != reflect.Func || ft.NumIn() != 2 {
		panic(fmt.Sprintf("bind: %s: reflected operator %s needs func(other, self)", b.class.DisplayName(), op))
	}
	outs := make([]reflect.Type, ft.NumOut())
	for i := range outs {
		outs[i] = ft.Out(i)
	}
	swapped := reflect.MakeFunc(
		reflect.FuncOf([]reflect.Type{ft.In(1), ft.In(0)}, outs, false),
		func(args []reflect.Value) []reflect.Value {
			return rv.Call([]reflect.Value{args[1], args[0]})
		},
	)
	return b.addOp(b.class.rops, op, swapped.Interface())
}

func (b *ClassBuilder[T]) addOp(table map[Op]*Function, op Op, fn any) *ClassBuilder[T] {
	c := b.class
	f, ok := table[op]
	if !ok {
		f = &Function{Name: op.MethodName(), owner: c}
		table[op] = f
	}
	f.add(newOverload(c.DisplayName()+"."+op.MethodName(), fn, true, nil))
	return b
}

// Repr sets the representation used by the repr builtin.
func (b *ClassBuilder[T]) Repr(fn func(T) string) *ClassBuilder[T] {
	b.class.repr = &Function{Name: "__repr__", owner: b.class}
	b.class.repr.add(newOverload(b.class.DisplayName()+".__repr__", fn, true, nil))
	return b
}

// Pickle enables pickling. getstate returns a tuple that fully encodes the
// instance; setstate validates it and builds a new value.
func (b *ClassBuilder[T]) Pickle(getstate func(T) cty.Value, setstate func(cty.Value) (T, error)) *ClassBuilder[T] {
	c := b.class
	spec := &pickleSpec{
		get: &Function{Name: "__getstate__", owner: c},
		set: &Function{Name: "__setstate__", owner: c},
	}
	spec.get.add(newOverload(c.DisplayName()+".__getstate__", getstate, true, nil))
	spec.set.add(newOverload(c.DisplayName()+".__setstate__", setstate, false, nil))
	c.pickle = spec
	return b
}

// Trampoline lets scripts subclass T. factory returns a T that consults
// the overrides before falling back to the Go implementation.
func (b *ClassBuilder[T]) Trampoline(factory func(*Overrides) T) *ClassBuilder[T] {
	b.class.trampoline = func(o *Overrides) any { return factory(o) }
	return b
}

// Downcast installs the polymorphic type hook used when T values cross
// into scripts.
func (b *ClassBuilder[T]) Downcast(hook downcast.Hook) *ClassBuilder[T] {
	if hook.BaseType() != b.class.GoType {
		panic(fmt.Sprintf("bind: %s: downcast hook is for %s", b.class.DisplayName(), hook.BaseType()))
	}
	b.class.hook = hook
	return b
}

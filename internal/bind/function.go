package bind

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	ctyValueTy  = reflect.TypeOf(cty.Value{})
)

// Option configures one overload of a bound function, method or
// constructor.
type Option interface {
	applyOverload(*overloadConfig)
}

type overloadConfig struct {
	doc          string
	args         []*ArgSpec
	kwOnlyFrom   int
	posOnlyUntil int
	keepAlive    []keepAlivePair
}

type optionFunc func(*overloadConfig)

func (f optionFunc) applyOverload(c *overloadConfig) { f(c) }

// Doc attaches a docstring to the overload.
func Doc(doc string) Option {
	return optionFunc(func(c *overloadConfig) { c.doc = doc })
}

// KwOnly marks every argument declared after it as keyword-only.
func KwOnly() Option {
	return optionFunc(func(c *overloadConfig) { c.kwOnlyFrom = len(c.args) })
}

// PosOnly marks every argument declared before it as positional-only.
func PosOnly() Option {
	return optionFunc(func(c *overloadConfig) { c.posOnlyUntil = len(c.args) })
}

// KeepAlive keeps the patient alive while the nurse is alive. Index 0 is
// the return value; 1 is the first argument, which for methods is the
// receiver.
func KeepAlive(nurse, patient int) Option {
	return optionFunc(func(c *overloadConfig) {
		c.keepAlive = append(c.keepAlive, keepAlivePair{nurse: nurse, patient: patient})
	})
}

type keepAlivePair struct {
	nurse, patient int
}

// ArgSpec names an argument and sets its calling conventions.
type ArgSpec struct {
	name      string
	def       any
	hasDef    bool
	noConvert bool
	none      *bool
}

// Arg declares a named argument. When any argument of an overload is
// declared, all of them must be.
func Arg(name string) *ArgSpec {
	return &ArgSpec{name: name}
}

// Default sets the value used when the caller omits the argument.
func (a *ArgSpec) Default(v any) *ArgSpec {
	a.def = v
	a.hasDef = true
	return a
}

// NoConvert rejects values that would need a type conversion.
func (a *ArgSpec) NoConvert() *ArgSpec {
	a.noConvert = true
	return a
}

// None controls whether null is accepted for the argument.
func (a *ArgSpec) None(allowed bool) *ArgSpec {
	a.none = &allowed
	return a
}

// Name returns the declared argument name.
func (a *ArgSpec) Name() string { return a.name }

func (a *ArgSpec) applyOverload(c *overloadConfig) { c.args = append(c.args, a) }

// Overload is one Go implementation behind a bound name.
type Overload struct {
	name     string
	fn       reflect.Value
	ctxParam bool
	receiver bool
	params   []reflect.Type
	variadic bool
	outs     []reflect.Type
	hasErr   bool

	doc          string
	args         []*ArgSpec
	defaults     []reflect.Value
	kwOnlyFrom   int
	posOnlyUntil int
	keepAlive    []keepAlivePair
}

// newOverload inspects fn and panics on misuse. Registration mistakes are
// programmer errors, the same as a duplicate registration.
func newOverload(name string, fn any, receiver bool, opts []Option) *Overload {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		panic(fmt.Sprintf("bind: %s: expected a function, got %T", name, fn))
	}
	ft := rv.Type()

	cfg := overloadConfig{kwOnlyFrom: -1}
	for _, opt := range opts {
		opt.applyOverload(&cfg)
	}

	ov := &Overload{
		name:         name,
		fn:           rv,
		variadic:     ft.IsVariadic(),
		doc:          cfg.doc,
		args:         cfg.args,
		kwOnlyFrom:   cfg.kwOnlyFrom,
		posOnlyUntil: cfg.posOnlyUntil,
		keepAlive:    cfg.keepAlive,
		receiver:     receiver,
	}

	start := 0
	if ft.NumIn() > 0 && ft.In(0) == contextType {
		ov.ctxParam = true
		start = 1
	}
	for i := start; i < ft.NumIn(); i++ {
		ov.params = append(ov.params, ft.In(i))
	}
	if receiver && len(ov.params) == 0 {
		panic(fmt.Sprintf("bind: %s: method needs a receiver parameter", name))
	}

	for i := 0; i < ft.NumOut(); i++ {
		out := ft.Out(i)
		if i == ft.NumOut()-1 && out == errorType {
			ov.hasErr = true
			continue
		}
		ov.outs = append(ov.outs, out)
	}

	if len(ov.args) > 0 {
		if len(ov.args) != len(ov.argParams()) {
			panic(fmt.Sprintf("bind: %s: %d arguments declared for %d parameters", name, len(ov.args), len(ov.argParams())))
		}
		if ov.variadic {
			panic(fmt.Sprintf("bind: %s: named arguments are not supported for variadic functions", name))
		}
		seen := make(map[string]bool, len(ov.args))
		ov.defaults = make([]reflect.Value, len(ov.args))
		for i, a := range ov.args {
			if seen[a.name] {
				panic(fmt.Sprintf("bind: %s: argument %q declared twice", name, a.name))
			}
			seen[a.name] = true
			if !a.hasDef {
				continue
			}
			ov.defaults[i] = defaultValue(name, a, ov.argParams()[i])
		}
	}
	return ov
}

func defaultValue(fnName string, a *ArgSpec, target reflect.Type) reflect.Value {
	if a.def == nil {
		if !nilable(target) {
			panic(fmt.Sprintf("bind: %s: nil default for non-nilable argument %q", fnName, a.name))
		}
		return reflect.Zero(target)
	}
	dv := reflect.ValueOf(a.def)
	switch {
	case dv.Type().AssignableTo(target):
		return dv
	case dv.Type().ConvertibleTo(target):
		return dv.Convert(target)
	}
	panic(fmt.Sprintf("bind: %s: default %v for %q is not a %s", fnName, a.def, a.name, target))
}

// argParams are the parameters that take script arguments.
func (ov *Overload) argParams() []reflect.Type {
	if ov.receiver {
		return ov.params[1:]
	}
	return ov.params
}

func (ov *Overload) argName(i int) string {
	if i < len(ov.args) {
		return ov.args[i].name
	}
	return fmt.Sprintf("arg%d", i)
}

// Signature renders the overload the way error messages list it.
func (ov *Overload) Signature(classes Classes) string {
	var parts []string
	if ov.receiver {
		parts = append(parts, "self: "+typeName(classes, ov.params[0]))
	}
	params := ov.argParams()
	for i, p := range params {
		if ov.variadic && i == len(params)-1 {
			parts = append(parts, "*"+ov.argName(i)+": "+typeName(classes, p.Elem()))
			continue
		}
		part := ov.argName(i) + ": " + typeName(classes, p)
		if i < len(ov.args) && ov.args[i].hasDef {
			part += fmt.Sprintf(" = %v", ov.args[i].def)
		}
		parts = append(parts, part)
	}
	if ov.posOnlyUntil > 0 && ov.posOnlyUntil <= len(parts) {
		idx := ov.posOnlyUntil
		if ov.receiver {
			idx++
		}
		parts = append(parts[:idx], append([]string{"/"}, parts[idx:]...)...)
	}
	if ov.kwOnlyFrom >= 0 {
		idx := ov.kwOnlyFrom
		if ov.receiver {
			idx++
		}
		if ov.posOnlyUntil > 0 && ov.posOnlyUntil <= ov.kwOnlyFrom {
			idx++
		}
		if idx <= len(parts) {
			parts = append(parts[:idx], append([]string{"*"}, parts[idx:]...)...)
		}
	}

	ret := "None"
	switch len(ov.outs) {
	case 0:
	case 1:
		ret = typeName(classes, ov.outs[0])
	default:
		names := make([]string, len(ov.outs))
		for i, o := range ov.outs {
			names[i] = typeName(classes, o)
		}
		ret = "tuple[" + strings.Join(names, ", ") + "]"
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), ret)
}

// Function is a bound name with one or more overloads.
type Function struct {
	Name      string
	owner     *Class
	module    *Module
	overloads []*Overload
}

func (f *Function) add(ov *Overload) {
	f.overloads = append(f.overloads, ov)
}

// QualifiedName is the host-visible name, e.g. "example::add" or
// "example::Pet.getName".
func (f *Function) QualifiedName() string {
	switch {
	case f.owner != nil:
		return f.owner.QualifiedName() + "." + f.Name
	case f.module != nil:
		return f.module.Name + "::" + f.Name
	}
	return f.Name
}

// Doc joins the docstrings of every overload.
func (f *Function) Doc() string {
	var docs []string
	for _, ov := range f.overloads {
		if ov.doc != "" {
			docs = append(docs, ov.doc)
		}
	}
	return strings.Join(docs, "\n")
}

// Overloads returns the registered overloads in resolution order.
func (f *Function) Overloads() []*Overload { return f.overloads }

// Signatures lists every overload as "name(args) -> result".
func (f *Function) Signatures(classes Classes) []string {
	out := make([]string, len(f.overloads))
	for i, ov := range f.overloads {
		out[i] = f.Name + ov.Signature(classes)
	}
	return out
}

// Help renders the docstring block shown by the host help builtin.
func (f *Function) Help(classes Classes) string {
	var b strings.Builder
	for i, ov := range f.overloads {
		if len(f.overloads) > 1 {
			fmt.Fprintf(&b, "%d. ", i+1)
		}
		fmt.Fprintf(&b, "%s%s\n", f.Name, ov.Signature(classes))
		if ov.doc != "" {
			fmt.Fprintf(&b, "    %s\n", ov.doc)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Call invokes a free function.
func (f *Function) Call(ctx context.Context, conv *Converter, pos []cty.Value, kw map[string]cty.Value) (cty.Value, error) {
	return f.dispatch(ctx, conv, nil, pos, kw)
}

// CallMethod invokes a method with self as the receiver.
func (f *Function) CallMethod(ctx context.Context, conv *Converter, self *Object, pos []cty.Value, kw map[string]cty.Value) (cty.Value, error) {
	return f.dispatch(ctx, conv, self, pos, kw)
}

func typeName(classes Classes, t reflect.Type) string {
	if classes != nil {
		if c, ok := classes.ClassByType(t); ok {
			return c.DisplayName()
		}
	}
	switch t {
	case ctyValueTy:
		return "object"
	}
	switch t.Kind() {
	case reflect.String:
		return "str"
	case reflect.Bool:
		return "bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "int"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Slice, reflect.Array:
		return "list[" + typeName(classes, t.Elem()) + "]"
	case reflect.Map:
		return "dict[" + typeName(classes, t.Key()) + ", " + typeName(classes, t.Elem()) + "]"
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return "object"
		}
	case reflect.Ptr:
		if classes != nil {
			if c, ok := classes.ClassByType(t.Elem()); ok {
				return c.DisplayName()
			}
		}
	}
	return t.String()
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return t == ctyValueTy
}

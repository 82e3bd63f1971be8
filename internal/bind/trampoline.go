package bind

import (
	"context"
	"fmt"
	"reflect"

	"github.com/zclconf/go-cty/cty"
)

// OverrideFunc is a script-supplied method body.
type OverrideFunc func(ctx context.Context, self *Object, args []cty.Value) (cty.Value, error)

// Overrides is what a trampoline consults before running the Go
// implementation of a virtual method. A nil *Overrides has no overrides,
// so trampolines constructed from Go behave like the plain type.
type Overrides struct {
	ctx   context.Context
	conv  *Converter
	class *Class
	self  *Object
}

// SelfOwner is implemented by Go values that belong to a script object,
// usually by embedding *Overrides. Returning such a value to a script
// yields the original object.
type SelfOwner interface {
	Self() *Object
}

// Self returns the script object the trampoline belongs to.
func (o *Overrides) Self() *Object {
	if o == nil {
		return nil
	}
	return o.self
}

// Has reports whether the script class overrides name.
func (o *Overrides) Has(name string) bool {
	if o == nil || o.class == nil {
		return false
	}
	_, ok := o.class.LookupOverride(name)
	return ok
}

// Override calls the script override of name if there is one. ok is
// false when the method is not overridden and the caller should fall
// back to the Go implementation. Failures abort the call via Raise.
func Override[R any](o *Overrides, name string, args ...any) (result R, ok bool) {
	if !o.Has(name) {
		return result, false
	}
	fn, _ := o.class.LookupOverride(name)
	qualified := o.class.DisplayName() + "." + name

	vals := make([]cty.Value, len(args))
	for i, a := range args {
		v, err := o.conv.Wrap(a)
		if err != nil {
			Raise(qualified, fmt.Errorf("argument %d: %w", i, err))
		}
		vals[i] = v
	}
	res, err := fn(o.ctx, o.self, vals)
	if err != nil {
		Raise(qualified, err)
	}
	rv, err := o.conv.FromCty(res, reflect.TypeOf((*R)(nil)).Elem(), false)
	if err != nil {
		Raise(qualified, fmt.Errorf("result: %w", err))
	}
	if rv.IsValid() {
		result, _ = rv.Interface().(R)
	}
	return result, true
}

// OverridePure is Override for methods with no Go implementation: a
// missing override aborts the call with ErrPureVirtual.
func OverridePure[R any](o *Overrides, base, name string, args ...any) R {
	if r, ok := Override[R](o, name, args...); ok {
		return r
	}
	Raise("", fmt.Errorf("%w \"%s::%s\"", ErrPureVirtual, base, name))
	panic("unreachable")
}

// NewScriptClass declares a class whose method bodies come from a script.
// parent must have a trampoline.
func NewScriptClass(name, doc string, parent *Class, methods map[string]OverrideFunc) (*Class, error) {
	if parent == nil {
		return nil, fmt.Errorf("%s: %w: no base class", name, ErrUnknownClass)
	}
	if !parent.Subclassable() {
		return nil, fmt.Errorf("%s: %w", parent.DisplayName(), ErrNotSubclassable)
	}
	c := &Class{
		Name:      name,
		Doc:       doc,
		GoType:    parent.GoType,
		parent:    parent,
		script:    true,
		overrides: methods,
		methods:   make(map[string]*Function),
		attrs:     make(map[string]*Attribute),
		ops:       make(map[Op]*Function),
		rops:      make(map[Op]*Function),
	}
	c.ns = Namespace{owner: c}
	return c, nil
}

func (c *Class) constructScript(ctx context.Context, conv *Converter, pos []cty.Value, kw map[string]cty.Value) (obj *Object, err error) {
	if len(kw) > 0 {
		return nil, fmt.Errorf("%w: %s takes no keyword arguments", ErrUnexpectedKeyword, c.Name)
	}
	defer recoverCall(c.Name, &err)

	ctx = withConverter(ctx, conv)
	ov := &Overrides{ctx: ctx, conv: conv, class: c}
	obj = NewObject(c, c.trampolineFactory()(ov))
	ov.self = obj

	if init, ok := c.LookupOverride("__init__"); ok {
		if _, err := init(ctx, obj, pos); err != nil {
			return nil, err
		}
	} else if len(pos) > 0 {
		return nil, fmt.Errorf("%w: %s() takes no arguments", ErrArgumentCount, c.Name)
	}
	return obj, nil
}

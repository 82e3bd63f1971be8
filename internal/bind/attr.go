package bind

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// GetAttr reads an attribute of obj: a declared attribute, an enum's name
// or value, or a dynamic attribute.
func GetAttr(ctx context.Context, conv *Converter, obj *Object, name string) (cty.Value, error) {
	if obj.Class.enum != nil {
		switch name {
		case "name":
			return cty.StringVal(EnumName(obj)), nil
		case "value":
			return cty.NumberIntVal(EnumValue(obj)), nil
		}
	}
	if a, ok := obj.Class.LookupAttribute(name); ok {
		res, err := a.get.CallMethod(ctx, conv, obj, nil, nil)
		if err != nil {
			return cty.NilVal, err
		}
		if a.internal {
			if sub, ok := ObjectFromValue(res); ok {
				sub.KeepAlive(obj)
			}
		}
		return res, nil
	}
	if v, ok := obj.DictGet(name); ok {
		return v, nil
	}
	if _, ok := obj.Class.LookupMethod(name); ok {
		return cty.NilVal, fmt.Errorf("%w: %q is a method of '%s'; use call()", ErrNoSuchAttribute, name, obj.Class.DisplayName())
	}
	return cty.NilVal, fmt.Errorf("%w: '%s' object has no attribute '%s'", ErrNoSuchAttribute, obj.Class.DisplayName(), name)
}

// SetAttr writes an attribute of obj. Undeclared names are only accepted
// on dynamic classes.
func SetAttr(ctx context.Context, conv *Converter, obj *Object, name string, v cty.Value) error {
	if a, ok := obj.Class.LookupAttribute(name); ok {
		if a.ReadOnly() {
			return fmt.Errorf("%w: '%s.%s'", ErrReadOnlyAttribute, obj.Class.DisplayName(), name)
		}
		_, err := a.set.CallMethod(ctx, conv, obj, []cty.Value{v}, nil)
		return err
	}
	if !obj.Class.Dynamic() {
		return fmt.Errorf("%w: '%s' object has no attribute '%s'", ErrNoSuchAttribute, obj.Class.DisplayName(), name)
	}
	obj.DictSet(name, v)
	return nil
}

// Invoke calls the method name on obj. Script overrides take precedence
// over bound Go methods.
func Invoke(ctx context.Context, conv *Converter, obj *Object, name string, pos []cty.Value, kw map[string]cty.Value) (cty.Value, error) {
	if fn, ok := obj.Class.LookupOverride(name); ok {
		if len(kw) > 0 {
			return cty.NilVal, fmt.Errorf("%w: script method %s.%s", ErrUnexpectedKeyword, obj.Class.DisplayName(), name)
		}
		return fn(ctx, obj, pos)
	}
	if f, ok := obj.Class.LookupMethod(name); ok {
		return f.CallMethod(ctx, conv, obj, pos, kw)
	}
	return cty.NilVal, fmt.Errorf("%w: '%s' object has no method '%s'", ErrNoSuchMethod, obj.Class.DisplayName(), name)
}

package bind

import (
	"fmt"
	"math/big"
	"reflect"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Classes is the class lookup the converter needs. The registry
// implements it.
type Classes interface {
	ClassByType(t reflect.Type) (*Class, bool)
	ClassByName(name string) (*Class, bool)
	Subclasses(c *Class) []*Class
}

// Converter moves values between Go and cty. Go values whose type is a
// registered class become objects; everything else goes through gocty.
type Converter struct {
	classes Classes
}

// NewConverter creates a converter backed by classes.
func NewConverter(classes Classes) *Converter {
	return &Converter{classes: classes}
}

// Classes returns the lookup backing the converter.
func (c *Converter) Classes() Classes { return c.classes }

// Wrap converts an arbitrary Go value using its dynamic type.
func (c *Converter) Wrap(v any) (cty.Value, error) {
	if v == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	return c.ToCty(reflect.ValueOf(v), nil)
}

// ToCty converts rv, declared as the static type declared, into a cty
// value. A nil declared type means "use the dynamic type".
func (c *Converter) ToCty(rv reflect.Value, declared reflect.Type) (cty.Value, error) {
	if !rv.IsValid() {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	if declared == nil {
		declared = rv.Type()
	}
	if rv.Type() == ctyValueTy {
		v := rv.Interface().(cty.Value)
		if v == cty.NilVal {
			return cty.NullVal(cty.DynamicPseudoType), nil
		}
		return v, nil
	}

	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return c.nullFor(declared), nil
		}
		rv = rv.Elem()
	}
	if nilable(rv.Type()) && rv.IsNil() {
		return c.nullFor(declared), nil
	}
	if obj, ok := rv.Interface().(*Object); ok {
		return obj.CtyValue(), nil
	}
	if owner, ok := rv.Interface().(SelfOwner); ok {
		if obj := owner.Self(); obj != nil {
			return obj.CtyValue(), nil
		}
	}

	cls, val, ok, err := c.resolveClass(rv, declared)
	if err != nil {
		return cty.NilVal, err
	}
	if ok {
		if cls == nil {
			return cty.NullVal(ObjectType), nil
		}
		if cls.enum != nil {
			return cls.enum.member(cls, val).CtyValue(), nil
		}
		return NewObject(cls, val).CtyValue(), nil
	}

	switch rv.Kind() {
	case reflect.Ptr:
		var elemDecl reflect.Type
		if declared.Kind() == reflect.Ptr {
			elemDecl = declared.Elem()
		}
		return c.ToCty(rv.Elem(), elemDecl)
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			break
		}
		if !c.needsDeepConversion(rv.Type().Elem()) {
			break
		}
		if rv.Len() == 0 {
			return cty.EmptyTupleVal, nil
		}
		vals := make([]cty.Value, rv.Len())
		for i := range vals {
			v, err := c.ToCty(rv.Index(i), rv.Type().Elem())
			if err != nil {
				return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
			}
			vals[i] = v
		}
		return cty.TupleVal(vals), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String || !c.needsDeepConversion(rv.Type().Elem()) {
			break
		}
		attrs := make(map[string]cty.Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			v, err := c.ToCty(iter.Value(), rv.Type().Elem())
			if err != nil {
				return cty.NilVal, fmt.Errorf("key %q: %w", iter.Key().String(), err)
			}
			attrs[iter.Key().String()] = v
		}
		return cty.ObjectVal(attrs), nil
	}

	native := rv.Interface()
	ty, err := gocty.ImpliedType(native)
	if err != nil {
		return cty.NilVal, fmt.Errorf("%w: unable to infer cty type for %s: %v", ErrConversion, rv.Type(), err)
	}
	return gocty.ToCtyValue(native, ty)
}

// needsDeepConversion reports whether values of t may hold objects or
// other things gocty cannot imply a type for.
func (c *Converter) needsDeepConversion(t reflect.Type) bool {
	if t == ctyValueTy || t.Kind() == reflect.Interface {
		return true
	}
	if _, ok := c.classes.ClassByType(t); ok {
		return true
	}
	if t.Kind() == reflect.Ptr {
		if _, ok := c.classes.ClassByType(t.Elem()); ok {
			return true
		}
	}
	return false
}

func (c *Converter) nullFor(declared reflect.Type) cty.Value {
	if declared != nil {
		if _, ok := c.classes.ClassByType(declared); ok {
			return cty.NullVal(ObjectType)
		}
	}
	return cty.NullVal(cty.DynamicPseudoType)
}

// resolveClass picks the class a Go value is exposed as. ok is false
// when the value is not an instance of any registered class. A nil class
// with ok set means the downcast hook resolved the value to null.
func (c *Converter) resolveClass(rv reflect.Value, declared reflect.Type) (*Class, any, bool, error) {
	var cls *Class
	val := rv.Interface()

	if declared.Kind() == reflect.Interface {
		// Polymorphic declaration: the dynamic type wins when registered.
		if dyn, ok := c.classes.ClassByType(rv.Type()); ok {
			cls = dyn
		} else if decl, ok := c.classes.ClassByType(declared); ok {
			cls = c.mostDerived(decl, rv.Type())
		}
	} else if found, ok := c.classes.ClassByType(rv.Type()); ok {
		cls = found
	} else if rv.Kind() == reflect.Struct {
		// Returned by value: expose a copy behind a pointer.
		pt := reflect.PointerTo(rv.Type())
		if found, ok := c.classes.ClassByType(pt); ok {
			p := reflect.New(rv.Type())
			p.Elem().Set(rv)
			cls, val = found, p.Interface()
		}
	}
	if cls == nil {
		return nil, nil, false, nil
	}

	hook := cls.hook
	if hook == nil || reflect.TypeOf(val) != hook.BaseType() {
		return cls, val, true, nil
	}
	res := hook.ResolveAny(val)
	if res.IsNull() {
		return nil, nil, true, nil
	}
	derived, ok := c.classes.ClassByName(string(res.Identity))
	if !ok {
		return nil, nil, false, fmt.Errorf("%w: downcast resolved to %q", ErrUnknownClass, res.Identity)
	}
	return derived, res.Value, true, nil
}

// mostDerived descends from cls through registered subclasses whose Go
// interface the dynamic type t implements.
func (c *Converter) mostDerived(cls *Class, t reflect.Type) *Class {
	for {
		next := (*Class)(nil)
		for _, sub := range c.classes.Subclasses(cls) {
			if sub.GoType == t || (sub.GoType.Kind() == reflect.Interface && t.Implements(sub.GoType)) {
				next = sub
				break
			}
		}
		if next == nil {
			return cls
		}
		cls = next
	}
}

// FromCty converts v into a Go value of type target. In strict mode only
// values whose cty type already matches are accepted.
func (c *Converter) FromCty(v cty.Value, target reflect.Type, strict bool) (reflect.Value, error) {
	if target == ctyValueTy {
		return reflect.ValueOf(v), nil
	}
	if v.IsNull() {
		if nilable(target) {
			return reflect.Zero(target), nil
		}
		return reflect.Value{}, fmt.Errorf("%w (expected %s)", ErrNullArgument, typeName(c.classes, target))
	}
	if !v.IsKnown() {
		return reflect.Value{}, fmt.Errorf("%w: value is not known yet", ErrConversion)
	}

	if obj, ok := ObjectFromValue(v); ok {
		return c.objectAs(obj, target)
	}
	if v.Type().IsCapsuleType() {
		return reflect.Value{}, fmt.Errorf("%w: %s into %s", ErrConversion, v.Type().FriendlyName(), target)
	}

	if cls, ok := c.classes.ClassByType(target); ok {
		if cls.enum == nil || strict {
			return reflect.Value{}, fmt.Errorf("%w: expected %s, got %s", ErrConversion, cls.DisplayName(), friendlyType(v))
		}
		return c.enumFromNumber(cls, v, target)
	}

	switch {
	case target.Kind() == reflect.Interface:
		if target.NumMethod() > 0 {
			return reflect.Value{}, fmt.Errorf("%w: expected %s, got %s", ErrConversion, typeName(c.classes, target), friendlyType(v))
		}
		native, err := c.Native(v)
		if err != nil {
			return reflect.Value{}, err
		}
		if native == nil {
			return reflect.Zero(target), nil
		}
		return reflect.ValueOf(native), nil
	case target.Kind() == reflect.Map && target.Key().Kind() == reflect.String && target.Elem() == ctyValueTy:
		if !v.Type().IsObjectType() && !v.Type().IsMapType() {
			return reflect.Value{}, fmt.Errorf("%w: expected a mapping, got %s", ErrConversion, friendlyType(v))
		}
		out := reflect.MakeMapWithSize(target, v.LengthInt())
		for k, ev := range v.AsValueMap() {
			out.SetMapIndex(reflect.ValueOf(k).Convert(target.Key()), reflect.ValueOf(ev))
		}
		return out, nil
	case (target.Kind() == reflect.Slice || target.Kind() == reflect.Array) && c.needsDeepConversion(target.Elem()):
		return c.sliceFromCty(v, target, strict)
	case target.Kind() == reflect.Map && target.Key().Kind() == reflect.String && c.needsDeepConversion(target.Elem()):
		return c.mapFromCty(v, target, strict)
	}

	implied, err := gocty.ImpliedType(reflect.Zero(target).Interface())
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: unsupported parameter type %s: %v", ErrConversion, target, err)
	}
	if strict && implied.IsPrimitiveType() && !v.Type().Equals(implied) {
		return reflect.Value{}, fmt.Errorf("%w: expected %s, got %s", ErrConversion, implied.FriendlyName(), friendlyType(v))
	}
	converted, err := convert.Convert(v, implied)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	out := reflect.New(target)
	if err := gocty.FromCtyValue(converted, out.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	return out.Elem(), nil
}

func (c *Converter) sliceFromCty(v cty.Value, target reflect.Type, strict bool) (reflect.Value, error) {
	ty := v.Type()
	if !ty.IsListType() && !ty.IsTupleType() && !ty.IsSetType() {
		return reflect.Value{}, fmt.Errorf("%w: expected a sequence, got %s", ErrConversion, friendlyType(v))
	}
	n := v.LengthInt()
	var out reflect.Value
	if target.Kind() == reflect.Array {
		if n != target.Len() {
			return reflect.Value{}, fmt.Errorf("%w: expected %d elements, got %d", ErrConversion, target.Len(), n)
		}
		out = reflect.New(target).Elem()
	} else {
		out = reflect.MakeSlice(target, n, n)
	}
	it := v.ElementIterator()
	for i := 0; it.Next(); i++ {
		_, ev := it.Element()
		elem, err := c.FromCty(ev, target.Elem(), strict)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(elem)
	}
	return out, nil
}

func (c *Converter) mapFromCty(v cty.Value, target reflect.Type, strict bool) (reflect.Value, error) {
	if !v.Type().IsObjectType() && !v.Type().IsMapType() {
		return reflect.Value{}, fmt.Errorf("%w: expected a mapping, got %s", ErrConversion, friendlyType(v))
	}
	out := reflect.MakeMapWithSize(target, v.LengthInt())
	for k, ev := range v.AsValueMap() {
		elem, err := c.FromCty(ev, target.Elem(), strict)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("key %q: %w", k, err)
		}
		out.SetMapIndex(reflect.ValueOf(k).Convert(target.Key()), elem)
	}
	return out, nil
}

// objectAs views obj as target, walking up the class chain and applying
// each class's upcast until the Go value fits.
func (c *Converter) objectAs(obj *Object, target reflect.Type) (reflect.Value, error) {
	if target == reflect.TypeOf(obj) {
		return reflect.ValueOf(obj), nil
	}
	val := obj.Value
	for cls := obj.Class; ; {
		rv := reflect.ValueOf(val)
		if rv.IsValid() {
			if rv.Type().AssignableTo(target) {
				return rv, nil
			}
			if rv.Kind() == reflect.Ptr && !rv.IsNil() && rv.Elem().Type().AssignableTo(target) {
				return rv.Elem(), nil
			}
			if cls != nil && cls.enum != nil && rv.Type().ConvertibleTo(target) && isInteger(target.Kind()) {
				return rv.Convert(target), nil
			}
		}
		if cls == nil || cls.parent == nil {
			break
		}
		if cls.upcast != nil {
			val = cls.upcast(val)
		}
		cls = cls.parent
	}
	if target.Kind() == reflect.Interface && target.NumMethod() == 0 {
		return reflect.ValueOf(obj.Value), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %s is not %s", ErrConversion, obj.Class.DisplayName(), typeName(c.classes, target))
}

func (c *Converter) enumFromNumber(cls *Class, v cty.Value, target reflect.Type) (reflect.Value, error) {
	if !v.Type().Equals(cty.Number) {
		return reflect.Value{}, fmt.Errorf("%w: expected %s, got %s", ErrConversion, cls.DisplayName(), friendlyType(v))
	}
	bf := v.AsBigFloat()
	if !bf.IsInt() {
		return reflect.Value{}, fmt.Errorf("%w: %s requires a whole number", ErrConversion, cls.DisplayName())
	}
	n, _ := bf.Int64()
	if _, ok := cls.enum.byValue[n]; !ok {
		return reflect.Value{}, fmt.Errorf("%w: %d is not a member of %s", ErrConversion, n, cls.DisplayName())
	}
	out := reflect.New(target).Elem()
	if isUnsigned(target.Kind()) {
		out.SetUint(uint64(n))
	} else {
		out.SetInt(n)
	}
	return out, nil
}

// Native converts a cty value into plain Go data: strings, float64,
// bool, []any, map[string]any and, for objects, the wrapped Go value.
func (c *Converter) Native(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}
	if obj, ok := ObjectFromValue(v); ok {
		return obj.Value, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if n, acc := bf.Int64(); acc == big.Exact {
				return n, nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, ev := it.Element()
			nv, err := c.Native(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, nv)
		}
		return out, nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			k, ev := it.Element()
			nv, err := c.Native(ev)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", k.AsString(), err)
			}
			out[k.AsString()] = nv
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unsupported cty type %s", ErrConversion, ty.FriendlyName())
}

// FromNative is the inverse of Native for plain Go data.
func FromNative(v any) (cty.Value, error) {
	switch tv := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case string:
		return cty.StringVal(tv), nil
	case bool:
		return cty.BoolVal(tv), nil
	case int:
		return cty.NumberIntVal(int64(tv)), nil
	case int64:
		return cty.NumberIntVal(tv), nil
	case uint64:
		return cty.NumberUIntVal(tv), nil
	case float64:
		return cty.NumberFloatVal(tv), nil
	case []any:
		if len(tv) == 0 {
			return cty.EmptyTupleVal, nil
		}
		vals := make([]cty.Value, len(tv))
		for i, e := range tv {
			ev, err := FromNative(e)
			if err != nil {
				return cty.NilVal, err
			}
			vals[i] = ev
		}
		return cty.TupleVal(vals), nil
	case map[string]any:
		keys := make([]string, 0, len(tv))
		for k := range tv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		attrs := make(map[string]cty.Value, len(tv))
		for _, k := range keys {
			ev, err := FromNative(tv[k])
			if err != nil {
				return cty.NilVal, fmt.Errorf("key %q: %w", k, err)
			}
			attrs[k] = ev
		}
		return cty.ObjectVal(attrs), nil
	}
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("%w: %T: %v", ErrConversion, v, err)
	}
	return gocty.ToCtyValue(v, ty)
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

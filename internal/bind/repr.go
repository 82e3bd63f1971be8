package bind

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Repr renders v the way the repr builtin shows it: objects through
// their bound repr, strings quoted, collections recursively.
func Repr(ctx context.Context, conv *Converter, v cty.Value) (string, error) {
	return render(ctx, conv, v, true)
}

// Str is Repr with top-level strings left unquoted.
func Str(ctx context.Context, conv *Converter, v cty.Value) (string, error) {
	return render(ctx, conv, v, false)
}

func render(ctx context.Context, conv *Converter, v cty.Value, quote bool) (string, error) {
	if v.IsNull() {
		return "None", nil
	}
	if !v.IsKnown() {
		return "<unknown>", nil
	}
	if obj, ok := ObjectFromValue(v); ok {
		return reprObject(ctx, conv, obj)
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		if quote {
			return "'" + strings.ReplaceAll(v.AsString(), "'", `\'`) + "'", nil
		}
		return v.AsString(), nil
	case ty == cty.Number:
		return formatNumber(v), nil
	case ty == cty.Bool:
		if v.True() {
			return "True", nil
		}
		return "False", nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		parts := make([]string, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, ev := it.Element()
			s, err := render(ctx, conv, ev, true)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case ty.IsObjectType() || ty.IsMapType():
		m := v.AsValueMap()
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			s, err := render(ctx, conv, m[k], true)
			if err != nil {
				return "", err
			}
			parts = append(parts, fmt.Sprintf("'%s': %s", k, s))
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	}
	return ty.FriendlyName(), nil
}

func reprObject(ctx context.Context, conv *Converter, obj *Object) (string, error) {
	if obj.Class.enum != nil {
		return fmt.Sprintf("<%s.%s: %d>", obj.Class.Name, EnumName(obj), EnumValue(obj)), nil
	}
	if fn, ok := obj.Class.LookupOverride("__repr__"); ok {
		res, err := fn(ctx, obj, nil)
		if err != nil {
			return "", err
		}
		return render(ctx, conv, res, false)
	}
	if f := obj.Class.lookupRepr(); f != nil {
		res, err := f.CallMethod(ctx, conv, obj, nil, nil)
		if err != nil {
			return "", err
		}
		if res.Type() == cty.String && !res.IsNull() {
			return res.AsString(), nil
		}
	}
	return obj.String(), nil
}

func formatNumber(v cty.Value) string {
	bf := v.AsBigFloat()
	if bf.IsInt() {
		return bf.Text('f', 0)
	}
	f, _ := bf.Float64()
	return strconv.FormatFloat(f, 'g', -1, 64)
}

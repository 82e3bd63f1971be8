package host

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/ctybind/internal/bind"
	"github.com/specialistvlad/ctybind/internal/shelf"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// builtinNames is every function name the host defines itself. Script
// classes may not reuse them.
var builtinNames = map[string]struct{}{
	"call": {}, "attr": {}, "setattr": {}, "repr": {}, "str": {},
	"type_name": {}, "isinstance": {}, "kwcall": {},
	"add": {}, "sub": {}, "mul": {}, "iadd": {}, "imul": {},
	"pickle": {}, "unpickle": {}, "copy": {}, "deepcopy": {}, "help": {},
	"shelve_put": {}, "shelve_get": {}, "shelve_keys": {},
	"join": {}, "range": {}, "upper": {}, "lower": {}, "format": {},
	"length": {}, "concat": {}, "keys": {}, "jsonencode": {},
	"max": {}, "min": {}, "strlen": {},
}

func anyParam(name string) function.Parameter {
	return function.Parameter{
		Name:             name,
		Type:             cty.DynamicPseudoType,
		AllowNull:        true,
		AllowDynamicType: true,
	}
}

func stringParam(name string) function.Parameter {
	return function.Parameter{Name: name, Type: cty.String}
}

func objectParam(name string) function.Parameter {
	return function.Parameter{Name: name, Type: bind.ObjectType}
}

func fn(desc string, ret cty.Type, params []function.Parameter, varParam *function.Parameter, impl func(args []cty.Value) (cty.Value, error)) function.Function {
	return function.New(&function.Spec{
		Description: desc,
		Params:      params,
		VarParam:    varParam,
		Type:        function.StaticReturnType(ret),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			return impl(args)
		},
	})
}

func (h *Host) builtins(ctx context.Context) map[string]function.Function {
	rest := anyParam("args")
	funcs := map[string]function.Function{
		"call": fn("Calls a method of a bound object.", cty.DynamicPseudoType,
			[]function.Parameter{objectParam("obj"), stringParam("method")}, &rest,
			func(args []cty.Value) (cty.Value, error) {
				obj, _ := bind.ObjectFromValue(args[0])
				return bind.Invoke(ctx, h.conv, obj, args[1].AsString(), args[2:], nil)
			}),
		"attr": fn("Reads an attribute of a bound object.", cty.DynamicPseudoType,
			[]function.Parameter{objectParam("obj"), stringParam("name")}, nil,
			func(args []cty.Value) (cty.Value, error) {
				obj, _ := bind.ObjectFromValue(args[0])
				return bind.GetAttr(ctx, h.conv, obj, args[1].AsString())
			}),
		"setattr": fn("Sets an attribute and returns the object.", bind.ObjectType,
			[]function.Parameter{objectParam("obj"), stringParam("name"), anyParam("value")}, nil,
			func(args []cty.Value) (cty.Value, error) {
				obj, _ := bind.ObjectFromValue(args[0])
				if err := bind.SetAttr(ctx, h.conv, obj, args[1].AsString(), args[2]); err != nil {
					return cty.NilVal, err
				}
				return args[0], nil
			}),
		"repr": fn("Returns the representation of a value.", cty.String,
			[]function.Parameter{anyParam("value")}, nil,
			func(args []cty.Value) (cty.Value, error) {
				s, err := bind.Repr(ctx, h.conv, args[0])
				return cty.StringVal(s), err
			}),
		"str": fn("Returns the printable form of a value.", cty.String,
			[]function.Parameter{anyParam("value")}, nil,
			func(args []cty.Value) (cty.Value, error) {
				s, err := bind.Str(ctx, h.conv, args[0])
				return cty.StringVal(s), err
			}),
		"type_name": fn("Returns the class name of a value.", cty.String,
			[]function.Parameter{anyParam("value")}, nil,
			func(args []cty.Value) (cty.Value, error) {
				if obj, ok := bind.ObjectFromValue(args[0]); ok {
					return cty.StringVal(obj.Class.DisplayName()), nil
				}
				if args[0].IsNull() {
					return cty.StringVal("NoneType"), nil
				}
				return cty.StringVal(args[0].Type().FriendlyName()), nil
			}),
		"isinstance": fn("Reports whether an object is an instance of a class.", cty.Bool,
			[]function.Parameter{anyParam("value"), stringParam("class")}, nil,
			func(args []cty.Value) (cty.Value, error) {
				cls, ok := h.ClassByName(args[1].AsString())
				if !ok {
					return cty.NilVal, fmt.Errorf("%w %q", bind.ErrUnknownClass, args[1].AsString())
				}
				obj, ok := bind.ObjectFromValue(args[0])
				return cty.BoolVal(ok && obj.Class.IsSubclassOf(cls)), nil
			}),
		"kwcall": fn("Calls a function or constructor with positional and keyword arguments.", cty.DynamicPseudoType,
			[]function.Parameter{stringParam("function"), anyParam("positional"), anyParam("keywords")}, nil,
			func(args []cty.Value) (cty.Value, error) {
				c, ok := h.lookup(args[0].AsString())
				if !ok {
					return cty.NilVal, fmt.Errorf("no function named %q", args[0].AsString())
				}
				pos, kw, err := splitKwArgs(args[1], args[2])
				if err != nil {
					return cty.NilVal, err
				}
				return h.call(ctx, c, pos, kw)
			}),
		"pickle": fn("Pickles an object; the optional second argument picks the format.", cty.String,
			[]function.Parameter{objectParam("obj")}, &function.Parameter{Name: "format", Type: cty.String},
			func(args []cty.Value) (cty.Value, error) {
				obj, _ := bind.ObjectFromValue(args[0])
				format := h.pickleFormat
				if len(args) > 1 {
					f, err := bind.ParseFormat(args[1].AsString())
					if err != nil {
						return cty.NilVal, err
					}
					format = f
				}
				s, err := bind.Dumps(ctx, h.conv, obj, format)
				return cty.StringVal(s), err
			}),
		"unpickle": fn("Rebuilds an object from a pickle.", bind.ObjectType,
			[]function.Parameter{stringParam("payload")}, nil,
			func(args []cty.Value) (cty.Value, error) {
				obj, err := bind.Loads(ctx, h.conv, args[0].AsString())
				if err != nil {
					return cty.NilVal, err
				}
				return obj.CtyValue(), nil
			}),
		"copy":     h.copyFunc(ctx, "Copies a pickleable object."),
		"deepcopy": h.copyFunc(ctx, "Deep-copies a pickleable object."),
		"help": fn("Describes a function, class or module.", cty.String,
			[]function.Parameter{stringParam("name")}, nil,
			func(args []cty.Value) (cty.Value, error) {
				s, err := h.Help(args[0].AsString())
				return cty.StringVal(s), err
			}),
		"shelve_put": fn("Stores a pickled object under a key and returns the key.", cty.String,
			[]function.Parameter{stringParam("key"), objectParam("obj")}, nil,
			func(args []cty.Value) (cty.Value, error) {
				if h.shelf == nil {
					return cty.NilVal, shelf.ErrShelfDisabled
				}
				obj, _ := bind.ObjectFromValue(args[1])
				payload, err := bind.Dumps(ctx, h.conv, obj, h.pickleFormat)
				if err != nil {
					return cty.NilVal, err
				}
				if err := h.shelf.Put(ctx, args[0].AsString(), obj.Class.QualifiedName(), payload); err != nil {
					return cty.NilVal, err
				}
				return args[0], nil
			}),
		"shelve_get": fn("Loads the object stored under a key.", bind.ObjectType,
			[]function.Parameter{stringParam("key")}, nil,
			func(args []cty.Value) (cty.Value, error) {
				if h.shelf == nil {
					return cty.NilVal, shelf.ErrShelfDisabled
				}
				payload, err := h.shelf.Get(ctx, args[0].AsString())
				if err != nil {
					return cty.NilVal, err
				}
				obj, err := bind.Loads(ctx, h.conv, payload)
				if err != nil {
					return cty.NilVal, err
				}
				return obj.CtyValue(), nil
			}),
		"shelve_keys": fn("Lists the shelf keys.", cty.List(cty.String), nil, nil,
			func(args []cty.Value) (cty.Value, error) {
				if h.shelf == nil {
					return cty.NilVal, shelf.ErrShelfDisabled
				}
				keys, err := h.shelf.Keys(ctx)
				if err != nil {
					return cty.NilVal, err
				}
				if len(keys) == 0 {
					return cty.ListValEmpty(cty.String), nil
				}
				vals := make([]cty.Value, len(keys))
				for i, k := range keys {
					vals[i] = cty.StringVal(k)
				}
				return cty.ListVal(vals), nil
			}),

		"join":       stdlib.JoinFunc,
		"range":      stdlib.RangeFunc,
		"upper":      stdlib.UpperFunc,
		"lower":      stdlib.LowerFunc,
		"format":     stdlib.FormatFunc,
		"length":     stdlib.LengthFunc,
		"concat":     stdlib.ConcatFunc,
		"keys":       stdlib.KeysFunc,
		"jsonencode": stdlib.JSONEncodeFunc,
		"max":        stdlib.MaxFunc,
		"min":        stdlib.MinFunc,
		"strlen":     stdlib.StrlenFunc,
	}
	for name, op := range map[string]bind.Op{
		"add":  bind.OpAdd,
		"sub":  bind.OpSub,
		"mul":  bind.OpMul,
		"iadd": bind.OpIAdd,
		"imul": bind.OpIMul,
	} {
		op := op
		funcs[name] = fn(fmt.Sprintf("Applies %s to two values.", op), cty.DynamicPseudoType,
			[]function.Parameter{anyParam("lhs"), anyParam("rhs")}, nil,
			func(args []cty.Value) (cty.Value, error) {
				return bind.BinaryOp(ctx, h.conv, op, args[0], args[1])
			})
	}
	return funcs
}

func (h *Host) copyFunc(ctx context.Context, desc string) function.Function {
	return fn(desc, bind.ObjectType, []function.Parameter{objectParam("obj")}, nil,
		func(args []cty.Value) (cty.Value, error) {
			obj, _ := bind.ObjectFromValue(args[0])
			dup, err := bind.Copy(ctx, h.conv, obj)
			if err != nil {
				return cty.NilVal, err
			}
			return dup.CtyValue(), nil
		})
}

// splitKwArgs unpacks kwcall's positional sequence and keyword object.
func splitKwArgs(positional, keywords cty.Value) ([]cty.Value, map[string]cty.Value, error) {
	var pos []cty.Value
	if !positional.IsNull() {
		ty := positional.Type()
		if !ty.IsListType() && !ty.IsTupleType() {
			return nil, nil, fmt.Errorf("kwcall: positional arguments must be a list, got %s", ty.FriendlyName())
		}
		pos = positional.AsValueSlice()
	}
	var kw map[string]cty.Value
	if !keywords.IsNull() {
		ty := keywords.Type()
		if !ty.IsObjectType() && !ty.IsMapType() {
			return nil, nil, fmt.Errorf("kwcall: keyword arguments must be an object, got %s", ty.FriendlyName())
		}
		kw = keywords.AsValueMap()
	}
	return pos, kw, nil
}

// Help describes a callable or a module.
func (h *Host) Help(name string) (string, error) {
	if c, ok := h.lookup(name); ok {
		if c.fn != nil {
			return c.fn.QualifiedName() + "\n" + c.fn.Help(h.conv.Classes()), nil
		}
		return c.class.Help(h.conv.Classes()), nil
	}
	if m, ok := h.reg.Module(name); ok {
		var b strings.Builder
		fmt.Fprintf(&b, "module %s\n", m.Name)
		if m.Doc != "" {
			fmt.Fprintf(&b, "    %s\n", m.Doc)
		}
		for _, f := range m.Functions() {
			fmt.Fprintf(&b, "    %s\n", f.QualifiedName())
		}
		for _, c := range m.Classes() {
			fmt.Fprintf(&b, "    class %s\n", c.QualifiedName())
		}
		for _, a := range m.AttrNames() {
			fmt.Fprintf(&b, "    .%s\n", a)
		}
		return strings.TrimRight(b.String(), "\n"), nil
	}
	return "", fmt.Errorf("help: nothing named %q", name)
}

package bind

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// slot is one bound argument: either a script value or a Go default.
type slot struct {
	val   cty.Value
	goVal reflect.Value
}

// bind maps positional and keyword script arguments onto the overload's
// parameters. It does not convert anything yet.
func (ov *Overload) bind(pos []cty.Value, kw map[string]cty.Value) ([]slot, error) {
	params := ov.argParams()
	n := len(params)

	if len(ov.args) == 0 {
		if len(kw) > 0 {
			return nil, fmt.Errorf("%w: %s takes no keyword arguments", ErrUnexpectedKeyword, ov.name)
		}
		if ov.variadic {
			if len(pos) < n-1 {
				return nil, fmt.Errorf("%w: %s expects at least %d, got %d", ErrArgumentCount, ov.name, n-1, len(pos))
			}
		} else if len(pos) != n {
			return nil, fmt.Errorf("%w: %s expects %d, got %d", ErrArgumentCount, ov.name, n, len(pos))
		}
		slots := make([]slot, len(pos))
		for i, v := range pos {
			slots[i] = slot{val: v}
		}
		return slots, nil
	}

	slots := make([]slot, n)
	filled := make([]bool, n)
	maxPos := n
	if ov.kwOnlyFrom >= 0 {
		maxPos = ov.kwOnlyFrom
	}
	if len(pos) > maxPos {
		return nil, fmt.Errorf("%w: %s takes %d positional arguments but %d were given", ErrArgumentCount, ov.name, maxPos, len(pos))
	}
	for i, v := range pos {
		slots[i] = slot{val: v}
		filled[i] = true
	}

	names := make([]string, 0, len(kw))
	for name := range kw {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		idx := -1
		for i, a := range ov.args {
			if a.name == name {
				idx = i
				break
			}
		}
		switch {
		case idx < 0:
			return nil, fmt.Errorf("%w: %s got an unexpected keyword argument %q", ErrUnexpectedKeyword, ov.name, name)
		case idx < ov.posOnlyUntil:
			return nil, fmt.Errorf("%w: %s got positional-only argument %q passed as keyword", ErrUnexpectedKeyword, ov.name, name)
		case filled[idx]:
			return nil, fmt.Errorf("%w: %s got multiple values for argument %q", ErrUnexpectedKeyword, ov.name, name)
		}
		slots[idx] = slot{val: kw[name]}
		filled[idx] = true
	}

	for i := range slots {
		if filled[i] {
			continue
		}
		if !ov.args[i].hasDef {
			return nil, fmt.Errorf("%w: %s missing %q", ErrMissingArgument, ov.name, ov.args[i].name)
		}
		slots[i] = slot{goVal: ov.defaults[i]}
	}
	return slots, nil
}

// convert turns bound slots into Go call arguments. strict disables every
// conversion except object upcasts.
func (ov *Overload) convert(conv *Converter, self *Object, slots []slot, strict bool) ([]reflect.Value, error) {
	in := make([]reflect.Value, 0, len(ov.params))
	if ov.receiver {
		if self == nil {
			return nil, fmt.Errorf("%w: %s called without a receiver", ErrConversion, ov.name)
		}
		recv, err := conv.objectAs(self, ov.params[0])
		if err != nil {
			return nil, fmt.Errorf("%s: receiver: %w", ov.name, err)
		}
		in = append(in, recv)
	}

	params := ov.argParams()
	for i, s := range slots {
		if s.goVal.IsValid() {
			in = append(in, s.goVal)
			continue
		}
		target := ov.paramFor(params, i)
		noConvert := false
		if i < len(ov.args) {
			spec := ov.args[i]
			noConvert = spec.noConvert
			if s.val.IsNull() && spec.none != nil && !*spec.none {
				return nil, fmt.Errorf("%w: %s argument %q", ErrNullArgument, ov.name, spec.name)
			}
		}
		rv, err := conv.FromCty(s.val, target, strict || noConvert)
		if err != nil {
			return nil, fmt.Errorf("%s argument %q: %w", ov.name, ov.argName(i), err)
		}
		in = append(in, rv)
	}
	return in, nil
}

func (ov *Overload) paramFor(params []reflect.Type, i int) reflect.Type {
	if ov.variadic && i >= len(params)-1 {
		return params[len(params)-1].Elem()
	}
	return params[i]
}

// invoke calls the Go function and splits off its error result.
func (ov *Overload) invoke(ctx context.Context, in []reflect.Value) (out []reflect.Value, err error) {
	if ov.ctxParam {
		in = append([]reflect.Value{reflect.ValueOf(&ctx).Elem()}, in...)
	}
	defer recoverCall(ov.name, &err)

	results := ov.fn.Call(in)
	if ov.hasErr {
		last := results[len(results)-1]
		results = results[:len(results)-1]
		if !last.IsNil() {
			return nil, last.Interface().(error)
		}
	}
	return results, nil
}

// result converts Go results back into a script value.
func (ov *Overload) result(conv *Converter, self *Object, out []reflect.Value) (cty.Value, error) {
	switch len(out) {
	case 0:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case 1:
		if self != nil && sameObject(self.Value, out[0]) {
			return self.CtyValue(), nil
		}
		return conv.ToCty(out[0], ov.outs[0])
	}
	vals := make([]cty.Value, len(out))
	for i, o := range out {
		v, err := conv.ToCty(o, ov.outs[i])
		if err != nil {
			return cty.NilVal, fmt.Errorf("%s result %d: %w", ov.name, i, err)
		}
		vals[i] = v
	}
	return cty.TupleVal(vals), nil
}

func (ov *Overload) applyKeepAlive(self *Object, slots []slot, ret cty.Value) {
	if len(ov.keepAlive) == 0 {
		return
	}
	at := func(idx int) *Object {
		if idx == 0 {
			obj, _ := ObjectFromValue(ret)
			return obj
		}
		if ov.receiver {
			if idx == 1 {
				return self
			}
			idx--
		}
		if idx-1 < len(slots) {
			obj, _ := ObjectFromValue(slots[idx-1].val)
			return obj
		}
		return nil
	}
	for _, ka := range ov.keepAlive {
		nurse, patient := at(ka.nurse), at(ka.patient)
		if nurse != nil && patient != nil {
			nurse.KeepAlive(patient)
		}
	}
}

func sameObject(self any, v reflect.Value) bool {
	if !v.IsValid() || v.Kind() != reflect.Ptr || v.IsNil() {
		return false
	}
	sv := reflect.ValueOf(self)
	if sv.Kind() != reflect.Ptr || sv.IsNil() {
		return false
	}
	return sv.Pointer() == v.Pointer() && sv.Type() == v.Type()
}

// selected is the outcome of overload resolution before the call.
type selected struct {
	ov    *Overload
	in    []reflect.Value
	slots []slot
}

// resolve runs the two-pass overload resolution: first without
// conversions, then with them. The first overload that accepts the
// arguments wins.
func (f *Function) resolve(conv *Converter, self *Object, pos []cty.Value, kw map[string]cty.Value) (*selected, error) {
	var lastErr error
	for _, strict := range []bool{true, false} {
		for _, ov := range f.overloads {
			slots, err := ov.bind(pos, kw)
			if err != nil {
				lastErr = err
				continue
			}
			in, err := ov.convert(conv, self, slots, strict)
			if err != nil {
				lastErr = err
				continue
			}
			return &selected{ov: ov, in: in, slots: slots}, nil
		}
	}

	if len(f.overloads) == 1 && lastErr != nil {
		return nil, lastErr
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s(): %s. The following argument types are supported:", f.QualifiedName(), ErrNoMatchingOverload.Error())
	for i, sig := range f.Signatures(conv.classes) {
		fmt.Fprintf(&b, "\n    %d. %s", i+1, sig)
	}
	fmt.Fprintf(&b, "\nInvoked with: %s", describeArgs(pos, kw))
	return nil, &overloadError{msg: b.String()}
}

func (f *Function) dispatch(ctx context.Context, conv *Converter, self *Object, pos []cty.Value, kw map[string]cty.Value) (cty.Value, error) {
	sel, err := f.resolve(conv, self, pos, kw)
	if err != nil {
		return cty.NilVal, err
	}
	out, err := sel.ov.invoke(withConverter(ctx, conv), sel.in)
	if err != nil {
		return cty.NilVal, err
	}
	ret, err := sel.ov.result(conv, self, out)
	if err != nil {
		return cty.NilVal, err
	}
	sel.ov.applyKeepAlive(self, sel.slots, ret)
	return ret, nil
}

type overloadError struct {
	msg string
}

func (e *overloadError) Error() string { return e.msg }

func (e *overloadError) Is(target error) bool { return target == ErrNoMatchingOverload }

// isMismatch reports whether err means "these arguments do not fit"
// rather than "the call ran and failed".
func isMismatch(err error) bool {
	return errors.Is(err, ErrNoMatchingOverload) ||
		errors.Is(err, ErrConversion) ||
		errors.Is(err, ErrNullArgument) ||
		errors.Is(err, ErrMissingArgument) ||
		errors.Is(err, ErrArgumentCount) ||
		errors.Is(err, ErrUnexpectedKeyword)
}

func describeArgs(pos []cty.Value, kw map[string]cty.Value) string {
	parts := make([]string, 0, len(pos)+len(kw))
	for _, v := range pos {
		parts = append(parts, friendlyType(v))
	}
	names := make([]string, 0, len(kw))
	for k := range kw {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		parts = append(parts, k+"="+friendlyType(kw[k]))
	}
	return strings.Join(parts, ", ")
}

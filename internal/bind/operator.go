package bind

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Op is a binary operator scripts can apply to objects.
type Op string

const (
	OpAdd  Op = "+"
	OpSub  Op = "-"
	OpMul  Op = "*"
	OpIAdd Op = "+="
	OpISub Op = "-="
	OpIMul Op = "*="
)

var opMethodNames = map[Op]string{
	OpAdd:  "__add__",
	OpSub:  "__sub__",
	OpMul:  "__mul__",
	OpIAdd: "__iadd__",
	OpISub: "__isub__",
	OpIMul: "__imul__",
}

// MethodName is the dunder name used in signatures and errors.
func (op Op) MethodName() string {
	if name, ok := opMethodNames[op]; ok {
		return name
	}
	return string(op)
}

// plain maps an in-place operator to its plain form.
func (op Op) plain() (Op, bool) {
	switch op {
	case OpIAdd:
		return OpAdd, true
	case OpISub:
		return OpSub, true
	case OpIMul:
		return OpMul, true
	}
	return op, false
}

// BinaryOp applies op to lhs and rhs. Lookup order: the left operand's
// operator, for in-place operators the plain operator, the right operand's
// reflected operator, then plain number arithmetic.
func BinaryOp(ctx context.Context, conv *Converter, op Op, lhs, rhs cty.Value) (cty.Value, error) {
	if lobj, ok := ObjectFromValue(lhs); ok {
		if f, ok := lobj.Class.lookupOp(op, false); ok {
			res, err := f.CallMethod(ctx, conv, lobj, []cty.Value{rhs}, nil)
			if err == nil || !isMismatch(err) {
				return res, err
			}
		}
	}
	if base, ok := op.plain(); ok {
		return BinaryOp(ctx, conv, base, lhs, rhs)
	}
	if robj, ok := ObjectFromValue(rhs); ok {
		if f, ok := robj.Class.lookupOp(op, true); ok {
			res, err := f.CallMethod(ctx, conv, robj, []cty.Value{lhs}, nil)
			if err == nil || !isMismatch(err) {
				return res, err
			}
		}
	}

	if lhs.IsKnown() && rhs.IsKnown() && !lhs.IsNull() && !rhs.IsNull() &&
		lhs.Type() == cty.Number && rhs.Type() == cty.Number {
		switch op {
		case OpAdd:
			return lhs.Add(rhs), nil
		case OpSub:
			return lhs.Subtract(rhs), nil
		case OpMul:
			return lhs.Multiply(rhs), nil
		}
	}
	return cty.NilVal, fmt.Errorf("%w for %s: '%s' and '%s'", ErrUnsupportedOperand, op, friendlyType(lhs), friendlyType(rhs))
}

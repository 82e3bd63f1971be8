package downcast

import (
	"fmt"
	"reflect"
)

// Identity names the host-visible type a value resolves to. The zero
// Identity means "no derived identity": callers fall back to the
// statically declared type.
type Identity string

// Tagged is implemented by values that carry an immutable kind tag.
type Tagged[K comparable] interface {
	Kind() K
}

// Base constrains the pointer type of a tagged base value.
type Base[K comparable] interface {
	comparable
	Tagged[K]
}

// Result is the identity/value pair handed to the marshalling layer.
type Result struct {
	Identity Identity
	Value    any
}

// IsNull reports whether the result is the null pass-through.
func (r Result) IsNull() bool {
	return r.Identity == "" && r.Value == nil
}

// Variant ties one tag value to the identity it resolves to and the
// projection that views the base as that variant.
type Variant[K comparable, B any] struct {
	Tag      K
	Identity Identity
	Cast     func(B) any
}

// Resolver is the closed tag -> variant mapping for one tagged base type.
type Resolver[K comparable, B Base[K]] struct {
	base     Identity
	baseTag  K
	variants map[K]Variant[K, B]
	// order holds the variant identities in registration order.
	order []Identity
}

// New builds a Resolver. The base tag resolves to the base identity with
// the input value unchanged. Duplicate tags, a variant reusing the base
// tag and empty identities are programmer errors and panic.
func New[K comparable, B Base[K]](base Identity, baseTag K, variants ...Variant[K, B]) *Resolver[K, B] {
	if base == "" {
		panic("downcast: base identity must not be empty")
	}
	r := &Resolver[K, B]{
		base:     base,
		baseTag:  baseTag,
		variants: make(map[K]Variant[K, B], len(variants)),
	}
	for _, v := range variants {
		if v.Tag == baseTag {
			panic(fmt.Sprintf("downcast: variant %q reuses the base tag %v", v.Identity, v.Tag))
		}
		if v.Identity == "" {
			panic(fmt.Sprintf("downcast: variant for tag %v has no identity", v.Tag))
		}
		if v.Cast == nil {
			panic(fmt.Sprintf("downcast: variant %q has no cast", v.Identity))
		}
		if prev, exists := r.variants[v.Tag]; exists {
			panic(fmt.Sprintf("downcast: tag %v registered twice (%q and %q)", v.Tag, prev.Identity, v.Identity))
		}
		r.variants[v.Tag] = v
		r.order = append(r.order, v.Identity)
	}
	return r
}

// Resolve maps b to its most-derived registered identity.
//
// Precondition: a non-nil b carries a tag that was registered with New.
// Tags are assigned by the variants' own constructors, so an unknown tag
// means the invariant was broken somewhere else; Resolve panics rather
// than report it as data.
func (r *Resolver[K, B]) Resolve(b B) Result {
	var zero B
	if b == zero {
		return Result{}
	}
	tag := b.Kind()
	if tag == r.baseTag {
		return Result{Identity: r.base, Value: b}
	}
	v, ok := r.variants[tag]
	if !ok {
		panic(fmt.Sprintf("downcast: %s value carries unregistered tag %v", r.base, tag))
	}
	return Result{Identity: v.Identity, Value: v.Cast(b)}
}

// ResolveAny is the type-erased form of Resolve. Values that are not of
// the base pointer type resolve to the null result.
func (r *Resolver[K, B]) ResolveAny(v any) Result {
	b, ok := v.(B)
	if !ok {
		return Result{}
	}
	return r.Resolve(b)
}

// BaseIdentity returns the identity used for the base tag.
func (r *Resolver[K, B]) BaseIdentity() Identity { return r.base }

// Identities lists the base identity followed by every variant identity
// in registration order.
func (r *Resolver[K, B]) Identities() []Identity {
	ids := make([]Identity, 0, len(r.order)+1)
	ids = append(ids, r.base)
	return append(ids, r.order...)
}

// BaseType returns the Go type of the base pointer.
func (r *Resolver[K, B]) BaseType() reflect.Type {
	return reflect.TypeOf((*B)(nil)).Elem()
}

// Hook is the type-erased view the marshalling layer stores on a class.
type Hook interface {
	ResolveAny(v any) Result
	BaseIdentity() Identity
	Identities() []Identity
	BaseType() reflect.Type
}

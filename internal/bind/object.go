package bind

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"
)

// ObjectType is the cty type of every bound object. The encapsulated
// value is always an *Object.
var ObjectType = cty.Capsule("object", reflect.TypeOf((*Object)(nil)).Elem())

// Object is a Go value exposed to scripts together with the class it was
// exposed as.
type Object struct {
	ID    uuid.UUID
	Class *Class
	Value any

	mu        sync.Mutex
	dict      map[string]cty.Value
	keepAlive []*Object
}

// NewObject wraps value as an instance of class.
func NewObject(class *Class, value any) *Object {
	return &Object{
		ID:    uuid.New(),
		Class: class,
		Value: value,
	}
}

// CtyValue returns the capsule value carrying o.
func (o *Object) CtyValue() cty.Value {
	return cty.CapsuleVal(ObjectType, o)
}

// String implements fmt.Stringer with the default object representation.
func (o *Object) String() string {
	return fmt.Sprintf("<%s object at %s>", o.Class.DisplayName(), o.ID)
}

// DictGet returns a dynamic attribute previously set on o.
func (o *Object) DictGet(name string) (cty.Value, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	v, ok := o.dict[name]
	return v, ok
}

// DictSet stores a dynamic attribute on o.
func (o *Object) DictSet(name string, v cty.Value) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.dict == nil {
		o.dict = make(map[string]cty.Value)
	}
	o.dict[name] = v
}

// DictKeys lists dynamic attribute names in sorted order.
func (o *Object) DictKeys() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	keys := make([]string, 0, len(o.dict))
	for k := range o.dict {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// KeepAlive makes o hold a reference to patient for as long as o is
// reachable.
func (o *Object) KeepAlive(patient *Object) {
	if patient == nil || patient == o {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.keepAlive = append(o.keepAlive, patient)
}

// KeptAlive returns the objects o keeps alive.
func (o *Object) KeptAlive() []*Object {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*Object, len(o.keepAlive))
	copy(out, o.keepAlive)
	return out
}

// ObjectFromValue extracts the *Object from a capsule value. It reports
// false for nulls, unknowns and values of any other type.
func ObjectFromValue(v cty.Value) (*Object, bool) {
	if v.IsNull() || !v.IsKnown() || !v.Type().Equals(ObjectType) {
		return nil, false
	}
	obj, ok := v.EncapsulatedValue().(*Object)
	return obj, ok
}

// MustObject is ObjectFromValue returning ErrNotAnObject on failure.
func MustObject(v cty.Value) (*Object, error) {
	obj, ok := ObjectFromValue(v)
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrNotAnObject, friendlyType(v))
	}
	return obj, nil
}

func friendlyType(v cty.Value) string {
	if v.IsNull() {
		return "null"
	}
	if obj, ok := ObjectFromValue(v); ok {
		return obj.Class.DisplayName()
	}
	return v.Type().FriendlyName()
}

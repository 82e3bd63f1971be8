// Package bind declares how Go types are exposed to HCL scripts.
//
// A Module is a host namespace. Functions bound with Module.Def become
// namespaced HCL functions ("example::add"); classes declared with
// NewClass get a constructor function, methods, attributes, operators,
// pickling support and optionally a trampoline that lets scripts
// override behaviour. Enumerations are declared with NewEnum.
//
// Every bound object crosses the boundary as a single cty capsule type,
// ObjectType, wrapping an *Object that remembers the Go value and the
// class it was exposed as. The Converter decides that class: interfaces
// are resolved through the value's dynamic type, tagged bases through
// their downcast hook, everything else keeps its declared class.
//
// Binding a function never registers it anywhere global. Modules are
// collected by the registry package, which also owns class lookup.
package bind

// Package downcast resolves a base-typed value to its most-derived
// registered variant using an explicit kind tag instead of dynamic type
// information.
//
// Bound Go types that want per-instance overhead kept to a minimum model
// their hierarchy as a closed tagged union: a base struct carries an
// immutable kind field set by an unexported constructor, and every
// variant is registered here with the projection that views the base as
// that variant. The host bridge calls Resolve whenever such a value
// crosses into a script, so the script sees the concrete class.
//
// A Resolver is built once at registration time and is read-only
// afterwards; it can be shared across goroutines without locking.
package downcast

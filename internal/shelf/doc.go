// Package shelf persists pickled objects under string keys.
//
// Two implementations share the same method set. SQLite keeps entries in
// a single table and survives across runs; Memory keeps them in a
// sync.Map for tests and for ":memory:" runs where nothing needs to
// outlive the process.
//
// A shelf stores payloads, not objects: callers pickle before Put and
// unpickle after Get, so the store never needs the class registry.
package shelf

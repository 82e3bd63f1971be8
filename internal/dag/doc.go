// Package dag orders the evaluation of script blocks.
//
// Nodes are identified by strings such as "let.pet". An edge from a to b
// means b depends on a. TopologicalOrder returns the nodes so that every
// node comes after its dependencies, keeping insertion order wherever the
// edges allow it, which makes evaluation order predictable for scripts.
package dag

// Package script compiles query-fragment text into executable units and
// caches them by content fingerprint so identical fragments are compiled
// once per enable cycle.
package script

// Unit is the opaque executable form of a query fragment. Units are only
// meaningful to the engine that produced them.
type Unit any

// Engine is the pluggable scripting backend: compile text into a unit,
// evaluate a unit against a set of bindings.
type Engine interface {
	Compile(src string) (Unit, error)
	Evaluate(unit Unit, bindings map[string]any) (any, error)
}

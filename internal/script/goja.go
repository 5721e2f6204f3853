package script

import (
	"fmt"

	"github.com/dop251/goja"
)

// GojaEngine evaluates query fragments as JavaScript. Compilation
// produces a reusable program; every evaluation runs in a fresh runtime
// so concurrent calls never share interpreter state. Go values bound into
// the runtime are exposed with uncapitalized member names, so the
// traversal handle reads naturally from scripts:
//
//	g.submit("g.V().count()", {})
type GojaEngine struct{}

// NewGojaEngine returns the default scripting backend.
func NewGojaEngine() *GojaEngine { return &GojaEngine{} }

type gojaUnit struct {
	prog *goja.Program
}

// Compile parses src into a reusable program.
func (e *GojaEngine) Compile(src string) (Unit, error) {
	prog, err := goja.Compile("query", src, false)
	if err != nil {
		return nil, fmt.Errorf("script: compile: %w", err)
	}
	return &gojaUnit{prog: prog}, nil
}

// Evaluate runs unit with the given bindings and returns the exported
// result value. Thrown script errors and remote failures raised through
// bound handles surface as evaluation errors.
func (e *GojaEngine) Evaluate(unit Unit, bindings map[string]any) (any, error) {
	gu, ok := unit.(*gojaUnit)
	if !ok {
		return nil, fmt.Errorf("script: unit of type %T was not produced by this engine", unit)
	}

	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())
	for name, value := range bindings {
		if err := vm.Set(name, value); err != nil {
			return nil, fmt.Errorf("script: bind %q: %w", name, err)
		}
	}

	value, err := vm.RunProgram(gu.prog)
	if err != nil {
		return nil, fmt.Errorf("script: evaluate: %w", err)
	}
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil, nil
	}
	return value.Export(), nil
}

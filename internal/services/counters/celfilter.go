package countersvc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
)

// ErrInvalidFilter wraps CEL parse and type-check failures.
var ErrInvalidFilter = errors.New("invalid watch filter")

// celFilter wraps a compiled CEL program. When disabled, Eval always returns true.
type celFilter struct {
	prog    cel.Program
	enabled bool
}

func newCELFilter(expr string) (celFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return celFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("key", cel.StringType),
		cel.Variable("delta", cel.IntType),
		cel.Variable("counters", cel.MapType(cel.StringType, cel.IntType)),
		cel.Variable("persisted", cel.BoolType),
		cel.Variable("revision", cel.IntType),
	)
	if err != nil {
		return celFilter{}, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return celFilter{}, fmt.Errorf("%w: %v", ErrInvalidFilter, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return celFilter{}, fmt.Errorf("%w: expression must be bool, got %s", ErrInvalidFilter, ast.OutputType())
	}
	prog, err := env.Program(ast)
	if err != nil {
		return celFilter{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return celFilter{prog: prog, enabled: true}, nil
}

// Eval evaluates the expression against an event. Evaluation errors count as
// no match.
func (f celFilter) Eval(e Event) bool {
	if !f.enabled {
		return true
	}
	counters := make(map[string]int64, len(e.Counters))
	for k, v := range e.Counters {
		counters[k] = v
	}
	out, _, err := f.prog.Eval(map[string]any{
		"key":       e.Key,
		"delta":     e.Delta,
		"counters":  counters,
		"persisted": e.Persisted,
		"revision":  int64(e.Revision),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

// ValidateFilter compiles expr and reports ErrInvalidFilter problems without
// registering a watcher.
func ValidateFilter(expr string) error {
	_, err := newCELFilter(expr)
	return err
}

package selector

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Expr compiles an expr-lang expression into a Selector.
//
// The parent state is available as the variable state. When the state is a
// map[string]any its keys are also exposed as top-level variables, so
// "todos.items" and "state.todos.items" select the same value. Evaluation
// errors yield nil, matching Key.
//
//	sel, err := selector.Expr("filter(todos, .done)")
func Expr(expression string) (Selector, error) {
	if expression == "" {
		return nil, fmt.Errorf("selector expression must not be empty")
	}

	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", expression, err)
	}

	return func(state any) any {
		return run(program, state)
	}, nil
}

// MustExpr is like Expr but panics if the expression does not compile.
func MustExpr(expression string) Selector {
	sel, err := Expr(expression)
	if err != nil {
		panic(err)
	}
	return sel
}

func run(program *vm.Program, state any) any {
	env := map[string]any{}
	if m, ok := state.(map[string]any); ok {
		for k, v := range m {
			env[k] = v
		}
	}
	env["state"] = state

	out, err := expr.Run(program, env)
	if err != nil {
		return nil
	}
	return out
}

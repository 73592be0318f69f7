package reqflow

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Expr compiles a boolean expression into a Condition. env is called each
// time the condition is evaluated and supplies the live variables; it is
// also called once at compile time to type-check the expression.
//
//	reqflow.Expr("balance >= amount", func() map[string]any {
//	    return map[string]any{"balance": acc.Balance, "amount": req.Amount}
//	})
//
// An expression that fails at evaluation time is false.
func Expr(expression string, env func() map[string]any) (Condition, error) {
	if env == nil {
		env = func() map[string]any { return nil }
	}
	program, err := expr.Compile(expression,
		expr.Env(env()),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile condition %q: %w", expression, err)
	}
	return func() bool {
		return evalBool(program, env())
	}, nil
}

// MustExpr is like Expr but panics on error.
func MustExpr(expression string, env func() map[string]any) Condition {
	cond, err := Expr(expression, env)
	if err != nil {
		panic(err)
	}
	return cond
}

func evalBool(program *vm.Program, env map[string]any) bool {
	out, err := expr.Run(program, env)
	if err != nil {
		return false
	}
	b, ok := out.(bool)
	return ok && b
}

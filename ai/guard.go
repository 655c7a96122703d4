package ai

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// GuardEnv is what a behavior's `when` expression can see. Methods are
// callable from the expression, e.g. `Has("see_enemy") && Health < 0.5`.
type GuardEnv struct {
	Now           float64
	Health        float64 // 0–1
	HasEnemy      bool
	EnemyDistance float64
	Conditions    map[string]bool
	Params        map[string]int
}

func (e GuardEnv) Has(name string) bool { return e.Conditions[name] }

func (e GuardEnv) Param(name string) int { return e.Params[name] }

// Guard is a compiled selection precondition evaluated before a behavior's
// own CanSelectSchedule.
type Guard struct {
	Src     string
	program *vm.Program
}

// CompileGuard compiles src into bytecode once at spawn.
func CompileGuard(src string) (*Guard, error) {
	prog, err := expr.Compile(src, expr.Env(GuardEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile guard %q: %w", src, err)
	}
	return &Guard{Src: src, program: prog}, nil
}

// Allows runs the guard. A nil guard always allows.
func (g *Guard) Allows(env GuardEnv) (bool, error) {
	if g == nil || g.program == nil {
		return true, nil
	}
	out, err := vm.Run(g.program, env)
	if err != nil {
		return false, fmt.Errorf("run guard %q: %w", g.Src, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

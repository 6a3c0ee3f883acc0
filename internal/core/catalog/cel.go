package catalog

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

const celCostLimit = 10000

// newCELEnv declares the two roots visible to expressions: the FNOL in its
// JSON form and the derived facts nested by category.
func newCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("fnol", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("signals", cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}
	return env, nil
}

type celPredicate struct {
	expr    string
	program cel.Program
}

func compileCEL(env *cel.Env, expr string) (*celPredicate, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile: %w", issues.Err())
	}
	out := ast.OutputType()
	if !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("expression must evaluate to bool, got %s", out)
	}
	program, err := env.Program(ast,
		cel.InterruptCheckFrequency(100),
		cel.CostLimit(celCostLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}
	return &celPredicate{expr: expr, program: program}, nil
}

func (p *celPredicate) evaluate(in *Input) (Verdict, error) {
	activation, err := in.celActivation()
	if err != nil {
		return Verdict{}, err
	}
	out, _, err := p.program.Eval(activation)
	if err != nil {
		return Verdict{}, fmt.Errorf("eval: %w", err)
	}
	triggered, ok := out.Value().(bool)
	if !ok {
		return Verdict{}, fmt.Errorf("result is %T, not bool", out.Value())
	}
	return Verdict{Triggered: triggered}, nil
}

func (p *celPredicate) kind() string   { return "expr" }
func (p *celPredicate) source() string { return p.expr }

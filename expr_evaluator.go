package params

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	exprlang "github.com/expr-lang/expr"
	exprparser "github.com/expr-lang/expr/parser"
	exprvm "github.com/expr-lang/expr/vm"
)

const exprEngine = "expr"

// ExprEvaluatorOption configures an expr evaluator instance.
type ExprEvaluatorOption func(*exprEvaluator)

// ExprWithProgramCache shares compiled expr programs through cache.
func ExprWithProgramCache(cache ProgramCache) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		e.cache = cache
	}
}

// ExprWithFunctionRegistry exposes the registry functions by name and
// through call(name, args...).
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		if registry != nil {
			e.registry = registry.Clone()
		}
	}
}

// exprEvaluator runs expr-lang programs. Programs are type checked against
// the environment they run with, so a params key or reserved name always
// shadows an expr builtin of the same name (count, type, now, ...). Unknown
// identifiers evaluate to nil.
type exprEvaluator struct {
	cache     ProgramCache
	registry  *FunctionRegistry
	functions []exprlang.Option
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr.
func NewExprEvaluator(opts ...ExprEvaluatorOption) Evaluator {
	e := &exprEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.registry != nil {
		for _, name := range e.registry.Names() {
			e.functions = append(e.functions, exprlang.Function(name, e.bound(name)))
		}
	}
	return e
}

func (e *exprEvaluator) Evaluate(ctx EvalContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(exprEngine, fmt.Errorf("expression must not be empty"))
	}
	return e.run(ctx, expression)
}

// Compile checks the syntax up front. Type checking waits for evaluation
// because the declared variables depend on the params being evaluated.
func (e *exprEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(exprEngine, fmt.Errorf("expression must not be empty"))
	}
	if _, err := exprparser.Parse(expression); err != nil {
		return nil, wrapEvaluationError(exprEngine, expression, "", err)
	}
	return &exprCompiledRule{evaluator: e, expression: expression}, nil
}

func (e *exprEvaluator) run(ctx EvalContext, expression string) (any, error) {
	env := e.env(ctx.withDefaults())
	program, err := e.program(expression, env)
	if err != nil {
		return nil, wrapEvaluationError(exprEngine, expression, "", err)
	}
	result, err := exprlang.Run(program, env)
	if err != nil {
		return nil, wrapEvaluationError(exprEngine, expression, "", err)
	}
	return result, nil
}

func (e *exprEvaluator) program(expression string, env map[string]any) (*exprvm.Program, error) {
	key := exprEngine + ":" + envSignature(env) + ":" + expression
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := make([]exprlang.Option, 0, len(e.functions)+2)
	options = append(options, exprlang.Env(env), exprlang.AllowUndefinedVariables())
	options = append(options, e.functions...)
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

// env binds every top level param next to the reserved names, which win
// on collision.
func (e *exprEvaluator) env(ctx EvalContext) map[string]any {
	env := make(map[string]any, len(ctx.Params)+len(reservedNames))
	for key, value := range ctx.Params {
		env[key] = value
	}
	env["params"] = ctx.Params
	env["now"] = ctx.timestamp()
	env["args"] = ctx.Args
	env["metadata"] = ctx.Metadata
	if e.registry != nil {
		env["call"] = func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		}
	} else {
		delete(env, "call")
	}
	return env
}

// envSignature lists the variable names and their dynamic types. Programs
// compiled for one signature are valid for any env with the same one.
func envSignature(env map[string]any) string {
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('=')
		if t := reflect.TypeOf(env[name]); t != nil {
			b.WriteString(t.String())
		}
		b.WriteByte(';')
	}
	return b.String()
}

func (e *exprEvaluator) bound(name string) func(...any) (any, error) {
	return func(arguments ...any) (any, error) {
		return e.registry.Call(name, arguments...)
	}
}

type exprCompiledRule struct {
	evaluator  *exprEvaluator
	expression string
}

func (r *exprCompiledRule) Evaluate(ctx EvalContext) (any, error) {
	if r.evaluator == nil {
		return nil, wrapEvaluatorError(exprEngine, fmt.Errorf("compiled rule missing evaluator"))
	}
	return r.evaluator.run(ctx, r.expression)
}

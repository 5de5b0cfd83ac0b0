package params

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func evalStore(opts ...Option) *Store {
	return NewFromRaw(`{"car": {"info": {"age": 3}}, "name": "widget", "enabled": true, "x.y": "dotted"}`, opts...)
}

func TestEvaluateDefaultsToExpr(t *testing.T) {
	store := evalStore()

	cases := []struct {
		expr string
		want any
	}{
		{expr: "car.info.age + 1", want: float64(4)},
		{expr: `name == "widget" && enabled`, want: true},
		{expr: `params["x.y"]`, want: "dotted"},
		{expr: "params.car.info.age", want: float64(3)},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := store.Evaluate(tc.expr)
			mustNoErr(t, err)
			if got != tc.want {
				t.Fatalf("Evaluate(%q) = %#v, want %#v", tc.expr, got, tc.want)
			}
		})
	}
}

func TestEvaluateBindsKeysNamedLikeBuiltins(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewFromRaw(`{"count": 5, "type": "pro", "first": "ann", "plan": "x", "len": null}`)

	cases := []string{
		"count > 2",
		`type == "pro"`,
		`first == "ann"`,
		`plan == "x"`,
		"len == nil",
		"now.Year() == 2024",
	}
	for _, expr := range cases {
		t.Run(expr, func(t *testing.T) {
			got, err := store.EvaluateWith(EvalContext{Now: &at}, expr)
			mustNoErr(t, err)
			if got != true {
				t.Fatalf("Evaluate(%q) = %#v, want true", expr, got)
			}
		})
	}

	got, err := store.Evaluate("now.Year() > 2000")
	mustNoErr(t, err)
	if got != true {
		t.Fatalf("expected now to be bound to a time, got %#v", got)
	}
}

func TestEvaluateWithArgs(t *testing.T) {
	store := evalStore()
	got, err := store.EvaluateWith(EvalContext{Args: map[string]any{"limit": 10}}, "args.limit > car.info.age")
	mustNoErr(t, err)
	if got != true {
		t.Fatalf("expected true, got %#v", got)
	}

	got, err = store.EvaluateWith(EvalContext{Params: map[string]any{"name": "override"}}, "name")
	mustNoErr(t, err)
	if got != "override" {
		t.Fatalf("explicit params should win, got %#v", got)
	}
}

func TestEvaluateReportsErrors(t *testing.T) {
	var events []LogEvent
	store := evalStore(
		WithSource("users/7"),
		WithLogger(LoggerFunc(func(event LogEvent) { events = append(events, event) })),
	)

	_, err := store.Evaluate("car.info.")
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %v", err)
	}
	if evalErr.Engine != "expr" || evalErr.Source != "users/7" || evalErr.Expr != "car.info." {
		t.Fatalf("unexpected metadata %+v", evalErr)
	}
	if len(events) != 1 || events[0].Op != "evaluate" || events[0].Err == nil {
		t.Fatalf("expected a failed evaluate event, got %+v", events)
	}

	if _, err := store.Evaluate(""); err == nil {
		t.Fatalf("expected error for empty expression")
	}
}

func TestEvaluateUsesProgramCache(t *testing.T) {
	cache := NewMemoryProgramCache()
	store := evalStore(WithProgramCache(cache))

	for i := 0; i < 3; i++ {
		if _, err := store.Evaluate("car.info.age * 2"); err != nil {
			t.Fatalf("evaluate: %v", err)
		}
	}
	if cache.Len() != 1 {
		t.Fatalf("expected one cached program, got %d", cache.Len())
	}
}

func TestEvaluateCustomFunctions(t *testing.T) {
	store := evalStore(WithCustomFunction("upper", func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("upper expects one argument")
		}
		return strings.ToUpper(fmt.Sprint(args[0])), nil
	}))

	got, err := store.Evaluate("upper(name)")
	mustNoErr(t, err)
	if got != "WIDGET" {
		t.Fatalf("expected WIDGET, got %#v", got)
	}
}

func TestCELEvaluator(t *testing.T) {
	registry := NewFunctionRegistry()
	mustNoErr(t, registry.Register("upper", func(args ...any) (any, error) {
		return strings.ToUpper(fmt.Sprint(args[0])), nil
	}))
	cache := NewMemoryProgramCache()
	store := evalStore(WithEvaluator(NewCELEvaluator(
		CELWithProgramCache(cache),
		CELWithFunctionRegistry(registry),
	)))

	cases := []struct {
		expr string
		want any
	}{
		{expr: `enabled && name == "widget"`, want: true},
		{expr: `params["x.y"] == "dotted"`, want: true},
		{expr: `call("upper", [name])`, want: "WIDGET"},
		{expr: `has(params.car)`, want: true},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := store.Evaluate(tc.expr)
			mustNoErr(t, err)
			if got != tc.want {
				t.Fatalf("Evaluate(%q) = %#v, want %#v", tc.expr, got, tc.want)
			}
		})
	}

	if _, err := store.Evaluate(`enabled && name == "widget"`); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if cache.Len() != len(cases) {
		t.Fatalf("expected %d cached programs, got %d", len(cases), cache.Len())
	}

	_, err := store.Evaluate("missing_variable == 1")
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || evalErr.Engine != "cel" {
		t.Fatalf("expected cel evaluation error, got %v", err)
	}
}

func TestCELCompiledRule(t *testing.T) {
	rule, err := NewCELEvaluator().Compile(`name.startsWith("wid")`)
	mustNoErr(t, err)
	got, err := rule.Evaluate(EvalContext{Params: map[string]any{"name": "widget"}})
	mustNoErr(t, err)
	if got != true {
		t.Fatalf("expected true, got %#v", got)
	}
}

func TestCELVariablesSkipReservedAndInvalidKeys(t *testing.T) {
	got := celVariables(map[string]any{"ok": 1, "now": 2, "x.y": 3, "_b": 4, "1a": 5})
	if strings.Join(got, ",") != "_b,ok" {
		t.Fatalf("unexpected variables %v", got)
	}
}

func TestExprCompiledRule(t *testing.T) {
	rule, err := NewExprEvaluator().Compile("count > 2")
	mustNoErr(t, err)
	for input, want := range map[int]bool{1: false, 5: true} {
		got, err := rule.Evaluate(EvalContext{Params: map[string]any{"count": input}})
		mustNoErr(t, err)
		if got != want {
			t.Fatalf("count=%d: got %#v", input, got)
		}
	}

	if _, err := NewExprEvaluator().Compile("count >"); err == nil {
		t.Fatalf("expected syntax error at compile time")
	}
}

func TestJSEvaluator(t *testing.T) {
	if !jsEvaluatorAvailable() {
		t.Skip("js evaluator requires the js_eval build tag")
	}
	store := evalStore(WithEvaluator(NewJSEvaluator()))
	got, err := store.Evaluate("car.info.age * 2")
	mustNoErr(t, err)
	if fmt.Sprint(got) != "6" {
		t.Fatalf("expected 6, got %#v", got)
	}
}

func TestFunctionRegistryRules(t *testing.T) {
	registry := NewFunctionRegistry()
	noop := func(...any) (any, error) { return nil, nil }

	if err := registry.Register("call", noop); err == nil {
		t.Fatalf("expected reserved name to be rejected")
	}
	mustNoErr(t, registry.Register("Double", noop))
	if err := registry.Register("double", noop); err == nil {
		t.Fatalf("expected duplicate to be rejected")
	}
	if err := registry.Register("nil", nil); err == nil {
		t.Fatalf("expected nil function to be rejected")
	}
	if _, err := registry.Call("missing"); err == nil {
		t.Fatalf("expected unknown function error")
	}
	if names := registry.Names(); len(names) != 1 || names[0] != "double" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestEvaluatorEngineName(t *testing.T) {
	if evaluatorEngineName(NewExprEvaluator()) != "expr" || evaluatorEngineName(NewCELEvaluator()) != "cel" {
		t.Fatalf("unexpected engine names")
	}
	if evaluatorEngineName(nil) != "unknown" {
		t.Fatalf("nil evaluator should be unknown")
	}
}

package expr

import (
	"testing"

	"github.com/comalice/rfsm/value"
)

// testEnv is a minimal expr.Env backed by a plain map, used to exercise
// the evaluator in isolation from the datamodel package.
type testEnv struct {
	vars    map[string]value.Data
	active  map[string]bool
}

func newTestEnv() *testEnv {
	return &testEnv{vars: make(map[string]value.Data), active: make(map[string]bool)}
}

func (e *testEnv) Get(name string) (value.Data, bool) { v, ok := e.vars[name]; return v, ok }
func (e *testEnv) Set(name string, v value.Data) error {
	if _, ok := e.vars[name]; !ok {
		return errUndefined(name)
	}
	e.vars[name] = v
	return nil
}
func (e *testEnv) Declare(name string, v value.Data) { e.vars[name] = v }
func (e *testEnv) Call(name string, args []value.Data) (value.Data, error) {
	fn, ok := Builtins[name]
	if !ok {
		return value.Null(), errUndefined(name)
	}
	return fn(args)
}
func (e *testEnv) InState(name string) bool { return e.active[name] }

func errUndefined(name string) error { return &undefinedErr{name} }

type undefinedErr struct{ name string }

func (e *undefinedErr) Error() string { return "undefined: " + e.name }

func evalSrc(t *testing.T, env *testEnv, src string) value.Data {
	t.Helper()
	n, err := ParseOne(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	v, err := Eval(n, env)
	if err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
	return v
}

func TestArithmeticPrecedence(t *testing.T) {
	env := newTestEnv()
	v := evalSrc(t, env, "1 + 2 * 3")
	if v.Int() != 7 {
		t.Fatalf("expected 7, got %v", v.Int())
	}
}

func TestDivisionPromotesToDouble(t *testing.T) {
	env := newTestEnv()
	v := evalSrc(t, env, "7 / 2")
	if v.Kind() != value.KindDouble || v.Float() != 3.5 {
		t.Fatalf("expected double 3.5, got %v %v", v.Kind(), v.Float())
	}
}

func TestColonAliasesDivision(t *testing.T) {
	env := newTestEnv()
	v := evalSrc(t, env, "9 : 3")
	if v.Float() != 3 {
		t.Fatalf("expected 3, got %v", v.Float())
	}
}

func TestModuloByZeroErrors(t *testing.T) {
	env := newTestEnv()
	n, err := ParseOne("5 % 0")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Eval(n, env); err == nil {
		t.Fatalf("expected modulo-by-zero error")
	}
}

func TestStringConcatenation(t *testing.T) {
	env := newTestEnv()
	v := evalSrc(t, env, `"foo" + "bar"`)
	if v.Str() != "foobar" {
		t.Fatalf("expected foobar, got %q", v.Str())
	}
}

func TestArrayConcatenation(t *testing.T) {
	env := newTestEnv()
	v := evalSrc(t, env, "[1,2] + [3]")
	if v.Len() != 3 {
		t.Fatalf("expected 3 items, got %d", v.Len())
	}
}

func TestMapLiteralAndMemberAccess(t *testing.T) {
	env := newTestEnv()
	v := evalSrc(t, env, `{"a": 1, "b": 2}.b`)
	if v.Int() != 2 {
		t.Fatalf("expected 2, got %v", v.Int())
	}
}

func TestMapMergeRightOverwrites(t *testing.T) {
	env := newTestEnv()
	v := evalSrc(t, env, `{"a": 1} + {"a": 2, "b": 3}`)
	if v.Fields()["a"].Int() != 2 || v.Fields()["b"].Int() != 3 {
		t.Fatalf("unexpected merge result: %+v", v.Fields())
	}
}

func TestDeclareThenAssign(t *testing.T) {
	env := newTestEnv()
	evalSrc(t, env, "x ?= 1")
	v := evalSrc(t, env, "x = x + 41")
	if v.Int() != 42 {
		t.Fatalf("expected 42, got %v", v.Int())
	}
}

func TestInBuiltinQueriesConfiguration(t *testing.T) {
	env := newTestEnv()
	env.active["running"] = true
	v := evalSrc(t, env, `In("running")`)
	if !v.Bool() {
		t.Fatalf("expected In(running) to be true")
	}
	v2 := evalSrc(t, env, `In("stopped")`)
	if v2.Bool() {
		t.Fatalf("expected In(stopped) to be false")
	}
}

func TestBuiltinAbsLengthIsDefinedIndexOf(t *testing.T) {
	env := newTestEnv()
	if evalSrc(t, env, "abs(-5)").Int() != 5 {
		t.Fatalf("abs(-5) != 5")
	}
	if evalSrc(t, env, `length([1,2,3])`).Int() != 3 {
		t.Fatalf("length([1,2,3]) != 3")
	}
	if !evalSrc(t, env, "isDefined(1)").Bool() {
		t.Fatalf("isDefined(1) should be true")
	}
	if evalSrc(t, env, "isDefined(null)").Bool() {
		t.Fatalf("isDefined(null) should be false")
	}
	if evalSrc(t, env, `indexOf([1,2,3], 2)`).Int() != 1 {
		t.Fatalf("indexOf([1,2,3], 2) != 1")
	}
}

// TestAggregationLaws exercises the associativity/identity properties
// of numeric addition and the array/map aggregation laws of
// SPEC_FULL.md §8.
func TestAggregationLaws(t *testing.T) {
	env := newTestEnv()
	left := evalSrc(t, env, "(1 + 2) + 3")
	right := evalSrc(t, env, "1 + (2 + 3)")
	if left.Int() != right.Int() {
		t.Fatalf("addition not associative: %v vs %v", left.Int(), right.Int())
	}
	identity := evalSrc(t, env, "5 + 0")
	if identity.Int() != 5 {
		t.Fatalf("0 is not an additive identity: %v", identity.Int())
	}
	if !evalSrc(t, env, "['a'] + ['b'] + 'c' == ['a','b'] + ['c']").Bool() {
		t.Fatalf("array aggregation law does not hold")
	}
	if !evalSrc(t, env, "{'b':'abc'} + {'a':123} == {'a':123,'b':'abc'}").Bool() {
		t.Fatalf("map merge law does not hold")
	}
	if !evalSrc(t, env, "{'a':1} == {'a':2} + {'a':1}").Bool() {
		t.Fatalf("map merge right-overwrite law does not hold")
	}
}

func TestComparisonAndEquality(t *testing.T) {
	env := newTestEnv()
	if !evalSrc(t, env, "1 < 2").Bool() {
		t.Fatalf("1 < 2 should be true")
	}
	if !evalSrc(t, env, `"abc" < "abd"`).Bool() {
		t.Fatalf("lexicographic compare failed")
	}
	// Equal is kind-strict: Integer(1) and Double(1.0) are different kinds.
	if evalSrc(t, env, "1 == 1.0").Bool() {
		t.Fatalf("expected Integer(1) != Double(1.0) under kind-strict equality")
	}
}

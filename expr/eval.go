package expr

import (
	"fmt"
	"strings"

	"github.com/comalice/rfsm/value"
)

// Env is the evaluation environment an expression runs against: a
// variable store plus a small builtin/action registry. datamodel.Expression
// implements this directly over its value.DataStore.
type Env interface {
	Get(name string) (value.Data, bool)
	Set(name string, v value.Data) error
	Declare(name string, v value.Data)
	// Call invokes a registered builtin or user action by name.
	Call(name string, args []value.Data) (value.Data, error)
	// InState reports whether name is in the active configuration, for
	// the predefined In(...) builtin.
	InState(name string) bool
}

// Eval evaluates a single parsed expression node against env.
func Eval(n *node, env Env) (value.Data, error) {
	if n == nil {
		return value.Null(), nil
	}
	switch n.kind {
	case nLiteral:
		return n.lit, nil
	case nIdent:
		if n.name == "In" {
			return value.Null(), fmt.Errorf("expr: In requires a call")
		}
		v, ok := env.Get(n.name)
		if !ok {
			return value.Null(), fmt.Errorf("expr: undefined identifier %q", n.name)
		}
		return v, nil
	case nUnaryNot:
		v, err := Eval(n.left, env)
		if err != nil {
			return value.Null(), err
		}
		return value.Boolean(!v.Bool()), nil
	case nArray:
		items := make([]value.Data, 0, len(n.args))
		for _, a := range n.args {
			v, err := Eval(a, env)
			if err != nil {
				return value.Null(), err
			}
			items = append(items, v)
		}
		return value.Array(items), nil
	case nMapLit:
		fields := make(map[string]value.Data, len(n.mapKeys))
		for i := range n.mapKeys {
			k, err := Eval(n.mapKeys[i], env)
			if err != nil {
				return value.Null(), err
			}
			v, err := Eval(n.mapVals[i], env)
			if err != nil {
				return value.Null(), err
			}
			fields[k.Str()] = v
		}
		return value.Map(fields), nil
	case nIndex:
		base, err := Eval(n.left, env)
		if err != nil {
			return value.Null(), err
		}
		idx, err := Eval(n.right, env)
		if err != nil {
			return value.Null(), err
		}
		return indexInto(base, idx)
	case nMember:
		base, err := Eval(n.left, env)
		if err != nil {
			return value.Null(), err
		}
		if base.Kind() == value.KindMap {
			if v, ok := base.Fields()[n.name]; ok {
				return v, nil
			}
			return value.Null(), nil
		}
		return value.Null(), fmt.Errorf("expr: %q has no member %q", base.Kind(), n.name)
	case nCall:
		return evalCall(n, env)
	case nAssign:
		v, err := Eval(n.right, env)
		if err != nil {
			return value.Null(), err
		}
		loc, err := locationName(n.left)
		if err != nil {
			return value.Null(), err
		}
		if err := env.Set(loc, v); err != nil {
			return value.Null(), err
		}
		return v, nil
	case nDeclare:
		v, err := Eval(n.right, env)
		if err != nil {
			return value.Null(), err
		}
		loc, err := locationName(n.left)
		if err != nil {
			return value.Null(), err
		}
		env.Declare(loc, v)
		return v, nil
	case nBinary:
		return evalBinary(n, env)
	}
	return value.Null(), fmt.Errorf("expr: unhandled node kind")
}

// EvalList evaluates an expression-list, returning the value of the
// last expression (matching typical scripting "last statement wins"
// semantics used for <script> bodies).
func EvalList(nodes []*node, env Env) (value.Data, error) {
	var last value.Data
	for _, n := range nodes {
		v, err := Eval(n, env)
		if err != nil {
			return value.Null(), err
		}
		last = v
	}
	return last, nil
}

func locationName(n *node) (string, error) {
	if n.kind != nIdent {
		return "", fmt.Errorf("expr: assignment target must be an identifier")
	}
	return n.name, nil
}

func indexInto(base, idx value.Data) (value.Data, error) {
	switch base.Kind() {
	case value.KindArray:
		i := int(idx.Int())
		items := base.Items()
		if i < 0 || i >= len(items) {
			return value.Null(), nil
		}
		return items[i], nil
	case value.KindMap:
		if v, ok := base.Fields()[idx.Str()]; ok {
			return v, nil
		}
		return value.Null(), nil
	case value.KindString:
		s := base.Str()
		i := int(idx.Int())
		if i < 0 || i >= len(s) {
			return value.Null(), nil
		}
		return value.String(string(s[i])), nil
	default:
		return value.Null(), fmt.Errorf("expr: cannot index %q", base.Kind())
	}
}

func evalCall(n *node, env Env) (value.Data, error) {
	if n.name == "In" {
		if len(n.args) != 1 {
			return value.Null(), fmt.Errorf("expr: In() takes exactly one argument")
		}
		v, err := Eval(n.args[0], env)
		if err != nil {
			return value.Null(), err
		}
		return value.Boolean(env.InState(v.Str())), nil
	}
	args := make([]value.Data, 0, len(n.args))
	for _, a := range n.args {
		v, err := Eval(a, env)
		if err != nil {
			return value.Null(), err
		}
		args = append(args, v)
	}
	return env.Call(n.name, args)
}

func evalBinary(n *node, env Env) (value.Data, error) {
	l, err := Eval(n.left, env)
	if err != nil {
		return value.Null(), err
	}
	r, err := Eval(n.right, env)
	if err != nil {
		return value.Null(), err
	}
	switch n.op {
	case tokEqEq:
		return value.Boolean(value.Equal(l, r)), nil
	case tokNotEq:
		return value.Boolean(!value.Equal(l, r)), nil
	case tokAnd:
		return value.Boolean(l.Bool() && r.Bool()), nil
	case tokOr:
		return value.Boolean(l.Bool() || r.Bool()), nil
	case tokLt, tokLe, tokGt, tokGe:
		return compareOrdered(n.op, l, r)
	case tokPlus:
		return addValues(l, r)
	case tokMinus:
		return numeric(l, r, func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })
	case tokStar:
		return numeric(l, r, func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })
	case tokSlash, tokColon:
		if r.Float() == 0 {
			return value.Null(), fmt.Errorf("expr: division by zero")
		}
		return value.Double(l.Float() / r.Float()), nil
	case tokPercent:
		rb := r.Int()
		if rb == 0 {
			return value.Null(), fmt.Errorf("expr: modulo by zero")
		}
		return value.Integer(l.Int() % rb), nil
	}
	return value.Null(), fmt.Errorf("expr: unsupported operator")
}

func compareOrdered(op tokenKind, l, r value.Data) (value.Data, error) {
	if l.Kind() == value.KindString && r.Kind() == value.KindString {
		a, b := l.Str(), r.Str()
		switch op {
		case tokLt:
			return value.Boolean(a < b), nil
		case tokLe:
			return value.Boolean(a <= b), nil
		case tokGt:
			return value.Boolean(a > b), nil
		case tokGe:
			return value.Boolean(a >= b), nil
		}
	}
	if !isNumeric(l) || !isNumeric(r) {
		return value.Boolean(false), nil
	}
	a, b := l.Float(), r.Float()
	switch op {
	case tokLt:
		return value.Boolean(a < b), nil
	case tokLe:
		return value.Boolean(a <= b), nil
	case tokGt:
		return value.Boolean(a > b), nil
	case tokGe:
		return value.Boolean(a >= b), nil
	}
	return value.Boolean(false), nil
}

func isNumeric(d value.Data) bool {
	return d.Kind() == value.KindInteger || d.Kind() == value.KindDouble
}

func addValues(l, r value.Data) (value.Data, error) {
	switch {
	case l.Kind() == value.KindArray || r.Kind() == value.KindArray:
		var items []value.Data
		if l.Kind() == value.KindArray {
			items = append(items, l.Items()...)
		} else {
			items = append(items, l)
		}
		if r.Kind() == value.KindArray {
			items = append(items, r.Items()...)
		} else {
			items = append(items, r)
		}
		return value.Array(items), nil
	case l.Kind() == value.KindMap || r.Kind() == value.KindMap:
		merged := make(map[string]value.Data)
		if l.Kind() == value.KindMap {
			for k, v := range l.Fields() {
				merged[k] = v
			}
		}
		if r.Kind() == value.KindMap {
			for k, v := range r.Fields() {
				merged[k] = v
			}
		}
		return value.Map(merged), nil
	case l.Kind() == value.KindString || r.Kind() == value.KindString:
		var b strings.Builder
		b.WriteString(l.Str())
		b.WriteString(r.Str())
		return value.String(b.String()), nil
	default:
		return numeric(l, r, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })
	}
}

func numeric(l, r value.Data, iop func(a, b int64) int64, fop func(a, b float64) float64) (value.Data, error) {
	if l.Kind() == value.KindDouble || r.Kind() == value.KindDouble {
		return value.Double(fop(l.Float(), r.Float())), nil
	}
	return value.Integer(iop(l.Int(), r.Int())), nil
}

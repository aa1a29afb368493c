package expr

import (
	"fmt"

	"github.com/comalice/rfsm/value"
)

// AssignTo stores val into the L-value location described by n,
// supporting a bare identifier, a member path ("foo.bar"), or an
// index path ("foo[0]"). Member/index targets rewrite the base
// binding as a new Map/Array with the path updated, then write the
// whole binding back through env.Set, since value.Data is immutable.
func AssignTo(n *node, val value.Data, env Env) error {
	switch n.kind {
	case nIdent:
		return env.Set(n.name, val)
	case nMember:
		base, err := Eval(n.left, env)
		if err != nil {
			return err
		}
		updated := setMember(base, n.name, val)
		return AssignTo(n.left, updated, env)
	case nIndex:
		base, err := Eval(n.left, env)
		if err != nil {
			return err
		}
		idx, err := Eval(n.right, env)
		if err != nil {
			return err
		}
		updated, err := setIndex(base, idx, val)
		if err != nil {
			return err
		}
		return AssignTo(n.left, updated, env)
	default:
		return fmt.Errorf("expr: unsupported assignment location")
	}
}

func setMember(base value.Data, name string, val value.Data) value.Data {
	fields := map[string]value.Data{}
	if base.Kind() == value.KindMap {
		for k, v := range base.Fields() {
			fields[k] = v
		}
	}
	fields[name] = val
	return value.Map(fields)
}

func setIndex(base, idx, val value.Data) (value.Data, error) {
	switch base.Kind() {
	case value.KindArray, value.KindNull:
		items := append([]value.Data{}, base.Items()...)
		i := int(idx.Int())
		if i < 0 {
			return value.Null(), fmt.Errorf("expr: negative array index")
		}
		for len(items) <= i {
			items = append(items, value.Null())
		}
		items[i] = val
		return value.Array(items), nil
	case value.KindMap:
		return setMember(base, idx.Str(), val), nil
	default:
		return value.Null(), fmt.Errorf("expr: cannot index-assign into %q", base.Kind())
	}
}

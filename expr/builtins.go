package expr

import (
	"fmt"

	"github.com/comalice/rfsm/value"
)

// BuiltinFunc is the signature for a predefined action callable from
// expression source, e.g. abs(x) or length(x).
type BuiltinFunc func(args []value.Data) (value.Data, error)

// Builtins is the predefined action table of SPEC_FULL.md §4.5: abs,
// length, isDefined, indexOf. "In" is handled specially by the
// evaluator since it needs access to the configuration, not just args.
var Builtins = map[string]BuiltinFunc{
	"abs": func(args []value.Data) (value.Data, error) {
		if len(args) != 1 {
			return value.Null(), fmt.Errorf("expr: abs() takes one argument")
		}
		v := args[0]
		if v.Kind() == value.KindDouble {
			f := v.Float()
			if f < 0 {
				f = -f
			}
			return value.Double(f), nil
		}
		i := v.Int()
		if i < 0 {
			i = -i
		}
		return value.Integer(i), nil
	},
	"length": func(args []value.Data) (value.Data, error) {
		if len(args) != 1 {
			return value.Null(), fmt.Errorf("expr: length() takes one argument")
		}
		return value.Integer(int64(args[0].Len())), nil
	},
	"isDefined": func(args []value.Data) (value.Data, error) {
		if len(args) != 1 {
			return value.Null(), fmt.Errorf("expr: isDefined() takes one argument")
		}
		return value.Boolean(!args[0].IsNull()), nil
	},
	"indexOf": func(args []value.Data) (value.Data, error) {
		if len(args) != 2 {
			return value.Null(), fmt.Errorf("expr: indexOf() takes two arguments")
		}
		arr := args[0]
		if arr.Kind() != value.KindArray {
			return value.Integer(-1), nil
		}
		for i, item := range arr.Items() {
			if value.Equal(item, args[1]) {
				return value.Integer(int64(i)), nil
			}
		}
		return value.Integer(-1), nil
	},
}

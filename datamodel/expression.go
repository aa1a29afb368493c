package datamodel

import (
	"fmt"

	"github.com/comalice/rfsm/expr"
	"github.com/comalice/rfsm/value"
)

// Expression is the datamodel backed by the in-repo expr package. It
// generalizes the donor's ExpressionGuardEvaluator (a three-token
// "key op value" evaluator against a primitives.Context) into the full
// grammar of SPEC_FULL.md §4.5, keeping the same shape: a variable
// store plus an evaluator driven by an external Context.
type Expression struct {
	sid      string
	store    *value.DataStore
	config   ConfigurationView
	ioprocs  map[string]IOProcessorInfo
	logFn    LogFunc
}

func NewExpression(sessionID string, logFn LogFunc) *Expression {
	return &Expression{sid: sessionID, store: value.NewDataStore(), logFn: logFn}
}

func (e *Expression) GetName() string { return "rfsm-expression" }

func (e *Expression) Initialize(decls map[string]string) error {
	for name, src := range decls {
		if src == "" {
			e.store.Declare(name, value.Null())
			continue
		}
		v, err := e.Eval(src)
		if err != nil {
			return fmt.Errorf("datamodel: initializing %q: %w", name, err)
		}
		e.store.Declare(name, v)
	}
	return nil
}

func (e *Expression) Get(name string) (value.Data, bool) { return e.store.Get(name) }
func (e *Expression) Set(name string, v value.Data) error { return e.store.Set(name, v) }
func (e *Expression) Declare(name string, v value.Data)    { e.store.Declare(name, v) }

func (e *Expression) Assign(location string, val value.Data) error {
	n, err := expr.ParseOne(location)
	if err != nil {
		return fmt.Errorf("datamodel: bad assignment location %q: %w", location, err)
	}
	return expr.AssignTo(n, val, e)
}

func (e *Expression) Execute(script string) error {
	nodes, err := expr.Parse(script)
	if err != nil {
		return fmt.Errorf("datamodel: script parse error: %w", err)
	}
	_, err = expr.EvalList(nodes, e)
	return err
}

func (e *Expression) EvaluateCondition(exprSrc string) (bool, error) {
	v, err := e.Eval(exprSrc)
	if err != nil {
		return false, err
	}
	if v.Kind() != value.KindBoolean {
		return false, fmt.Errorf("datamodel: condition %q did not evaluate to a boolean", exprSrc)
	}
	return v.Bool(), nil
}

func (e *Expression) Eval(exprSrc string) (value.Data, error) {
	if exprSrc == "" {
		return value.Null(), nil
	}
	n, err := expr.ParseOne(exprSrc)
	if err != nil {
		return value.Null(), fmt.Errorf("datamodel: parse error: %w", err)
	}
	return expr.Eval(n, e)
}

func (e *Expression) ExecuteForEach(arrayExpr, itemVar, indexVar string, body func() error) error {
	arr, err := e.Eval(arrayExpr)
	if err != nil {
		return err
	}
	if arr.Kind() != value.KindArray {
		return fmt.Errorf("datamodel: foreach array expression %q is not an array", arrayExpr)
	}
	for i, item := range arr.Items() {
		e.store.Assign(itemVar, item)
		if indexVar != "" {
			e.store.Assign(indexVar, value.Integer(int64(i)))
		}
		if err := body(); err != nil {
			return err
		}
	}
	return nil
}

func (e *Expression) SetEvent(name string, eventType string, data value.Data) {
	e.store.Assign("_event", value.Map(map[string]value.Data{
		"name": value.String(name),
		"type": value.String(eventType),
		"data": data,
	}))
}

func (e *Expression) InitializeReadOnly(name string, v value.Data) {
	e.store.Declare(name, v.WithReadOnly())
}

func (e *Expression) IOProcessors() map[string]IOProcessorInfo { return e.ioprocs }
func (e *Expression) SetIOProcessors(m map[string]IOProcessorInfo) {
	e.ioprocs = m
	fields := make(map[string]value.Data, len(m))
	for name, info := range m {
		fields[name] = value.Map(map[string]value.Data{"location": value.String(info.Location)})
	}
	e.store.Declare("_ioprocessors", value.Map(fields).WithReadOnly())
}

func (e *Expression) SetConfiguration(c ConfigurationView) { e.config = c }

func (e *Expression) Log(message string) {
	if e.logFn != nil {
		e.logFn(e.sid, message)
	}
}

// Env implementation (satisfies expr.Env) so the evaluator can run
// directly against this datamodel's store and configuration.

func (e *Expression) Call(name string, args []value.Data) (value.Data, error) {
	if fn, ok := expr.Builtins[name]; ok {
		return fn(args)
	}
	return value.Null(), fmt.Errorf("datamodel: unregistered action %q", name)
}

func (e *Expression) InState(name string) bool {
	if e.config == nil {
		return false
	}
	return e.config.IsActive(name)
}

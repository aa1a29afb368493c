package datamodel

import (
	"fmt"

	"github.com/comalice/rfsm/value"
)

// Null is the dummy datamodel: it accepts only literal 'true'/'false'
// string conditions (an empty condition counts as true), stores no
// data, and runs no scripts. It matches
// the W3C "null datamodel" profile used by minimal conformance tests.
type Null struct {
	logFn LogFunc
	sid   string
}

func NewNull(sessionID string, logFn LogFunc) *Null {
	return &Null{sid: sessionID, logFn: logFn}
}

func (n *Null) GetName() string { return "null" }

func (n *Null) Initialize(decls map[string]string) error {
	if len(decls) > 0 {
		return fmt.Errorf("datamodel: null datamodel does not support <data>")
	}
	return nil
}

func (n *Null) Get(name string) (value.Data, bool)        { return value.Null(), false }
func (n *Null) Set(name string, v value.Data) error        { return fmt.Errorf("datamodel: null datamodel has no writable locations") }
func (n *Null) Declare(name string, v value.Data)           {}
func (n *Null) Assign(location string, val value.Data) error {
	return fmt.Errorf("datamodel: null datamodel does not support <assign>")
}
func (n *Null) Execute(script string) error { return fmt.Errorf("datamodel: null datamodel does not support <script>") }

func (n *Null) EvaluateCondition(expr string) (bool, error) {
	switch expr {
	case "", "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("datamodel: null datamodel only accepts literal true/false conditions, got %q", expr)
	}
}

func (n *Null) Eval(expr string) (value.Data, error) {
	switch expr {
	case "true":
		return value.Boolean(true), nil
	case "false":
		return value.Boolean(false), nil
	case "":
		return value.Null(), nil
	default:
		return value.Null(), fmt.Errorf("datamodel: null datamodel cannot evaluate %q", expr)
	}
}

func (n *Null) ExecuteForEach(arrayExpr, itemVar, indexVar string, body func() error) error {
	return fmt.Errorf("datamodel: null datamodel does not support <foreach>")
}

func (n *Null) SetEvent(name string, eventType string, data value.Data) {}
func (n *Null) InitializeReadOnly(name string, v value.Data)            {}

func (n *Null) IOProcessors() map[string]IOProcessorInfo          { return nil }
func (n *Null) SetIOProcessors(map[string]IOProcessorInfo)        {}
func (n *Null) SetConfiguration(ConfigurationView)                {}

func (n *Null) Log(message string) {
	if n.logFn != nil {
		n.logFn(n.sid, message)
	}
}

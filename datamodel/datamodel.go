// Package datamodel implements the pluggable datamodel capability
// surface of SPEC_FULL.md §4.4: the interface the interpreter drives to
// execute scripts, evaluate conditions, assign locations, iterate
// arrays, and publish system variables, plus the Null and
// expression-backed implementations. A third, ECMAScript-backed
// implementation is an external collaborator and is intentionally not
// registered here (see Registry).
package datamodel

import "github.com/comalice/rfsm/value"

// ConfigurationView is the narrow read-only view of the active
// configuration the datamodel needs for the In(...) predicate.
// interp.Configuration implements this directly.
type ConfigurationView interface {
	IsActive(stateName string) bool
}

// IOProcessorInfo is the minimal description of an event-I/O processor
// exposed to scripts through _ioprocessors.
type IOProcessorInfo struct {
	Location string
}

// Datamodel is the capability surface of SPEC_FULL.md §4.4.
type Datamodel interface {
	GetName() string

	// Initialize loads <data> declarations: name -> initializer
	// expression source (possibly empty, meaning null).
	Initialize(decls map[string]string) error

	Get(name string) (value.Data, bool)
	Set(name string, v value.Data) error
	Declare(name string, v value.Data)

	// Assign evaluates an L-value location expression and stores val
	// into it, supporting container-member assignment like
	// "foo.bar" or "foo[0]", not just bare identifiers.
	Assign(location string, val value.Data) error

	// Execute runs a <script> body for side effects.
	Execute(script string) error

	// EvaluateCondition evaluates expr and coerces to boolean; a
	// non-boolean result or evaluation error both surface as an error
	// so the interpreter can convert them to error.execution.
	EvaluateCondition(expr string) (bool, error)

	// Eval evaluates an arbitrary expr and returns its Data result,
	// used for <assign expr>, <param expr>, <send idlocation>, etc.
	Eval(expr string) (value.Data, error)

	// ExecuteForEach iterates arrayExpr, binding itemVar (and
	// indexVar, if non-empty) and invoking body once per item.
	ExecuteForEach(arrayExpr, itemVar, indexVar string, body func() error) error

	SetEvent(name string, eventType string, data value.Data)
	InitializeReadOnly(name string, v value.Data)

	IOProcessors() map[string]IOProcessorInfo
	SetIOProcessors(map[string]IOProcessorInfo)

	SetConfiguration(ConfigurationView)

	Log(message string)
}

// LogFunc receives datamodel.Log calls; sessions wire this to their
// tracer/zerolog logger.
type LogFunc func(sessionID, message string)

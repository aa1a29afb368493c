// Package trace defines the Tracer observation-hook surface used by
// session workers and the interpreter loop. The default build is a
// zero-dependency no-op (trace_noop.go); building with the
// "rfsm_trace" tag swaps in a zerolog + Prometheus + OpenTelemetry
// backed implementation (trace_full.go), matching SPEC_FULL.md §2's
// "compile-time gateable" Tracer design note and the donor's own
// build-tag-gated tracer idiom.
package trace

import "github.com/comalice/rfsm/model"

// Tracer receives best-effort observation callbacks. Implementations
// must not block the interpreter loop for any meaningful duration.
type Tracer interface {
	Macrostep(sessionID string)
	Microstep(sessionID string, transitions int)
	StateEntered(sessionID string, state *model.State)
	StateExited(sessionID string, state *model.State)
	EventObserved(sessionID, eventName string)
	InvokeStarted(sessionID string, invokeID string)
	InvokeCancelled(sessionID string, invokeID string)
	SessionStarted(sessionID string)
	SessionStopped(sessionID string)
	Errorf(sessionID, format string, args ...interface{})
}

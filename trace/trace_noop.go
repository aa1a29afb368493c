//go:build !rfsm_trace

package trace

import "github.com/comalice/rfsm/model"

// noop is the default Tracer: every hook is a zero-cost no-op so a
// plain `go build` of this module carries no tracing dependency.
type noop struct{}

// New returns the default Tracer for this build. With the rfsm_trace
// build tag, this same constructor name resolves to the zerolog /
// Prometheus / OpenTelemetry backed Tracer in trace_full.go instead.
func New(sessionComponent string) Tracer { return noop{} }

func (noop) Macrostep(string)                           {}
func (noop) Microstep(string, int)                      {}
func (noop) StateEntered(string, *model.State)          {}
func (noop) StateExited(string, *model.State)           {}
func (noop) EventObserved(string, string)               {}
func (noop) InvokeStarted(string, string)                {}
func (noop) InvokeCancelled(string, string)              {}
func (noop) SessionStarted(string)                       {}
func (noop) SessionStopped(string)                       {}
func (noop) Errorf(string, string, ...interface{})       {}

// Package session implements the per-session worker: one goroutine
// running the macrostep loop of interp.Interpreter, cooperating with
// sibling sessions exclusively through event queues and the shared,
// read-mostly I/O-processor registry, per SPEC_FULL.md §4.6/§5.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/comalice/rfsm/datamodel"
	"github.com/comalice/rfsm/event"
	"github.com/comalice/rfsm/interp"
	"github.com/comalice/rfsm/ioprocessor"
	"github.com/comalice/rfsm/model"
	"github.com/comalice/rfsm/trace"
	"github.com/comalice/rfsm/value"
	"github.com/google/uuid"
)

// Environment is the narrow capability a Session needs from its
// owning executor: routing sends to other sessions, resolving I/O
// processors, and managing child sessions started by <invoke>. The
// executor package implements this; session never imports executor,
// avoiding an import cycle.
type Environment interface {
	SendToSession(sessionID string, ev event.Event) error
	ResolveProcessor(location string) (ioprocessor.Processor, bool)
	StartInvokedSession(parentID string, parentState model.StateId, spec *model.InvokeSpec) (invokeID string, err error)
	CancelInvokedSession(invokeID string) error
	SendToInvoke(invokeID string, ev event.Event) error
}

// Option configures a Session at construction, mirroring the donor's
// functional-options pattern (internal/core/options.go).
type Option func(*Session)

func WithExternalQueueCapacity(n int) Option {
	return func(s *Session) { s.queueCap = n }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Session) { s.tracer = t }
}

func WithCallerBackchannel(callerID, invokeID string) Option {
	return func(s *Session) {
		s.callerSessionID = callerID
		s.callerInvokeID = invokeID
	}
}

// Session is a runnable FSM instance.
type Session struct {
	ID  string
	fsm *model.FSM
	dm  datamodel.Datamodel
	ip  *interp.Interpreter

	env      Environment
	external *event.ExternalQueue
	wheel    *event.DelayWheel
	queueCap int
	tracer   trace.Tracer

	callerSessionID string
	callerInvokeID  string

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	stopOnce sync.Once

	activeInvokes map[string]activeInvoke // invokeID -> owning state + spec
}

// activeInvoke tracks a running <invoke>'s owning state and the spec
// that started it, so incoming events can be matched against its
// AutoForward/Finalize behavior.
type activeInvoke struct {
	state model.StateId
	spec  *model.InvokeSpec
}

// New constructs a Session around fsm, resolving its datamodel by
// name from dmRegistry.
func New(id string, fsm *model.FSM, dmRegistry *datamodel.Registry, env Environment, opts ...Option) (*Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	s := &Session{
		ID:            id,
		fsm:           fsm,
		env:           env,
		queueCap:      256,
		tracer:        trace.New("session"),
		stopCh:        make(chan struct{}),
		activeInvokes: make(map[string]activeInvoke),
	}
	for _, opt := range opts {
		opt(s)
	}
	dm, err := dmRegistry.New(fsm.Datamodel, id, s.logFromDatamodel)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	s.dm = dm
	s.external = event.NewExternalQueue(s.queueCap)
	s.wheel = event.NewDelayWheel(func(ev event.Event) { s.external.TrySend(ev) })

	dm.InitializeReadOnly("_sessionid", value.String(id))
	dm.InitializeReadOnly("_name", value.String(fsm.Name))
	dm.SetIOProcessors(map[string]datamodel.IOProcessorInfo{})

	s.ip = interp.New(fsm, dm, interp.Hooks{
		Send:         s.handleSend,
		CancelSend:   s.handleCancelSend,
		StartInvoke:  s.handleStartInvoke,
		CancelInvoke: s.handleCancelInvoke,
		Log:          func(msg string) { s.tracer.EventObserved(s.ID, "log: "+msg) },
	})
	return s, nil
}

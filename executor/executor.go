// Package executor implements FsmExecutor, the multi-session owner of
// SPEC_FULL.md §4.6: the live-session registry, the event-I/O-processor
// registry, and datamodel-constructor options. It implements
// session.Environment so sessions can route sends and invokes without
// importing this package back (session -> executor would otherwise be
// a cycle).
package executor

import (
	"fmt"
	"sync"

	"github.com/comalice/rfsm/datamodel"
	"github.com/comalice/rfsm/event"
	"github.com/comalice/rfsm/ioprocessor"
	"github.com/comalice/rfsm/model"
	"github.com/comalice/rfsm/session"
	"github.com/comalice/rfsm/trace"
	"github.com/google/uuid"
)

// Option configures an Executor at construction, mirroring the
// donor's functional-options pattern (internal/core/options.go).
type Option func(*Executor)

func WithTracer(t trace.Tracer) Option { return func(e *Executor) { e.tracer = t } }

func WithDatamodelFactory(name string, f datamodel.Factory) Option {
	return func(e *Executor) { e.dmRegistry.Register(name, f) }
}

func WithIOProcessor(p ioprocessor.Processor) Option {
	return func(e *Executor) { e.ioRegistry.Register(p) }
}

// Executor owns every live session created through Execute, the
// shared I/O-processor registry, and the datamodel registry used to
// construct each session's datamodel.
type Executor struct {
	mu         sync.RWMutex
	sessions   map[string]*session.Session
	invokes    map[string]invokeRecord // invokeID -> child session + caller
	dmRegistry *datamodel.Registry
	ioRegistry *ioprocessor.Registry
	invokable  map[string]*model.FSM
	tracer     trace.Tracer
}

type invokeRecord struct {
	childSessionID string
}

func New(opts ...Option) *Executor {
	e := &Executor{
		sessions:   make(map[string]*session.Session),
		invokes:    make(map[string]invokeRecord),
		dmRegistry: datamodel.NewRegistry(),
		ioRegistry: ioprocessor.NewRegistry(),
		tracer:     trace.New("executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.ioRegistry.Register(ioprocessor.NewSCXMLProcessor(e))
	return e
}

// Execute loads fsm into a new session and starts it, returning its
// SessionId.
func (e *Executor) Execute(fsm *model.FSM, opts ...session.Option) (string, error) {
	sess, err := session.New("", fsm, e.dmRegistry, e, opts...)
	if err != nil {
		return "", err
	}
	e.mu.Lock()
	e.sessions[sess.ID] = sess
	e.mu.Unlock()
	if err := sess.Start(); err != nil {
		e.removeSession(sess.ID)
		return "", err
	}
	return sess.ID, nil
}

// SendToSession implements both the public API and session.Environment.
func (e *Executor) SendToSession(sessionID string, ev event.Event) error {
	e.mu.RLock()
	sess, ok := e.sessions[sessionID]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("executor: unknown session %q", sessionID)
	}
	return sess.Send(ev)
}

// GetSessionSender returns a bound send function for bulk producers.
func (e *Executor) GetSessionSender(sessionID string) (func(event.Event) error, error) {
	e.mu.RLock()
	sess, ok := e.sessions[sessionID]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("executor: unknown session %q", sessionID)
	}
	return sess.Send, nil
}

// SessionActive reports whether sessionID still has a live session.
// A session that ran to completion (or was explicitly removed)
// reports false; harness.Run polls this to detect scenario
// completion.
func (e *Executor) SessionActive(sessionID string) bool {
	e.mu.RLock()
	sess, ok := e.sessions[sessionID]
	e.mu.RUnlock()
	return ok && !sess.Done()
}

func (e *Executor) RemoveSession(sessionID string) {
	e.removeSession(sessionID)
}

func (e *Executor) removeSession(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sess, ok := e.sessions[sessionID]; ok {
		sess.Stop()
		delete(e.sessions, sessionID)
	}
}

// Shutdown cancels every live session and tears down I/O processors.
func (e *Executor) Shutdown() {
	e.mu.Lock()
	ids := make([]string, 0, len(e.sessions))
	for id := range e.sessions {
		ids = append(ids, id)
	}
	e.mu.Unlock()
	for _, id := range ids {
		e.removeSession(id)
	}
	e.ioRegistry.CloseAll()
}

func (e *Executor) ResolveProcessor(location string) (ioprocessor.Processor, bool) {
	return e.ioRegistry.Get(location)
}

// StartInvokedSession loads the FSM named by spec.Src (resolved by the
// embedder's own registry, not a file reader this core does not own)
// and wires it as a child of parentID. Since the SCXML reader is an
// external collaborator, this repo expects embedders to pre-register
// invokable FSMs by name via RegisterInvokable; spec.Src is looked up
// there.
func (e *Executor) StartInvokedSession(parentID string, parentState model.StateId, spec *model.InvokeSpec) (string, error) {
	e.mu.RLock()
	fsm, ok := e.invokable[spec.Src]
	e.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("executor: no invokable fsm registered for src %q", spec.Src)
	}
	invokeID := uuid.NewString()
	child, err := session.New("", fsm, e.dmRegistry, e, session.WithCallerBackchannel(parentID, invokeID))
	if err != nil {
		return "", err
	}
	e.mu.Lock()
	e.sessions[child.ID] = child
	e.invokes[invokeID] = invokeRecord{childSessionID: child.ID}
	e.mu.Unlock()
	if err := child.Start(); err != nil {
		e.removeSession(child.ID)
		return "", err
	}
	return invokeID, nil
}

// SendToInvoke delivers ev to the child session started for invokeID,
// used for <invoke autoforward="true">.
func (e *Executor) SendToInvoke(invokeID string, ev event.Event) error {
	e.mu.RLock()
	rec, ok := e.invokes[invokeID]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("executor: unknown invoke %q", invokeID)
	}
	return e.SendToSession(rec.childSessionID, ev)
}

func (e *Executor) CancelInvokedSession(invokeID string) error {
	e.mu.Lock()
	rec, ok := e.invokes[invokeID]
	delete(e.invokes, invokeID)
	e.mu.Unlock()
	if !ok {
		return nil
	}
	e.removeSession(rec.childSessionID)
	return nil
}

// RegisterInvokable makes fsm available as an <invoke src="name">
// target under the given name.
func (e *Executor) RegisterInvokable(name string, fsm *model.FSM) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.invokable == nil {
		e.invokable = make(map[string]*model.FSM)
	}
	e.invokable[name] = fsm
}

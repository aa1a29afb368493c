package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/comalice/rfsm/event"
	"github.com/comalice/rfsm/model"
)

// Start runs the interpreter's initial entry, then launches the
// worker goroutine that drains the external queue, mirroring the
// donor's Machine.Start/interpret split (internal/core/machine.go)
// but with the blocking pull made explicit rather than hidden in a
// select loop shared with a done channel only.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	if err := s.ip.Start(); err != nil {
		return fmt.Errorf("session %s: start: %w", s.ID, err)
	}
	s.tracer.SessionStarted(s.ID)
	if s.ip.Done() {
		s.deliverDoneToCaller()
		return nil
	}
	go s.run()
	return nil
}

func (s *Session) run() {
	for {
		select {
		case <-s.stopCh:
			s.tracer.SessionStopped(s.ID)
			return
		case ev, ok := <-s.external.Chan():
			if !ok {
				return
			}
			s.tracer.EventObserved(s.ID, ev.Name)
			if ev.Name == "platform.cancel" {
				s.Stop()
				return
			}
			s.forwardToInvokes(ev)
			if err := s.ip.Step(ev); err != nil {
				s.tracer.Errorf(s.ID, "step error: %v", err)
				continue
			}
			s.tracer.Macrostep(s.ID)
			if s.ip.Done() {
				s.deliverDoneToCaller()
				s.Stop()
				return
			}
		}
	}
}

// forwardToInvokes implements the macrostep's invoke-dispatch step: an
// event carrying the invoke-id of one of this session's active invokes
// runs that invoke's <finalize> block against the event; every other
// event is forwarded verbatim to every active invoke whose spec has
// autoforward set.
func (s *Session) forwardToInvokes(ev event.Event) {
	if ev.InvokeId != "" {
		if rec, ok := s.activeInvokes[ev.InvokeId]; ok && rec.spec.Finalize != model.NoContent {
			if err := s.ip.RunContent(ev, rec.spec.Finalize); err != nil {
				s.tracer.Errorf(s.ID, "finalize error: %v", err)
			}
		}
		return
	}
	for invokeID, rec := range s.activeInvokes {
		if !rec.spec.AutoForward {
			continue
		}
		if err := s.env.SendToInvoke(invokeID, ev); err != nil {
			s.tracer.Errorf(s.ID, "autoforward to invoke %s: %v", invokeID, err)
		}
	}
}

// Done reports whether the interpreter has reached a top-level final
// state and the session has finished running.
func (s *Session) Done() bool { return s.ip.Done() }

// Send enqueues ev on this session's external queue, non-blocking.
func (s *Session) Send(ev event.Event) error {
	if !s.external.TrySend(ev) {
		return fmt.Errorf("session %s: event queue full", s.ID)
	}
	return nil
}

// Stop idempotently shuts the session down.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.wheel.Close()
		s.ip.ResetHistory()
		close(s.stopCh)
	})
}

func (s *Session) deliverDoneToCaller() {
	if s.callerSessionID == "" {
		return
	}
	ev := event.New("done.invoke."+s.callerInvokeID, event.External, s.ip.DoneData())
	ev.InvokeId = s.callerInvokeID
	_ = s.env.SendToSession(s.callerSessionID, ev)
}

func (s *Session) logFromDatamodel(sessionID, message string) {
	s.tracer.EventObserved(sessionID, "log: "+message)
}

// Hook implementations driving interp.Hooks.

func (s *Session) handleSend(ev event.Event, targetExpr, typeExpr, delayExpr, sendId string) error {
	target, err := s.resolveExpr(targetExpr)
	if err != nil {
		return err
	}
	if sendId == "" {
		sendId = uuid.NewString()
	}
	ev.SendId = sendId
	ev.Origin = "scxml:" + s.ID
	ev.OriginType = "http://www.w3.org/TR/scxml/#SCXMLEventProcessor"

	delay, err := parseDelay(delayExpr)
	if err != nil {
		return err
	}

	deliver := func() error {
		if target == "" || target == s.ID {
			s.ip.RaiseFromOutside(ev)
			return nil
		}
		location, rest := splitLocation(target)
		proc, ok := s.env.ResolveProcessor(location)
		if !ok {
			return fmt.Errorf("session %s: no io processor for target %q", s.ID, target)
		}
		return proc.Send(rest, ev)
	}

	if delay > 0 {
		s.wheel.Schedule(sendId, ev, delay)
		return nil
	}
	return deliver()
}

func (s *Session) handleCancelSend(sendId string) error {
	s.wheel.Cancel(sendId)
	return nil
}

func (s *Session) handleStartInvoke(stateId model.StateId, spec *model.InvokeSpec) (err error) {
	invokeID, err := s.env.StartInvokedSession(s.ID, stateId, spec)
	if err != nil {
		return err
	}
	s.activeInvokes[invokeID] = activeInvoke{state: stateId, spec: spec}
	s.tracer.InvokeStarted(s.ID, invokeID)
	return nil
}

func (s *Session) handleCancelInvoke(stateId model.StateId, spec *model.InvokeSpec) error {
	for invokeID, rec := range s.activeInvokes {
		if rec.state == stateId {
			delete(s.activeInvokes, invokeID)
			s.tracer.InvokeCancelled(s.ID, invokeID)
			return s.env.CancelInvokedSession(invokeID)
		}
	}
	return nil
}

func (s *Session) resolveExpr(expr string) (string, error) {
	if expr == "" {
		return "", nil
	}
	if expr[0] == '#' {
		// SCXML shorthand "#_sessionid" style target; strip the marker
		// and treat the remainder as a bare session id on the scxml
		// processor.
		return "scxml:" + expr[1:], nil
	}
	return expr, nil
}

func splitLocation(target string) (location, rest string) {
	for i := 0; i < len(target); i++ {
		if target[i] == ':' {
			return target[:i], target[i+1:]
		}
	}
	return "scxml", target
}

func parseDelay(expr string) (time.Duration, error) {
	if expr == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(expr)
	if err != nil {
		return 0, fmt.Errorf("session: bad delay %q: %w", expr, err)
	}
	return d, nil
}

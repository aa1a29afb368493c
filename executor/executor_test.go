package executor

import (
	"testing"
	"time"

	"github.com/comalice/rfsm/event"
	"github.com/comalice/rfsm/model"
	"github.com/comalice/rfsm/value"
)

func progressionFSM(t *testing.T) *model.FSM {
	t.Helper()
	b := model.NewBuilder("progression")
	b.State("root.s1", model.Final)
	b.State("root.s0", model.Atomic).On("go", "", []string{"root.s1"})
	b.State("root", model.Compound).Initial("root.s0")
	fsm, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return fsm
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestExecuteStartsAndTracksSession(t *testing.T) {
	e := New()
	defer e.Shutdown()

	id, err := e.Execute(progressionFSM(t))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !e.SessionActive(id) {
		t.Fatalf("expected the new session to be active")
	}
}

func TestSessionActiveFalseAfterCompletion(t *testing.T) {
	e := New()
	defer e.Shutdown()

	id, err := e.Execute(progressionFSM(t))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	sender, err := e.GetSessionSender(id)
	if err != nil {
		t.Fatalf("get sender: %v", err)
	}
	if err := sender(eventGo()); err != nil {
		t.Fatalf("send go: %v", err)
	}
	waitUntil(t, time.Second, func() bool { return !e.SessionActive(id) })
}

func TestSendToSessionUnknownIdErrors(t *testing.T) {
	e := New()
	defer e.Shutdown()
	if err := e.SendToSession("does-not-exist", eventGo()); err == nil {
		t.Fatalf("expected an error sending to an unknown session")
	}
}

func TestStartInvokedSessionRequiresRegisteredFSM(t *testing.T) {
	e := New()
	defer e.Shutdown()
	_, err := e.StartInvokedSession("parent", 0, &model.InvokeSpec{Src: "unregistered"})
	if err == nil {
		t.Fatalf("expected an error for an unregistered invoke target")
	}
}

func TestRegisterInvokableMakesItStartable(t *testing.T) {
	e := New()
	defer e.Shutdown()
	e.RegisterInvokable("child", progressionFSM(t))

	invokeID, err := e.StartInvokedSession("parent-session", 0, &model.InvokeSpec{Src: "child"})
	if err != nil {
		t.Fatalf("start invoked session: %v", err)
	}
	if invokeID == "" {
		t.Fatalf("expected a non-empty invoke id")
	}
	if err := e.CancelInvokedSession(invokeID); err != nil {
		t.Fatalf("cancel invoked session: %v", err)
	}
}

func TestShutdownRemovesAllSessions(t *testing.T) {
	e := New()
	id1, _ := e.Execute(progressionFSM(t))
	id2, _ := e.Execute(progressionFSM(t))
	e.Shutdown()
	if e.SessionActive(id1) || e.SessionActive(id2) {
		t.Fatalf("expected no sessions to remain active after shutdown")
	}
}

func eventGo() event.Event {
	return event.New("go", event.External, value.Null())
}

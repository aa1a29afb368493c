package ioprocessor

import (
	"errors"

	"github.com/comalice/rfsm/event"
)

// ErrNotFound mirrors the donor's internal/core/registry.go sentinel
// (ErrNotFound), reused here for live-session lookups instead of
// snapshot-version lookups since cross-restart persistence is a
// non-goal.
var ErrNotFound = errors.New("ioprocessor: session not found")

// SessionSender is the narrow capability the scxml processor needs
// from the executor: deliver an event to a live session by id. The
// executor implements this directly.
type SessionSender interface {
	SendToSession(sessionID string, ev event.Event) error
}

// SCXMLProcessor is the default, in-memory, same-executor processor
// required for invoke/done-event propagation between sessions that
// share one FsmExecutor. Grounded on the donor's registry.go
// lookup-by-id shape, repurposed from versioned snapshots to live
// sessions.
type SCXMLProcessor struct {
	sender SessionSender
}

func NewSCXMLProcessor(sender SessionSender) *SCXMLProcessor {
	return &SCXMLProcessor{sender: sender}
}

func (p *SCXMLProcessor) Location() string    { return "scxml" }
func (p *SCXMLProcessor) TypeURIs() []string  { return []string{"http://www.w3.org/TR/scxml/#SCXMLEventProcessor"} }
func (p *SCXMLProcessor) Close() error        { return nil }

func (p *SCXMLProcessor) Send(target string, ev event.Event) error {
	if target == "" {
		return ErrNotFound
	}
	return p.sender.SendToSession(target, ev)
}

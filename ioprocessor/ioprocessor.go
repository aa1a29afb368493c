// Package ioprocessor implements the event-I/O-processor abstraction
// of SPEC_FULL.md §4.6: a location URI and a set of type URIs that a
// <send target="..."> can address, plus two concrete processors (an
// in-memory scxml processor and a NATS-backed processor for
// cross-process delivery). The BasicHTTP processor is an explicit
// non-goal of SPEC_FULL.md §1 and is not implemented here.
package ioprocessor

import "github.com/comalice/rfsm/event"

// Processor is an event-I/O processor: something a <send target="...">
// can address.
type Processor interface {
	// Location is the URI prefix this processor answers to, e.g.
	// "scxml" or "nats".
	Location() string
	// TypeURIs lists the SCXML "type" values this processor accepts.
	TypeURIs() []string
	// Send delivers ev to target (the portion of the send target after
	// this processor's location prefix, e.g. a SessionId or a NATS
	// subject).
	Send(target string, ev event.Event) error
	Close() error
}

// Registry is the map from location prefix to Processor that an
// executor consults to resolve <send> targets. It has no lock of its
// own, and its contents are not published to a session's
// _ioprocessors.
type Registry struct {
	byLocation map[string]Processor
}

func NewRegistry() *Registry { return &Registry{byLocation: make(map[string]Processor)} }

func (r *Registry) Register(p Processor) { r.byLocation[p.Location()] = p }

func (r *Registry) Get(location string) (Processor, bool) {
	p, ok := r.byLocation[location]
	return p, ok
}

func (r *Registry) All() map[string]Processor { return r.byLocation }

func (r *Registry) CloseAll() {
	for _, p := range r.byLocation {
		_ = p.Close()
	}
}

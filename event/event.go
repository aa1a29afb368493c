// Package event implements the Event value, the two-level queue
// discipline (strict-FIFO internal, blocking multi-producer external),
// and a delayed-send timer wheel keyed by send-id.
package event

import "github.com/comalice/rfsm/value"

type Class int

const (
	Platform Class = iota
	Internal
	External
)

// Event is the extended event record of SPEC_FULL.md §3.1. Treat the
// exported fields as immutable by convention once an Event has been
// queued, mirroring the donor's own primitives.Event doc comment.
type Event struct {
	Name       string
	Class      Class
	SendId     string
	Origin     string
	OriginType string
	InvokeId   string
	Data       value.Data
	Language   string
	// Raw carries an unparsed wire payload; populated only by an
	// external transport processor that has one (see DESIGN.md's
	// _event.raw decision). Always empty for the in-process processors
	// this repo ships.
	Raw string
}

func New(name string, class Class, data value.Data) Event {
	return Event{Name: name, Class: class, Data: data}
}

const (
	ErrExecution     = "error.execution"
	ErrCommunication = "error.communication"
	ErrPlatform      = "error.platform"
)

// PlatformError builds a platform error event of the given kind,
// carrying the underlying error's message as the event data.
func PlatformError(kind, message string) Event {
	return Event{
		Name:  kind,
		Class: Platform,
		Data:  value.Map(map[string]value.Data{"message": value.String(message)}),
	}
}

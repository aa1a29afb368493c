package ioprocessor

import (
	"encoding/json"
	"fmt"

	"github.com/comalice/rfsm/event"
	"github.com/comalice/rfsm/value"
	"github.com/nats-io/nats.go"
)

// NATSProcessor bridges sessions across OS processes, the delivery
// mechanism the BasicHTTP processor this spec excludes would
// otherwise have to provide. Grounded on quadgatefoundation-fluxor's
// pkg/bus use of github.com/nats-io/nats.go for publish/subscribe.
type NATSProcessor struct {
	conn *nats.Conn
	subj string
}

// wireEvent is the JSON envelope published/consumed over NATS; only
// the fields with well-defined payloads travel on the wire, matching
// DESIGN.md's "_event.raw" decision for this processor.
type wireEvent struct {
	Name       string `json:"name"`
	SendId     string `json:"send_id,omitempty"`
	Origin     string `json:"origin,omitempty"`
	OriginType string `json:"origin_type,omitempty"`
	InvokeId   string `json:"invoke_id,omitempty"`
	DataJSON   string `json:"data,omitempty"`
}

func NewNATSProcessor(conn *nats.Conn, subjectPrefix string) *NATSProcessor {
	return &NATSProcessor{conn: conn, subj: subjectPrefix}
}

func (p *NATSProcessor) Location() string   { return "nats" }
func (p *NATSProcessor) TypeURIs() []string { return []string{"x-rfsm-nats"} }
func (p *NATSProcessor) Close() error       { return nil }

func (p *NATSProcessor) Send(target string, ev event.Event) error {
	w := wireEvent{
		Name:       ev.Name,
		SendId:     ev.SendId,
		Origin:     ev.Origin,
		OriginType: ev.OriginType,
		InvokeId:   ev.InvokeId,
		DataJSON:   ev.Data.Str(),
	}
	payload, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("ioprocessor: marshal nats event: %w", err)
	}
	return p.conn.Publish(p.subj+"."+target, payload)
}

// Subscribe wires incoming NATS messages on this processor's subject
// prefix into deliver, used by an executor to accept events from other
// processes.
func (p *NATSProcessor) Subscribe(deliver func(target string, ev event.Event)) (*nats.Subscription, error) {
	return p.conn.Subscribe(p.subj+".*", func(msg *nats.Msg) {
		var w wireEvent
		if err := json.Unmarshal(msg.Data, &w); err != nil {
			return
		}
		ev := event.Event{
			Name:       w.Name,
			Class:      event.External,
			SendId:     w.SendId,
			Origin:     w.Origin,
			OriginType: w.OriginType,
			InvokeId:   w.InvokeId,
			Data:       value.String(w.DataJSON),
		}
		deliver(msg.Subject, ev)
	})
}

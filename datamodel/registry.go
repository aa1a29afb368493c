package datamodel

import "fmt"

// Factory builds a fresh Datamodel instance for a session.
type Factory func(sessionID string, logFn LogFunc) Datamodel

// Registry maps a model.FSM's Datamodel name to a Factory. The
// "ecmascript" name is deliberately never registered here: it names an
// external scripting engine collaborator (SPEC_FULL.md §1), not a part
// of this core.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("null", func(sid string, logFn LogFunc) Datamodel { return NewNull(sid, logFn) })
	r.Register("rfsm-expression", func(sid string, logFn LogFunc) Datamodel { return NewExpression(sid, logFn) })
	return r
}

func (r *Registry) Register(name string, f Factory) { r.factories[name] = f }

func (r *Registry) New(name, sessionID string, logFn LogFunc) (Datamodel, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("datamodel: unknown datamodel %q (external collaborators like ecmascript are never registered)", name)
	}
	return f(sessionID, logFn), nil
}

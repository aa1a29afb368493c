// Package interp implements the W3C SCXML interpretation algorithm
// over a model.FSM: configuration tracking, LCCA/entry/exit set
// computation, transition selection and conflict resolution,
// microstep and macrostep execution, history, and parallel-region
// completion.
package interp

import "github.com/comalice/rfsm/model"

// Configuration is the current set of active states. It is owned
// exclusively by one session's worker.
type Configuration struct {
	fsm     *model.FSM
	active  map[model.StateId]struct{}
	nameIdx map[string]model.StateId
}

func NewConfiguration(fsm *model.FSM) *Configuration {
	idx := make(map[string]model.StateId, len(fsm.States))
	for i := range fsm.States {
		idx[fsm.States[i].Name] = fsm.States[i].Id
	}
	return &Configuration{fsm: fsm, active: make(map[model.StateId]struct{}), nameIdx: idx}
}

func (c *Configuration) Add(id model.StateId)    { c.active[id] = struct{}{} }
func (c *Configuration) Remove(id model.StateId) { delete(c.active, id) }
func (c *Configuration) Has(id model.StateId) bool {
	_, ok := c.active[id]
	return ok
}

// IsActive implements datamodel.ConfigurationView.
func (c *Configuration) IsActive(stateName string) bool {
	id, ok := c.nameIdx[stateName]
	if !ok {
		return false
	}
	return c.Has(id)
}

// Atomic returns the active atomic (Atomic or Final) states, in
// document order.
func (c *Configuration) Atomic() []model.StateId {
	var out []model.StateId
	for id := range c.active {
		s := c.fsm.State(id)
		if s.Type == model.Atomic || s.Type == model.Final {
			out = append(out, id)
		}
	}
	sortByDocOrder(c.fsm, out)
	return out
}

// All returns every active state id, in document order.
func (c *Configuration) All() []model.StateId {
	out := make([]model.StateId, 0, len(c.active))
	for id := range c.active {
		out = append(out, id)
	}
	sortByDocOrder(c.fsm, out)
	return out
}

func sortByDocOrder(fsm *model.FSM, ids []model.StateId) {
	for i := 1; i < len(ids); i++ {
		j := i
		for j > 0 && fsm.State(ids[j-1]).DocOrder > fsm.State(ids[j]).DocOrder {
			ids[j-1], ids[j] = ids[j], ids[j-1]
			j--
		}
	}
}

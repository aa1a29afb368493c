package interp

import "github.com/comalice/rfsm/model"

// EvalCond is supplied by the owning session so selection can consult
// the datamodel without this package depending on it directly.
type EvalCond func(expr string) (bool, error)

// selectTransitions implements W3C selectTransitions: for each atomic
// state in the configuration, in document order, walk its ancestor
// chain and take the first transition whose event descriptor matches
// eventName (or, for eventless selection, whose descriptor is empty)
// and whose condition evaluates true. Matches removeConflictingTransitions
// afterward.
func selectTransitions(fsm *model.FSM, config *Configuration, eventName string, eventless bool, evalCond EvalCond) ([]model.TransitionId, error) {
	var selected []model.TransitionId
	for _, atomicId := range config.Atomic() {
		chain := fsm.Ancestors(atomicId)
		for _, stateId := range chain {
			s := fsm.State(stateId)
			found := model.TransitionId(-1)
			for _, tid := range s.Transitions {
				t := fsm.Transition(tid)
				if eventless {
					if !t.Events.IsEventless() {
						continue
					}
				} else {
					if t.Events.IsEventless() || !t.Events.Match(eventName) {
						continue
					}
				}
				ok := true
				if t.Cond != "" {
					var err error
					ok, err = evalCond(t.Cond)
					if err != nil {
						ok = false
					}
				}
				if ok {
					found = tid
					break
				}
			}
			if found != -1 {
				selected = append(selected, found)
				break
			}
		}
	}
	return removeConflicting(fsm, config, selected), nil
}

// removeConflicting implements W3C removeConflictingTransitions:
// transitions whose exit sets intersect conflict; the one whose source
// is a descendant of the other's source wins, else document order
// wins.
func removeConflicting(fsm *model.FSM, config *Configuration, candidates []model.TransitionId) []model.TransitionId {
	var filtered []model.TransitionId
	for _, t1 := range candidates {
		preempted := false
		exit1 := exitSetOf(fsm, config, t1)
		for _, t2 := range filtered {
			exit2 := exitSetOf(fsm, config, t2)
			if !intersects(exit1, exit2) {
				continue
			}
			if isDescendantSource(fsm, t1, t2) {
				filtered = removeId(filtered, t2)
				continue
			}
			preempted = true
			break
		}
		if !preempted {
			filtered = append(filtered, t1)
		}
	}
	return filtered
}

func exitSetOf(fsm *model.FSM, config *Configuration, tid model.TransitionId) []model.StateId {
	t := fsm.Transition(tid)
	domain := transitionDomain(fsm, t)
	return computeExitSet(fsm, config, domain)
}

func transitionDomain(fsm *model.FSM, t *model.Transition) model.StateId {
	if t.Kind == model.Internal && len(t.Targets) > 0 {
		return t.Source
	}
	return findLCCA(fsm, t.Source, t.Targets)
}

func intersects(a, b []model.StateId) bool {
	set := make(map[model.StateId]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

func isDescendantSource(fsm *model.FSM, t1, t2 model.TransitionId) bool {
	s1 := fsm.Transition(t1).Source
	s2 := fsm.Transition(t2).Source
	return fsm.IsDescendant(s1, s2)
}

func removeId(ids []model.TransitionId, target model.TransitionId) []model.TransitionId {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

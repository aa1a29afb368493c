package interp

import "github.com/comalice/rfsm/model"

// addDescendantStatesToEnter expands target into the full set of
// states that must be entered to reach a stable configuration,
// following W3C's addDescendantStatesToEnter/addAncestorStatesToEnter
// procedures: Compound states pull in their initial child (or history
// restoration), Parallel states pull in every child, recursively.
func addDescendantStatesToEnter(fsm *model.FSM, hist *HistoryTable, target model.StateId, out *[]model.StateId, seen map[model.StateId]bool) {
	if seen[target] {
		return
	}
	s := fsm.State(target)
	if s.IsHistory() {
		seen[target] = true
		resolveHistory(fsm, hist, s, out, seen)
		return
	}
	seen[target] = true
	*out = append(*out, target)
	switch s.Type {
	case model.Compound:
		addDescendantStatesToEnter(fsm, hist, s.Initial, out, seen)
	case model.Parallel:
		for _, child := range s.Children {
			addDescendantStatesToEnter(fsm, hist, child, out, seen)
		}
	}
}

func resolveHistory(fsm *model.FSM, hist *HistoryTable, historyState *model.State, out *[]model.StateId, seen map[model.StateId]bool) {
	if historyState.Type == model.HistoryDeep {
		if ids, ok := hist.RestoreDeep(historyState.Id); ok {
			for _, id := range ids {
				addAncestorChainAndSelf(fsm, hist, id, historyState.Parent, out, seen)
			}
			return
		}
	} else {
		if id, ok := hist.RestoreShallow(historyState.Id); ok {
			addDescendantStatesToEnter(fsm, hist, id, out, seen)
			return
		}
	}
	def := historyState.HistoryDefault
	if def == model.NoState {
		def = historyState.Parent
	}
	addDescendantStatesToEnter(fsm, hist, def, out, seen)
}

// addAncestorChainAndSelf enters every ancestor of leaf down to (but
// not including) stopAt, then the leaf itself, used to restore a deep
// history recording without re-resolving initials.
func addAncestorChainAndSelf(fsm *model.FSM, hist *HistoryTable, leaf, stopAt model.StateId, out *[]model.StateId, seen map[model.StateId]bool) {
	chain := fsm.Ancestors(leaf)
	for i := len(chain) - 1; i >= 0; i-- {
		id := chain[i]
		if id == stopAt {
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		*out = append(*out, id)
		if id == leaf {
			return
		}
	}
}

// computeEntrySet builds the full, order-correct list of states to
// enter for a set of transition targets: ancestors from the LCCA down
// (exclusive of the LCCA, which is already active for external
// transitions with a non-root domain) plus the expanded descendant
// closure of each target.
func computeEntrySet(fsm *model.FSM, hist *HistoryTable, domain model.StateId, targets []model.StateId) []model.StateId {
	var out []model.StateId
	seen := make(map[model.StateId]bool)
	for _, t := range targets {
		chain := fsm.Ancestors(t)
		var toAdd []model.StateId
		for _, id := range chain[1:] {
			if id == domain {
				break
			}
			toAdd = append(toAdd, id)
		}
		for i := len(toAdd) - 1; i >= 0; i-- {
			id := toAdd[i]
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
		addDescendantStatesToEnter(fsm, hist, t, &out, seen)
	}
	return out
}

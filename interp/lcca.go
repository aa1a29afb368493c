package interp

import "github.com/comalice/rfsm/model"

// findLCCA returns the least common compound ancestor of source and
// every state in targets: the nearest proper ancestor of source that
// is Compound or is the root and that is a proper ancestor of every
// target; the root is returned when no such ancestor exists. Adapted from the donor's computeLCCA
// (internal/core/interpreter.go), which walks dot-separated string
// paths; here the same common-prefix walk runs over integer ancestor
// chains instead.
func findLCCA(fsm *model.FSM, source model.StateId, targets []model.StateId) model.StateId {
	if len(targets) == 0 {
		return source
	}
	// fsm.Ancestors is self-inclusive; getProperAncestors(head, null)
	// excludes head, so source itself is never a valid domain here.
	ancestorsOf := fsm.Ancestors(source)
	isCompoundAncestor := func(id model.StateId) bool {
		s := fsm.State(id)
		return s.Type == model.Compound || s.Id == fsm.Root
	}
	for _, anc := range ancestorsOf {
		if anc == source {
			continue
		}
		if !isCompoundAncestor(anc) {
			continue
		}
		if isProperOrSelfAncestor(fsm, anc, source) {
			allDescend := true
			for _, t := range targets {
				if !fsm.IsDescendant(t, anc) {
					allDescend = false
					break
				}
			}
			if allDescend {
				return anc
			}
		}
	}
	return fsm.Root
}

func isProperOrSelfAncestor(fsm *model.FSM, anc, of model.StateId) bool {
	return fsm.IsDescendant(of, anc) || of == anc
}

// computeExitSet returns the states that must be exited for a
// transition leaving the given domain (the LCCA for external
// transitions, or the source itself for internal transitions),
// ordered innermost-first (reverse document depth) for onexit
// execution, given the current configuration.
func computeExitSet(fsm *model.FSM, config *Configuration, domain model.StateId) []model.StateId {
	var out []model.StateId
	for id := range config.active {
		if id == domain {
			continue
		}
		if fsm.IsDescendant(id, domain) {
			out = append(out, id)
		}
	}
	// Deepest (highest doc-depth proxy: just use ancestor-chain length)
	// first.
	sortByDepthDesc(fsm, out)
	return out
}

func depth(fsm *model.FSM, id model.StateId) int {
	d := 0
	cur := fsm.State(id).Parent
	for cur != model.NoState {
		d++
		cur = fsm.State(cur).Parent
	}
	return d
}

func sortByDepthDesc(fsm *model.FSM, ids []model.StateId) {
	for i := 1; i < len(ids); i++ {
		j := i
		for j > 0 && depth(fsm, ids[j-1]) < depth(fsm, ids[j]) {
			ids[j-1], ids[j] = ids[j], ids[j-1]
			j--
		}
	}
}

// atomicDescendantsOf returns the atomic (or final) descendants of id
// that are currently active, used to record deep history.
func atomicDescendantsOf(fsm *model.FSM, config *Configuration, id model.StateId) []model.StateId {
	var out []model.StateId
	for active := range config.active {
		s := fsm.State(active)
		if (s.Type == model.Atomic || s.Type == model.Final) && fsm.IsDescendant(active, id) {
			out = append(out, active)
		}
	}
	sortByDocOrder(fsm, out)
	return out
}

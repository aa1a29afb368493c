package interp

import (
	"sync"

	"github.com/comalice/rfsm/model"
)

// HistoryTable records, for each history pseudo-state, the
// configuration to restore on re-entry. The donor's own
// historymanager.go admits its deep-history recording is a stub
// ("Simplified: treat activeChild as single leaf for stub"); this
// table fixes that by recording the *full* active atomic-descendant
// set for deep history, not a single leaf.
type HistoryTable struct {
	mu      sync.Mutex
	shallow map[model.StateId]model.StateId   // historyId -> last active immediate child
	deep    map[model.StateId][]model.StateId // historyId -> last active atomic descendants
}

func NewHistoryTable() *HistoryTable {
	return &HistoryTable{
		shallow: make(map[model.StateId]model.StateId),
		deep:    make(map[model.StateId][]model.StateId),
	}
}

// RecordShallow stores child as the last active immediate child of the
// region owning the shallow-history pseudo-state historyId.
func (h *HistoryTable) RecordShallow(historyId, child model.StateId) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shallow[historyId] = child
}

// RecordDeep stores the full set of active atomic descendants of the
// region owning the deep-history pseudo-state historyId.
func (h *HistoryTable) RecordDeep(historyId model.StateId, atomicDescendants []model.StateId) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cp := append([]model.StateId(nil), atomicDescendants...)
	h.deep[historyId] = cp
}

func (h *HistoryTable) RestoreShallow(historyId model.StateId) (model.StateId, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id, ok := h.shallow[historyId]
	return id, ok
}

func (h *HistoryTable) RestoreDeep(historyId model.StateId) ([]model.StateId, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids, ok := h.deep[historyId]
	return ids, ok
}

func (h *HistoryTable) Clear(historyId model.StateId) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.shallow, historyId)
	delete(h.deep, historyId)
}

package interp

import (
	"testing"

	"github.com/comalice/rfsm/datamodel"
	"github.com/comalice/rfsm/event"
	"github.com/comalice/rfsm/model"
	"github.com/comalice/rfsm/value"
)

func nullDM() *datamodel.Null   { return datamodel.NewNull("test", nil) }
func nullData() value.Data      { return value.Null() }

// TestMinimalProgression is seed scenario 1: a single external event
// drives a two-state machine from its initial atomic state into a
// final state, and the session reports done.
func TestMinimalProgression(t *testing.T) {
	b := model.NewBuilder("progression")
	b.State("root.s1", model.Final)
	b.State("root.s0", model.Atomic).On("go", "", []string{"root.s1"})
	b.State("root", model.Compound).Initial("root.s0")
	fsm, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	ip := New(fsm, nullDM(), Hooks{})
	if err := ip.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if ip.Done() {
		t.Fatalf("should not be done before the triggering event")
	}
	if !ip.Configuration().IsActive("root.s0") {
		t.Fatalf("expected root.s0 active after start")
	}

	if err := ip.Step(event.New("go", event.External, nullData())); err != nil {
		t.Fatalf("step: %v", err)
	}
	if !ip.Done() {
		t.Fatalf("expected session done after reaching root.s1")
	}
	if !ip.Configuration().IsActive("root.s1") {
		t.Fatalf("expected root.s1 active")
	}
}

// TestExternalTransitionToOwnDescendantReentersSource guards against a
// findLCCA regression: an external transition whose source is Compound
// and whose target is the source's own descendant must still exit and
// re-enter the source itself, because the domain is a proper ancestor
// of source, never source itself.
func TestExternalTransitionToOwnDescendantReentersSource(t *testing.T) {
	b := model.NewBuilder("reenter")
	b.State("top.mid.a", model.Atomic)
	b.State("top.mid.other", model.Atomic)
	b.State("top.mid", model.Compound).Initial("top.mid.a").
		OnEntry(model.Action{Kind: model.ActionScript, ScriptExpr: "midEntries = midEntries + 1"}).
		OnExit(model.Action{Kind: model.ActionScript, ScriptExpr: "midExits = midExits + 1"}).
		On("go", "", []string{"top.mid.a"})
	b.State("top", model.Compound).Initial("top.mid")
	fsm, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if got := findLCCA(fsm, mustFind(fsm, "top.mid"), []model.StateId{mustFind(fsm, "top.mid.a")}); got != mustFind(fsm, "top") {
		t.Fatalf("expected domain to be the proper ancestor 'top', got state %d", got)
	}

	dm := datamodel.NewExpression("test", nil)
	if err := dm.Initialize(map[string]string{"midEntries": "0", "midExits": "0"}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	ip := New(fsm, dm, Hooks{})
	if err := ip.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := ip.Step(event.New("go", event.External, nullData())); err != nil {
		t.Fatalf("step: %v", err)
	}
	if !ip.Configuration().IsActive("top.mid.a") {
		t.Fatalf("expected top.mid.a active after the self-targeting transition")
	}
	entries, _ := dm.Get("midEntries")
	exits, _ := dm.Get("midExits")
	if entries.Int() != 2 {
		t.Fatalf("expected top.mid to be entered twice (start + re-entry), got %v", entries)
	}
	if exits.Int() != 1 {
		t.Fatalf("expected top.mid to be exited once on the self-targeting transition, got %v", exits)
	}
}

func mustFind(fsm *model.FSM, name string) model.StateId {
	for i := range fsm.States {
		if fsm.States[i].Name == name {
			return fsm.States[i].Id
		}
	}
	return model.NoState
}

// TestDoneDataCarriesContentPayload verifies that a top-level Final
// state's <donedata> content actually reaches Interpreter.DoneData(),
// not just the done event's name.
func TestDoneDataCarriesContentPayload(t *testing.T) {
	b := model.NewBuilder("donedata")
	b.State("root.s1", model.Final).DoneData(model.Action{
		Kind:       model.ActionDoneDataContent,
		ParamNames: []string{"result"},
		ParamExprs: []string{"21 * 2"},
	})
	b.State("root.s0", model.Atomic).On("go", "", []string{"root.s1"})
	b.State("root", model.Compound).Initial("root.s0")
	fsm, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	dm := datamodel.NewExpression("test", nil)
	ip := New(fsm, dm, Hooks{})
	if err := ip.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := ip.Step(event.New("go", event.External, nullData())); err != nil {
		t.Fatalf("step: %v", err)
	}
	if !ip.Done() {
		t.Fatalf("expected session done")
	}
	result := ip.DoneData().Fields()["result"]
	if result.Int() != 42 {
		t.Fatalf("expected done-data result=42, got %v", result)
	}
}

// TestEventlessFixedPoint is seed scenario 2: a chain of eventless
// transitions fires to a fixed point with no external event required.
func TestEventlessFixedPoint(t *testing.T) {
	b := model.NewBuilder("eventless")
	b.State("root.c", model.Final)
	b.State("root.b", model.Atomic).On("", "", []string{"root.c"})
	b.State("root.a", model.Atomic).On("", "", []string{"root.b"})
	b.State("root", model.Compound).Initial("root.a")
	fsm, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	ip := New(fsm, nullDM(), Hooks{})
	if err := ip.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !ip.Done() {
		t.Fatalf("expected eventless chain to run to completion during Start")
	}
	if !ip.Configuration().IsActive("root.c") {
		t.Fatalf("expected root.c active")
	}
}

// TestParallelJoin is seed scenario 3: each region of a parallel state
// progresses independently, and the join condition (both regions
// simultaneously holding an active final child) is only reached once
// every region has completed.
func TestParallelJoin(t *testing.T) {
	b := model.NewBuilder("join")
	b.State("p.r1.fin", model.Final)
	b.State("p.r1.a", model.Atomic).On("r1done", "", []string{"p.r1.fin"})
	b.State("p.r1", model.Compound).Initial("p.r1.a")
	b.State("p.r2.fin", model.Final)
	b.State("p.r2.a", model.Atomic).On("r2done", "", []string{"p.r2.fin"})
	b.State("p.r2", model.Compound).Initial("p.r2.a")
	b.State("p", model.Parallel)
	fsm, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	ip := New(fsm, nullDM(), Hooks{})
	if err := ip.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !ip.Configuration().IsActive("p.r1.a") || !ip.Configuration().IsActive("p.r2.a") {
		t.Fatalf("expected both regions active after start")
	}

	if err := ip.Step(event.New("r1done", event.External, nullData())); err != nil {
		t.Fatalf("step r1done: %v", err)
	}
	if !ip.Configuration().IsActive("p.r1.fin") {
		t.Fatalf("expected region 1 final active")
	}
	if !ip.Configuration().IsActive("p.r2.a") {
		t.Fatalf("expected region 2 still in progress, unaffected by region 1 completing")
	}

	if err := ip.Step(event.New("r2done", event.External, nullData())); err != nil {
		t.Fatalf("step r2done: %v", err)
	}
	if !ip.Configuration().IsActive("p.r1.fin") || !ip.Configuration().IsActive("p.r2.fin") {
		t.Fatalf("expected the join condition: both regions hold an active final child")
	}
}

// TestConflictResolutionDocumentOrderWins is seed scenario 6: when two
// enabled transitions have intersecting exit sets and neither source is
// a descendant of the other, the one added first (document order) wins.
func TestConflictResolutionDocumentOrderWins(t *testing.T) {
	b := model.NewBuilder("conflict")
	b.State("outer.a", model.Atomic)
	b.State("outer.b", model.Atomic)
	b.State("far1", model.Atomic)
	b.State("far2", model.Atomic)
	b.State("outer.a", model.Atomic).On("x", "", []string{"far1"})
	b.State("outer.b", model.Atomic).On("x", "", []string{"far2"})
	b.State("outer", model.Parallel)
	fsm, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	ip := New(fsm, nullDM(), Hooks{})
	if err := ip.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := ip.Step(event.New("x", event.External, nullData())); err != nil {
		t.Fatalf("step: %v", err)
	}
	if !ip.Configuration().IsActive("far1") {
		t.Fatalf("expected the document-order-first transition (outer.a) to win")
	}
	if ip.Configuration().IsActive("far2") {
		t.Fatalf("expected the later-declared conflicting transition to have been preempted")
	}
}

// TestResetHistoryClearsRecordedEntries guards the Stop-time wiring of
// HistoryTable.Clear: once a history pseudo-state has recorded a
// configuration, ResetHistory must discard it so a later reuse of the
// interpreter starts cold.
func TestResetHistoryClearsRecordedEntries(t *testing.T) {
	b := model.NewBuilder("hist")
	b.State("root.region.a", model.Atomic)
	b.State("root.region.hist", model.HistoryShallow).HistoryDefaultTarget("root.region.a")
	b.State("root.region", model.Compound).Initial("root.region.a")
	b.State("root", model.Compound).Initial("root.region")
	fsm, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	ip := New(fsm, nullDM(), Hooks{})
	histId := mustFind(fsm, "root.region.hist")
	ip.hist.RecordShallow(histId, mustFind(fsm, "root.region.a"))
	if _, ok := ip.hist.RestoreShallow(histId); !ok {
		t.Fatalf("expected the recorded entry to be restorable before reset")
	}

	ip.ResetHistory()

	if _, ok := ip.hist.RestoreShallow(histId); ok {
		t.Fatalf("expected ResetHistory to discard the recorded entry")
	}
}

// TestRemoveConflictingDescendantWins whitebox-tests removeConflicting
// directly: among two candidate transitions with intersecting exit
// sets, the one whose source is a descendant of the other's wins,
// regardless of the order the candidates are supplied in.
func TestRemoveConflictingDescendantWins(t *testing.T) {
	b := model.NewBuilder("descendant")
	b.State("outer.inner", model.Atomic)
	b.State("far1", model.Atomic)
	b.State("far2", model.Atomic)
	b.State("outer", model.Compound).Initial("outer.inner").On("e", "", []string{"far1"})
	b.State("outer.inner", model.Atomic).On("e", "", []string{"far2"})
	fsm, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var innerId model.StateId
	for i := range fsm.States {
		if fsm.States[i].Name == "outer.inner" {
			innerId = fsm.States[i].Id
		}
	}

	config := NewConfiguration(fsm)
	config.Add(fsm.Root)
	config.Add(innerId)

	outerTransition := fsm.State(fsm.Root).Transitions[0]
	innerTransition := fsm.State(innerId).Transitions[0]

	filtered := removeConflicting(fsm, config, []model.TransitionId{outerTransition, innerTransition})
	if len(filtered) != 1 || filtered[0] != innerTransition {
		t.Fatalf("expected only the descendant source's transition to survive, got %v", filtered)
	}
}

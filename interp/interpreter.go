package interp

import (
	"github.com/comalice/rfsm/datamodel"
	"github.com/comalice/rfsm/event"
	"github.com/comalice/rfsm/model"
	"github.com/comalice/rfsm/value"
)

const maxMicrosteps = 1000

// Interpreter runs the W3C algorithm over one FSM for one session. It
// owns the configuration, history table, internal queue, and the
// session's datamodel; it never touches the external queue directly —
// the owning session pops external events and feeds them in via Step.
type Interpreter struct {
	fsm      *model.FSM
	config   *Configuration
	hist     *HistoryTable
	dm       datamodel.Datamodel
	internal *event.InternalQueue
	hooks    Hooks

	done     bool
	doneData value.Data

	// doneDataResult is the scratch register ActionDoneDataContent
	// writes to; computeDoneData reads it back out after running a
	// Final state's DoneData content.
	doneDataResult value.Data

	pendingInvokeStarts []model.StateId
}

func New(fsm *model.FSM, dm datamodel.Datamodel, hooks Hooks) *Interpreter {
	ip := &Interpreter{
		fsm:      fsm,
		config:   NewConfiguration(fsm),
		hist:     NewHistoryTable(),
		dm:       dm,
		internal: event.NewInternalQueue(),
		hooks:    hooks,
	}
	dm.SetConfiguration(ip.config)
	return ip
}

func (ip *Interpreter) Configuration() *Configuration { return ip.config }
func (ip *Interpreter) Done() bool                     { return ip.done }
func (ip *Interpreter) DoneData() value.Data           { return ip.doneData }

// Start computes the initial configuration, executes entry content,
// then runs the interpreter to a fixed point (eventless transitions,
// then the internal queue) before returning, matching the W3C
// interpreter's startup-to-first-external-pull behavior.
func (ip *Interpreter) Start() error {
	var toEnter []model.StateId
	seen := make(map[model.StateId]bool)
	addDescendantStatesToEnter(ip.fsm, ip.hist, ip.fsm.Root, &toEnter, seen)
	if err := ip.enterStates(toEnter); err != nil {
		return err
	}
	return ip.runToFixpoint()
}

// Step processes one externally-supplied event: selects and fires
// matching transitions, then runs to a fixed point again.
func (ip *Interpreter) Step(ev event.Event) error {
	if ip.done {
		return nil
	}
	ip.dm.SetEvent(ev.Name, classString(ev.Class), ev.Data)
	selected, err := selectTransitions(ip.fsm, ip.config, ev.Name, false, ip.dm.EvaluateCondition)
	if err != nil {
		return err
	}
	if len(selected) > 0 {
		if err := ip.microstep(selected); err != nil {
			return err
		}
	}
	return ip.runToFixpoint()
}

// RunContent runs an arbitrary executable-content block against ev's
// _event binding, for effects that happen outside the interpreter's
// own instruction loop, such as a <finalize> block triggered by an
// invoke's result event arriving on the session's external queue.
func (ip *Interpreter) RunContent(ev event.Event, id model.ExecutableContentId) error {
	if id == model.NoContent {
		return nil
	}
	ip.dm.SetEvent(ev.Name, classString(ev.Class), ev.Data)
	return ip.execContent(id)
}

// ResetHistory discards every recorded history entry, so a later reuse
// of this interpreter's FSM (e.g. a pooled session rebound to a fresh
// configuration) starts cold rather than restoring a prior run's
// configuration. Called from session teardown.
func (ip *Interpreter) ResetHistory() {
	for i := range ip.fsm.States {
		s := &ip.fsm.States[i]
		if s.IsHistory() {
			ip.hist.Clear(s.Id)
		}
	}
}

func classString(c event.Class) string {
	switch c {
	case event.Platform:
		return "platform"
	case event.Internal:
		return "internal"
	default:
		return "external"
	}
}

// runToFixpoint drains eventless transitions and the internal queue
// until neither yields any work, matching the macrostep loop of
// SPEC_FULL.md §4.3 steps 1-2 (external pull is step 3, owned by the
// session).
func (ip *Interpreter) runToFixpoint() error {
	for i := 0; i < maxMicrosteps; i++ {
		if ip.done {
			return nil
		}
		eventless, err := selectTransitions(ip.fsm, ip.config, "", true, ip.dm.EvaluateCondition)
		if err != nil {
			return err
		}
		if len(eventless) > 0 {
			if err := ip.microstep(eventless); err != nil {
				return err
			}
			continue
		}
		if ev, ok := ip.internal.Pop(); ok {
			ip.dm.SetEvent(ev.Name, classString(ev.Class), ev.Data)
			selected, err := selectTransitions(ip.fsm, ip.config, ev.Name, false, ip.dm.EvaluateCondition)
			if err != nil {
				return err
			}
			if len(selected) > 0 {
				if err := ip.microstep(selected); err != nil {
					return err
				}
			}
			continue
		}
		break
	}
	ip.flushPendingInvokes()
	return nil
}

// microstep executes one set of non-conflicting transitions: exit,
// content, enter, per SPEC_FULL.md §4.3.
func (ip *Interpreter) microstep(transitions []model.TransitionId) error {
	exitSet := make(map[model.StateId]struct{})
	var exitOrder []model.StateId
	for _, tid := range transitions {
		t := ip.fsm.Transition(tid)
		domain := transitionDomain(ip.fsm, t)
		for _, id := range computeExitSet(ip.fsm, ip.config, domain) {
			if _, ok := exitSet[id]; !ok {
				exitSet[id] = struct{}{}
				exitOrder = append(exitOrder, id)
			}
		}
	}
	sortByDepthDesc(ip.fsm, exitOrder)

	for _, id := range exitOrder {
		ip.recordHistoryIfNeeded(id)
	}
	for _, id := range exitOrder {
		if err := ip.cancelInvokesOf(id); err != nil {
			return err
		}
		s := ip.fsm.State(id)
		if err := ip.execContent(s.OnExit); err != nil {
			return err
		}
		ip.config.Remove(id)
	}

	for _, tid := range transitions {
		t := ip.fsm.Transition(tid)
		if err := ip.execContent(t.Content); err != nil {
			return err
		}
	}

	seen := make(map[model.StateId]bool)
	for _, id := range ip.config.All() {
		seen[id] = true
	}
	var toEnter []model.StateId
	for _, tid := range transitions {
		t := ip.fsm.Transition(tid)
		if len(t.Targets) == 0 {
			continue
		}
		domain := transitionDomain(ip.fsm, t)
		for _, id := range computeEntrySet(ip.fsm, ip.hist, domain, t.Targets) {
			if !seen[id] {
				seen[id] = true
				toEnter = append(toEnter, id)
			}
		}
	}
	return ip.enterStates(toEnter)
}

func (ip *Interpreter) recordHistoryIfNeeded(exiting model.StateId) {
	s := ip.fsm.State(exiting)
	for _, childId := range s.Children {
		child := ip.fsm.State(childId)
		if !child.IsHistory() {
			continue
		}
		if child.Type == model.HistoryDeep {
			ip.hist.RecordDeep(childId, atomicDescendantsOf(ip.fsm, ip.config, exiting))
		} else {
			for _, direct := range s.Children {
				if ip.config.Has(direct) && !ip.fsm.State(direct).IsHistory() {
					ip.hist.RecordShallow(childId, direct)
					break
				}
			}
		}
	}
}

func (ip *Interpreter) enterStates(states []model.StateId) error {
	for _, id := range states {
		ip.config.Add(id)
		s := ip.fsm.State(id)
		if err := ip.execContent(s.OnEntry); err != nil {
			return err
		}
		if len(s.Invokes) > 0 {
			ip.pendingInvokeStarts = append(ip.pendingInvokeStarts, id)
		}
		if s.Type == model.Final {
			ip.onFinalEntered(id)
		}
	}
	return nil
}

func (ip *Interpreter) onFinalEntered(final model.StateId) {
	parent := ip.fsm.State(final).Parent
	if parent == model.NoState {
		return
	}
	if parent == ip.fsm.Root {
		ip.done = true
		data := ip.computeDoneData(final)
		ip.doneData = data
		ip.internal.Push(event.New("done.state."+ip.fsm.State(ip.fsm.Root).Name, event.Platform, data))
		return
	}
	p := ip.fsm.State(parent)
	if p.Type == model.Parallel {
		if ip.allRegionsDone(parent) {
			ip.internal.Push(event.New("done.state."+p.Name, event.Internal, value.Null()))
		}
		return
	}
	// parent is a plain region (Compound): if it is itself a direct
	// child of an enclosing Parallel, that parallel's join fires once
	// every sibling region also holds an active final child.
	if p.Parent != model.NoState {
		if gp := ip.fsm.State(p.Parent); gp.Type == model.Parallel {
			if ip.allRegionsDone(p.Parent) {
				ip.internal.Push(event.New("done.state."+gp.Name, event.Internal, value.Null()))
			}
		}
	}
	ip.internal.Push(event.New("done.state."+p.Name, event.Internal, ip.computeDoneData(final)))
}

func (ip *Interpreter) allRegionsDone(parallelId model.StateId) bool {
	p := ip.fsm.State(parallelId)
	for _, region := range p.Children {
		if !ip.regionHasActiveFinal(region) {
			return false
		}
	}
	return true
}

func (ip *Interpreter) regionHasActiveFinal(region model.StateId) bool {
	for active := range ip.config.active {
		if ip.fsm.State(active).Type == model.Final && ip.fsm.State(active).Parent == region {
			return true
		}
	}
	return false
}

func (ip *Interpreter) computeDoneData(final model.StateId) value.Data {
	s := ip.fsm.State(final)
	if s.DoneData == model.NoContent {
		return value.Null()
	}
	ip.doneDataResult = value.Null()
	if err := ip.execContent(s.DoneData); err != nil {
		ip.raiseExecutionError(err)
		return value.Null()
	}
	return ip.doneDataResult
}

func (ip *Interpreter) cancelInvokesOf(id model.StateId) error {
	s := ip.fsm.State(id)
	for _, specId := range s.Invokes {
		spec := ip.fsm.Invoke(specId)
		if ip.hooks.CancelInvoke != nil {
			if err := ip.hooks.CancelInvoke(id, spec); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ip *Interpreter) flushPendingInvokes() {
	pending := ip.pendingInvokeStarts
	ip.pendingInvokeStarts = nil
	for _, id := range pending {
		s := ip.fsm.State(id)
		for _, specId := range s.Invokes {
			spec := ip.fsm.Invoke(specId)
			if ip.hooks.StartInvoke != nil {
				_ = ip.hooks.StartInvoke(id, spec)
			}
		}
	}
}

// RaiseFromOutside lets the session push an event directly onto the
// internal queue, used when the executor delivers a same-session send
// with zero delay.
func (ip *Interpreter) RaiseFromOutside(ev event.Event) {
	ip.internal.Push(ev)
}

// InternalQueueLen reports the current depth of the internal queue,
// used by trace to report queue depth metrics.
func (ip *Interpreter) InternalQueueLen() int { return ip.internal.Len() }

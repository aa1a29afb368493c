package model

import "fmt"

// Builder assembles an FSM programmatically. It is the only supported
// construction path in this repository: the SCXML reader and the
// binary .rfsm codec that would normally populate an FSM are external
// collaborators, so every test and embedder goes through Builder the
// same way the donor's own tests build machines through
// MachineBuilder/StateBuilder.
type Builder struct {
	fsm        FSM
	nameToId   map[string]StateId
	docCounter int
	err        error
}

func NewBuilder(name string) *Builder {
	b := &Builder{
		fsm:      FSM{Name: name, Datamodel: "null"},
		nameToId: make(map[string]StateId),
	}
	return b
}

func (b *Builder) WithDatamodel(name string) *Builder {
	b.fsm.Datamodel = name
	return b
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// State declares a state by dotted path name (e.g. "a.b.c"), creating
// any missing ancestors as Compound states with no initial set yet.
// Declaring the same name twice returns the existing StateBuilder.
func (b *Builder) State(name string, typ StateType) *StateBuilder {
	id, ok := b.nameToId[name]
	if ok {
		b.fsm.States[id].Type = typ
		return &StateBuilder{b: b, id: id}
	}
	parentId := NoState
	if idx := lastDot(name); idx >= 0 {
		parentName := name[:idx]
		parentId = b.ensureParent(parentName)
	}
	id = StateId(len(b.fsm.States))
	b.fsm.States = append(b.fsm.States, State{
		Id:             id,
		Name:           name,
		Type:           typ,
		Parent:         parentId,
		Initial:        NoState,
		HistoryDefault: NoState,
		DocOrder:       b.nextDocOrder(),
		OnEntry:        NoContent,
		OnExit:         NoContent,
		DoneData:       NoContent,
	})
	b.nameToId[name] = id
	if parentId != NoState {
		b.fsm.States[parentId].Children = append(b.fsm.States[parentId].Children, id)
	} else if b.fsm.Root == 0 && len(b.fsm.States) == 1 {
		b.fsm.Root = id
	}
	return &StateBuilder{b: b, id: id}
}

func (b *Builder) ensureParent(name string) StateId {
	if id, ok := b.nameToId[name]; ok {
		return id
	}
	return b.State(name, Compound).id
}

func (b *Builder) nextDocOrder() int {
	b.docCounter++
	return b.docCounter
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

// AddContent registers a compiled executable-content block and returns
// its id.
func (b *Builder) AddContent(actions ...Action) ExecutableContentId {
	id := ExecutableContentId(len(b.fsm.Content))
	b.fsm.Content = append(b.fsm.Content, ExecutableContent{Id: id, Actions: actions})
	return id
}

// AddInvoke registers an invoke spec and returns its id.
func (b *Builder) AddInvoke(spec InvokeSpec) InvokeSpecId {
	id := InvokeSpecId(len(b.fsm.Invokes))
	spec.Id = id
	b.fsm.Invokes = append(b.fsm.Invokes, spec)
	return id
}

// StateBuilder is a fluent handle on one state being configured.
type StateBuilder struct {
	b  *Builder
	id StateId
}

func (sb *StateBuilder) Id() StateId { return sb.id }

func (sb *StateBuilder) state() *State { return &sb.b.fsm.States[sb.id] }

func (sb *StateBuilder) Initial(childName string) *StateBuilder {
	id, ok := sb.b.nameToId[childName]
	if !ok {
		sb.b.fail(fmt.Errorf("model: initial %q of %q declared before the child exists", childName, sb.state().Name))
		return sb
	}
	sb.state().Initial = id
	return sb
}

func (sb *StateBuilder) HistoryDefaultTarget(name string) *StateBuilder {
	id, ok := sb.b.nameToId[name]
	if !ok {
		sb.b.fail(fmt.Errorf("model: history default %q not declared", name))
		return sb
	}
	sb.state().HistoryDefault = id
	return sb
}

func (sb *StateBuilder) OnEntry(actions ...Action) *StateBuilder {
	sb.state().OnEntry = sb.b.AddContent(actions...)
	return sb
}

func (sb *StateBuilder) OnExit(actions ...Action) *StateBuilder {
	sb.state().OnExit = sb.b.AddContent(actions...)
	return sb
}

func (sb *StateBuilder) DoneData(actions ...Action) *StateBuilder {
	sb.state().DoneData = sb.b.AddContent(actions...)
	return sb
}

func (sb *StateBuilder) Invoke(spec InvokeSpec) *StateBuilder {
	id := sb.b.AddInvoke(spec)
	sb.state().Invokes = append(sb.state().Invokes, id)
	return sb
}

// On declares an external transition from this state on the given
// space-separated event descriptor (empty string means eventless) to
// targetNames (may be empty for a targetless transition), guarded by
// cond (empty means unconditional), running actions on firing.
func (sb *StateBuilder) On(eventDescriptor, cond string, targetNames []string, actions ...Action) *StateBuilder {
	return sb.addTransition(eventDescriptor, cond, targetNames, External, actions)
}

// OnInternal declares an internal transition; all targetNames must be
// proper descendants of this state.
func (sb *StateBuilder) OnInternal(eventDescriptor, cond string, targetNames []string, actions ...Action) *StateBuilder {
	return sb.addTransition(eventDescriptor, cond, targetNames, Internal, actions)
}

func (sb *StateBuilder) addTransition(eventDescriptor, cond string, targetNames []string, kind TransitionKind, actions []Action) *StateBuilder {
	var targets []StateId
	for _, n := range targetNames {
		id, ok := sb.b.nameToId[n]
		if !ok {
			sb.b.fail(fmt.Errorf("model: transition target %q not declared", n))
			continue
		}
		targets = append(targets, id)
	}
	content := NoContent
	if len(actions) > 0 {
		content = sb.b.AddContent(actions...)
	}
	tid := TransitionId(len(sb.b.fsm.Transitions))
	sb.b.fsm.Transitions = append(sb.b.fsm.Transitions, Transition{
		Id:       tid,
		Source:   sb.id,
		Events:   EventDescriptor{Tokens: splitFields(eventDescriptor)},
		Cond:     cond,
		Targets:  targets,
		Kind:     kind,
		Content:  content,
		DocOrder: sb.b.nextDocOrder(),
	})
	sb.state().Transitions = append(sb.state().Transitions, tid)
	return sb
}

func splitFields(s string) []string {
	var out []string
	start := -1
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' || s[i] == '\t' {
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

// Build validates the accumulated definition and returns the FSM.
func (b *Builder) Build() (*FSM, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.fsm.States) == 0 {
		return nil, fmt.Errorf("model: no states declared")
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	fsm := b.fsm
	return &fsm, nil
}

func (b *Builder) validate() error {
	for i := range b.fsm.States {
		s := &b.fsm.States[i]
		switch s.Type {
		case Compound:
			if len(s.Children) == 0 {
				return fmt.Errorf("model: compound state %q has no children", s.Name)
			}
			if s.Initial == NoState {
				s.Initial = s.Children[0]
			}
		case Parallel:
			if len(s.Children) == 0 {
				return fmt.Errorf("model: parallel state %q has no children", s.Name)
			}
		case HistoryShallow, HistoryDeep:
			if len(s.Children) != 0 {
				return fmt.Errorf("model: history state %q must not declare children", s.Name)
			}
		}
		for _, tid := range s.Transitions {
			t := &b.fsm.Transitions[tid]
			if t.Kind == Internal {
				for _, target := range t.Targets {
					if !b.fsm.IsDescendant(target, s.Id) {
						return fmt.Errorf("model: internal transition on %q targets non-descendant %q", s.Name, b.fsm.States[target].Name)
					}
				}
			}
		}
	}
	return nil
}

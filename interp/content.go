package interp

import (
	"fmt"

	"github.com/comalice/rfsm/event"
	"github.com/comalice/rfsm/model"
	"github.com/comalice/rfsm/value"
)

// Hooks lets the interpreter reach outside its own package for effects
// that cross session boundaries: sending to an I/O processor target,
// cancelling a delayed send, and starting/cancelling invokes. The
// session package supplies these so interp stays free of concurrency
// and transport concerns, matching SPEC_FULL.md §9's "synchronous
// per-session control flow" design note.
type Hooks struct {
	Send         func(ev event.Event, targetExpr, typeExpr, delayExpr, sendId string) error
	CancelSend   func(sendId string) error
	StartInvoke  func(stateId model.StateId, spec *model.InvokeSpec) error
	CancelInvoke func(stateId model.StateId, spec *model.InvokeSpec) error
	Log          func(message string)
}

// execContent runs a full executable-content block for side effects,
// raising internal events and invoking hooks as it goes.
func (ip *Interpreter) execContent(id model.ExecutableContentId) error {
	if id == model.NoContent {
		return nil
	}
	block := ip.fsm.ExecContent(id)
	return ip.runRange(block.Actions, 0, len(block.Actions))
}

func (ip *Interpreter) runRange(actions []model.Action, start, end int) error {
	pc := start
	for pc < end {
		a := actions[pc]
		switch a.Kind {
		case model.ActionRaise:
			ip.internal.Push(event.New(a.EventName, event.Internal, valueOfExpr(ip, a.ContentExpr)))
		case model.ActionSend:
			if err := ip.doSend(a); err != nil {
				ip.raiseExecutionError(err)
			}
		case model.ActionCancelSend:
			sendId := a.CancelSendIdExpr
			if ip.hooks.CancelSend != nil {
				if err := ip.hooks.CancelSend(evalStr(ip, sendId)); err != nil {
					ip.raiseExecutionError(err)
				}
			}
		case model.ActionAssign:
			v, err := ip.dm.Eval(a.Expr)
			if err != nil {
				ip.raiseExecutionError(err)
				break
			}
			if err := ip.dm.Assign(a.Location, v); err != nil {
				ip.raiseExecutionError(err)
			}
		case model.ActionLog:
			msg := a.Label
			if a.Expr != "" {
				v, err := ip.dm.Eval(a.Expr)
				if err == nil {
					msg = msg + v.Str()
				}
			}
			ip.dm.Log(msg)
			if ip.hooks.Log != nil {
				ip.hooks.Log(msg)
			}
		case model.ActionScript:
			if err := ip.dm.Execute(a.ScriptExpr); err != nil {
				ip.raiseExecutionError(err)
			}
		case model.ActionJump:
			pc = a.Target
			continue
		case model.ActionJumpIfFalse:
			ok, err := ip.dm.EvaluateCondition(a.CondExpr)
			if err != nil {
				ip.raiseExecutionError(err)
				ok = false
			}
			if !ok {
				pc = a.Target
				continue
			}
		case model.ActionForEach:
			bodyStart := pc + 1
			bodyEnd := bodyStart + a.BodyLen
			err := ip.dm.ExecuteForEach(a.ArrayExpr, a.ItemVar, a.IndexVar, func() error {
				return ip.runRange(actions, bodyStart, bodyEnd)
			})
			if err != nil {
				ip.raiseExecutionError(err)
			}
			pc = bodyEnd
			continue
		case model.ActionEndForEach:
			// no-op marker; ForEach consumes its body by length.
		case model.ActionDoneDataContent:
			v, err := ip.buildContentValue(a)
			if err != nil {
				ip.raiseExecutionError(err)
				break
			}
			ip.doneDataResult = v
		default:
			return fmt.Errorf("interp: unhandled action kind %d", a.Kind)
		}
		pc++
	}
	return nil
}

func (ip *Interpreter) doSend(a model.Action) error {
	if ip.hooks.Send == nil {
		return fmt.Errorf("interp: no send hook configured")
	}
	data, err := ip.buildContentValue(a)
	if err != nil {
		return err
	}
	ev := event.New(a.EventName, event.External, data)
	return ip.hooks.Send(ev, a.TargetExpr, a.TypeExpr, a.DelayExpr, a.SendId)
}

// buildContentValue assembles a value.Data from an action's
// ContentExpr (a <content> child) or ParamNames/ParamExprs (<param>
// children), the shape shared by <send> and <donedata>: a single
// <content> expression wins outright, otherwise every <param> becomes
// a field of a map.
func (ip *Interpreter) buildContentValue(a model.Action) (value.Data, error) {
	data := value.Null()
	if a.ContentExpr != "" {
		v, err := ip.dm.Eval(a.ContentExpr)
		if err != nil {
			return value.Null(), err
		}
		data = v
	}
	if len(a.ParamNames) > 0 && data.IsNull() {
		fields := make(map[string]value.Data, len(a.ParamNames))
		for i, name := range a.ParamNames {
			if i < len(a.ParamExprs) {
				v, err := ip.dm.Eval(a.ParamExprs[i])
				if err == nil {
					fields[name] = v
				}
			}
		}
		data = value.Map(fields)
	}
	return data, nil
}

func evalStr(ip *Interpreter, expr string) string {
	if expr == "" {
		return ""
	}
	v, err := ip.dm.Eval(expr)
	if err != nil {
		return ""
	}
	return v.Str()
}

func valueOfExpr(ip *Interpreter, expr string) value.Data {
	if expr == "" {
		return value.Null()
	}
	got, err := ip.dm.Eval(expr)
	if err != nil {
		return value.Null()
	}
	return got
}

func (ip *Interpreter) raiseExecutionError(err error) {
	ip.internal.Push(event.PlatformError(event.ErrExecution, err.Error()))
}

// Package harness generalizes the donor's testutil.RuntimeAdapter
// (which abstracted one shared test suite over two runtime flavors)
// into a config-driven scenario runner: it loads a config.RunnerConfig,
// drives a session through its initial_events, and asserts
// expected_outcome the way the excluded `test` CLI binary would,
// minus the os.Exit call that binary is out of scope for.
package harness

import (
	"fmt"
	"time"

	"github.com/comalice/rfsm/config"
	"github.com/comalice/rfsm/event"
	"github.com/comalice/rfsm/executor"
	"github.com/comalice/rfsm/model"
	"github.com/comalice/rfsm/value"
)

// Result is the outcome of running one scenario.
type Result struct {
	SessionID string
	Reached   bool // true if the session ran to completion within the timeout
	Passed    bool // true if Reached matches the configured expected_outcome
}

// Run executes fsm under the given RunnerConfig and reports whether
// the observed outcome matches cfg.ExpectedOutcome.
func Run(fsm *model.FSM, cfg *config.RunnerConfig, exec *executor.Executor) (*Result, error) {
	sessionID, err := exec.Execute(fsm)
	if err != nil {
		return nil, fmt.Errorf("harness: executing fsm: %w", err)
	}
	for _, ie := range cfg.InitialEvents {
		fields := make(map[string]value.Data, len(ie.Data))
		for k, v := range ie.Data {
			fields[k] = coerce(v)
		}
		ev := event.New(ie.Name, event.External, value.Map(fields))
		if err := exec.SendToSession(sessionID, ev); err != nil {
			return nil, fmt.Errorf("harness: sending %q: %w", ie.Name, err)
		}
	}

	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	reached := waitForCompletion(exec, sessionID, timeout)

	wantPass := cfg.ExpectedOutcome == "pass"
	return &Result{SessionID: sessionID, Reached: reached, Passed: reached == wantPass}, nil
}

// waitForCompletion polls SessionActive rather than blocking on a
// channel: the session's own completion path runs on its worker
// goroutine and has no public done-channel, by design (sessions only
// communicate externally through events, per SPEC_FULL.md §5).
func waitForCompletion(exec *executor.Executor, sessionID string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !exec.SessionActive(sessionID) {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return !exec.SessionActive(sessionID)
}

func coerce(v any) value.Data {
	switch t := v.(type) {
	case string:
		return value.String(t)
	case bool:
		return value.Boolean(t)
	case float64:
		return value.Double(t)
	case int:
		return value.Integer(int64(t))
	case nil:
		return value.Null()
	default:
		return value.Null()
	}
}

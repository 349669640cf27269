package harness

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/roach88/t3ns/internal/compiler"
	"github.com/roach88/t3ns/internal/ir"
	"github.com/roach88/t3ns/internal/snapshot"
	"github.com/roach88/t3ns/internal/state"
	"github.com/roach88/t3ns/internal/store"
)

// Harness executes the steps of one scenario.
type Harness struct {
	scenario *Scenario
	runs     map[string]*compiler.Run
	dir      string // sqlite snapshot directory, empty for memory

	container store.Container
	codec     store.Codec
	st        *state.State
	saved     string // structure digest at the last save
}

// Run executes a scenario and returns the result.
//
// Each scenario gets a fresh container: an in-memory one, or a SQLite file
// in a temporary directory removed on return. Expect mismatches and failed
// assertions are reported in the result; the error return is reserved for
// scenarios that cannot be executed at all.
func Run(scenario *Scenario) (*Result, error) {
	h := &Harness{scenario: scenario, runs: map[string]*compiler.Run{}}
	if scenario.Store == "sqlite" {
		dir, err := os.MkdirTemp("", "t3ns-harness-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create snapshot dir: %w", err)
		}
		defer os.RemoveAll(dir)
		h.dir = dir
	} else {
		h.container = store.NewMemory()
	}
	defer func() {
		if h.container != nil {
			h.container.Close()
		}
	}()

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		outcome, err := h.execute(ctx, step)
		if err := h.check(i, step, outcome, err, result); err != nil {
			result.AddError(err.Error())
			return result, nil
		}
	}

	if h.st != nil && h.st.Configured() {
		var err error
		if result.Structure, err = snapshot.Describe(h.st); err != nil {
			return nil, fmt.Errorf("failed to describe final state: %w", err)
		}
		if result.Digest, err = snapshot.StructureDigest(h.st); err != nil {
			return nil, fmt.Errorf("failed to digest final state: %w", err)
		}
	}

	for _, msg := range EvaluateAssertions(ctx, h.st, h.saved, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// check compares a step outcome with its expect clause and records the
// trace event.
func (h *Harness) check(i int, step Step, outcome string, err error, result *Result) error {
	expect := step.Expect
	if expect == nil {
		expect = &ExpectClause{}
	}
	if err != nil {
		code := string(ir.CodeOf(err))
		if expect.Error == "" || code != expect.Error {
			return fmt.Errorf("steps[%d] %s: %w", i, step.Action, err)
		}
		result.AddTrace(i, step.Action, code)
		return nil
	}
	if expect.Error != "" {
		return fmt.Errorf("steps[%d] %s: expected error %s, got %s", i, step.Action, expect.Error, outcome)
	}
	if expect.Migration != "" && expect.Migration != outcome {
		return fmt.Errorf("steps[%d] %s: expected migration %s, got %s", i, step.Action, expect.Migration, outcome)
	}
	result.AddTrace(i, step.Action, outcome)
	return nil
}

func (h *Harness) execute(ctx context.Context, step Step) (string, error) {
	switch step.Action {
	case ActionFresh:
		return "ok", h.fresh(step)
	case ActionSave:
		return "ok", h.save(ctx, step)
	case ActionLoad:
		return h.load(ctx, step)
	case ActionRelease:
		if h.st == nil {
			return "", errors.New("no state to release")
		}
		h.st.Release()
		return "ok", nil
	}
	return "", fmt.Errorf("unknown action %q", step.Action)
}

// runFor returns the compiled run of a step, defaulting to the scenario's.
func (h *Harness) runFor(step Step) (*compiler.Run, error) {
	path := step.Run
	if path == "" {
		path = h.scenario.Run
	}
	if run, ok := h.runs[path]; ok {
		return run, nil
	}
	run, err := compiler.LoadRun(path)
	if err != nil {
		return nil, err
	}
	h.runs[path] = run
	return run, nil
}

func (h *Harness) fresh(step Step) error {
	run, err := h.runFor(step)
	if err != nil {
		return err
	}
	st, err := state.Fresh(run.Config(), rand.New(rand.NewPCG(run.Seed, run.Seed)))
	if err != nil {
		return err
	}
	h.st = st
	return nil
}

// containerFor returns the scenario container, reopening the SQLite file
// when the codec changes.
func (h *Harness) containerFor(codec string) (store.Container, error) {
	if h.dir == "" {
		return h.container, nil
	}
	c, err := store.ParseCodec(codec)
	if err != nil {
		return nil, err
	}
	if h.container != nil && c == h.codec {
		return h.container, nil
	}
	if h.container != nil {
		if err := h.container.Close(); err != nil {
			return nil, err
		}
		h.container = nil
	}
	s, err := store.Open(filepath.Join(h.dir, snapshot.FileName), store.Options{Codec: c})
	if err != nil {
		return nil, err
	}
	h.container, h.codec = s, c
	return s, nil
}

func (h *Harness) save(ctx context.Context, step Step) error {
	if h.st == nil {
		return errors.New("no state to save")
	}
	c, err := h.containerFor(step.Codec)
	if err != nil {
		return err
	}
	if err := snapshot.Write(ctx, c, h.st); err != nil {
		return err
	}
	h.saved, err = snapshot.StructureDigest(h.st)
	return err
}

func (h *Harness) load(ctx context.Context, step Step) (string, error) {
	c, err := h.containerFor(string(h.codec))
	if err != nil {
		return "", err
	}

	var st *state.State
	switch {
	case step.Unconfigured:
		st = state.Unconfigured()
	case step.Run == "" && h.st != nil && !h.st.Configured():
		// released: refill, keeping the topology
		st = h.st
	default:
		run, err := h.runFor(step)
		if err != nil {
			return "", err
		}
		reg, err := state.BuildRegistry(run.Config())
		if err != nil {
			return "", err
		}
		if st, err = state.New(reg, run.Network); err != nil {
			return "", err
		}
	}

	change, err := snapshot.Read(ctx, c, st)
	if err != nil {
		return "", err
	}
	h.st = st
	return change.String(), nil
}

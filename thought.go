package thoughtbot

import (
	"context"
	"errors"
	"fmt"
)

// Thought is one stage of a sequence: validate → middleware → [branches] →
// action. Stages with a branch concept (listen, understand, serve, act)
// pull their branches from the active Path at process time, so a
// dialogue's path-swap is visible to a Thought built once at construction.
type Thought struct {
	Name        string
	StageKey    string // Path stage key; "" for middleware-only stages
	HasBranches bool

	// SkipIfEmpty gates the step-2 early skip ("branches supplied but
	// empty ⇒ unsuccess without running validate"). listen and serve use
	// it; understand and act run their validate regardless of branch
	// count since that validate carries real side effects (attaching the
	// NLU result, wrapping the message in CatchAll).
	SkipIfEmpty bool

	middleware *Middleware
	Validate   func(ctx context.Context, state *State) (bool, error)
	Action     func(ctx context.Context, state *State, success bool) error
}

// ThoughtOption configures a Thought at construction.
type ThoughtOption func(*Thought)

// WithValidate overrides the default always-true validator.
func WithValidate(fn func(ctx context.Context, state *State) (bool, error)) ThoughtOption {
	return func(t *Thought) { t.Validate = fn }
}

// WithAction overrides the default no-op action. An error returned by the
// action is fatal for the run and surfaces to the sequence caller — this is
// how the respond stage's dispatch failure rejects.
func WithAction(fn func(ctx context.Context, state *State, success bool) error) ThoughtOption {
	return func(t *Thought) { t.Action = fn }
}

// WithMiddleware supplies an explicit chain instead of looking one up by
// name in the registry passed to NewThought.
func WithMiddleware(mw *Middleware) ThoughtOption {
	return func(t *Thought) { t.middleware = mw }
}

// WithoutEmptySkip disables the step-2 early skip for stages (understand,
// act) whose validate must run even when the active Path's collection for
// this stage is currently empty.
func WithoutEmptySkip() ThoughtOption {
	return func(t *Thought) { t.SkipIfEmpty = false }
}

var branchStages = map[string]bool{
	StageListen:     true,
	StageUnderstand: true,
	StageServe:      true,
	StageAct:        true,
}

var skipIfEmptyDefault = map[string]bool{
	StageListen: true,
	StageServe:  true,
}

// NewThought builds the stage named name. If no explicit middleware is
// supplied via WithMiddleware, it is looked up in registry by name;
// failure to find one is fatal (*ErrConfigError).
func NewThought(name string, registry *Registry, opts ...ThoughtOption) (*Thought, error) {
	t := &Thought{
		Name:        name,
		HasBranches: branchStages[name],
		SkipIfEmpty: skipIfEmptyDefault[name],
		Validate:    func(context.Context, *State) (bool, error) { return true, nil },
		Action:      func(context.Context, *State, bool) error { return nil },
	}
	if t.HasBranches {
		t.StageKey = name
	}
	for _, o := range opts {
		o(t)
	}
	if t.middleware == nil {
		mw, ok := registry.Lookup(name)
		if !ok {
			return nil, &ErrConfigError{Detail: fmt.Sprintf("no middleware registered for stage %q", name)}
		}
		t.middleware = mw
	}
	return t, nil
}

// Process runs this stage's validate → middleware → branches → action
// sequence against state, consulting path for this stage's branch
// collection if HasBranches.
func (t *Thought) Process(ctx context.Context, state *State, path *Path) error {
	if state.Exit {
		return nil
	}

	if t.HasBranches {
		if state.Done || (t.SkipIfEmpty && !path.HasBranches(t.StageKey)) {
			return t.runAction(ctx, state, false)
		}
	}

	ok, err := t.Validate(ctx, state)
	if err != nil {
		var vf *ErrValidationFail
		if errors.As(err, &vf) {
			// A stage's own validate logic judged itself unable to proceed
			// (e.g. an NLU backend blip) rather than hit a configuration
			// fault. Unsuccessful, but not fatal to the run.
			return t.runAction(ctx, state, false)
		}
		_ = t.runAction(ctx, state, false)
		return err
	}
	if !ok {
		return t.runAction(ctx, state, false)
	}

	var success bool
	if !t.HasBranches {
		completed, err := t.middleware.Execute(ctx, state, func(context.Context, *State) error { return nil })
		if err != nil {
			return err
		}
		success = completed
	} else {
		localMatched := false
		for _, b := range path.Branches(t.StageKey) {
			if state.Done {
				break
			}
			matched, err := b.Process(ctx, state, t.middleware)
			if err != nil {
				return err
			}
			if matched {
				localMatched = true
			}
		}
		success = localMatched
	}

	if success {
		state.MarkProcessed(t.Name)
	}
	return t.runAction(ctx, state, success)
}

func (t *Thought) runAction(ctx context.Context, state *State, success bool) error {
	if t.Action == nil {
		return nil
	}
	return t.Action(ctx, state, success)
}

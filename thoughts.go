package thoughtbot

import (
	"context"
	"strings"
)

// Built-in sequence names.
const (
	SequenceReceive  = "receive"
	SequenceServe    = "serve"
	SequenceRespond  = "respond"
	SequenceDispatch = "dispatch"
)

// EventFunc observes stage entry, before validate, the way the runtime
// emits its hear/listen/understand/act/respond/remember events.
type EventFunc func(ctx context.Context, stage string, state *State)

// Thoughts is the orchestrator: it owns the stage map, the named
// sequences, the global Path, the Dialogue registry, the User Directory,
// and the three adapter collaborators.
type Thoughts struct {
	Registry  *Registry
	Path      *Path
	Dialogues *Dialogues
	Directory *Directory

	MessageAdapter MessageAdapter
	StorageAdapter StorageAdapter
	NLUAdapter     NLUAdapter
	Tracer         Tracer

	NLUMinLength int

	// AutoSave gates whether a successful remember also persists the
	// user Directory snapshot via StorageAdapter.SaveMemory, under the
	// "users" key LoadMemory rehydrates from at Start. Mirrors the
	// config surface's auto-save flag (config.Config.AutoSave).
	AutoSave bool

	stages    map[string]*Thought
	sequences map[string][]string
	onEvent   EventFunc
}

// Option configures a Thoughts at construction.
type Option func(*Thoughts)

// WithMessageAdapter wires the message collaborator.
func WithMessageAdapter(a MessageAdapter) Option { return func(t *Thoughts) { t.MessageAdapter = a } }

// WithStorageAdapter wires the storage collaborator.
func WithStorageAdapter(a StorageAdapter) Option { return func(t *Thoughts) { t.StorageAdapter = a } }

// WithNLUAdapter wires the NLU collaborator.
func WithNLUAdapter(a NLUAdapter) Option { return func(t *Thoughts) { t.NLUAdapter = a } }

// WithTracer wires optional span emission around each stage.
func WithTracer(tr Tracer) Option { return func(t *Thoughts) { t.Tracer = tr } }

// WithNLUMinLength sets the minimum trimmed text length the understand
// stage requires before calling the NLU adapter. Zero (default) disables
// the check.
func WithNLUMinLength(n int) Option { return func(t *Thoughts) { t.NLUMinLength = n } }

// WithEvent registers a hook fired at stage entry, before validate.
func WithEvent(fn EventFunc) Option { return func(t *Thoughts) { t.onEvent = fn } }

// WithAutoSave enables persisting the user Directory to the StorageAdapter
// after every successful remember.
func WithAutoSave(on bool) Option { return func(t *Thoughts) { t.AutoSave = on } }

// New assembles a Thoughts with the built-in receive/serve/respond/dispatch
// sequences and their stage policies already wired. Register branches on
// t.Path and middleware on t.Registry before calling Start.
func New(opts ...Option) *Thoughts {
	t := &Thoughts{
		Registry:  NewRegistry(),
		Path:      NewPath(),
		Dialogues: NewDialogues(),
		Directory: NewDirectory(),
		stages:    make(map[string]*Thought),
		sequences: map[string][]string{
			SequenceReceive:  {"hear", StageListen, StageUnderstand, StageAct, "remember"},
			SequenceServe:    {"hear", StageServe, StageAct, "remember"},
			SequenceRespond:  {"respond"},
			SequenceDispatch: {"respond", "remember"},
		},
	}
	for _, o := range opts {
		o(t)
	}
	t.wireStages()
	return t
}

// Listen registers a branch on the listen stage of the global Path.
func (t *Thoughts) Listen(m Matcher, callback func(ctx context.Context, state *State) error) *Branch {
	b := NewBranch(m, callback)
	t.Path.Add(StageListen, b)
	return b
}

// Understand registers a branch on the understand stage of the global Path.
func (t *Thoughts) Understand(m Matcher, callback func(ctx context.Context, state *State) error) *Branch {
	b := NewBranch(m, callback)
	t.Path.Add(StageUnderstand, b)
	return b
}

// Act registers a catch-all branch on the act stage of the global Path.
func (t *Thoughts) Act(m Matcher, callback func(ctx context.Context, state *State) error) *Branch {
	b := NewBranch(m, callback)
	t.Path.Add(StageAct, b)
	return b
}

// Serve registers a branch on the serve stage of the global Path.
func (t *Thoughts) Serve(m Matcher, callback func(ctx context.Context, state *State) error) *Branch {
	b := NewBranch(m, callback)
	t.Path.Add(StageServe, b)
	return b
}

func (t *Thoughts) wireStages() {
	hear, _ := NewThought("hear", t.Registry, WithAction(func(ctx context.Context, state *State, success bool) error {
		if !success {
			state.Finish()
		}
		return nil
	}))
	t.stages["hear"] = hear

	listen, _ := NewThought(StageListen, t.Registry, WithAction(func(ctx context.Context, state *State, success bool) error {
		if success && state.path != nil {
			state.path.Forced(StageUnderstand)
		}
		return nil
	}))
	t.stages[StageListen] = listen

	understand, _ := NewThought(StageUnderstand, t.Registry, WithoutEmptySkip(),
		WithValidate(t.understandValidate))
	t.stages[StageUnderstand] = understand

	act, _ := NewThought(StageAct, t.Registry, WithoutEmptySkip(),
		WithValidate(func(ctx context.Context, state *State) (bool, error) {
			if state.Matched {
				return false, nil
			}
			state.Message = NewCatchAllMessage(state.Message)
			return true, nil
		}))
	t.stages[StageAct] = act

	serve, _ := NewThought(StageServe, t.Registry)
	t.stages[StageServe] = serve

	respond, _ := NewThought("respond", t.Registry,
		WithValidate(t.respondValidate),
		WithAction(func(ctx context.Context, state *State, success bool) error {
			if !success {
				return nil
			}
			env := state.PendingEnvelope()
			if env == nil {
				return nil
			}
			if state.Branch != nil {
				env.BranchID = state.Branch.ID
			}
			if err := env.Validate(); err != nil {
				return err
			}
			if err := t.MessageAdapter.Dispatch(ctx, env); err != nil {
				return err
			}
			state.DispatchedEnvelope(env)
			return nil
		}))
	t.stages["respond"] = respond

	remember, _ := NewThought("remember", t.Registry,
		WithValidate(t.rememberValidate),
		WithAction(func(ctx context.Context, state *State, success bool) error {
			if !success {
				return nil
			}
			if err := t.StorageAdapter.Keep(ctx, "states", snapshotState(state)); err != nil {
				return err
			}
			if t.AutoSave {
				return t.StorageAdapter.SaveMemory(ctx, map[string]any{"users": t.Directory.Snapshot()})
			}
			return nil
		}))
	t.stages["remember"] = remember
}

func (t *Thoughts) understandValidate(ctx context.Context, state *State) (bool, error) {
	if t.NLUAdapter == nil {
		return false, nil
	}
	tm, ok := state.Message.(TextMessage)
	if !ok {
		return false, nil
	}
	text := strings.TrimSpace(tm.Text)
	if text == "" {
		return false, nil
	}
	if t.NLUMinLength > 0 && len(text) < t.NLUMinLength {
		return false, nil
	}
	result, err := t.NLUAdapter.Process(ctx, tm)
	if err != nil {
		return false, &ErrValidationFail{Stage: "understand", Reason: err.Error()}
	}
	if result.Empty() {
		return false, nil
	}
	state.Message = tm.WithNLU(result)
	return true, nil
}

func (t *Thoughts) respondValidate(ctx context.Context, state *State) (bool, error) {
	if t.MessageAdapter == nil {
		return false, &ErrAdapterMissing{Adapter: "message", Op: "respond"}
	}
	if state.PendingEnvelope() == nil {
		return false, nil
	}
	return true, nil
}

func (t *Thoughts) rememberValidate(ctx context.Context, state *State) (bool, error) {
	if t.StorageAdapter == nil {
		return false, nil
	}
	if !state.Matched && !state.AnyDispatched() {
		return false, nil
	}
	if state.Matched && state.Message != nil {
		t.Directory.See(state.Message.User())
	}
	return true, nil
}

// snapshotState renders state into the plain map the Storage adapter
// persists under sub "states": function-valued fields (Branch, Message
// callbacks) are dropped, only data fields survive.
func snapshotState(state *State) map[string]any {
	snap := map[string]any{
		"sequence":   state.Sequence,
		"matched":    state.Matched,
		"done":       state.Done,
		"exit":       state.Exit,
		"conditions": state.Conditions,
		"processed":  state.Processed,
		"heard":      state.Heard,
		"listened":   state.Listened,
		"understood": state.Understood,
		"responded":  state.Responded,
		"remembered": state.Remembered,
	}
	if state.Message != nil {
		snap["message_id"] = state.Message.ID()
		snap["user_id"] = state.Message.User().ID
	}
	if state.Branch != nil {
		snap["branch_id"] = state.Branch.ID
	}
	return snap
}

// Receive runs the receive sequence for an inbound message: hear, listen,
// understand, act, remember. If the user's audience has an engaged
// Dialogue, this turn's branches are matched against the dialogue's
// current Path rather than the global one, and a fresh Path is installed
// on the Dialogue for callbacks to register follow-up branches into (see
// Dialogue.ProgressPath).
func (t *Thoughts) Receive(ctx context.Context, msg Message) (*State, error) {
	state := NewState(SequenceReceive, msg)

	path := t.Path
	var dialogue *Dialogue
	if d := t.Dialogues.Engaged(msg.User()); d != nil {
		dialogue = d
		path = d.Path() // match this turn against the branches already engaged
		state.Dialogue = d
		d.ProgressPath() // swap in a fresh path for follow-up registrations
	}

	if err := t.run(ctx, state, t.sequences[SequenceReceive], path); err != nil {
		return state, err
	}

	if dialogue != nil {
		t.settleDialogue(dialogue, state)
	}

	return state, nil
}

func (t *Thoughts) settleDialogue(d *Dialogue, state *State) {
	if !state.Matched {
		d.RevertPath()
		return
	}
	if d.path.HasBranches(StageListen) || d.path.HasBranches(StageUnderstand) ||
		d.path.HasBranches(StageServe) || d.path.HasBranches(StageAct) {
		return // stays engaged with the fresh path as its path
	}
	t.Dialogues.Close(d.AudienceKey)
}

// ServeMessage runs the serve sequence for a server-originated message:
// hear, serve, act, remember.
func (t *Thoughts) ServeMessage(ctx context.Context, msg Message) (*State, error) {
	state := NewState(SequenceServe, msg)
	err := t.run(ctx, state, t.sequences[SequenceServe], t.Path)
	return state, err
}

// Respond runs the respond-only sequence for a pre-built envelope.
func (t *Thoughts) Respond(ctx context.Context, env *Envelope) (*State, error) {
	state := NewDispatchState(SequenceRespond, env)
	err := t.run(ctx, state, t.sequences[SequenceRespond], t.Path)
	return state, err
}

// Dispatch runs the dispatch sequence: respond, remember.
func (t *Thoughts) Dispatch(ctx context.Context, env *Envelope) (*State, error) {
	state := NewDispatchState(SequenceDispatch, env)
	err := t.run(ctx, state, t.sequences[SequenceDispatch], t.Path)
	return state, err
}

func (t *Thoughts) run(ctx context.Context, state *State, stageNames []string, path *Path) error {
	state.path = path
	for _, name := range stageNames {
		if state.Exit {
			break
		}
		if name == "remember" {
			// A branch callback that queued an envelope gets it dispatched
			// in the same run, before the state is persisted — this is how
			// the respond stage joins a receive/serve sequence.
			if err := t.respondPending(ctx, state, path); err != nil {
				return err
			}
			if state.Exit {
				break
			}
		}
		if err := t.processStage(ctx, name, state, path); err != nil {
			return err
		}
	}
	return nil
}

// respondPending runs the respond stage once per pending envelope. A respond
// pass that fails to hand off its envelope (validate false, adapter refused)
// stops the drain rather than spinning on the same envelope.
func (t *Thoughts) respondPending(ctx context.Context, state *State, path *Path) error {
	for {
		env := state.PendingEnvelope()
		if env == nil {
			return nil
		}
		if err := t.processStage(ctx, "respond", state, path); err != nil {
			return err
		}
		if state.PendingEnvelope() == env {
			return nil
		}
	}
}

func (t *Thoughts) processStage(ctx context.Context, name string, state *State, path *Path) error {
	if t.onEvent != nil {
		t.onEvent(ctx, name, state)
	}
	stage := t.stages[name]
	if stage == nil {
		return nil
	}
	if t.Tracer != nil {
		spanCtx, span := t.Tracer.Start(ctx, "thought."+name, SpanAttr{Key: "sequence", Value: state.Sequence})
		err := stage.Process(spanCtx, state, path)
		span.End()
		return err
	}
	return stage.Process(ctx, state, path)
}

// Start starts the message adapter's inbound loop and the storage
// adapter's lifecycle, rehydrating the user Directory from LoadMemory.
func (t *Thoughts) Start(ctx context.Context) error {
	if t.StorageAdapter != nil {
		if err := t.StorageAdapter.Start(ctx); err != nil {
			return err
		}
		mem, err := t.StorageAdapter.LoadMemory(ctx)
		if err == nil {
			if raw, ok := mem["users"]; ok {
				if users, derr := DecodeUsers(raw); derr == nil {
					t.Directory.Load(users)
				}
			}
		}
	}
	if t.MessageAdapter != nil {
		if err := t.MessageAdapter.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown stops the message and storage adapters, flushing a final
// Directory snapshot first when AutoSave is on.
func (t *Thoughts) Shutdown(ctx context.Context) error {
	var firstErr error
	if t.MessageAdapter != nil {
		if err := t.MessageAdapter.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if t.StorageAdapter != nil {
		if t.AutoSave {
			if err := t.StorageAdapter.SaveMemory(ctx, map[string]any{"users": t.Directory.Snapshot()}); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if err := t.StorageAdapter.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

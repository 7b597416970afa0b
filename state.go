package thoughtbot

// State is created fresh for every pipeline run and threaded by reference
// through all of its stages. It is owned by exactly one run: branches and
// middleware pieces mutate it directly, but it is never shared across runs.
type State struct {
	// Message is the inbound payload for a receive/serve sequence. Nil for
	// a pure dispatch sequence that only carries outbound Envelopes.
	Message Message

	// Envelopes accumulates outbound envelopes in the order they were
	// created. The respond stage dispatches pending ones in order.
	Envelopes []*Envelope

	// Sequence names which built-in sequence is running ("receive",
	// "serve", "respond", "dispatch").
	Sequence string

	// Processed records, per stage name, the timestamp at which that
	// stage's middleware pipeline completed without short-circuiting.
	Processed map[string]int64

	Matched bool
	Done    bool
	Exit    bool

	// Branch is the last branch whose matcher fired during this run.
	Branch *Branch

	// Conditions holds captured fragments from the most recent match.
	Conditions []string

	Heard      int64
	Listened   int64
	Understood int64
	Responded  int64
	Remembered int64

	// Dialogue is set when this run is scoped to an engaged Dialogue, so a
	// branch callback can reach Dialogue.Path().Add(stage, branch) to
	// register a follow-up branch for the audience's next turn.
	Dialogue *Dialogue

	// path is the Path this run's branch stages were matched against, set
	// by Thoughts.run. The listen stage's built-in action reads it to
	// restrict understand to forced branches without re-deriving which
	// Path (global or dialogue-scoped) this run is using.
	path *Path
}

// NewState creates a State for an inbound sequence.
func NewState(sequence string, msg Message) *State {
	return &State{
		Sequence:  sequence,
		Message:   msg,
		Processed: make(map[string]int64),
	}
}

// NewDispatchState creates a State for an outbound-only sequence (the
// respond or dispatch sequence) around a pre-built envelope.
func NewDispatchState(sequence string, env *Envelope) *State {
	return &State{
		Sequence:  sequence,
		Envelopes: []*Envelope{env},
		Processed: make(map[string]int64),
	}
}

// Finish marks the run done, short-circuiting any remaining branches in the
// current stage. It does not by itself skip later stages.
func (s *State) Finish() {
	s.Done = true
}

// MarkProcessed records that stage completed successfully just now, stamping
// the matching lifecycle field alongside the Processed entry.
func (s *State) MarkProcessed(stage string) {
	now := NowUnix()
	s.Processed[stage] = now
	switch stage {
	case "hear":
		s.Heard = now
	case StageListen:
		s.Listened = now
	case StageUnderstand:
		s.Understood = now
	case "respond":
		s.Responded = now
	case "remember":
		s.Remembered = now
	}
}

// RespondEnvelope returns the envelope branch callbacks should append text
// to, creating one addressed to the inbound message's user/room if none
// exists yet.
func (s *State) RespondEnvelope() *Envelope {
	if len(s.Envelopes) == 0 {
		var room Room
		var user User
		if s.Message != nil {
			user = s.Message.User()
			room = user.Room
		}
		s.Envelopes = append(s.Envelopes, NewEnvelope(MethodSend, room, user))
	}
	return s.Envelopes[len(s.Envelopes)-1]
}

// PendingEnvelope returns the first envelope not yet handed to a message
// adapter, or nil if the outbound queue is empty or fully dispatched.
func (s *State) PendingEnvelope() *Envelope {
	for _, e := range s.Envelopes {
		if e.Responded == 0 {
			return e
		}
	}
	return nil
}

// DispatchedEnvelope marks env as handed off to the message adapter.
func (s *State) DispatchedEnvelope(env *Envelope) {
	env.Responded = NowUnix()
	s.Responded = env.Responded
}

// AnyDispatched reports whether at least one envelope in the queue has been
// handed off, the condition remember.validate checks alongside Matched.
func (s *State) AnyDispatched() bool {
	for _, e := range s.Envelopes {
		if e.Responded != 0 {
			return true
		}
	}
	return false
}

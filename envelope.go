package thoughtbot

import "strings"

// Dispatch methods a MessageAdapter must interpret. The set stays open for
// adapter-specific extensions; Validate only knows these five.
const (
	MethodSend  = "send"
	MethodDM    = "dm"
	MethodReply = "reply"
	MethodReact = "react"
	MethodEmote = "emote"
)

// Envelope is the outbound message builder a Thought's respond stage hands
// to the configured MessageAdapter. Strings accumulate in the order Say is
// called; Payload carries attachments or other platform-specific data.
type Envelope struct {
	ID        string
	Method    string
	Room      Room
	User      User
	Strings   []string
	Payload   map[string]any
	BranchID  string // id of the branch that produced this envelope, if any
	TargetID  string // message id being reacted to, required for MethodReact
	CreatedAt int64
	Responded int64 // set once the message adapter's dispatch succeeds
}

// NewEnvelope constructs an Envelope addressed to room/user via method.
// Envelope ids share the 32-char shape message ids carry.
func NewEnvelope(method string, room Room, user User) *Envelope {
	return &Envelope{
		ID:        NewMessageID(),
		Method:    method,
		Room:      room,
		User:      user,
		CreatedAt: NowUnix(),
	}
}

// Say appends text to the envelope's ordered string sequence and returns the
// envelope for chaining.
func (e *Envelope) Say(text string) *Envelope {
	e.Strings = append(e.Strings, text)
	return e
}

// Validate checks the dispatch-time invariants for e.Method: either Room.ID
// or User must resolve to a room; reply additionally requires a User; react
// additionally requires TargetID.
func (e *Envelope) Validate() error {
	switch e.Method {
	case MethodSend, MethodDM, MethodReply, MethodReact, MethodEmote:
	default:
		return &ErrMethodUnsupported{Adapter: "envelope", Method: e.Method}
	}

	if e.Room.ID == "" && e.User.ID == "" {
		return &ErrEnvelopeInvalid{Method: e.Method, Reason: "neither room nor user resolves to a room"}
	}
	if e.Method == MethodReply && e.User.ID == "" {
		return &ErrEnvelopeInvalid{Method: e.Method, Reason: "reply requires a user"}
	}
	if e.Method == MethodReact && e.TargetID == "" {
		return &ErrEnvelopeInvalid{Method: e.Method, Reason: "react requires a target message id"}
	}
	return nil
}

// IsDirect reports whether the receiving room does not itself embed the
// user id — the runtime's direct-message signal for whether a reply string
// needs "@username " prepended. Kept as a substring predicate: see
// DESIGN.md for the Open Question on this detection rule.
func (e *Envelope) IsDirect() bool {
	if e.Room.ID == "" {
		return true
	}
	if e.User.ID == "" {
		return false
	}
	return !strings.Contains(e.Room.ID, e.User.ID)
}

package thoughtbot

// User identifies the sender of a Message. Id is stable across messages;
// Name is optional display metadata. Users are deduplicated through a
// directory keyed by Id — see Directory.
type User struct {
	ID   string
	Name string
	Room Room
}

// Room identifies the conversation a Message belongs to.
type Room struct {
	ID   string
	Name string
}

// Message is the tagged-variant inbound payload the thought process
// consumes. Every concrete variant carries an id and a user; isMessage is
// unexported so the variant set is closed to this package's callers.
type Message interface {
	ID() string
	User() User
	isMessage()
}

type baseMessage struct {
	id   string
	user User
}

func (m baseMessage) ID() string   { return m.id }
func (m baseMessage) User() User   { return m.user }
func (baseMessage) isMessage()     {}

// TextMessage is plain chat text, the only variant the understand stage's
// NLU dispatch operates on.
type TextMessage struct {
	baseMessage
	Text string
	NLU  *NLUResult // nil until the understand stage attaches a result
}

// NewTextMessage constructs a TextMessage with a fresh 32-char id.
func NewTextMessage(user User, text string) TextMessage {
	return TextMessage{baseMessage: baseMessage{id: NewMessageID(), user: user}, Text: text}
}

// WithNLU returns a copy of m carrying result attached to NLU. Messages are
// immutable after construction except for this one augmentation, so the
// receiver is left untouched.
func (m TextMessage) WithNLU(result NLUResult) TextMessage {
	m.NLU = &result
	return m
}

// EnterMessage signals a user joined the room.
type EnterMessage struct {
	baseMessage
}

// NewEnterMessage constructs an EnterMessage with a fresh id.
func NewEnterMessage(user User) EnterMessage {
	return EnterMessage{baseMessage{id: NewMessageID(), user: user}}
}

// LeaveMessage signals a user left the room.
type LeaveMessage struct {
	baseMessage
}

// NewLeaveMessage constructs a LeaveMessage with a fresh id.
func NewLeaveMessage(user User) LeaveMessage {
	return LeaveMessage{baseMessage{id: NewMessageID(), user: user}}
}

// RichMessage carries a platform-specific payload (buttons, cards,
// attachments) that the Equality matcher and server-shaped branches key off.
type RichMessage struct {
	baseMessage
	Payload map[string]any
}

// NewRichMessage constructs a RichMessage with a fresh id.
func NewRichMessage(user User, payload map[string]any) RichMessage {
	return RichMessage{baseMessage: baseMessage{id: NewMessageID(), user: user}, Payload: payload}
}

// ServerMessage is a synthetic message originated by the runtime itself
// (scheduled notices, internal events) rather than a chat platform.
type ServerMessage struct {
	baseMessage
	Data map[string]any
}

// NewServerMessage constructs a ServerMessage with a fresh id.
func NewServerMessage(user User, data map[string]any) ServerMessage {
	return ServerMessage{baseMessage: baseMessage{id: NewMessageID(), user: user}, Data: data}
}

// CatchAllMessage wraps the Original message when the act stage runs
// because no earlier branch matched.
type CatchAllMessage struct {
	baseMessage
	Original Message
}

// NewCatchAllMessage wraps original for the act stage's fallback branches.
// It reuses original's id and user so downstream envelopes still address
// the right room.
func NewCatchAllMessage(original Message) CatchAllMessage {
	return CatchAllMessage{
		baseMessage: baseMessage{id: original.ID(), user: original.User()},
		Original:    original,
	}
}

var (
	_ Message = TextMessage{}
	_ Message = EnterMessage{}
	_ Message = LeaveMessage{}
	_ Message = RichMessage{}
	_ Message = ServerMessage{}
	_ Message = CatchAllMessage{}
)

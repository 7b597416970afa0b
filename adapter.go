package thoughtbot

import "context"

// MessageAdapter is the polymorphic capability a chat platform implements.
// It subscribes to its platform and invokes Thoughts.Receive per inbound
// message, and it honours outbound Envelopes handed to Dispatch.
type MessageAdapter interface {
	// Start begins listening for inbound messages. It should return once
	// listening has begun, launching any polling/streaming loop in the
	// background.
	Start(ctx context.Context) error
	// Shutdown stops listening and releases platform resources.
	Shutdown(ctx context.Context) error
	// Dispatch sends env to the platform according to env.Method. An
	// adapter that does not implement a given method returns
	// *ErrMethodUnsupported.
	Dispatch(ctx context.Context, env *Envelope) error
}

// StorageAdapter is the polymorphic persistence capability. sub names a
// logical sub-collection; "memory" is reserved for the key/value brain
// SaveMemory/LoadMemory manage, and every other sub addresses an
// append-only serial store.
type StorageAdapter interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error

	// Keep appends data to sub's serial store.
	Keep(ctx context.Context, sub string, data map[string]any) error
	// Find returns every record in sub matching params by shallow key
	// equality.
	Find(ctx context.Context, sub string, params map[string]any) ([]map[string]any, error)
	// FindOne returns the first matching record, if any.
	FindOne(ctx context.Context, sub string, params map[string]any) (map[string]any, bool, error)
	// Lose removes every record in sub matching params.
	Lose(ctx context.Context, sub string, params map[string]any) error

	// SaveMemory persists the key/value brain wholesale.
	SaveMemory(ctx context.Context, data map[string]any) error
	// LoadMemory returns the persisted key/value brain. The "users" key,
	// when present, is a mapping of userId → user record the core
	// rehydrates into its Directory.
	LoadMemory(ctx context.Context) (map[string]any, error)
}

// NLUAdapter is the polymorphic natural-language-understanding capability.
// Process returns the provider-shaped result the understand stage
// normalises into an NLUResult; an empty NLUResult means "no result".
type NLUAdapter interface {
	Process(ctx context.Context, msg TextMessage) (NLUResult, error)
}

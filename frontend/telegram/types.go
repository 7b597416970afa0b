// Package telegram's wire types. A small subset of the Bot API fields is
// declared, centred on what mapToMessage and the dispatch path read (a few
// descriptive fields such as FirstName, FileSize and photo dimensions are
// declared but not read) — this is not a full mirror of Telegram's schema.
package telegram

// ApiResponse wraps every Telegram Bot API call: either OK with a Result,
// or !OK with an ErrorCode/Description pair call() turns into an error.
type ApiResponse[T any] struct {
	OK          bool   `json:"ok"`
	Result      T      `json:"result"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
}

// Update is one entry from getUpdates. Non-message updates (edited
// messages, callback queries, ...) decode with Message left nil and are
// skipped by pollLoop.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message is the subset of Telegram's message object mapToMessage
// consumes: plain text, a caption, or a bare document or photo (carried as
// a RichMessage). A message with none of these is dropped.
type Message struct {
	MessageID int64       `json:"message_id"`
	From      *User       `json:"from,omitempty"`
	Chat      Chat        `json:"chat"`
	Text      string      `json:"text,omitempty"`
	Document  *Document   `json:"document,omitempty"`
	Photo     []PhotoSize `json:"photo,omitempty"`
	Caption   string      `json:"caption,omitempty"`
}

// Chat identifies the conversation a Message belongs to; mapToMessage
// uses its ID as the thoughtbot.Room ID.
type Chat struct {
	ID int64 `json:"id"`
}

// User identifies a Message sender; mapToMessage uses ID and Username to
// build the thoughtbot.User.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

// Document is a message's file attachment, carried into a RichMessage
// payload as "document"/"mime_type" when present without a caption.
type Document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

// PhotoSize is one resolution of a message's photo attachment; mapToMessage
// takes the largest (the last entry Telegram sends).
type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int64  `json:"file_size,omitempty"`
}

// Package telegram implements thoughtbot.MessageAdapter against the
// Telegram Bot API: long-poll getUpdates for inbound messages, sendMessage/
// setMessageReaction for outbound Envelopes.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	thoughtbot "github.com/nevindra/thoughtbot"
)

const maxMessageLength = 4096

// apiBaseURLFn resolves the Telegram Bot API base URL. Tests monkeypatch it
// to point at an httptest.Server instead of the real API.
var apiBaseURLFn = func() string { return "https://api.telegram.org/bot" }

// Receiver is the minimal capability this package needs from the
// orchestrator: a way to hand it a freshly-constructed inbound Message.
type Receiver interface {
	Receive(ctx context.Context, msg thoughtbot.Message) (*thoughtbot.State, error)
}

var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Client implements thoughtbot.MessageAdapter for Telegram.
type Client struct {
	token      string
	receiver   Receiver
	httpClient *http.Client
	logger     *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.Mutex
}

var _ thoughtbot.MessageAdapter = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for poll-loop diagnostics. The default
// discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient overrides the *http.Client used for API calls, for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// New builds a Client for the given bot token. Call SetReceiver before
// Start — the orchestrator and its adapter are constructed in two steps
// precisely to break that cycle (Thoughts needs the adapter at
// construction; the adapter needs Thoughts, or anything satisfying
// Receiver, to hand inbound messages to).
func New(token string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		httpClient: &http.Client{},
		logger:     nopLogger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetReceiver wires the collaborator Start's poll loop delivers inbound
// messages to. Must be called before Start.
func (c *Client) SetReceiver(r Receiver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receiver = r
}

// Start launches the long-poll loop in the background and returns once it
// has been scheduled.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.receiver == nil {
		c.mu.Unlock()
		return fmt.Errorf("telegram: Start called before SetReceiver")
	}
	pollCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	go c.pollLoop(pollCtx, done)
	return nil
}

// Shutdown stops the poll loop and waits for it to exit.
func (c *Client) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (c *Client) pollLoop(ctx context.Context, done chan struct{}) {
	defer close(done)
	var offset int64
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		updates, err := c.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("telegram: poll error", "error", err)
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if u.Message == nil {
				continue
			}
			msg := mapToMessage(u.Message)
			if msg == nil {
				continue
			}
			if _, err := c.receiver.Receive(ctx, msg); err != nil {
				c.logger.Error("telegram: receive error", "error", err)
			}
		}
	}
}

func (c *Client) getUpdates(ctx context.Context, offset int64) ([]Update, error) {
	body := map[string]any{
		"offset":          offset,
		"timeout":         30,
		"allowed_updates": []string{"message"},
	}
	var result []Update
	if err := c.call(ctx, "getUpdates", body, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Dispatch implements thoughtbot.MessageAdapter. It honours send, dm, and
// reply by posting sendMessage (prepending "@username " for a reply per
// Envelope.IsDirect), react by posting setMessageReaction, and reports
// *thoughtbot.ErrMethodUnsupported for emote and any other method.
func (c *Client) Dispatch(ctx context.Context, env *thoughtbot.Envelope) error {
	if err := env.Validate(); err != nil {
		return err
	}
	switch env.Method {
	case thoughtbot.MethodSend, thoughtbot.MethodDM, thoughtbot.MethodReply:
		return c.dispatchSend(ctx, env)
	case thoughtbot.MethodReact:
		return c.dispatchReact(ctx, env)
	default:
		return &thoughtbot.ErrMethodUnsupported{Adapter: "telegram", Method: env.Method}
	}
}

func (c *Client) dispatchSend(ctx context.Context, env *thoughtbot.Envelope) error {
	chatID := env.Room.ID
	if chatID == "" {
		chatID = env.User.Room.ID
	}
	text := strings.Join(env.Strings, "\n")
	if env.Method == thoughtbot.MethodReply && env.IsDirect() && env.User.Name != "" {
		text = "@" + env.User.Name + " " + text
	}
	for _, chunk := range splitMessage(renderMarkdown(text)) {
		body := map[string]any{
			"chat_id":    chatID,
			"text":       chunk,
			"parse_mode": "HTML",
		}
		if err := c.call(ctx, "sendMessage", body, nil); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) dispatchReact(ctx context.Context, env *thoughtbot.Envelope) error {
	chatID := env.Room.ID
	if chatID == "" {
		chatID = env.User.Room.ID
	}
	emoji := "👍"
	if len(env.Strings) > 0 {
		emoji = env.Strings[0]
	}
	body := map[string]any{
		"chat_id":    chatID,
		"message_id": env.TargetID,
		"reaction":   []map[string]string{{"type": "emoji", "emoji": emoji}},
	}
	return c.call(ctx, "setMessageReaction", body, nil)
}

func (c *Client) call(ctx context.Context, method string, reqBody any, result any) error {
	url := apiBaseURLFn() + c.token + "/" + method

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("telegram: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &thoughtbot.ErrTransientDispatch{Adapter: "telegram", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("telegram: read response: %w", err)
	}

	var envelope ApiResponse[json.RawMessage]
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("telegram: decode response: %w (body: %s)", err, string(respBody))
	}
	if !envelope.OK {
		if envelope.ErrorCode == 429 || envelope.ErrorCode >= 500 {
			return &thoughtbot.ErrTransientDispatch{Adapter: "telegram", Err: &apiError{Code: envelope.ErrorCode, Description: envelope.Description}}
		}
		return &apiError{Code: envelope.ErrorCode, Description: envelope.Description}
	}
	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("telegram: decode result: %w", err)
		}
	}
	return nil
}

type apiError struct {
	Code        int
	Description string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("telegram API error %d: %s", e.Code, e.Description)
}

// mapToMessage converts a Telegram Message update into the core's tagged
// Message union. Text (and captioned media) becomes a TextMessage; a bare
// attachment with no caption is carried as a RichMessage so matchers can
// still key off its payload.
func mapToMessage(m *Message) thoughtbot.Message {
	if m.From == nil {
		return nil
	}
	user := thoughtbot.User{
		ID:   strconv.FormatInt(m.From.ID, 10),
		Name: m.From.Username,
		Room: thoughtbot.Room{ID: strconv.FormatInt(m.Chat.ID, 10)},
	}

	text := m.Text
	if text == "" {
		text = m.Caption
	}
	if text != "" {
		return thoughtbot.NewTextMessage(user, text)
	}
	if m.Document != nil || len(m.Photo) > 0 {
		payload := map[string]any{}
		if m.Document != nil {
			payload["document"] = m.Document.FileID
			payload["mime_type"] = m.Document.MimeType
		}
		if len(m.Photo) > 0 {
			payload["photo"] = m.Photo[len(m.Photo)-1].FileID
		}
		return thoughtbot.NewRichMessage(user, payload)
	}
	return nil
}

// renderMarkdown converts an Envelope's Markdown body to the HTML subset
// this adapter sends with parse_mode=HTML. The subset is deliberately
// small; a chat reply needs inline emphasis, code, and links, not
// document structure:
//
//   - **bold** / *italic* / ~~strike~~ → <b> <i> <s>
//   - `span` and fenced blocks → <code> / <pre> (language info dropped)
//   - [label](url) and autolinks → <a href="">
//   - headings → a bold line
//   - list items → "- " lines, ordered or not
//
// Everything else (blockquotes, images, thematic breaks) degrades to its
// escaped text content. Raw HTML in the source is escaped too, never
// passed through: envelope strings can embed user-controlled fragments,
// and Telegram rejects whole messages over one stray unsupported tag.
func renderMarkdown(md string) string {
	source := []byte(md)
	parsed := goldmark.New(goldmark.WithExtensions(extension.Strikethrough)).
		Parser().Parse(text.NewReader(source))

	var b strings.Builder
	wrap := func(entering bool, tag string) {
		if entering {
			b.WriteString("<" + tag + ">")
		} else {
			b.WriteString("</" + tag + ">")
		}
	}
	writeLines := func(n ast.Node) {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.WriteString(escapeHTML(string(seg.Value(source))))
		}
	}

	err := ast.Walk(parsed, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n.Kind() {
		case ast.KindHeading:
			if entering {
				b.WriteString("<b>")
			} else {
				b.WriteString("</b>\n")
			}
		case ast.KindParagraph, ast.KindTextBlock:
			if !entering {
				b.WriteString("\n")
			}
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			if entering {
				b.WriteString("<pre>")
				writeLines(n)
				b.WriteString("</pre>\n")
			}
			return ast.WalkSkipChildren, nil
		case ast.KindListItem:
			if entering {
				b.WriteString("- ")
			}
		case ast.KindCodeSpan:
			wrap(entering, "code")
		case ast.KindEmphasis:
			if n.(*ast.Emphasis).Level > 1 {
				wrap(entering, "b")
			} else {
				wrap(entering, "i")
			}
		case extast.KindStrikethrough:
			wrap(entering, "s")
		case ast.KindLink:
			if entering {
				b.WriteString(`<a href="` + escapeHTML(string(n.(*ast.Link).Destination)) + `">`)
			} else {
				b.WriteString("</a>")
			}
		case ast.KindAutoLink:
			if entering {
				url := escapeHTML(string(n.(*ast.AutoLink).URL(source)))
				b.WriteString(`<a href="` + url + `">` + url + "</a>")
			}
		case ast.KindText:
			if entering {
				t := n.(*ast.Text)
				b.WriteString(escapeHTML(string(t.Segment.Value(source))))
				if t.SoftLineBreak() || t.HardLineBreak() {
					b.WriteString("\n")
				}
			}
		case ast.KindString:
			if entering {
				b.WriteString(escapeHTML(string(n.(*ast.String).Value)))
			}
		case ast.KindRawHTML:
			if entering {
				raw := n.(*ast.RawHTML)
				for i := 0; i < raw.Segments.Len(); i++ {
					seg := raw.Segments.At(i)
					b.WriteString(escapeHTML(string(seg.Value(source))))
				}
			}
			return ast.WalkSkipChildren, nil
		case ast.KindHTMLBlock:
			if entering {
				writeLines(n)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return escapeHTML(md)
	}
	return strings.TrimSpace(b.String())
}

// escapeHTML escapes the three characters Telegram's HTML subset treats
// specially.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// splitMessage splits text into chunks that fit within Telegram's 4096
// character message limit, preferring to split on a newline.
func splitMessage(text string) []string {
	if len(text) <= maxMessageLength {
		return []string{text}
	}
	var chunks []string
	remaining := text
	for len(remaining) > 0 {
		if len(remaining) <= maxMessageLength {
			chunks = append(chunks, remaining)
			break
		}
		splitAt := remaining[:maxMessageLength]
		splitPos := strings.LastIndex(splitAt, "\n")
		if splitPos == -1 {
			splitPos = maxMessageLength
		} else {
			splitPos++
		}
		chunks = append(chunks, remaining[:splitPos])
		remaining = remaining[splitPos:]
	}
	return chunks
}

// Package llm provides an NLUAdapter backed by a chat-completion model: the
// inbound message text is classified against a caller-supplied set of
// intent labels via a single prompt/response round trip.
package llm

import (
	"context"
	"encoding/json"
	"strings"

	thoughtbot "github.com/nevindra/thoughtbot"
)

// Chatter is the minimal capability this package needs from a model
// provider: a single prompt in, a single completion out. Callers wire in
// whatever client implements it.
type Chatter interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Adapter implements thoughtbot.NLUAdapter by asking a Chatter to classify
// inbound text against a fixed label set.
type Adapter struct {
	chatter  Chatter
	labels   []string
	language string
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLanguage sets the Language reported on every NLUResult.
func WithLanguage(lang string) Option {
	return func(a *Adapter) { a.language = lang }
}

// New builds an Adapter that classifies messages into one of labels using
// chatter.
func New(chatter Chatter, labels []string, opts ...Option) *Adapter {
	a := &Adapter{chatter: chatter, labels: labels, language: "en"}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are an intent classifier. Classify the user message into exactly one of these intents:\n\n")
	for _, label := range a.labels {
		b.WriteString("- " + label + "\n")
	}
	b.WriteString("\nRespond with ONLY a JSON object of the form {\"intent\":\"<label>\"}, no extra text.")
	return b.String()
}

// Process implements thoughtbot.NLUAdapter. On a Chatter error, or on a
// response that parses to no known label, it returns an NLUResult with no
// intents (Language is still set) rather than an error — classification
// failure degrades to "no intent recognised," not a fatal understand-stage
// error.
func (a *Adapter) Process(ctx context.Context, msg thoughtbot.TextMessage) (thoughtbot.NLUResult, error) {
	result := thoughtbot.NLUResult{Language: a.language}

	resp, err := a.chatter.Complete(ctx, a.systemPrompt(), msg.Text)
	if err != nil {
		return result, nil
	}

	label, ok := parseIntent(resp, a.labels)
	if !ok {
		return result, nil
	}
	result.Intents = append(result.Intents, thoughtbot.NLUIntent{ID: label, Score: 1.0})
	result.Raw = map[string]any{"response": resp}
	return result, nil
}

// parseIntent extracts the classified intent label from a model response,
// tolerating surrounding prose and markdown code fences.
func parseIntent(response string, labels []string) (string, bool) {
	jsonStr := extractJSON(response)

	var parsed struct {
		Intent string `json:"intent"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return "", false
	}

	for _, label := range labels {
		if parsed.Intent == label {
			return label, true
		}
	}
	return "", false
}

// extractJSON finds the first JSON object in a string, stripping markdown
// code fences if present.
func extractJSON(input string) string {
	trimmed := strings.TrimSpace(input)

	if strings.HasPrefix(trimmed, "```json") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	} else if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		return trimmed[start : end+1]
	}
	return trimmed
}

var _ thoughtbot.NLUAdapter = (*Adapter)(nil)

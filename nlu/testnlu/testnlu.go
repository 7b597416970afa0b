// Package testnlu provides a deterministic, dependency-free NLUAdapter for
// tests and zero-config default use: intents are recognised by exact or
// substring keyword match rather than a model call.
package testnlu

import (
	"context"
	"strings"

	thoughtbot "github.com/nevindra/thoughtbot"
)

// Rule maps a set of keywords to an intent ID. A rule matches a message if
// any of its keywords appears, case-insensitively, as a substring of the
// message text.
type Rule struct {
	Intent   string
	Keywords []string
	Score    float64
}

// Adapter implements thoughtbot.NLUAdapter by matching inbound text against
// an ordered list of Rules. Every matching rule contributes one intent, in
// rule order.
type Adapter struct {
	rules    []Rule
	language string
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLanguage sets the Language reported on every NLUResult. Defaults to
// "en".
func WithLanguage(lang string) Option {
	return func(a *Adapter) { a.language = lang }
}

// New builds an Adapter from the given rules, evaluated in order.
func New(rules []Rule, opts ...Option) *Adapter {
	a := &Adapter{rules: rules, language: "en"}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Process implements thoughtbot.NLUAdapter. It never returns an error; a
// message matching no rule yields an NLUResult with no intents and Language
// set.
func (a *Adapter) Process(ctx context.Context, msg thoughtbot.TextMessage) (thoughtbot.NLUResult, error) {
	text := strings.ToLower(msg.Text)
	result := thoughtbot.NLUResult{Language: a.language}

	for _, rule := range a.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				score := rule.Score
				if score == 0 {
					score = 1.0
				}
				result.Intents = append(result.Intents, thoughtbot.NLUIntent{ID: rule.Intent, Score: score})
				break
			}
		}
	}

	return result, nil
}

var _ thoughtbot.NLUAdapter = (*Adapter)(nil)

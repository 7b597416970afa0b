// Package guardrail provides hear-stage middleware pieces that halt a
// pipeline run before any branch sees a message: a length cap and a
// keyword/regex blocklist.
package guardrail

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	thoughtbot "github.com/nevindra/thoughtbot"
)

var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

func textOf(msg thoughtbot.Message) (string, bool) {
	tm, ok := msg.(thoughtbot.TextMessage)
	if !ok {
		return "", false
	}
	return tm.Text, true
}

// ContentLength returns a hear Piece that halts the run (via state.Finish)
// when the inbound TextMessage's rune count exceeds max. Zero max disables
// the check. Non-text messages always pass.
func ContentLength(max int, logger *slog.Logger) thoughtbot.Piece {
	if logger == nil {
		logger = nopLogger
	}
	return func(ctx context.Context, state *thoughtbot.State, next func() error) error {
		if max <= 0 {
			return next()
		}
		text, ok := textOf(state.Message)
		if !ok {
			return next()
		}
		if n := len([]rune(text)); n > max {
			logger.Warn("guardrail: content length exceeded", "length", n, "max", max)
			state.Finish()
			return nil
		}
		return next()
	}
}

// KeywordFilter returns a hear Piece that halts the run when the inbound
// TextMessage's text contains, case-insensitively, any of keywords or
// matches any of patterns.
func KeywordFilter(logger *slog.Logger, keywords []string, patterns []*regexp.Regexp) thoughtbot.Piece {
	if logger == nil {
		logger = nopLogger
	}
	lower := make([]string, len(keywords))
	for i, k := range keywords {
		lower[i] = strings.ToLower(k)
	}

	return func(ctx context.Context, state *thoughtbot.State, next func() error) error {
		text, ok := textOf(state.Message)
		if !ok || text == "" {
			return next()
		}
		lowerText := strings.ToLower(text)
		for _, kw := range lower {
			if strings.Contains(lowerText, kw) {
				logger.Warn("guardrail: keyword blocked", "keyword", kw)
				state.Finish()
				return nil
			}
		}
		for _, re := range patterns {
			if re.MatchString(text) {
				logger.Warn("guardrail: regex pattern blocked", "pattern", re.String())
				state.Finish()
				return nil
			}
		}
		return next()
	}
}

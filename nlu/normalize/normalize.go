// Package normalize strips Unicode obfuscation from inbound text before it
// reaches matcher evaluation, so a zero-width character or a fullwidth
// homoglyph can't slip a message past a regex branch that was written
// against its plain-text form.
package normalize

import (
	"context"
	"strings"

	"golang.org/x/text/unicode/norm"

	thoughtbot "github.com/nevindra/thoughtbot"
)

// zeroWidth are Unicode zero-width and invisible characters sometimes used
// to break up a word so it no longer matches a literal pattern.
var zeroWidth = strings.NewReplacer(
	"​", "", // zero-width space
	"‌", "", // zero-width non-joiner
	"‍", "", // zero-width joiner
	"\uFEFF", "", // zero-width no-break space (BOM)
	"⁠", "", // word joiner
	"᠎", "", // Mongolian vowel separator
	"­", "", // soft hyphen
)

// Text strips zero-width characters and applies Unicode NFKC normalisation
// (folding fullwidth/compatibility forms to their canonical equivalents).
func Text(s string) string {
	return norm.NFKC.String(zeroWidth.Replace(s))
}

// Hear returns a hear-stage Piece that normalises an inbound TextMessage's
// Text in place before any branch evaluates it. Non-text messages pass
// through unchanged.
func Hear() thoughtbot.Piece {
	return func(ctx context.Context, state *thoughtbot.State, next func() error) error {
		if tm, ok := state.Message.(thoughtbot.TextMessage); ok {
			tm.Text = Text(tm.Text)
			state.Message = tm
		}
		return next()
	}
}

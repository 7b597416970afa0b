package thoughtbot

import (
	"context"
	"regexp"
	"strings"
)

// Matcher is the capability evaluated against the state's message to decide
// whether a Branch fires. Implementations must not mutate state.
type Matcher interface {
	// Evaluate reports whether the matcher fires for the current message
	// (and, where relevant, its attached NLU result), along with any
	// captured fragments.
	Evaluate(state *State) (matched bool, conditions []string)
}

// textOf extracts the plain text a text-oriented Matcher evaluates against,
// unwrapping a CatchAllMessage to its Original so act-stage branches can
// still match on the same text listen/understand would have seen.
func textOf(msg Message) (string, bool) {
	switch m := msg.(type) {
	case TextMessage:
		return m.Text, true
	case CatchAllMessage:
		return textOf(m.Original)
	default:
		return "", false
	}
}

// RegexMatcher fires when the message's text matches a compiled pattern.
// Capture groups become the branch's conditions.
type RegexMatcher struct {
	re *regexp.Regexp
}

// Regex compiles pattern into a text Matcher.
func Regex(pattern string) Matcher {
	return RegexMatcher{re: regexp.MustCompile(pattern)}
}

func (m RegexMatcher) Evaluate(state *State) (bool, []string) {
	text, ok := textOf(state.Message)
	if !ok {
		return false, nil
	}
	groups := m.re.FindStringSubmatch(text)
	if groups == nil {
		return false, nil
	}
	if len(groups) > 1 {
		return true, groups[1:]
	}
	return true, nil
}

// CaptureMatcher extracts the substring following After and, if Before is
// non-empty, preceding the first occurrence of Before thereafter.
type CaptureMatcher struct {
	After  string
	Before string
}

// Capture builds a {before, after} capture directive matcher.
func Capture(after, before string) Matcher {
	return CaptureMatcher{After: after, Before: before}
}

func (m CaptureMatcher) Evaluate(state *State) (bool, []string) {
	text, ok := textOf(state.Message)
	if !ok {
		return false, nil
	}
	lower := strings.ToLower(text)
	after := strings.ToLower(m.After)
	idx := strings.Index(lower, after)
	if idx < 0 {
		return false, nil
	}
	rest := text[idx+len(m.After):]
	if m.Before != "" {
		if bi := strings.Index(strings.ToLower(rest), strings.ToLower(m.Before)); bi >= 0 {
			rest = rest[:bi]
		}
	}
	captured := strings.TrimSpace(rest)
	captured = strings.TrimRight(captured, ",.;:!?")
	captured = strings.TrimSpace(captured)
	if captured == "" {
		return false, nil
	}
	return true, []string{captured}
}

// EqualityMatcher fires when the message's keyed payload (a RichMessage's
// Payload, a ServerMessage's Data, or an attached NLUResult's Raw) holds
// Value at Key. Used for server-shaped and NLU-shaped branches.
type EqualityMatcher struct {
	Key   string
	Value any
}

// Equals builds an equality-on-object-key matcher.
func Equals(key string, value any) Matcher {
	return EqualityMatcher{Key: key, Value: value}
}

func (m EqualityMatcher) Evaluate(state *State) (bool, []string) {
	var data map[string]any
	switch msg := state.Message.(type) {
	case RichMessage:
		data = msg.Payload
	case ServerMessage:
		data = msg.Data
	case TextMessage:
		if msg.NLU != nil {
			data = msg.NLU.Raw
		}
	}
	if data == nil {
		return false, nil
	}
	v, ok := data[m.Key]
	if !ok || v != m.Value {
		return false, nil
	}
	return true, nil
}

// IntentMatcher fires when the message carries an NLU result containing an
// intent with the given id at or above MinScore. Only meaningful on
// branches evaluated after the understand stage's validate has attached a
// result.
type IntentMatcher struct {
	ID       string
	MinScore float64
}

// Intent builds a matcher over the attached NLU result's intents.
func Intent(id string, minScore float64) Matcher {
	return IntentMatcher{ID: id, MinScore: minScore}
}

func (m IntentMatcher) Evaluate(state *State) (bool, []string) {
	tm, ok := state.Message.(TextMessage)
	if !ok || tm.NLU == nil {
		return false, nil
	}
	return tm.NLU.Match(m.ID, m.MinScore), nil
}

// FuncMatcher adapts an arbitrary predicate function into a Matcher.
type FuncMatcher func(state *State) (bool, []string)

func (f FuncMatcher) Evaluate(state *State) (bool, []string) { return f(state) }

// Predicate builds a Matcher from a custom function.
func Predicate(fn func(state *State) (bool, []string)) Matcher {
	return FuncMatcher(fn)
}

// Branch bundles a matcher with a callback. Force marks branches that
// survive a stage's Path.Forced collapse (see Path).
type Branch struct {
	ID       string
	Matcher  Matcher
	Callback func(ctx context.Context, state *State) error
	Force    bool
}

// NewBranch constructs a Branch with a fresh id.
func NewBranch(matcher Matcher, callback func(ctx context.Context, state *State) error) *Branch {
	return &Branch{ID: NewID(), Matcher: matcher, Callback: callback}
}

// Forced marks the branch as one that survives Path.Forced collapse and
// returns it for chaining at registration time.
func (b *Branch) Forced() *Branch {
	b.Force = true
	return b
}

// Process evaluates b's matcher against state and, on a match, runs the
// callback through mw. It returns whether the matcher fired — Thought.Process
// uses this to decide stage success, per the invariant that matched must
// become true during the stage's branch iteration for the stage to succeed.
func (b *Branch) Process(ctx context.Context, state *State, mw *Middleware) (bool, error) {
	ok, conditions := b.Matcher.Evaluate(state)
	if !ok {
		return false, nil
	}

	state.Matched = true
	state.Branch = b
	state.Conditions = conditions

	if mw == nil {
		return true, b.Callback(ctx, state)
	}
	_, err := mw.Execute(ctx, state, func(ctx context.Context, state *State) error {
		return b.Callback(ctx, state)
	})
	return true, err
}

package thoughtbot

import (
	"context"
	"sync"
)

// Piece is one middleware unit: (state, next) → error. A piece must either
// call next exactly once to continue the chain, or return without calling
// it to short-circuit — the remaining pieces and the terminal action are
// then skipped. An error returned by a piece (whether or not it called
// next first) unwinds the whole chain to the caller.
//
// The source spec describes pieces as (state, next, done) → promise; this
// collapses next/done into a single call-or-don't-call signal, which is
// the idiomatic Go rendition of "exactly one of next/done fires" and keeps
// short-circuit unambiguous without a second callback.
type Piece func(ctx context.Context, state *State, next func() error) error

// Middleware is a named, ordered sequence of Pieces executed in
// registration order around a terminal action.
type Middleware struct {
	name   string
	mu     sync.Mutex
	pieces []Piece
}

// NewMiddleware creates an empty, named middleware chain.
func NewMiddleware(name string) *Middleware {
	return &Middleware{name: name}
}

// Name returns the chain's registry name.
func (m *Middleware) Name() string { return m.name }

// Register appends piece to the end of the chain.
func (m *Middleware) Register(piece Piece) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pieces = append(m.pieces, piece)
}

// Len reports how many pieces are registered.
func (m *Middleware) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pieces)
}

// Execute runs the chain around terminal. It builds the onion recursively —
// stack depth equal to the registered piece count, which is fixed at
// configuration time and never grows per-request, so it stays bounded in
// practice. completed reports whether every piece called next and terminal
// therefore ran; a short-circuiting piece yields completed=false with
// whatever error (possibly nil) it returned.
func (m *Middleware) Execute(ctx context.Context, state *State, terminal func(ctx context.Context, state *State) error) (completed bool, err error) {
	m.mu.Lock()
	pieces := make([]Piece, len(m.pieces))
	copy(pieces, m.pieces)
	m.mu.Unlock()

	var build func(i int) func() error
	build = func(i int) func() error {
		if i >= len(pieces) {
			return func() error {
				completed = true
				return terminal(ctx, state)
			}
		}
		next := build(i + 1)
		return func() error {
			return pieces[i](ctx, state, next)
		}
	}
	err = build(0)()
	return completed, err
}

// Registry holds the named middleware chains Thoughts looks up by stage
// name when a Thought is constructed without an explicit chain.
type Registry struct {
	mu    sync.Mutex
	chain map[string]*Middleware
}

// NewRegistry creates an empty Registry pre-seeded with the built-in stage
// names so Register can append to them before any Thought is built.
func NewRegistry() *Registry {
	r := &Registry{chain: make(map[string]*Middleware)}
	for _, name := range []string{"hear", "listen", "understand", "act", "serve", "respond", "remember"} {
		r.chain[name] = NewMiddleware(name)
	}
	return r
}

// Register appends piece to the named chain, creating it if this is a
// custom sequence name not among the built-ins.
func (r *Registry) Register(name string, piece Piece) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.chain[name]
	if !ok {
		m = NewMiddleware(name)
		r.chain[name] = m
	}
	m.Register(piece)
}

// Lookup returns the named chain and whether it has ever been registered
// (the built-in names always exist; custom names must be Register'd first).
func (r *Registry) Lookup(name string) (*Middleware, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.chain[name]
	return m, ok
}

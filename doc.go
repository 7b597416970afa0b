// Package thoughtbot is a runtime for conversational agents in Go.
//
// It ingests messages from pluggable chat platforms, routes them through a
// pipeline of user-defined branches (pattern/intent matchers with
// callbacks), produces outbound envelopes, and persists conversational
// state. The core of the package is the thought process: a deterministic,
// middleware-wrapped sequence of stages — hear, listen, understand, act,
// respond, remember — that coordinates branch matching, NLU dispatch,
// dialogue scoping, catch-all fallback, and state persistence.
//
// # Quick Start
//
// Assemble a Thoughts by composing adapter implementations and registering
// branches on the global Path. The message adapter and the orchestrator
// are wired in two steps because each needs a reference to the other:
//
//	tg := telegram.New(token)
//	bot := thoughtbot.New(
//		thoughtbot.WithMessageAdapter(tg),
//		thoughtbot.WithStorageAdapter(sqlite.New("bot.db")),
//		thoughtbot.WithNLUAdapter(testnlu.New(nil)),
//	)
//	tg.SetReceiver(bot)
//	bot.Listen(thoughtbot.Regex(`(?i)hello`), func(ctx context.Context, s *thoughtbot.State) error {
//		s.RespondEnvelope().Say("hi there")
//		return nil
//	})
//	bot.Start(ctx)
//
// # Core Interfaces
//
// The root package defines the contracts every component implements:
//
//   - [MessageAdapter] — chat platform (Telegram, etc.)
//   - [StorageAdapter] — persistence for state snapshots and memory
//   - [NLUAdapter] — natural-language-understanding backend
//   - [Matcher] — predicate evaluated against a message
//   - [Tracer] — optional span emission around stages
//
// # Included Implementations
//
// Storage: storage/sqlite (local, CGO-free), storage/postgres (pooled).
// Message adapters: frontend/telegram.
// NLU: nlu/llm (provider-backed classifier), nlu/testnlu (deterministic,
// dependency-free), nlu/normalize (Unicode text normalisation).
// Middleware: middleware/guardrail (keyword/length filtering).
//
// See cmd/bot for a complete reference application.
package thoughtbot

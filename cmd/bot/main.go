// Command bot is a reference application wiring the thoughtbot runtime to
// a real message adapter, storage backend, NLU adapter, and a couple of
// example branches. It is not part of the core library — see the
// thoughtbot package doc for what that covers.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	thoughtbot "github.com/nevindra/thoughtbot"
	"github.com/nevindra/thoughtbot/config"
	"github.com/nevindra/thoughtbot/frontend/telegram"
	"github.com/nevindra/thoughtbot/middleware/guardrail"
	"github.com/nevindra/thoughtbot/nlu/normalize"
	"github.com/nevindra/thoughtbot/nlu/testnlu"
	"github.com/nevindra/thoughtbot/observability"
	"github.com/nevindra/thoughtbot/storage/sqlite"
)

func main() {
	// 1. Load config: defaults -> thoughtbot.toml -> THOUGHTBOT_* env vars.
	cfg := config.Load(os.Getenv("THOUGHTBOT_CONFIG"))

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// 2. Observability (opt-in): stage spans export over OTLP/HTTP to
	// whatever OTEL_EXPORTER_OTLP_ENDPOINT points at.
	var tracer thoughtbot.Tracer
	var tracerShutdown func(context.Context) error
	if os.Getenv("THOUGHTBOT_TRACING") != "" {
		shutdown, err := observability.Init(context.Background(), cfg.Name)
		if err != nil {
			log.Fatalf("bot: tracing init: %v", err)
		}
		tracerShutdown = shutdown
		tracer = observability.NewTracer()
		log.Println("bot: tracing enabled")
	}

	// 3. Storage.
	store := sqlite.New(cfg.Name+".db", sqlite.WithLogger(logger))

	// 4. Message adapter.
	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		log.Fatal("bot: TELEGRAM_TOKEN is required")
	}
	tg := telegram.New(token, telegram.WithLogger(logger))

	// 5. NLU: deterministic keyword classifier, good enough for the
	// reference branches below without an external model dependency.
	nlu := testnlu.New([]testnlu.Rule{
		{Intent: "greeting", Keywords: []string{"hello", "hi", "hey"}},
		{Intent: "farewell", Keywords: []string{"bye", "goodbye"}},
	})

	// 6. Assemble the orchestrator, then close the adapter/orchestrator
	// construction cycle.
	bot := thoughtbot.New(
		thoughtbot.WithMessageAdapter(tg),
		thoughtbot.WithStorageAdapter(store),
		thoughtbot.WithNLUAdapter(nlu),
		thoughtbot.WithNLUMinLength(cfg.NLUMinLength),
		thoughtbot.WithTracer(tracer),
		thoughtbot.WithAutoSave(cfg.AutoSave),
	)
	tg.SetReceiver(bot)

	// 7. Hear-stage pipeline: fold zero-width/homoglyph obfuscation to its
	// plain form first so the guardrails and branches below it see the
	// same text a reader would, then cap message length and block a
	// configured keyword list.
	bot.Registry.Register("hear", normalize.Hear())
	bot.Registry.Register("hear", guardrail.ContentLength(4000, logger))
	if blocked := os.Getenv("THOUGHTBOT_BLOCKLIST"); blocked != "" {
		bot.Registry.Register("hear", guardrail.KeywordFilter(logger, strings.Split(blocked, ","), nil))
	}

	registerBranches(bot)

	// 8. Run until interrupted.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bot.Start(ctx); err != nil {
		log.Fatalf("bot: start: %v", err)
	}
	log.Println("bot: running")

	<-ctx.Done()
	log.Println("bot: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := bot.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("bot: shutdown: %v", err)
	}
	if tracerShutdown != nil {
		if err := tracerShutdown(shutdownCtx); err != nil {
			log.Printf("bot: tracer shutdown: %v", err)
		}
	}
}

func registerBranches(bot *thoughtbot.Thoughts) {
	bot.Listen(thoughtbot.Regex(`(?i)^/status$`), func(ctx context.Context, s *thoughtbot.State) error {
		s.RespondEnvelope().Say(statusReport(bot))
		return nil
	})

	bot.Listen(thoughtbot.Regex(`(?i)\b(hello|hi|hey)\b`), func(ctx context.Context, s *thoughtbot.State) error {
		s.RespondEnvelope().Say("Hey there! How can I help?")
		return nil
	})

	bot.Understand(thoughtbot.Intent("farewell", 0.5), func(ctx context.Context, s *thoughtbot.State) error {
		s.RespondEnvelope().Say("Goodbye!")
		return nil
	})

	bot.Act(thoughtbot.Predicate(func(*thoughtbot.State) (bool, []string) { return true, nil }),
		func(ctx context.Context, s *thoughtbot.State) error {
			s.RespondEnvelope().Say("Sorry, I didn't understand that.")
			return nil
		})
}

// statusReport renders the engaged-dialogue count and per-stage branch
// counts for the built-in /status command.
func statusReport(bot *thoughtbot.Thoughts) string {
	return fmt.Sprintf(
		"dialogues engaged: %d\nlisten branches: %d\nunderstand branches: %d\nact branches: %d",
		len(bot.Dialogues.List()),
		len(bot.Path.Branches(thoughtbot.StageListen)),
		len(bot.Path.Branches(thoughtbot.StageUnderstand)),
		len(bot.Path.Branches(thoughtbot.StageAct)),
	)
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iamwavecut/cmdbot/internal/adapters/llm/gemini"
	"github.com/iamwavecut/cmdbot/internal/adapters/llm/openai"
	"github.com/iamwavecut/cmdbot/internal/adapters/telegram"
	"github.com/iamwavecut/cmdbot/internal/bot"
	"github.com/iamwavecut/cmdbot/internal/config"
	"github.com/iamwavecut/cmdbot/internal/db/sqlite"
	"github.com/iamwavecut/cmdbot/internal/infra"
	"github.com/iamwavecut/cmdbot/internal/infra/reg"
	"github.com/iamwavecut/cmdbot/internal/lifecycle"
	"github.com/iamwavecut/cmdbot/internal/observability"
	"github.com/iamwavecut/cmdbot/internal/plugins/demo"
)

const shutdownTimeout = 10 * time.Second

var errExecutableModified = errors.New("executable file was modified")

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatalln("cant load config")
	}
	log.SetFormatter(&config.LogFormatter{NoColor: cfg.LogNoColor, CallerSkip: 6})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.Level(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, cfg)
	switch {
	case errors.Is(err, errExecutableModified):
		log.Warnln("executable file was modified, exiting")
	case err != nil && !errors.Is(err, context.Canceled):
		log.WithError(err).Fatalln("bot stopped")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	dir, err := infra.WorkDir(cfg.DotPath)
	if err != nil {
		return err
	}
	store, err := sqlite.NewSQLiteClient(ctx, dir, cfg.DBName)
	if err != nil {
		return errors.WithMessage(err, "open store")
	}
	defer store.Close()

	botAPI, err := api.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		return errors.Wrap(err, "initialize bot api")
	}
	botAPI.Debug = log.Level(cfg.LogLevel) == log.TraceLevel

	quoter, llmComponent, err := newQuoter(ctx, cfg.LLM)
	if err != nil {
		return err
	}

	registry := bot.NewRegistry(
		bot.WithConcurrency(int(cfg.Concurrency)),
		bot.WithStaleAfter(cfg.StaleAfter),
	)
	demo.New(store, reg.NewSettings(store), quoter, demo.Config{
		IsSuperUser:   cfg.IsSuperUser,
		LoginPassword: cfg.LoginPassword,
		CompTimeout:   cfg.CompTimeout,
	}).Register(registry)

	adapter := telegram.New(botAPI)
	runtime := lifecycle.NewRuntime(llmComponent, observability.NewServer(cfg.MetricsAddr), adapter)
	if err := runtime.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := runtime.Stop(stopCtx); err != nil {
			log.WithError(err).Errorln("cant stop runtime")
		}
	}()
	log.WithField("username", botAPI.Self.UserName).Infoln("bot started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return registry.Run(gctx, adapter, adapter.Events())
	})
	g.Go(func() error {
		select {
		case _, ok := <-infra.MonitorExecutable(gctx):
			if ok {
				return errExecutableModified
			}
			return nil
		case <-gctx.Done():
			return nil
		}
	})
	return g.Wait()
}

// newQuoter picks the hitokoto backend, the static list without an API key.
// The component releases the backend on shutdown.
func newQuoter(ctx context.Context, cfg config.LLM) (demo.Quoter, lifecycle.Component, error) {
	component := lifecycle.Funcs{Name: "llm"}
	if cfg.APIKey == "" {
		return demo.StaticQuoter(nil), component, nil
	}
	entry := log.WithField("object", "llm").WithField("type", cfg.Type)
	switch cfg.Type {
	case "gemini":
		backend, err := gemini.New(ctx, cfg.APIKey, cfg.Model, entry)
		if err != nil {
			return nil, nil, err
		}
		component.StopFn = func(context.Context) error { return backend.Close() }
		return demo.NewLLMQuoter(backend), component, nil
	default:
		return demo.NewLLMQuoter(openai.New(cfg.APIKey, cfg.Model, cfg.BaseURL, entry)), component, nil
	}
}

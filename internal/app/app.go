package app

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"morningbot/internal/adapter/telegram"
	"morningbot/internal/adapter/telegram/handlers"
	"morningbot/internal/adapter/telegram/middleware"
	"morningbot/internal/config"
	"morningbot/internal/platform/httpclient"
	"morningbot/internal/platform/logger"
	"morningbot/internal/reminder"
	"morningbot/internal/store"
	"morningbot/pkg/retry"
)

// App wires application components.
type App struct {
	cfg config.Config
	log *slog.Logger
}

// New creates a new App instance and loads configuration.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Options{
		Env:          cfg.Env,
		ConsoleLevel: cfg.Log.ConsoleLevel,
		FileLevel:    cfg.Log.FileLevel,
		File:         cfg.Log.File,
		App:          "morningbot",
	})
	return &App{cfg: cfg, log: log}, nil
}

// Run starts the application and blocks until SIGINT/SIGTERM.
func (a *App) Run() error {
	a.log.Info("starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(a.cfg.Reminder.Timezone)
	if err != nil {
		return err
	}

	st, err := store.Open(ctx, store.Config{
		Driver:        store.Driver(a.cfg.Store.Driver),
		Path:          a.cfg.Store.Path,
		DSN:           a.cfg.Store.DSN,
		MigrationsURL: a.cfg.Store.MigrationsURL,
	}, a.log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			a.log.Error("close store", slog.Any("error", err))
		}
	}()

	composer := a.buildComposer()

	tgClient := httpclient.New(
		httpclient.WithLogger(a.log),
		httpclient.WithRetries(2, 200*time.Millisecond),
	)

	var b *bot.Bot
	var disp *telegram.Dispatcher
	opts := []bot.Option{
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, upd *models.Update) {
			disp.Dispatch(ctx, upd)
		}),
		bot.WithAllowedUpdates([]string{"message"}),
		bot.WithHTTPClient(30*time.Second, tgClient),
	}
	if a.cfg.Telegram.WebhookSecret != "" {
		opts = append(opts, bot.WithWebhookSecretToken(a.cfg.Telegram.WebhookSecret))
	}

	// bot.New talks to the Telegram API, so retry transient network failures
	err = retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context) error {
		var err error
		b, err = bot.New(a.cfg.Telegram.Token, opts...)
		return err
	})
	if err != nil {
		return err
	}

	floor, err := reminder.NewTriggerTime(a.cfg.Reminder.WindowFloor, 0, 0)
	if err != nil {
		return err
	}
	cutoff, err := reminder.NewTriggerTime(a.cfg.Reminder.WindowCutoff, 0, 0)
	if err != nil {
		return err
	}

	svc, err := reminder.New(reminder.Config{
		Location: loc,
		Window: reminder.Window{
			Enabled: a.cfg.Reminder.WindowEnabled,
			Floor:   floor,
			Cutoff:  cutoff,
		},
		DefaultHour: a.cfg.Reminder.DefaultHour,
	}, st, telegram.NewDeliverySink(b), composer, a.log)
	if err != nil {
		return err
	}

	// Restore persisted schedules before accepting any commands, so a /set
	// arriving right after startup never races the reload.
	restored, err := svc.RestoreAll(ctx)
	if err != nil {
		return err
	}
	svc.Start()
	a.log.Info("reminder service started", slog.Int("restored", restored))
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := svc.StopContext(stopCtx); err != nil {
			a.log.Error("stop scheduler", slog.Any("error", err))
		}
	}()

	rate := middleware.NewRateLimiter(time.Second)
	acl := middleware.NewACL(a.cfg.AllowedIDs)
	cmds := handlers.New(svc, a.log)
	handler := middleware.Chain(cmds.Handle, rate.Middleware, acl.Middleware)

	disp = telegram.NewDispatcher(b, 8, handler)

	if a.cfg.Telegram.WebhookURL != "" {
		return a.runWebhook(ctx, b)
	}

	go b.Start(ctx)
	<-ctx.Done()
	return nil
}

// runWebhook serves updates over HTTPS instead of long polling.
func (a *App) runWebhook(ctx context.Context, b *bot.Bot) error {
	_, err := b.SetWebhook(ctx, &bot.SetWebhookParams{
		URL:         a.cfg.Telegram.WebhookURL,
		SecretToken: a.cfg.Telegram.WebhookSecret,
	})
	if err != nil {
		return err
	}

	if a.cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/telegram/webhook", gin.WrapH(b.WebhookHandler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	srv := &http.Server{Addr: a.cfg.HTTP.Addr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("server", slog.Any("err", err))
		}
	}()
	go b.StartWebhook(ctx)
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildComposer loads greeting phrases from the configured file, falling back
// to the built-in set when the file is absent or unreadable.
func (a *App) buildComposer() reminder.Composer {
	if a.cfg.Reminder.PhrasesFile == "" {
		return reminder.NewGreetingComposer()
	}

	phrases, err := reminder.LoadPhrases(a.cfg.Reminder.PhrasesFile)
	if err != nil {
		a.log.Warn("load phrases file, using built-in phrases",
			slog.String("file", a.cfg.Reminder.PhrasesFile),
			slog.Any("error", err))
		return reminder.NewGreetingComposer()
	}

	return reminder.NewGreetingComposerWithOptions(reminder.GreetingOptions{Phrases: phrases})
}

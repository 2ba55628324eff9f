package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"remindbot/internal/adapters/discord"
	"remindbot/internal/adapters/gemini"
	"remindbot/internal/adapters/httpserver"
	"remindbot/internal/application"
	"remindbot/internal/config"
	"remindbot/internal/infrastructure/calendar"
	"remindbot/internal/infrastructure/database"
	"remindbot/internal/infrastructure/i18n"
	"remindbot/internal/infrastructure/logging"
	"remindbot/internal/infrastructure/metrics"
	"remindbot/pkg/datetime"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("❌ invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("❌ bot stopped with an error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabaseURL, logger.With("component", "database"))
	if err != nil {
		return err
	}
	defer db.Close()

	eventRepo := database.NewEventRepository(db)
	reminderRepo := database.NewReminderRepository(db)
	messageRepo := database.NewMessageRepository(db)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.MustNewMetrics(registry)

	translator := i18n.NewTranslator(cfg.Locale, logger)
	extractor := datetime.NewExtractor()

	generator, err := gemini.New(ctx, gemini.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel}, logger)
	if err != nil {
		return err
	}

	events := application.NewEventService(eventRepo, reminderRepo)
	conversation := application.NewConversationService(messageRepo, generator, translator, logger)
	confirmation := application.NewConfirmationService(extractor, events, recorder, logger, application.ConfirmationConfig{
		ReminderLead: cfg.RemindBefore,
		Location:     cfg.Location,
	})
	commands := application.NewCommandService(events, conversation, extractor, calendar.NewICSExporter(), translator, recorder, logger, application.CommandConfig{
		ReminderLead: cfg.RemindBefore,
		Location:     cfg.Location,
	})

	handler := discord.NewHandler(commands, confirmation, conversation, translator, logger, discord.HandlerConfig{
		Locale:        cfg.Locale,
		CommandPrefix: cfg.CommandPrefix,
	})
	bot, err := discord.NewBot(handler, translator, logger, discord.BotConfig{
		Token:   cfg.DiscordToken,
		Locale:  cfg.Locale,
		GuildID: cfg.GuildID,
	})
	if err != nil {
		return err
	}

	scheduler := application.NewReminderScheduler(events, discord.NewNotifier(bot.Session()), translator, recorder, logger, application.SchedulerConfig{
		Interval: cfg.ReminderInterval,
		Locale:   cfg.Locale,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Run(gctx)
	})
	g.Go(func() error {
		// Start stops the scheduler itself once gctx is done.
		scheduler.Start(gctx)
		<-scheduler.Done()
		return nil
	})
	if cfg.MetricsAddr != "" {
		server := httpserver.NewServer(cfg.MetricsAddr, httpserver.NewRouter(registry, db), logger)
		g.Go(func() error {
			return server.Run(gctx)
		})
	}

	logger.Info("🚀 remindbot started", "database", db.Dialect(), "timezone", cfg.Location.String(), "locale", cfg.Locale)
	err = g.Wait()
	logger.Info("👋 remindbot stopped")
	return err
}

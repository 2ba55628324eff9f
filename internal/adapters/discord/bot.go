package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cenkalti/backoff/v4"

	"remindbot/internal/ports/output"
)

const (
	jobTimeout      = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Catalog is a Translator that can also render a key in every locale, which
// slash command registration needs.
type Catalog interface {
	output.Translator
	All(key string, data map[string]any) map[string]string
}

type BotConfig struct {
	Token  string
	Locale string
	// GuildID registers slash commands on one server, where they show up
	// immediately. Empty registers them globally.
	GuildID string
}

// Bot is the Discord adapter.
type Bot struct {
	session    *discordgo.Session
	handler    *Handler
	translator Catalog
	locale     string
	guildID    string
	queue      *chatQueue
	logger     *slog.Logger

	ctx         context.Context
	openBackoff func() backoff.BackOff
}

// NewBot creates the session and wires handler to its events.
func NewBot(handler *Handler, translator Catalog, logger *slog.Logger, cfg BotConfig) (*Bot, error) {
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent
	// Handlers only enqueue, so running them in gateway order keeps each
	// chat's messages ordered.
	s.SyncEvents = true

	logger = logger.With("component", "discord")
	bot := &Bot{
		session:    s,
		handler:    handler,
		translator: translator,
		locale:     cfg.Locale,
		guildID:    cfg.GuildID,
		queue:      newChatQueue(logger),
		logger:     logger,
		ctx:        context.Background(),
		openBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxInterval = 30 * time.Second
			b.MaxElapsedTime = 5 * time.Minute
			return b
		},
	}
	bot.setupHandlers()
	return bot, nil
}

// Session is exposed for the reminder notifier.
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

func (b *Bot) setupHandlers() {
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.handleInteraction)
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.onApplicationCommand(s, i)
	case discordgo.InteractionMessageComponent:
		b.onComponent(s, i)
	}
}

// Run connects to the gateway and serves until ctx is cancelled. Queued
// chat jobs are drained before it returns.
func (b *Bot) Run(ctx context.Context) error {
	// Jobs still queued at shutdown finish with their own timeout.
	b.ctx = context.WithoutCancel(ctx)

	open := func() error {
		err := b.session.Open()
		if err != nil {
			b.logger.Warn("⚠️ gateway connection failed, retrying", "error", err)
		}
		return err
	}
	if err := backoff.Retry(open, backoff.WithContext(b.openBackoff(), ctx)); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	if b.session.State.User == nil {
		_ = b.session.Close()
		return fmt.Errorf("open discord session: no ready event received")
	}
	b.registerCommands()
	b.logger.Info("🤖 bot online", "user", b.session.State.User.Username)

	<-ctx.Done()

	b.logger.Info("🛑 disconnecting")
	if err := b.session.Close(); err != nil {
		b.logger.Warn("session close failed", "error", err)
	}
	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := b.queue.Close(drainCtx); err != nil {
		b.logger.Warn("pending chat jobs abandoned", "error", err)
	}
	return nil
}

func (b *Bot) registerCommands() {
	commands := applicationCommands(b.translator, b.locale)
	if _, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.guildID, commands); err != nil {
		b.logger.Error("⚠️ failed to register slash commands", "guild", b.guildID, "error", err)
		return
	}
	b.logger.Info("slash commands registered", "count", len(commands), "guild", b.guildID)
}

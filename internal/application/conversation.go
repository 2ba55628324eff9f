package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"remindbot/internal/domain"
	"remindbot/internal/domain/entities"
	"remindbot/internal/ports/input"
	"remindbot/internal/ports/output"
)

var _ input.ConversationUseCase = (*ConversationService)(nil)

// ConversationService keeps the chat log and talks to the text generator.
type ConversationService struct {
	messageRepo output.MessageRepository
	generator   output.TextGenerator
	translator  output.Translator
	logger      *slog.Logger
	now         func() time.Time
}

func NewConversationService(
	messageRepo output.MessageRepository,
	generator output.TextGenerator,
	translator output.Translator,
	logger *slog.Logger,
) *ConversationService {
	return &ConversationService{
		messageRepo: messageRepo,
		generator:   generator,
		translator:  translator,
		logger:      logger.With("component", "conversation"),
		now:         time.Now,
	}
}

// Record appends a plain message to the chat log.
func (c *ConversationService) Record(ctx context.Context, msg input.IncomingMessage) error {
	if strings.TrimSpace(msg.Text) == "" {
		return nil
	}
	return c.messageRepo.Append(ctx, &entities.Message{
		ChatID:    msg.ChatID,
		UserID:    msg.UserID,
		Username:  msg.Username,
		Text:      msg.Text,
		Timestamp: c.now().UTC(),
	})
}

// Respond answers a message that mentions the bot. Generator failures yield
// a fixed apology rather than an error.
func (c *ConversationService) Respond(ctx context.Context, locale, text string) string {
	prompt := fmt.Sprintf("As a helpful calendar assistant, respond to this message: %q", text)
	out, err := c.generator.Generate(ctx, prompt)
	if err != nil || strings.TrimSpace(out) == "" {
		if err != nil {
			c.logger.Warn("generate reply", "error", err)
		}
		return c.translator.T(locale, "mention.fallback", nil)
	}
	return out
}

func (c *ConversationService) Summarize(ctx context.Context, chatID string, window time.Duration) (string, error) {
	since := c.now().Add(-window).UTC()
	msgs, err := c.messageRepo.FindSince(ctx, chatID, since)
	if err != nil {
		return "", err
	}
	if len(msgs) == 0 {
		return "", domain.NotFound("no messages in chat %s since %s", chatID, since.Format(time.RFC3339))
	}

	var b strings.Builder
	b.WriteString("Summarize the following conversation:\n")
	for _, m := range msgs {
		name := m.Username
		if name == "" {
			name = m.UserID
		}
		b.WriteString(name + ": " + m.Text + "\n")
	}
	summary, err := c.generator.Generate(ctx, b.String())
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	return strings.TrimSpace(summary), nil
}

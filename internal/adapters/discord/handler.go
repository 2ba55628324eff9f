package discord

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"remindbot/internal/application"
	"remindbot/internal/domain"
	"remindbot/internal/ports/input"
	"remindbot/internal/ports/output"
	pkgdiscord "remindbot/pkg/discord"
)

// Handler turns Discord traffic into use case calls. Its methods are free of
// session calls so they can be exercised without a gateway.
type Handler struct {
	commands     input.CommandRouter
	confirmation input.ConfirmationUseCase
	conversation input.ConversationUseCase
	translator   output.Translator
	locale       string
	prefix       string
	logger       *slog.Logger
}

type HandlerConfig struct {
	// Locale used for plain messages, which carry no client locale.
	Locale        string
	CommandPrefix string
}

func NewHandler(
	commands input.CommandRouter,
	confirmation input.ConfirmationUseCase,
	conversation input.ConversationUseCase,
	translator output.Translator,
	logger *slog.Logger,
	cfg HandlerConfig,
) *Handler {
	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = "!"
	}
	return &Handler{
		commands:     commands,
		confirmation: confirmation,
		conversation: conversation,
		translator:   translator,
		locale:       cfg.Locale,
		prefix:       cfg.CommandPrefix,
		logger:       logger,
	}
}

// inbound is a chat message reduced to what the handler needs.
type inbound struct {
	ChatID      string
	MessageID   string
	UserID      string
	Username    string
	Text        string
	Mentions    []string
	MentionsBot bool
	MessageLink string
}

// outbound is what should be posted back to the chat. ProposalToken, when
// set, asks for accept/reject buttons.
type outbound struct {
	Text          string
	Attachment    *input.Attachment
	ProposalToken string
}

// dispatchMessage handles a plain or prefixed chat message. A nil result
// means nothing is posted.
func (h *Handler) dispatchMessage(ctx context.Context, msg inbound) *outbound {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil
	}

	if body, ok := strings.CutPrefix(text, h.prefix); ok {
		verb, args := application.SplitCommand(body)
		if _, known := application.Canonical(verb); known {
			reply := h.commands.Route(ctx, input.Request{
				Verb:        verb,
				Args:        args,
				ChatID:      msg.ChatID,
				UserID:      msg.UserID,
				Locale:      h.locale,
				Mentions:    msg.Mentions,
				MessageLink: msg.MessageLink,
			})
			return &outbound{Text: reply.Text, Attachment: reply.Attachment}
		}
	}

	in := input.IncomingMessage{
		ChatID:      msg.ChatID,
		MessageID:   msg.MessageID,
		UserID:      msg.UserID,
		Username:    msg.Username,
		Text:        text,
		Mentions:    msg.Mentions,
		MessageLink: msg.MessageLink,
	}
	if err := h.conversation.Record(ctx, in); err != nil {
		h.logger.Warn("message not recorded", "chat", msg.ChatID, "error", err)
	}

	if msg.MentionsBot {
		return &outbound{Text: h.conversation.Respond(ctx, h.locale, text)}
	}

	p, err := h.confirmation.Propose(ctx, in)
	if errors.Is(err, domain.ErrExtractionNotFound) {
		return nil
	}
	if err != nil {
		h.logger.Warn("proposal failed", "chat", msg.ChatID, "error", err)
		return nil
	}
	return &outbound{
		Text: h.translator.T(h.locale, "proposal.prompt", map[string]any{
			"Date":        p.Date,
			"Time":        p.Time,
			"Description": p.Description,
		}),
		ProposalToken: p.Token,
	}
}

// buttonResult says how to update a proposal prompt after a click.
type buttonResult struct {
	// Edit replaces the prompt content and removes its buttons.
	Edit string
	// Delete removes the prompt.
	Delete bool
	// Notice is shown only to the user who clicked.
	Notice string
}

// resolveButton accepts or rejects the proposal named by customID. ok is
// false when customID is not a proposal button.
func (h *Handler) resolveButton(ctx context.Context, customID, locale string) (res buttonResult, ok bool) {
	action, token, ok := pkgdiscord.ParseProposalCustomID(customID)
	if !ok {
		return buttonResult{}, false
	}
	if locale == "" {
		locale = h.locale
	}

	switch action {
	case pkgdiscord.ActionAccept:
		event, err := h.confirmation.Accept(ctx, token)
		if err != nil {
			return h.buttonError(locale, token, err), true
		}
		return buttonResult{Edit: h.translator.T(locale, "proposal.accepted", map[string]any{
			"ID":          event.ID,
			"Date":        event.Date,
			"Time":        event.Time,
			"Description": event.Description,
		})}, true
	default:
		if err := h.confirmation.Reject(ctx, token); err != nil {
			return h.buttonError(locale, token, err), true
		}
		return buttonResult{Delete: true}, true
	}
}

func (h *Handler) buttonError(locale, token string, err error) buttonResult {
	key := pkgdiscord.ErrorKey(err)
	if key == "error.generic" {
		h.logger.Error("proposal answer failed", "token", token, "error", err)
		key = "proposal.failed"
	}
	return buttonResult{Notice: h.translator.T(locale, key, nil)}
}

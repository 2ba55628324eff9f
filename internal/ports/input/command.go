package input

import (
	"context"
	"time"
)

// Request is an explicit command addressed to the bot.
type Request struct {
	Verb        string
	Args        string
	ChatID      string
	UserID      string
	Locale      string
	Mentions    []string
	MessageLink string
}

// Attachment is a file sent along with a reply.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Reply is what the transport sends back for a command.
type Reply struct {
	Text       string
	Attachment *Attachment
}

// CommandRouter never fails: handler errors are turned into reply text.
type CommandRouter interface {
	Route(ctx context.Context, req Request) Reply
}

// ConversationUseCase covers the message log and generated replies.
type ConversationUseCase interface {
	Record(ctx context.Context, msg IncomingMessage) error
	Respond(ctx context.Context, locale, text string) string
	// Summarize returns a generated summary of chatID's messages within the
	// last window, or domain.ErrNotFound when there are none.
	Summarize(ctx context.Context, chatID string, window time.Duration) (string, error)
}

package output

import "context"

// Notifier is the outbound side of the chat transport.
type Notifier interface {
	// SendMessage posts text to chatID and returns the new message ID.
	SendMessage(ctx context.Context, chatID, text string) (string, error)
}

// TextGenerator is the generative-text backend. Calls are best effort.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

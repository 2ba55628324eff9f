package input

import (
	"context"

	"remindbot/internal/domain/entities"
)

// IncomingMessage is a plain (non-command) chat message.
type IncomingMessage struct {
	ChatID      string
	MessageID   string
	UserID      string
	Username    string
	Text        string
	Mentions    []string
	MessageLink string
}

// ConfirmationUseCase drives the propose → accept/reject workflow.
type ConfirmationUseCase interface {
	Propose(ctx context.Context, msg IncomingMessage) (*entities.Proposal, error)
	Accept(ctx context.Context, token string) (*entities.Event, error)
	Reject(ctx context.Context, token string) error
}

package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"remindbot/internal/domain"
	"remindbot/internal/domain/entities"
	"remindbot/internal/ports/input"
	"remindbot/internal/ports/output"
	"remindbot/pkg/datetime"
	"remindbot/pkg/people"
)

var _ input.ConfirmationUseCase = (*ConfirmationService)(nil)

// Proposal outcomes reported to the metrics recorder.
const (
	OutcomeProposed  = "proposed"
	OutcomeAccepted  = "accepted"
	OutcomeRejected  = "rejected"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

const (
	defaultProposalCapacity = 1024
	defaultProposalTTL      = 24 * time.Hour
)

type ConfirmationConfig struct {
	// Capacity bounds the pending proposals; the oldest is evicted first.
	Capacity int
	// TTL after which an unanswered proposal is forgotten.
	TTL          time.Duration
	ReminderLead time.Duration
	Location     *time.Location
}

// ConfirmationService keeps extracted events pending until the user accepts
// or rejects them. A proposal is taken out of the cache by the first answer,
// so a second accept on the same token never reaches the store.
type ConfirmationService struct {
	extractor *datetime.Extractor
	events    input.EventUseCase
	recorder  output.Recorder
	logger    *slog.Logger

	mu        sync.Mutex
	proposals *expirable.LRU[string, entities.Proposal]

	lead     time.Duration
	loc      *time.Location
	now      func() time.Time
	newToken func() string
}

func NewConfirmationService(
	extractor *datetime.Extractor,
	events input.EventUseCase,
	recorder output.Recorder,
	logger *slog.Logger,
	cfg ConfirmationConfig,
) *ConfirmationService {
	if cfg.Capacity <= 0 {
		cfg.Capacity = defaultProposalCapacity
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultProposalTTL
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if recorder == nil {
		recorder = output.NopRecorder{}
	}
	return &ConfirmationService{
		extractor: extractor,
		events:    events,
		recorder:  recorder,
		logger:    logger.With("component", "confirmation"),
		proposals: expirable.NewLRU[string, entities.Proposal](cfg.Capacity, nil, cfg.TTL),
		lead:      cfg.ReminderLead,
		loc:       cfg.Location,
		now:       time.Now,
		newToken:  uuid.NewString,
	}
}

// Propose extracts an event from a plain message and keeps it pending. It
// returns domain.ErrExtractionNotFound when the message holds no date/time.
func (c *ConfirmationService) Propose(ctx context.Context, msg input.IncomingMessage) (*entities.Proposal, error) {
	now := c.now().In(c.loc)
	r, err := c.extractor.Extract(msg.Text, now)
	if err != nil {
		return nil, err
	}
	p := entities.Proposal{
		Token:        c.newToken(),
		ChatID:       msg.ChatID,
		Date:         r.Date,
		Time:         r.Time,
		Description:  r.Description,
		Participants: people.Join(people.Names(r.Description, msg.Mentions)),
		MessageLink:  msg.MessageLink,
		CreatedAt:    now,
	}
	c.mu.Lock()
	c.proposals.Add(p.Token, p)
	c.mu.Unlock()

	c.recorder.ProposalResolved(OutcomeProposed)
	c.logger.Debug("proposal created", "token", p.Token, "chat", p.ChatID, "date", p.Date, "time", p.Time)
	return &p, nil
}

// Accept commits the proposal exactly as it was presented. A token that is
// unknown or already answered yields domain.ErrAlreadyHandled.
func (c *ConfirmationService) Accept(ctx context.Context, token string) (*entities.Event, error) {
	p, ok := c.take(token)
	if !ok {
		c.recorder.ProposalResolved(OutcomeDuplicate)
		return nil, domain.ErrAlreadyHandled
	}

	id, err := c.events.AddEvent(ctx, p.NewEvent())
	if err != nil {
		// Put it back so the user can press accept again.
		c.restore(p)
		c.recorder.ProposalResolved(OutcomeFailed)
		return nil, err
	}
	c.recorder.ProposalResolved(OutcomeAccepted)
	c.recorder.EventCreated(SourceProposal)

	if at, ok := defaultReminderAt(p.Date, p.Time, c.loc, c.lead, c.now()); ok {
		if _, err := c.events.AddReminder(ctx, id, at); err != nil {
			c.logger.Warn("default reminder not created", "event_id", id, "error", err)
		}
	}

	return &entities.Event{
		ID:           id,
		ChatID:       p.ChatID,
		Date:         p.Date,
		Time:         p.Time,
		Description:  p.Description,
		Participants: p.Participants,
		MessageLink:  p.MessageLink,
		Status:       domain.StatusConfirmed,
		CreatedAt:    c.now().UTC(),
	}, nil
}

// Reject drops the proposal without touching the store.
func (c *ConfirmationService) Reject(ctx context.Context, token string) error {
	if _, ok := c.take(token); !ok {
		c.recorder.ProposalResolved(OutcomeDuplicate)
		return domain.ErrAlreadyHandled
	}
	c.recorder.ProposalResolved(OutcomeRejected)
	return nil
}

// Pending reports the number of unanswered proposals.
func (c *ConfirmationService) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.proposals.Len()
}

func (c *ConfirmationService) take(token string) (entities.Proposal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.proposals.Peek(token)
	if !ok {
		return entities.Proposal{}, false
	}
	c.proposals.Remove(token)
	return p, true
}

func (c *ConfirmationService) restore(p entities.Proposal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.proposals.Add(p.Token, p)
}

package entities

import "time"

// Proposal is an extracted event waiting for the user's accept/reject answer.
// It only lives in memory, keyed by Token.
type Proposal struct {
	Token        string
	ChatID       string
	Date         string
	Time         string
	Description  string
	Participants string
	MessageLink  string
	CreatedAt    time.Time
}

// NewEvent converts the proposal into the exact event it describes.
func (p *Proposal) NewEvent() NewEvent {
	return NewEvent{
		ChatID:       p.ChatID,
		Date:         p.Date,
		Time:         p.Time,
		Description:  p.Description,
		Participants: p.Participants,
		MessageLink:  p.MessageLink,
	}
}

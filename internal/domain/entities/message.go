package entities

import "time"

// Message is an entry of the append-only chat log used for summaries.
type Message struct {
	ID        int64
	ChatID    string
	UserID    string
	Username  string
	Text      string
	Timestamp time.Time
}

package database

import (
	"context"
	"time"

	"remindbot/internal/domain"
	"remindbot/internal/domain/entities"
	"remindbot/internal/ports/output"
)

var _ output.MessageRepository = (*MessageRepository)(nil)

type MessageRepository struct {
	db *DB
}

func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Append(ctx context.Context, msg *entities.Message) error {
	q := r.db.rebind(`INSERT INTO messages (chat_id, user_id, username, text, sent_at) VALUES (?, ?, ?, ?, ?) RETURNING id`)
	err := r.db.sql.QueryRowContext(ctx, q,
		msg.ChatID, msg.UserID, msg.Username, msg.Text, r.db.timeArg(msg.Timestamp),
	).Scan(&msg.ID)
	if err != nil {
		return domain.Persistence("append message", err)
	}
	return nil
}

// FindSince returns chatID's messages sent at or after since, in order.
func (r *MessageRepository) FindSince(ctx context.Context, chatID string, since time.Time) ([]entities.Message, error) {
	q := r.db.rebind(`SELECT id, chat_id, user_id, username, text, sent_at FROM messages
		WHERE chat_id = ? AND sent_at >= ? ORDER BY sent_at, id`)
	rows, err := r.db.sql.QueryContext(ctx, q, chatID, r.db.timeArg(since))
	if err != nil {
		return nil, domain.Persistence("list messages", err)
	}
	defer rows.Close()

	var msgs []entities.Message
	for rows.Next() {
		var (
			m    entities.Message
			sent dbTime
		)
		if err := rows.Scan(&m.ID, &m.ChatID, &m.UserID, &m.Username, &m.Text, &sent); err != nil {
			return nil, domain.Persistence("scan message", err)
		}
		m.Timestamp = sent.Time
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("list messages", err)
	}
	return msgs, nil
}

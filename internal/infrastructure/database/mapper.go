package database

import (
	"fmt"
	"time"

	"remindbot/internal/domain/entities"
)

// Timestamps are UTC. SQLite keeps them as fixed-width text so that string
// comparison orders them chronologically.
const sqliteTimeLayout = "2006-01-02 15:04:05"

func (d *DB) timeArg(t time.Time) any {
	if d.dialect == DialectSQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}

// dbTime scans a timestamp column from either dialect.
type dbTime struct {
	time.Time
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
	case time.Time:
		t.Time = v.UTC()
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
	return nil
}

func (t *dbTime) parse(s string) error {
	for _, layout := range []string{sqliteTimeLayout, time.RFC3339Nano} {
		if p, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = p.UTC()
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}

const eventColumns = "id, chat_id, date, time, description, participants, message_link, status, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (entities.Event, error) {
	var (
		e       entities.Event
		created dbTime
	)
	err := row.Scan(&e.ID, &e.ChatID, &e.Date, &e.Time, &e.Description,
		&e.Participants, &e.MessageLink, &e.Status, &created)
	e.CreatedAt = created.Time
	return e, err
}

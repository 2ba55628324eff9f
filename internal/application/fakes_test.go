package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"remindbot/internal/domain"
	"remindbot/internal/domain/entities"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore backs memEvents and memReminders with one mutex so deletes cascade.
type memStore struct {
	mu         sync.Mutex
	events     map[int64]entities.Event
	reminders  map[int64]entities.Reminder
	nextEvent  int64
	nextRem    int64
	failCreate error
}

func newMemStore() *memStore {
	return &memStore{
		events:    make(map[int64]entities.Event),
		reminders: make(map[int64]entities.Reminder),
	}
}

type memEvents struct{ s *memStore }

func (m memEvents) Create(_ context.Context, e *entities.Event) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failCreate != nil {
		return domain.Persistence("insert event", m.s.failCreate)
	}
	m.s.nextEvent++
	e.ID = m.s.nextEvent
	m.s.events[e.ID] = *e
	return nil
}

func (m memEvents) FindByID(_ context.Context, id int64) (*entities.Event, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	e, ok := m.s.events[id]
	if !ok {
		return nil, domain.NotFound("event %d", id)
	}
	return &e, nil
}

func (m memEvents) FindByDate(_ context.Context, date string) ([]entities.Event, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []entities.Event
	for _, e := range m.s.events {
		if e.Date == date {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m memEvents) Delete(_ context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	delete(m.s.events, id)
	for rid, r := range m.s.reminders {
		if r.EventID == id {
			delete(m.s.reminders, rid)
		}
	}
	return nil
}

func (m *memStore) eventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func (m *memStore) reminderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reminders)
}

type memReminders struct{ s *memStore }

func (m memReminders) Create(_ context.Context, r *entities.Reminder) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.events[r.EventID]; !ok {
		return domain.Persistence("insert reminder", errors.New("foreign key constraint failed"))
	}
	m.s.nextRem++
	r.ID = m.s.nextRem
	m.s.reminders[r.ID] = *r
	return nil
}

func (m memReminders) FindDue(_ context.Context, now time.Time) ([]entities.DueReminder, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []entities.DueReminder
	for _, r := range m.s.reminders {
		if !r.RemindAt.After(now) {
			out = append(out, entities.DueReminder{Reminder: r, Event: m.s.events[r.EventID]})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Reminder.RemindAt.Before(out[j].Reminder.RemindAt)
	})
	return out, nil
}

func (m memReminders) Delete(_ context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	delete(m.s.reminders, id)
	return nil
}

type memMessages struct {
	mu   sync.Mutex
	msgs []entities.Message
}

func (m *memMessages) Append(_ context.Context, msg *entities.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = int64(len(m.msgs) + 1)
	m.msgs = append(m.msgs, *msg)
	return nil
}

func (m *memMessages) FindSince(_ context.Context, chatID string, since time.Time) ([]entities.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.Message
	for _, msg := range m.msgs {
		if msg.ChatID == chatID && !msg.Timestamp.Before(since) {
			out = append(out, msg)
		}
	}
	return out, nil
}

type sentMessage struct {
	ChatID string
	Text   string
}

type fakeNotifier struct {
	mu    sync.Mutex
	sent  []sentMessage
	delay time.Duration
	err   error
}

func (n *fakeNotifier) SendMessage(_ context.Context, chatID, text string) (string, error) {
	if n.delay > 0 {
		time.Sleep(n.delay)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return "", n.err
	}
	n.sent = append(n.sent, sentMessage{ChatID: chatID, Text: text})
	return fmt.Sprintf("m%d", len(n.sent)), nil
}

func (n *fakeNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

type fakeGenerator struct {
	mu      sync.Mutex
	out     string
	err     error
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	return g.out, g.err
}

// keyTranslator renders the key followed by the template data.
type keyTranslator struct{}

func (keyTranslator) T(_, key string, data map[string]any) string {
	if len(data) == 0 {
		return key
	}
	return key + " " + fmt.Sprint(data)
}

type fakeExporter struct{}

func (fakeExporter) Export(events []entities.Event, _ *time.Location) ([]byte, error) {
	return []byte(fmt.Sprintf("BEGIN:VCALENDAR %d", len(events))), nil
}

func (fakeExporter) ContentType() string { return "text/calendar" }

type countingRecorder struct {
	mu       sync.Mutex
	created  map[string]int
	outcomes map[string]int
	sent     int
	failed   int
	ticks    int
	commands map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		created:  map[string]int{},
		outcomes: map[string]int{},
		commands: map[string]int{},
	}
}

func (r *countingRecorder) EventCreated(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created[source]++
}

func (r *countingRecorder) ProposalResolved(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[outcome]++
}

func (r *countingRecorder) ReminderDispatched() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent++
}

func (r *countingRecorder) ReminderFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed++
}

func (r *countingRecorder) TickCompleted(time.Duration, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks++
}

func (r *countingRecorder) CommandHandled(command, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[command+":"+status]++
}

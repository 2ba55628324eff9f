package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remindbot/internal/domain/entities"
	"remindbot/internal/ports/input"
	"remindbot/pkg/datetime"
)

var commandNow = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

type commandFixture struct {
	router    *CommandService
	events    *EventService
	store     *memStore
	messages  *memMessages
	generator *fakeGenerator
	recorder  *countingRecorder
}

func newCommandFixture(t *testing.T) commandFixture {
	t.Helper()
	store := newMemStore()
	events := NewEventService(memEvents{store}, memReminders{store})
	msgs := &memMessages{}
	gen := &fakeGenerator{out: "they agreed on Friday"}
	conv := NewConversationService(msgs, gen, keyTranslator{}, discardLogger())
	conv.now = func() time.Time { return commandNow }
	rec := newCountingRecorder()
	router := NewCommandService(events, conv, datetime.NewExtractor(), fakeExporter{}, keyTranslator{}, rec, discardLogger(), CommandConfig{
		ReminderLead: 15 * time.Minute,
		Location:     time.UTC,
	})
	router.now = func() time.Time { return commandNow }
	return commandFixture{router: router, events: events, store: store, messages: msgs, generator: gen, recorder: rec}
}

func (f commandFixture) route(verb, args string) input.Reply {
	return f.router.Route(context.Background(), input.Request{Verb: verb, Args: args, ChatID: "c1", Locale: "en"})
}

func TestCanonical(t *testing.T) {
	for in, want := range map[string]string{
		"add":          CmdAdd,
		"/ADD":         CmdAdd,
		"!добавить":    CmdAdd,
		"показать":     CmdShow,
		"remind@bot":   CmdRemind,
		"пересказать":  CmdSummarize,
		"экспорт":      CmdExport,
		"помощь":       CmdHelp,
		"удалить":      CmdDelete,
		"  summarize ": CmdSummarize,
	} {
		got, ok := Canonical(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := Canonical("dance")
	assert.False(t, ok)
}

func TestSplitCommand(t *testing.T) {
	verb, args := SplitCommand("  /add  Lunch tomorrow at noon ")
	assert.Equal(t, "/add", verb)
	assert.Equal(t, "Lunch tomorrow at noon", args)

	verb, args = SplitCommand("/help")
	assert.Equal(t, "/help", verb)
	assert.Empty(t, args)
}

func TestRoute_AddStoresImmediately(t *testing.T) {
	f := newCommandFixture(t)

	reply := f.route("add", "Add meeting tomorrow at 3pm with Alex")

	assert.Contains(t, reply.Text, "event.added")
	assert.Contains(t, reply.Text, "2024-01-02")
	require.Equal(t, 1, f.store.eventCount())
	e, err := f.events.GetEvent(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "15:00", e.Time)
	assert.Equal(t, "c1", e.ChatID)
	assert.Equal(t, 1, f.store.reminderCount())
	assert.Equal(t, 1, f.recorder.created[SourceCommand])
}

func TestRoute_AddWithoutDate(t *testing.T) {
	f := newCommandFixture(t)

	reply := f.route("add", "buy milk")

	assert.Equal(t, "error.extraction", reply.Text)
	assert.Zero(t, f.store.eventCount())
}

func TestRoute_AddWithoutText(t *testing.T) {
	f := newCommandFixture(t)

	reply := f.route("add", "")
	assert.Contains(t, reply.Text, "error.invalid")
	assert.Contains(t, reply.Text, "usage.add")
}

func TestRoute_ShowListsEventsOfDay(t *testing.T) {
	f := newCommandFixture(t)
	ctx := context.Background()
	_, err := f.events.AddEvent(ctx, entities.NewEvent{Date: "2024-01-02", Time: "18:00", Description: "Dinner"})
	require.NoError(t, err)
	_, err = f.events.AddEvent(ctx, entities.NewEvent{Date: "2024-01-02", Time: "09:00", Description: "Gym"})
	require.NoError(t, err)

	reply := f.route("show", "2024-01-02")

	assert.Contains(t, reply.Text, "events.header")
	assert.Contains(t, reply.Text, "🕒 09:00 - Gym (#2)")
	assert.Contains(t, reply.Text, "🕒 18:00 - Dinner (#1)")
	assert.Less(t, strings.Index(reply.Text, "Gym"), strings.Index(reply.Text, "Dinner"))
}

func TestRoute_ShowDefaultsToToday(t *testing.T) {
	f := newCommandFixture(t)

	reply := f.route("показать", "")
	assert.Contains(t, reply.Text, "events.none")
	assert.Contains(t, reply.Text, "2024-01-01")
}

func TestRoute_ShowBadDate(t *testing.T) {
	f := newCommandFixture(t)

	reply := f.route("show", "someday maybe")
	assert.Contains(t, reply.Text, "error.invalid")
}

func TestRoute_Delete(t *testing.T) {
	f := newCommandFixture(t)
	id, err := f.events.AddEvent(context.Background(), entities.NewEvent{Date: "2024-01-02", Time: "18:00"})
	require.NoError(t, err)

	reply := f.route("delete", "#1")
	assert.Contains(t, reply.Text, "event.deleted")
	assert.Zero(t, f.store.eventCount())

	reply = f.route("delete", "1")
	assert.Contains(t, reply.Text, "event.deleted", "delete of event %d is idempotent", id)

	reply = f.route("delete", "abc")
	assert.Contains(t, reply.Text, "error.invalid")
}

func TestRoute_RemindDefaultsBeforeEvent(t *testing.T) {
	f := newCommandFixture(t)
	_, err := f.events.AddEvent(context.Background(), entities.NewEvent{Date: "2024-01-02", Time: "15:00"})
	require.NoError(t, err)

	reply := f.route("remind", "1")

	assert.Contains(t, reply.Text, "reminder.set")
	assert.Contains(t, reply.Text, "2024-01-02 14:45")
	assert.Equal(t, 1, f.store.reminderCount())
}

func TestRoute_RemindExplicitTime(t *testing.T) {
	f := newCommandFixture(t)
	_, err := f.events.AddEvent(context.Background(), entities.NewEvent{Date: "2024-01-02", Time: "15:00"})
	require.NoError(t, err)

	reply := f.route("remind", "1 tomorrow at 9am")

	assert.Contains(t, reply.Text, "2024-01-02 09:00")
}

func TestRoute_RemindUnknownEvent(t *testing.T) {
	f := newCommandFixture(t)

	reply := f.route("remind", "7")
	assert.Equal(t, "error.not_found", reply.Text)
	assert.Zero(t, f.store.reminderCount())
}

func TestRoute_Summarize(t *testing.T) {
	f := newCommandFixture(t)
	ctx := context.Background()
	require.NoError(t, f.messages.Append(ctx, &entities.Message{ChatID: "c1", Username: "kim", Text: "Friday works", Timestamp: commandNow.Add(-time.Hour)}))
	require.NoError(t, f.messages.Append(ctx, &entities.Message{ChatID: "c1", Username: "lee", Text: "old news", Timestamp: commandNow.Add(-48 * time.Hour)}))

	reply := f.route("summarize", "")

	assert.Contains(t, reply.Text, "summary.result")
	assert.Contains(t, reply.Text, "they agreed on Friday")
	require.Len(t, f.generator.prompts, 1)
	assert.Contains(t, f.generator.prompts[0], "kim: Friday works")
	assert.NotContains(t, f.generator.prompts[0], "old news")
}

func TestRoute_SummarizeEmptyChat(t *testing.T) {
	f := newCommandFixture(t)

	reply := f.route("summarize", "2")
	assert.Equal(t, "summary.none", reply.Text)
	assert.Empty(t, f.generator.prompts)
}

func TestRoute_SummarizeGeneratorFailure(t *testing.T) {
	f := newCommandFixture(t)
	f.generator.err = errors.New("quota")
	require.NoError(t, f.messages.Append(context.Background(), &entities.Message{ChatID: "c1", Text: "hi", Timestamp: commandNow}))

	reply := f.route("summarize", "")
	assert.Equal(t, "error.summarize", reply.Text)
}

func TestRoute_ExportAttachesCalendar(t *testing.T) {
	f := newCommandFixture(t)
	_, err := f.events.AddEvent(context.Background(), entities.NewEvent{Date: "2024-01-02", Time: "15:00"})
	require.NoError(t, err)

	reply := f.route("export", "2024-01-02")

	require.NotNil(t, reply.Attachment)
	assert.Equal(t, "events-2024-01-02.ics", reply.Attachment.Name)
	assert.Equal(t, "text/calendar", reply.Attachment.ContentType)
	assert.Equal(t, "BEGIN:VCALENDAR 1", string(reply.Attachment.Data))
}

func TestRoute_HelpListsEveryCommand(t *testing.T) {
	f := newCommandFixture(t)

	reply := f.route("help", "")
	for _, c := range Commands {
		assert.Contains(t, reply.Text, "usage."+c)
	}
}

func TestRoute_UnknownVerb(t *testing.T) {
	f := newCommandFixture(t)

	reply := f.route("dance", "")
	assert.Equal(t, "command.unknown", reply.Text)
	assert.Equal(t, 1, f.recorder.commands["unknown:rejected"])
}

func TestRoute_PanicBecomesReply(t *testing.T) {
	f := newCommandFixture(t)
	f.router.handlers[CmdHelp] = func(context.Context, input.Request) (input.Reply, error) {
		panic("boom")
	}

	reply := f.route("help", "")
	assert.Equal(t, "error.generic", reply.Text)
	assert.Equal(t, 1, f.recorder.commands["help:panic"])
}

package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remindbot/internal/domain"
	"remindbot/internal/domain/entities"
)

func newEventFixture() (*EventService, *memStore) {
	store := newMemStore()
	return NewEventService(memEvents{store}, memReminders{store}), store
}

func TestAddEvent_AssignsIDAndDefaults(t *testing.T) {
	svc, _ := newEventFixture()
	ctx := context.Background()

	id, err := svc.AddEvent(ctx, entities.NewEvent{ChatID: "c1", Date: "2024-01-02", Time: "15:00"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	e, err := svc.GetEvent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultDescription, e.Description)
	assert.Equal(t, domain.StatusConfirmed, e.Status)
	assert.False(t, e.CreatedAt.IsZero())
}

func TestAddEvent_RejectsMissingOrMalformedFields(t *testing.T) {
	svc, store := newEventFixture()
	ctx := context.Background()

	cases := []entities.NewEvent{
		{Date: "", Time: "15:00"},
		{Date: "2024-01-02", Time: ""},
		{Date: "02.01.2024", Time: "15:00"},
		{Date: "2024-01-02", Time: "3pm"},
	}
	for _, c := range cases {
		_, err := svc.AddEvent(ctx, c)
		assert.ErrorIs(t, err, domain.ErrValidation, "%+v", c)
	}
	assert.Zero(t, store.eventCount())
}

func TestGetEvents_OrderedByTime(t *testing.T) {
	svc, _ := newEventFixture()
	ctx := context.Background()

	for _, tod := range []string{"18:00", "09:00", "12:30"} {
		_, err := svc.AddEvent(ctx, entities.NewEvent{Date: "2024-01-02", Time: tod, Description: "e " + tod})
		require.NoError(t, err)
	}
	_, err := svc.AddEvent(ctx, entities.NewEvent{Date: "2024-01-03", Time: "08:00"})
	require.NoError(t, err)

	events, err := svc.GetEvents(ctx, "2024-01-02")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "09:00", events[0].Time)
	assert.Equal(t, "12:30", events[1].Time)
	assert.Equal(t, "18:00", events[2].Time)
}

func TestGetEvents_NoMatchIsEmpty(t *testing.T) {
	svc, _ := newEventFixture()

	events, err := svc.GetEvents(context.Background(), "2030-05-05")
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestDeleteEvent_IdempotentAndCascades(t *testing.T) {
	svc, store := newEventFixture()
	ctx := context.Background()

	id, err := svc.AddEvent(ctx, entities.NewEvent{Date: "2024-01-02", Time: "15:00"})
	require.NoError(t, err)
	_, err = svc.AddReminder(ctx, id, time.Date(2024, 1, 2, 14, 45, 0, 0, time.UTC))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEvent(ctx, id))
	require.NoError(t, svc.DeleteEvent(ctx, id))
	assert.Zero(t, store.reminderCount())

	_, err = svc.GetEvent(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddReminder_UnknownEvent(t *testing.T) {
	svc, store := newEventFixture()

	_, err := svc.AddReminder(context.Background(), 42, time.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, store.reminderCount())
}

func TestGetUpcomingReminders_OnlyDue(t *testing.T) {
	svc, _ := newEventFixture()
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)

	id, err := svc.AddEvent(ctx, entities.NewEvent{Date: "2024-01-02", Time: "15:00"})
	require.NoError(t, err)
	past, err := svc.AddReminder(ctx, id, now.Add(-time.Minute))
	require.NoError(t, err)
	_, err = svc.AddReminder(ctx, id, now.Add(time.Hour))
	require.NoError(t, err)

	due, err := svc.GetUpcomingReminders(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, past, due[0].Reminder.ID)
	assert.Equal(t, id, due[0].Event.ID)
}

func TestDefaultReminderAt(t *testing.T) {
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)

	at, ok := defaultReminderAt("2024-01-02", "15:00", time.UTC, 15*time.Minute, now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 2, 14, 45, 0, 0, time.UTC), at)

	at, ok = defaultReminderAt("2024-01-02", "12:05", time.UTC, 15*time.Minute, now)
	require.True(t, ok)
	assert.Equal(t, now, at)

	_, ok = defaultReminderAt("2024-01-02", "11:00", time.UTC, 15*time.Minute, now)
	assert.False(t, ok)

	_, ok = defaultReminderAt("2024-01-02", "15:00", time.UTC, 0, now)
	assert.False(t, ok)
}

func TestKeyLock_SerializesAndCleansUp(t *testing.T) {
	k := newKeyLock()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("event:1")
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Zero(t, k.size())
}

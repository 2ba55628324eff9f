package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remindbot/internal/domain"
	"remindbot/internal/ports/input"
)

func newConversation(gen *fakeGenerator, now time.Time) (*ConversationService, *memMessages) {
	msgs := &memMessages{}
	c := NewConversationService(msgs, gen, keyTranslator{}, discardLogger())
	c.now = func() time.Time { return now }
	return c, msgs
}

func TestConversation_RecordSkipsBlank(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	c, msgs := newConversation(&fakeGenerator{}, now)

	require.NoError(t, c.Record(context.Background(), input.IncomingMessage{ChatID: "c1", Text: "  "}))
	require.NoError(t, c.Record(context.Background(), input.IncomingMessage{ChatID: "c1", UserID: "u1", Username: "ann", Text: "hello"}))

	require.Len(t, msgs.msgs, 1)
	assert.Equal(t, "ann", msgs.msgs[0].Username)
	assert.Equal(t, now, msgs.msgs[0].Timestamp)
}

func TestConversation_Respond(t *testing.T) {
	gen := &fakeGenerator{out: "Sure, Friday works."}
	c, _ := newConversation(gen, time.Now())

	assert.Equal(t, "Sure, Friday works.", c.Respond(context.Background(), "en", "are we free friday?"))
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "As a helpful calendar assistant")
	assert.Contains(t, gen.prompts[0], "are we free friday?")
}

func TestConversation_RespondFallsBack(t *testing.T) {
	c, _ := newConversation(&fakeGenerator{err: errors.New("quota")}, time.Now())
	assert.Equal(t, "mention.fallback", c.Respond(context.Background(), "en", "hi"))

	c, _ = newConversation(&fakeGenerator{out: "  "}, time.Now())
	assert.Equal(t, "mention.fallback", c.Respond(context.Background(), "en", "hi"))
}

func TestConversation_Summarize(t *testing.T) {
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	gen := &fakeGenerator{out: " They agreed on lunch. "}
	c, _ := newConversation(gen, now.Add(-30*time.Hour))
	ctx := context.Background()

	require.NoError(t, c.Record(ctx, input.IncomingMessage{ChatID: "c1", Username: "ann", Text: "too old"}))
	c.now = func() time.Time { return now.Add(-time.Hour) }
	require.NoError(t, c.Record(ctx, input.IncomingMessage{ChatID: "c1", Username: "ann", Text: "lunch?"}))
	require.NoError(t, c.Record(ctx, input.IncomingMessage{ChatID: "c1", UserID: "u2", Text: "yes"}))
	require.NoError(t, c.Record(ctx, input.IncomingMessage{ChatID: "c2", Username: "eve", Text: "other chat"}))
	c.now = func() time.Time { return now }

	summary, err := c.Summarize(ctx, "c1", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "They agreed on lunch.", summary)
	require.Len(t, gen.prompts, 1)
	assert.Equal(t, "Summarize the following conversation:\nann: lunch?\nu2: yes\n", gen.prompts[0])
}

func TestConversation_SummarizeEmpty(t *testing.T) {
	gen := &fakeGenerator{out: "x"}
	c, _ := newConversation(gen, time.Now())

	_, err := c.Summarize(context.Background(), "c1", time.Hour)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, gen.prompts)
}

func TestConversation_SummarizeGeneratorError(t *testing.T) {
	c, _ := newConversation(&fakeGenerator{err: errors.New("quota")}, time.Now())
	require.NoError(t, c.Record(context.Background(), input.IncomingMessage{ChatID: "c1", Username: "ann", Text: "hi"}))

	_, err := c.Summarize(context.Background(), "c1", time.Hour)
	assert.Error(t, err)
}

package discord

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChatQueue_KeepsOrderPerChat(t *testing.T) {
	q := newChatQueue(discardLogger())

	var mu sync.Mutex
	got := map[string][]int{}
	for n := 0; n < 50; n++ {
		for _, chat := range []string{"a", "b"} {
			chat, n := chat, n
			require.True(t, q.Submit(chat, func() {
				mu.Lock()
				got[chat] = append(got[chat], n)
				mu.Unlock()
			}))
		}
	}
	require.NoError(t, q.Close(context.Background()))

	for _, chat := range []string{"a", "b"} {
		require.Len(t, got[chat], 50)
		for n, v := range got[chat] {
			assert.Equal(t, n, v, chat)
		}
	}
}

func TestChatQueue_OneJobAtATimePerChat(t *testing.T) {
	q := newChatQueue(discardLogger())

	var running, peak int32
	for n := 0; n < 20; n++ {
		q.Submit("chat", func() {
			cur := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&running, -1)
		})
	}
	require.NoError(t, q.Close(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
}

func TestChatQueue_ChatsRunConcurrently(t *testing.T) {
	q := newChatQueue(discardLogger())

	release := make(chan struct{})
	done := make(chan struct{})
	q.Submit("slow", func() { <-release })
	q.Submit("fast", func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("a blocked chat held up another chat")
	}
	close(release)
	require.NoError(t, q.Close(context.Background()))
}

func TestChatQueue_PanicDoesNotStopChat(t *testing.T) {
	q := newChatQueue(discardLogger())

	var ran atomic.Bool
	q.Submit("chat", func() { panic("boom") })
	q.Submit("chat", func() { ran.Store(true) })
	require.NoError(t, q.Close(context.Background()))
	assert.True(t, ran.Load())
}

func TestChatQueue_Close(t *testing.T) {
	q := newChatQueue(discardLogger())

	release := make(chan struct{})
	q.Submit("chat", func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Close(ctx), context.DeadlineExceeded)
	assert.False(t, q.Submit("chat", func() {}))

	close(release)
	assert.NoError(t, q.Close(context.Background()))
}

package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// chatQueue runs jobs one at a time per chat, in submission order, while
// different chats proceed concurrently. A chat's worker goroutine exits once
// its backlog is empty.
type chatQueue struct {
	mu      sync.Mutex
	pending map[string][]func()
	closed  bool
	wg      sync.WaitGroup
	logger  *slog.Logger
}

func newChatQueue(logger *slog.Logger) *chatQueue {
	return &chatQueue{
		pending: make(map[string][]func()),
		logger:  logger,
	}
}

// Submit enqueues job for chatID. It reports false once the queue is closed.
func (q *chatQueue) Submit(chatID string, job func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	jobs, running := q.pending[chatID]
	q.pending[chatID] = append(jobs, job)
	if !running {
		q.wg.Add(1)
		go q.drain(chatID)
	}
	return true
}

func (q *chatQueue) drain(chatID string) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		jobs := q.pending[chatID]
		if len(jobs) == 0 {
			delete(q.pending, chatID)
			q.mu.Unlock()
			return
		}
		job := jobs[0]
		q.pending[chatID] = jobs[1:]
		q.mu.Unlock()

		q.run(chatID, job)
	}
}

func (q *chatQueue) run(chatID string, job func()) {
	defer func() {
		if p := recover(); p != nil {
			q.logger.Error("chat job panicked", "chat", chatID, "panic", fmt.Sprint(p))
		}
	}()
	job()
}

// Close stops accepting jobs and waits for queued ones until ctx is done.
func (q *chatQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

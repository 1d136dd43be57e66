package scheduler

import (
	"context"
	"fmt"

	"github.com/goliatone/go-autohub/adapters/gojob"
	"github.com/goliatone/go-autohub/core"
)

// DefaultQueueDepth bounds the in-memory action queue.
const DefaultQueueDepth = gojob.DefaultQueueDepth

// MemoryQueue carries action jobs over the in-memory go-job queue, so
// scheduled, queued, and command-bus actions all share the go-job wire
// format. Nacked deliveries requeue after their delay; dead-lettered ones
// are dropped with a counter bump.
type MemoryQueue struct {
	jobs     *gojob.MemoryQueue
	enqueuer *gojob.EnqueuerAdapter
	dequeuer *gojob.DequeuerAdapter
}

func NewMemoryQueue(depth int) *MemoryQueue {
	jobs := gojob.NewMemoryQueue(depth)
	return &MemoryQueue{
		jobs:     jobs,
		enqueuer: gojob.NewEnqueuerAdapter(jobs),
		dequeuer: gojob.NewDequeuerAdapter(jobs, gojob.RetryPolicy{}),
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, msg *core.ActionJobMessage) error {
	if q == nil {
		return fmt.Errorf("scheduler: queue is not configured")
	}
	if msg == nil {
		return fmt.Errorf("scheduler: action job message is required")
	}
	return q.enqueuer.Enqueue(ctx, msg)
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (core.ActionDelivery, error) {
	if q == nil {
		return nil, fmt.Errorf("scheduler: queue is not configured")
	}
	return q.dequeuer.Dequeue(ctx)
}

// DeadLetterCount reports how many deliveries were dropped permanently.
func (q *MemoryQueue) DeadLetterCount() int {
	return q.jobs.DeadLetterCount()
}

// Close stops the queue; pending messages remain dequeueable.
func (q *MemoryQueue) Close() {
	q.jobs.Close()
}

var (
	_ core.ActionEnqueuer = (*MemoryQueue)(nil)
	_ core.ActionDequeuer = (*MemoryQueue)(nil)
)

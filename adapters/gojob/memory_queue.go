package gojob

import (
	"context"
	"fmt"
	"sync"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

// DefaultQueueDepth bounds the in-memory job queue.
const DefaultQueueDepth = 256

// MemoryQueue is a channel-backed go-job queue for single-process
// deployments. Nacked deliveries requeue after their delay; dead-lettered
// ones are dropped with a counter bump.
type MemoryQueue struct {
	mu         sync.Mutex
	ch         chan *job.ExecutionMessage
	closed     bool
	deadLetter int
}

func NewMemoryQueue(depth int) *MemoryQueue {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	return &MemoryQueue{ch: make(chan *job.ExecutionMessage, depth)}
}

// Enqueue adds one message without blocking. The send happens under the
// queue mutex so a concurrent Close cannot close the channel between the
// closed check and the send.
func (q *MemoryQueue) Enqueue(ctx context.Context, msg *job.ExecutionMessage) (queue.EnqueueReceipt, error) {
	if q == nil {
		return queue.EnqueueReceipt{}, fmt.Errorf("gojob: queue is not configured")
	}
	if msg == nil {
		return queue.EnqueueReceipt{}, fmt.Errorf("gojob: execution message is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return queue.EnqueueReceipt{}, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return queue.EnqueueReceipt{}, fmt.Errorf("gojob: queue is closed")
	}
	select {
	case q.ch <- msg:
		return queue.EnqueueReceipt{EnqueuedAt: time.Now()}, nil
	default:
		return queue.EnqueueReceipt{}, fmt.Errorf("gojob: queue is full")
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (queue.Delivery, error) {
	if q == nil {
		return nil, fmt.Errorf("gojob: queue is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case msg, ok := <-q.ch:
		if !ok {
			return nil, fmt.Errorf("gojob: queue is closed")
		}
		return &memoryJobDelivery{queue: q, msg: msg}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// DeadLetterCount reports how many deliveries were dropped permanently.
func (q *MemoryQueue) DeadLetterCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.deadLetter
}

// Close stops the queue; pending messages remain dequeueable.
func (q *MemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}

type memoryJobDelivery struct {
	queue *MemoryQueue
	msg   *job.ExecutionMessage

	mu      sync.Mutex
	settled bool
}

func (d *memoryJobDelivery) Message() *job.ExecutionMessage {
	return d.msg
}

func (d *memoryJobDelivery) Ack(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.settled {
		return fmt.Errorf("gojob: delivery already settled")
	}
	d.settled = true
	return nil
}

func (d *memoryJobDelivery) Nack(ctx context.Context, opts queue.NackOptions) error {
	d.mu.Lock()
	if d.settled {
		d.mu.Unlock()
		return fmt.Errorf("gojob: delivery already settled")
	}
	d.settled = true
	d.mu.Unlock()

	if opts.Disposition != queue.NackDispositionRetry {
		d.queue.mu.Lock()
		d.queue.deadLetter++
		d.queue.mu.Unlock()
		return nil
	}
	if opts.Delay <= 0 {
		_, err := d.queue.Enqueue(ctx, d.msg)
		return err
	}
	time.AfterFunc(opts.Delay, func() {
		_, _ = d.queue.Enqueue(context.Background(), d.msg)
	})
	return nil
}

var (
	_ queue.Enqueuer = (*MemoryQueue)(nil)
	_ queue.Dequeuer = (*MemoryQueue)(nil)
	_ queue.Delivery = (*memoryJobDelivery)(nil)
)

package gojob

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

func executionMessage(jobID string) *job.ExecutionMessage {
	return &job.ExecutionMessage{
		JobID:      jobID,
		ScriptPath: ScriptPathDispatch,
		Parameters: map[string]any{
			paramIntegration: "slack",
			paramOperation:   "post_message",
		},
	}
}

func TestMemoryQueue_EnqueueDequeue(t *testing.T) {
	q := NewMemoryQueue(4)
	if _, err := q.Enqueue(context.Background(), executionMessage("job-1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	delivery, err := q.Dequeue(context.Background())
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if delivery.Message().JobID != "job-1" {
		t.Fatalf("unexpected message: %+v", delivery.Message())
	}
	if err := delivery.Ack(context.Background()); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if err := delivery.Ack(context.Background()); err == nil {
		t.Fatalf("double ack should fail")
	}
}

func TestMemoryQueue_FullQueueRejects(t *testing.T) {
	q := NewMemoryQueue(1)
	if _, err := q.Enqueue(context.Background(), executionMessage("job-a")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := q.Enqueue(context.Background(), executionMessage("job-b")); err == nil {
		t.Fatalf("expected full-queue rejection")
	}
}

func TestMemoryQueue_NackRequeuesAndDeadLetters(t *testing.T) {
	q := NewMemoryQueue(4)
	if _, err := q.Enqueue(context.Background(), executionMessage("job-r")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	delivery, err := q.Dequeue(context.Background())
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if err := delivery.Nack(context.Background(), queue.NackOptions{Disposition: queue.NackDispositionRetry}); err != nil {
		t.Fatalf("nack: %v", err)
	}

	redelivered, err := q.Dequeue(context.Background())
	if err != nil {
		t.Fatalf("redelivery dequeue: %v", err)
	}
	if redelivered.Message().JobID != "job-r" {
		t.Fatalf("expected redelivered job, got %+v", redelivered.Message())
	}
	if err := redelivered.Nack(context.Background(), queue.NackOptions{Disposition: queue.NackDispositionDeadLetter, Reason: "gave up"}); err != nil {
		t.Fatalf("dead-letter nack: %v", err)
	}
	if q.DeadLetterCount() != 1 {
		t.Fatalf("expected one dead letter, got %d", q.DeadLetterCount())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := q.Dequeue(ctx); err == nil {
		t.Fatalf("dead-lettered message must not be redelivered")
	}
}

func TestMemoryQueue_EnqueueAfterCloseFails(t *testing.T) {
	q := NewMemoryQueue(4)
	q.Close()
	if _, err := q.Enqueue(context.Background(), executionMessage("job-late")); err == nil {
		t.Fatalf("expected enqueue on closed queue to fail")
	}
}

func TestMemoryQueue_ConcurrentEnqueueAndClose(t *testing.T) {
	// Producers race the queue shutdown; every Enqueue must return an error
	// or succeed, never panic on a closed channel.
	q := NewMemoryQueue(8)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = q.Enqueue(context.Background(), executionMessage("job-"+strconv.Itoa(n)))
			}
		}(i)
	}
	q.Close()
	wg.Wait()
}

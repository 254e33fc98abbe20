package queue

import (
	"context"
	"sync"
	"time"
)

// MemoryQueue реализует Queue в памяти процесса. Используется в тестах
// и при локальном запуске без Redis; гарантий долговечности не дает.
type MemoryQueue struct {
	mu         sync.Mutex
	ready      []*Job
	processing map[string]*Job
	delayed    map[string]delayedJob
	dead       []*Job
	wake       chan struct{}
	closed     bool
}

type delayedJob struct {
	job *Job
	due time.Time
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		processing: make(map[string]*Job),
		delayed:    make(map[string]delayedJob),
		wake:       make(chan struct{}, 1),
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job *Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.ready = append(q.ready, job)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*Job, error) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, ErrClosed
		}

		now := time.Now()
		for id, d := range q.delayed {
			if !d.due.After(now) {
				q.ready = append(q.ready, d.job)
				delete(q.delayed, id)
			}
		}

		if len(q.ready) > 0 {
			job := q.ready[0]
			q.ready = q.ready[1:]
			q.processing[job.ID.String()] = job
			q.mu.Unlock()
			return job, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.wake:
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (q *MemoryQueue) Ack(ctx context.Context, job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.processing, job.ID.String())
	return nil
}

func (q *MemoryQueue) Nack(ctx context.Context, job *Job, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.processing, job.ID.String())
	job.Attempts++
	q.delayed[job.ID.String()] = delayedJob{job: job, due: time.Now().Add(delay)}
	return nil
}

func (q *MemoryQueue) Bury(ctx context.Context, job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.processing, job.ID.String())
	q.dead = append(q.dead, job)
	return nil
}

// Dead возвращает снимок dead-letter списка
func (q *MemoryQueue) Dead() []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Job, len(q.dead))
	copy(out, q.dead)
	return out
}

// Close останавливает очередь; ожидающие Dequeue вернут ErrClosed
func (q *MemoryQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

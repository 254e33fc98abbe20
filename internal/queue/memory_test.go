package queue

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dequeueNow забирает задание с коротким таймаутом: очередь пустой
// быть не должна
func dequeueNow(t *testing.T, q *MemoryQueue) *Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	return job
}

func TestDequeueLeasesUntilAck(t *testing.T) {
	q := NewMemoryQueue()
	defer q.Close()

	original := NewNotificationJob(uuid.New(), "mention", "you were mentioned")
	require.NoError(t, q.Enqueue(context.Background(), original))

	job := dequeueNow(t, q)
	assert.Equal(t, original.ID, job.ID)

	// Задание в аренде: повторный Dequeue его не видит
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	again, err := q.Dequeue(ctx)
	assert.Nil(t, again)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, q.Ack(context.Background(), job))
	assert.Empty(t, q.processing)
}

func TestNackRedeliversAfterDelay(t *testing.T) {
	q := NewMemoryQueue()
	defer q.Close()

	require.NoError(t, q.Enqueue(context.Background(), NewEmailJob("a@b.c", "hi", "<p>hi</p>")))

	job := dequeueNow(t, q)
	require.NoError(t, q.Nack(context.Background(), job, 50*time.Millisecond))

	// До истечения задержки задание не выдается
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	early, err := q.Dequeue(ctx)
	cancel()
	assert.Nil(t, early)
	assert.Error(t, err)

	redelivered := dequeueNow(t, q)
	assert.Equal(t, job.ID, redelivered.ID)
	// Счетчик попыток растет, ключ идемпотентности неизменен
	assert.Equal(t, 1, redelivered.Attempts)
	assert.Equal(t, job.DedupKey, redelivered.DedupKey)
}

func TestBuryMovesToDeadLetter(t *testing.T) {
	q := NewMemoryQueue()
	defer q.Close()

	require.NoError(t, q.Enqueue(context.Background(), NewNotificationJob(uuid.New(), "t", "b")))

	job := dequeueNow(t, q)
	require.NoError(t, q.Bury(context.Background(), job))

	dead := q.Dead()
	require.Len(t, dead, 1)
	assert.Equal(t, job.ID, dead[0].ID)
	assert.Empty(t, q.processing)

	// Похороненное задание больше не выдается
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	again, err := q.Dequeue(ctx)
	assert.Nil(t, again)
	assert.Error(t, err)
}

func TestEnqueuePreservesFIFO(t *testing.T) {
	q := NewMemoryQueue()
	defer q.Close()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		job := NewNotificationJob(uuid.New(), "t", "b")
		ids = append(ids, job.ID)
		require.NoError(t, q.Enqueue(context.Background(), job))
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, ids[i], dequeueNow(t, q).ID)
	}
}

func TestClosedQueueRejectsOperations(t *testing.T) {
	q := NewMemoryQueue()

	done := make(chan error, 1)
	go func() {
		_, err := q.Dequeue(context.Background())
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not return after Close")
	}

	assert.ErrorIs(t, q.Enqueue(context.Background(), NewNotificationJob(uuid.New(), "t", "b")), ErrClosed)
}

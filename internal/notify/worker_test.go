package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/teamflow/internal/models"
	"github.com/thereayou/teamflow/internal/queue"
	"github.com/thereayou/teamflow/internal/ws"
)

type fakeStore struct {
	failures int
	created  []*models.Notification
	seen     map[string]bool
}

func newFakeStore(failures int) *fakeStore {
	return &fakeStore{failures: failures, seen: make(map[string]bool)}
}

func (s *fakeStore) CreateNotification(n *models.Notification) (bool, error) {
	if s.failures > 0 {
		s.failures--
		return false, errors.New("database unavailable")
	}
	if s.seen[n.DedupKey] {
		return false, nil
	}
	s.seen[n.DedupKey] = true
	n.ID = uuid.New()
	s.created = append(s.created, n)
	return true, nil
}

type fakePusher struct {
	pushes []uuid.UUID
	err    error
}

func (p *fakePusher) ToUser(userID uuid.UUID, eventType ws.EventType, payload interface{}) error {
	p.pushes = append(p.pushes, userID)
	return p.err
}

type fakeMailer struct {
	sent     []string
	failures int
}

func (m *fakeMailer) Send(to, subject, html string) error {
	if m.failures > 0 {
		m.failures--
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, to)
	return nil
}

// processUntilSettled гоняет задание через очередь, как это делал бы
// Run, пока оно не подтвердится или не попадет в dead-letter
func processUntilSettled(t *testing.T, w *Worker, q *queue.MemoryQueue) {
	t.Helper()
	for i := 0; i < 50; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		job, err := q.Dequeue(ctx)
		cancel()
		if err != nil || job == nil {
			return
		}
		w.Process(context.Background(), job)
	}
	t.Fatal("job did not settle")
}

func TestWorkerPersistsAndPushes(t *testing.T) {
	q := queue.NewMemoryQueue()
	store := newFakeStore(0)
	pusher := &fakePusher{}
	w := NewWorker(q, store, pusher, nil)

	userID := uuid.New()
	require.NoError(t, q.Enqueue(context.Background(), queue.NewNotificationJob(userID, "Task assigned", "details")))

	processUntilSettled(t, w, q)

	require.Len(t, store.created, 1)
	assert.Equal(t, userID, store.created[0].UserID)
	assert.Equal(t, "Task assigned", store.created[0].Title)
	require.Len(t, pusher.pushes, 1)
	assert.Empty(t, q.Dead())
}

func TestPushFailureDoesNotFailJob(t *testing.T) {
	q := queue.NewMemoryQueue()
	store := newFakeStore(0)
	pusher := &fakePusher{err: errors.New("recipient offline")}
	w := NewWorker(q, store, pusher, nil)

	require.NoError(t, q.Enqueue(context.Background(), queue.NewNotificationJob(uuid.New(), "t", "b")))

	processUntilSettled(t, w, q)

	// Запись — источник истины; неудачный live push задание не роняет
	require.Len(t, store.created, 1)
	assert.Empty(t, q.Dead())
}

func TestPersistFailureRetriesThenSucceeds(t *testing.T) {
	q := queue.NewMemoryQueue()
	store := newFakeStore(2)
	w := NewWorker(q, store, &fakePusher{}, nil)
	w.SetRetryPolicy(5, time.Millisecond)

	job := queue.NewNotificationJob(uuid.New(), "t", "b")
	require.NoError(t, q.Enqueue(context.Background(), job))

	processUntilSettled(t, w, q)

	require.Len(t, store.created, 1)
	assert.Empty(t, q.Dead())
}

func TestPersistFailureExhaustsRetriesAndBuries(t *testing.T) {
	q := queue.NewMemoryQueue()
	store := newFakeStore(100)
	w := NewWorker(q, store, &fakePusher{}, nil)
	w.SetRetryPolicy(3, time.Millisecond)

	job := queue.NewNotificationJob(uuid.New(), "t", "b")
	require.NoError(t, q.Enqueue(context.Background(), job))

	processUntilSettled(t, w, q)

	// После исчерпания попыток задание в dead-letter, не потеряно
	dead := q.Dead()
	require.Len(t, dead, 1)
	assert.Equal(t, job.ID, dead[0].ID)
	assert.Equal(t, 2, dead[0].Attempts)
	assert.Empty(t, store.created)
}

func TestRedeliveredJobIsDeduplicated(t *testing.T) {
	q := queue.NewMemoryQueue()
	store := newFakeStore(0)
	pusher := &fakePusher{}
	w := NewWorker(q, store, pusher, nil)

	job := queue.NewNotificationJob(uuid.New(), "t", "b")
	require.NoError(t, q.Enqueue(context.Background(), job))
	processUntilSettled(t, w, q)

	// Повторная доставка того же задания (тот же dedup-ключ)
	redelivered := *job
	require.NoError(t, q.Enqueue(context.Background(), &redelivered))
	processUntilSettled(t, w, q)

	// Ровно одна запись и один push, задание подтверждено
	assert.Len(t, store.created, 1)
	assert.Len(t, pusher.pushes, 1)
	assert.Empty(t, q.Dead())
}

func TestEmailJobDeliversViaMailer(t *testing.T) {
	q := queue.NewMemoryQueue()
	mailer := &fakeMailer{}
	w := NewWorker(q, newFakeStore(0), nil, mailer)

	require.NoError(t, q.Enqueue(context.Background(), queue.NewEmailJob("user@example.com", "subj", "<p>hi</p>")))

	processUntilSettled(t, w, q)

	require.Equal(t, []string{"user@example.com"}, mailer.sent)
	assert.Empty(t, q.Dead())
}

func TestEmailSendFailureRetries(t *testing.T) {
	q := queue.NewMemoryQueue()
	mailer := &fakeMailer{failures: 1}
	w := NewWorker(q, newFakeStore(0), nil, mailer)
	w.SetRetryPolicy(3, time.Millisecond)

	require.NoError(t, q.Enqueue(context.Background(), queue.NewEmailJob("user@example.com", "subj", "<p>hi</p>")))

	processUntilSettled(t, w, q)

	require.Len(t, mailer.sent, 1)
	assert.Empty(t, q.Dead())
}

// brokenQueue всегда падает на Dequeue, как при лежащем Redis
type brokenQueue struct {
	dequeues int
}

func (q *brokenQueue) Enqueue(ctx context.Context, job *queue.Job) error { return nil }

func (q *brokenQueue) Dequeue(ctx context.Context) (*queue.Job, error) {
	q.dequeues++
	return nil, errors.New("connection refused")
}

func (q *brokenQueue) Ack(ctx context.Context, job *queue.Job) error                       { return nil }
func (q *brokenQueue) Nack(ctx context.Context, job *queue.Job, delay time.Duration) error { return nil }
func (q *brokenQueue) Bury(ctx context.Context, job *queue.Job) error                      { return nil }

func TestRunPausesAfterDequeueError(t *testing.T) {
	q := &brokenQueue{}
	w := NewWorker(q, newFakeStore(0), nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancel")
	}

	// Между неудачными Dequeue цикл выдерживает паузу, а не молотит
	// вхолостую: за 150мс укладывается максимум пара вызовов
	assert.LessOrEqual(t, q.dequeues, 2)
}

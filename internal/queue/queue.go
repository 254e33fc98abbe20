package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrClosed = errors.New("queue is closed")

// Kind тип задания: уведомление или письмо
type Kind string

const (
	KindNotification Kind = "notification"
	KindEmail        Kind = "email"
)

// Job задание в очереди. DedupKey назначается при постановке и не меняется
// при повторной доставке — воркер использует его как ключ идемпотентности.
type Job struct {
	ID       uuid.UUID `json:"id"`
	Kind     Kind      `json:"kind"`
	DedupKey string    `json:"dedup_key"`

	// Поля уведомления
	UserID uuid.UUID `json:"user_id,omitempty"`
	Title  string    `json:"title,omitempty"`
	Body   string    `json:"body,omitempty"`

	// Поля письма
	To      string `json:"to,omitempty"`
	Subject string `json:"subject,omitempty"`
	HTML    string `json:"html,omitempty"`

	Attempts   int       `json:"attempts"`
	EnqueuedAt time.Time `json:"enqueued_at"`

	// Сырой вид задания в момент Dequeue, нужен для LREM из processing
	raw []byte
}

func NewNotificationJob(userID uuid.UUID, title, body string) *Job {
	return &Job{
		ID:         uuid.New(),
		Kind:       KindNotification,
		DedupKey:   uuid.NewString(),
		UserID:     userID,
		Title:      title,
		Body:       body,
		EnqueuedAt: time.Now(),
	}
}

func NewEmailJob(to, subject, html string) *Job {
	return &Job{
		ID:         uuid.New(),
		Kind:       KindEmail,
		DedupKey:   uuid.NewString(),
		To:         to,
		Subject:    subject,
		HTML:       html,
		EnqueuedAt: time.Now(),
	}
}

// Queue контракт at-least-once очереди. Dequeue берет задание в аренду
// (переносит в processing); без Ack/Nack/Bury задание остается там и может
// быть возвращено при восстановлении.
type Queue interface {
	// Enqueue ставит задание в очередь
	Enqueue(ctx context.Context, job *Job) error
	// Dequeue блокирующе забирает задание; (nil, nil) если за таймаут
	// ничего не пришло
	Dequeue(ctx context.Context) (*Job, error)
	// Ack подтверждает успешную обработку и снимает аренду
	Ack(ctx context.Context, job *Job) error
	// Nack возвращает задание в очередь с задержкой
	Nack(ctx context.Context, job *Job, delay time.Duration) error
	// Bury переносит задание в dead-letter список
	Bury(ctx context.Context, job *Job) error
}

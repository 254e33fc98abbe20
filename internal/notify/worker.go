package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/teamflow/internal/models"
	"github.com/thereayou/teamflow/internal/queue"
	"github.com/thereayou/teamflow/internal/ws"
)

const (
	DefaultMaxAttempts = 5
	DefaultRetryBase   = 2 * time.Second

	// Пауза после ошибки Dequeue: при лежащем Redis цикл не должен
	// молотить вхолостую
	dequeueErrPause = time.Second
)

// NotificationStore долговременное хранилище уведомлений (CRUD-слой).
// created=false означает, что запись с таким dedup-ключом уже есть —
// задание было доставлено повторно.
type NotificationStore interface {
	CreateNotification(n *models.Notification) (created bool, err error)
}

// Pusher доставляет live-уведомление во все соединения получателя
type Pusher interface {
	ToUser(userID uuid.UUID, eventType ws.EventType, payload interface{}) error
}

// NotificationPayload нагрузка события new_notification
type NotificationPayload struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Worker потребляет задания из очереди. Для уведомления сначала пишется
// долговременная запись, затем best-effort live push; Ack только после
// успешной записи. Неудачный push задание не валит: запись — источник
// истины, push — оптимизация.
type Worker struct {
	queue       queue.Queue
	store       NotificationStore
	pusher      Pusher
	mailer      Mailer
	maxAttempts int
	retryBase   time.Duration
}

func NewWorker(q queue.Queue, store NotificationStore, pusher Pusher, mailer Mailer) *Worker {
	return &Worker{
		queue:       q,
		store:       store,
		pusher:      pusher,
		mailer:      mailer,
		maxAttempts: DefaultMaxAttempts,
		retryBase:   DefaultRetryBase,
	}
}

// SetRetryPolicy настраивает лимит попыток и базу экспоненциального backoff
func (w *Worker) SetRetryPolicy(maxAttempts int, retryBase time.Duration) {
	w.maxAttempts = maxAttempts
	w.retryBase = retryBase
}

// Run крутит цикл потребления до отмены контекста
func (w *Worker) Run(ctx context.Context) {
	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || err == queue.ErrClosed {
				return
			}
			log.Printf("Queue dequeue failed: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(dequeueErrPause):
			}
			continue
		}
		if job == nil {
			continue
		}

		w.Process(ctx, job)
	}
}

// Process обрабатывает одно задание целиком: Ack, Nack с backoff или Bury
func (w *Worker) Process(ctx context.Context, job *queue.Job) {
	var err error
	switch job.Kind {
	case queue.KindNotification:
		err = w.processNotification(job)
	case queue.KindEmail:
		if w.mailer == nil {
			err = fmt.Errorf("no mailer configured")
		} else {
			err = w.mailer.Send(job.To, job.Subject, job.HTML)
		}
	default:
		err = fmt.Errorf("unknown job kind %q", job.Kind)
	}

	if err == nil {
		if ackErr := w.queue.Ack(ctx, job); ackErr != nil {
			log.Printf("Failed to ack job %s: %v", job.ID, ackErr)
		}
		return
	}

	if job.Attempts+1 >= w.maxAttempts {
		// Dead-letter вместо тихой потери: задание остается для ручного разбора
		log.Printf("Job %s dead after %d attempts: %v", job.ID, job.Attempts+1, err)
		if buryErr := w.queue.Bury(ctx, job); buryErr != nil {
			log.Printf("Failed to bury job %s: %v", job.ID, buryErr)
		}
		return
	}

	delay := w.retryBase << job.Attempts
	log.Printf("Job %s failed (attempt %d), retrying in %s: %v", job.ID, job.Attempts+1, delay, err)
	if nackErr := w.queue.Nack(ctx, job, delay); nackErr != nil {
		log.Printf("Failed to nack job %s: %v", job.ID, nackErr)
	}
}

func (w *Worker) processNotification(job *queue.Job) error {
	notification := &models.Notification{
		UserID:    job.UserID,
		Title:     job.Title,
		Message:   job.Body,
		DedupKey:  job.DedupKey,
		CreatedAt: time.Now(),
	}

	created, err := w.store.CreateNotification(notification)
	if err != nil {
		return err
	}
	if !created {
		// Повторная доставка уже записанного задания: запись не дублируем
		// и push не повторяем
		return nil
	}

	if w.pusher != nil {
		payload := NotificationPayload{
			ID:        notification.ID,
			Title:     notification.Title,
			Message:   notification.Message,
			CreatedAt: notification.CreatedAt,
		}
		if pushErr := w.pusher.ToUser(job.UserID, ws.TypeNewNotification, payload); pushErr != nil {
			log.Printf("Live push failed for notification %s: %v", notification.ID, pushErr)
		}
	}

	return nil
}

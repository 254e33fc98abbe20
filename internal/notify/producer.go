package notify

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/teamflow/internal/queue"
)

// Producer ставит задания на доставку. Вызывается синхронно из бизнес-
// логики: ошибка очереди логируется и не возвращается, чтобы недоступный
// Redis не завалил основную транзакцию. Потерянное уведомление приемлемо,
// потерянная бизнес-запись — нет.
type Producer struct {
	notifications queue.Queue
	emails        queue.Queue
}

func NewProducer(notifications, emails queue.Queue) *Producer {
	return &Producer{notifications: notifications, emails: emails}
}

// Notify ставит уведомление в очередь, fire-and-forget
func (p *Producer) Notify(userID uuid.UUID, title, message string) {
	job := queue.NewNotificationJob(userID, title, message)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.notifications.Enqueue(ctx, job); err != nil {
		log.Printf("Failed to enqueue notification for user %s: %v", userID, err)
	}
}

// Email ставит письмо в очередь, fire-and-forget
func (p *Producer) Email(to, subject, html string) {
	job := queue.NewEmailJob(to, subject, html)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.emails.Enqueue(ctx, job); err != nil {
		log.Printf("Failed to enqueue email to %s: %v", to, err)
	}
}

package presence

import (
	"context"

	"github.com/google/uuid"
)

// Store хранит множество открытых соединений каждого пользователя.
// Пользователь online тогда и только тогда, когда множество непусто.
// Мутации только через Add/Remove: прямой записи счетчика нет, иначе
// одновременные connect/disconnect одного пользователя на разных
// инстансах gateway теряют соединения.
type Store interface {
	// Add добавляет соединение и возвращает новую мощность множества
	Add(ctx context.Context, userID, connID uuid.UUID) (int64, error)
	// Remove удаляет соединение и возвращает новую мощность множества
	Remove(ctx context.Context, userID, connID uuid.UUID) (int64, error)
	// Count читает текущую мощность напрямую из хранилища, без кеша
	Count(ctx context.Context, userID uuid.UUID) (int64, error)
}

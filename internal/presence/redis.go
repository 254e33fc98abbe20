package presence

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const keyPrefix = "presence:user:"

// RedisStore реализует Store поверх Redis-множеств. SADD/SREM и SCARD
// выполняются в одном MULTI/EXEC, поэтому возвращенная мощность
// соответствует именно этой мутации даже при конкурентных gateway.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Add(ctx context.Context, userID, connID uuid.UUID) (int64, error) {
	key := keyPrefix + userID.String()

	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, key, connID.String())
	card := pipe.SCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return card.Val(), nil
}

func (s *RedisStore) Remove(ctx context.Context, userID, connID uuid.UUID) (int64, error) {
	key := keyPrefix + userID.String()

	// Пустое множество Redis удаляет сам, отдельный DEL не нужен
	pipe := s.client.TxPipeline()
	pipe.SRem(ctx, key, connID.String())
	card := pipe.SCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return card.Val(), nil
}

func (s *RedisStore) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.client.SCard(ctx, keyPrefix+userID.String()).Result()
}

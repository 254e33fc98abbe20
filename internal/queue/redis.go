package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

const dequeueTimeout = 5 * time.Second

// promoteScript атомарно переносит созревшие отложенные задания обратно
// в очередь. Несколько воркеров могут звать его одновременно: ZREM+LPUSH
// в одном скрипте исключают двойной перенос.
var promoteScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, 100)
for _, job in ipairs(due) do
	redis.call('ZREM', KEYS[1], job)
	redis.call('LPUSH', KEYS[2], job)
end
return #due
`)

// RedisQueue надежная очередь на Redis-списках: LPUSH для постановки,
// BRPOPLPUSH в processing-список как аренда, LREM как подтверждение,
// ZSET с due-временем для повторов с backoff.
type RedisQueue struct {
	client *redis.Client
	name   string
}

func NewRedisQueue(client *redis.Client, name string) *RedisQueue {
	return &RedisQueue{client: client, name: name}
}

func (q *RedisQueue) key() string           { return "queue:" + q.name }
func (q *RedisQueue) processingKey() string { return "queue:" + q.name + ":processing" }
func (q *RedisQueue) delayedKey() string    { return "queue:" + q.name + ":delayed" }
func (q *RedisQueue) deadKey() string       { return "queue:" + q.name + ":dead" }

func (q *RedisQueue) Enqueue(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key(), data).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*Job, error) {
	now := time.Now().UnixMilli()
	if err := promoteScript.Run(ctx, q.client, []string{q.delayedKey(), q.key()}, now).Err(); err != nil && err != redis.Nil {
		return nil, err
	}

	raw, err := q.client.BRPopLPush(ctx, q.key(), q.processingKey(), dequeueTimeout).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		// Нечитаемое задание не должно крутиться в processing вечно
		q.client.LRem(ctx, q.processingKey(), 1, raw)
		q.client.LPush(ctx, q.deadKey(), raw)
		return nil, err
	}
	job.raw = []byte(raw)

	return &job, nil
}

func (q *RedisQueue) Ack(ctx context.Context, job *Job) error {
	return q.client.LRem(ctx, q.processingKey(), 1, string(job.raw)).Err()
}

func (q *RedisQueue) Nack(ctx context.Context, job *Job, delay time.Duration) error {
	job.Attempts++
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	due := float64(time.Now().Add(delay).UnixMilli())
	pipe := q.client.TxPipeline()
	pipe.LRem(ctx, q.processingKey(), 1, string(job.raw))
	pipe.ZAdd(ctx, q.delayedKey(), &redis.Z{Score: due, Member: data})
	_, err = pipe.Exec(ctx)
	return err
}

func (q *RedisQueue) Bury(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	pipe := q.client.TxPipeline()
	pipe.LRem(ctx, q.processingKey(), 1, string(job.raw))
	pipe.LPush(ctx, q.deadKey(), data)
	_, err = pipe.Exec(ctx)
	return err
}

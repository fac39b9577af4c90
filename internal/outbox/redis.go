// internal/outbox/redis.go
package outbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tamzrod/coolboard-agent/internal/store"
)

// Redis keeps entries in a list, oldest at the head.
type Redis struct {
	rdb   *redis.Client
	key   string
	limit int
}

func NewRedis(rdb *redis.Client, boardID string, limit int) *Redis {
	return &Redis{rdb: rdb, key: Key(boardID), limit: limit}
}

// Key is the list holding a board's undelivered telemetry.
func Key(boardID string) string {
	return fmt.Sprintf("coolboard:%s:outbox", boardID)
}

func (r *Redis) Push(ctx context.Context, raw []byte) error {
	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, r.key, raw)
	if r.limit > 0 {
		pipe.LTrim(ctx, r.key, int64(-r.limit), -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return &store.StorageError{Op: "push", Path: r.key, Err: err}
	}
	return nil
}

func (r *Redis) Len(ctx context.Context) (int, error) {
	n, err := r.rdb.LLen(ctx, r.key).Result()
	if err != nil {
		return 0, &store.StorageError{Op: "len", Path: r.key, Err: err}
	}
	return int(n), nil
}

// Drain peeks the head, sends it and only then pops it.
func (r *Redis) Drain(ctx context.Context, send func(context.Context, []byte) error) (int, error) {
	sent := 0
	for {
		raw, err := r.rdb.LIndex(ctx, r.key, 0).Bytes()
		if errors.Is(err, redis.Nil) {
			return sent, nil
		}
		if err != nil {
			return sent, &store.StorageError{Op: "read", Path: r.key, Err: err}
		}

		if err := send(ctx, raw); err != nil {
			return sent, fmt.Errorf("resend %s[0]: %w", r.key, err)
		}

		if err := r.rdb.LPop(ctx, r.key).Err(); err != nil {
			return sent, &store.StorageError{Op: "pop", Path: r.key, Err: err}
		}
		sent++
	}
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/rpg-battle/internal/errors"
)

// DefaultMaxRetries bounds optimistic transaction retries when the caller does
// not configure a limit
const DefaultMaxRetries = 5

// Transact runs fn inside WATCH on keys. fn reads through tx and queues its
// writes with tx.TxPipelined; if any watched key changes before EXEC the whole
// function runs again against fresh data. An error returned by fn aborts the
// transaction without writing and is returned unchanged.
func Transact(ctx context.Context, client Client, maxRetries int, fn func(tx *redis.Tx) error, keys ...string) error {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := client.Watch(ctx, fn, keys...)
		if err == nil {
			return nil
		}
		if err == redis.TxFailedErr {
			continue
		}
		return err
	}

	return errors.Abortedf("concurrent modification of %v, gave up after %d attempts", keys, maxRetries)
}

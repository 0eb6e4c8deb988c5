// Package queue carries analysis ids from the API to the workers.
package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis list holding queued analysis ids.
const DefaultKey = "domainintel:analysis:queue"

// pollTimeout bounds each BRPOP so a cancelled context is noticed.
const pollTimeout = 2 * time.Second

// NewRedisClient dials Redis and checks the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("error pinging the redis : %w", err)
	}
	return client, nil
}

// Redis is a FIFO queue on a Redis list: LPUSH in, BRPOP out.
type Redis struct {
	client *redis.Client
	key    string
}

func NewRedis(client *redis.Client, key string) *Redis {
	if key == "" {
		key = DefaultKey
	}
	return &Redis{client: client, key: key}
}

func (q *Redis) Enqueue(ctx context.Context, id int64) error {
	return q.client.LPush(ctx, q.key, id).Err()
}

// Dequeue blocks until an id arrives or ctx is done.
func (q *Redis) Dequeue(ctx context.Context) (int64, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		res, err := q.client.BRPop(ctx, pollTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			return 0, err
		}
		// res is [key, value]
		id, err := strconv.ParseInt(res[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("bad queue entry %q: %w", res[1], err)
		}
		return id, nil
	}
}

func (q *Redis) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

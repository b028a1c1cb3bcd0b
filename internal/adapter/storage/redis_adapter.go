package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/till-simulator/internal/core/domain"
)

const (
	stockKeyPrefix    = "till:stock:"
	idempotencyKeyTTL = 24 * time.Hour
	snapshotTTL       = 24 * time.Hour
)

// KEYS[1] snapshot hash, ARGV[1] ttl seconds, then denomination/count pairs.
var replaceStockScript = redis.NewScript(`
local key = KEYS[1]
redis.call('DEL', key)

if #ARGV < 3 then
	return 0
end

for i = 2, #ARGV, 2 do
	redis.call('HSET', key, ARGV[i], ARGV[i + 1])
end
redis.call('EXPIRE', key, ARGV[1])

return 1
`)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

// SaveStock atomically replaces the drawer snapshot of a run.
func (r *RedisAdapter) SaveStock(ctx context.Context, runID string, stock domain.Stock) error {
	args := make([]interface{}, 0, 1+2*len(stock))
	args = append(args, int(snapshotTTL/time.Second))
	for _, d := range stock.Denominations() {
		args = append(args, d, stock[d])
	}

	return replaceStockScript.Run(ctx, r.client, []string{stockKeyPrefix + runID}, args...).Err()
}

func (r *RedisAdapter) GetStock(ctx context.Context, runID string) (domain.Stock, error) {
	fields, err := r.client.HGetAll(ctx, stockKeyPrefix+runID).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	stock := make(domain.Stock, len(fields))
	for k, v := range fields {
		d, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: denomination %q: %w", runID, k, err)
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: count %q: %w", runID, v, err)
		}
		stock[d] = n
	}
	return stock, nil
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

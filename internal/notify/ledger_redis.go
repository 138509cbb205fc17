package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLedger implements the dedup check-and-set with SET NX + TTL.
// Entries expire on their own, so no purge sweep is needed.
type RedisLedger struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLedger connects to Redis and verifies the connection with a
// short ping. ttl defaults to DefaultLedgerTTL when zero.
func NewRedisLedger(addr, password string, db int, ttl time.Duration) (*RedisLedger, error) {
	if ttl <= 0 {
		ttl = DefaultLedgerTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisLedger{client: client, ttl: ttl}, nil
}

// Claim sets the triple key if absent; true means this process holds the
// only claim for the day.
func (l *RedisLedger) Claim(ctx context.Context, prescriptionID string, day time.Time, kind Kind) (bool, error) {
	key := "dosewatch:sent:" + ledgerKey(prescriptionID, day, kind)
	ok, err := l.client.SetNX(ctx, key, 1, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim ledger entry: %w", err)
	}
	return ok, nil
}

// Close releases the underlying Redis connection.
func (l *RedisLedger) Close() error {
	return l.client.Close()
}

// Package pricecache keeps the per-session memo of catalogue gold rates in Redis.
package pricecache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/Ayushchauha111/jewelpos/internal/billing"
	"github.com/Ayushchauha111/jewelpos/internal/platform/cache"
)

// DefaultTTL bounds how long a billing session's memo survives.
const DefaultTTL = 2 * time.Hour

// Store is a Redis hash per session: stock id -> rate per gram.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore instantiates the memo store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

func memoKey(sessionID string) string {
	return cache.Key("pricememo", sessionID)
}

// Load returns the memo for a session. An empty session id or an unconfigured store
// yields an empty memo.
func (s *Store) Load(ctx context.Context, sessionID string) (*billing.PriceMemo, error) {
	if s == nil || s.client == nil || sessionID == "" {
		return billing.NewPriceMemo(nil), nil
	}
	raw, err := s.client.HGetAll(ctx, memoKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("pricecache: load %s: %w", sessionID, err)
	}
	rates := make(map[int64]decimal.Decimal, len(raw))
	for field, value := range raw {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		rate, err := decimal.NewFromString(value)
		if err != nil {
			continue
		}
		rates[id] = rate
	}
	return billing.NewPriceMemo(rates), nil
}

// Save records the catalogue rates applied in lines and refreshes the session TTL.
// Overridden and non-rate-priced lines are not remembered.
func (s *Store) Save(ctx context.Context, sessionID string, lines []billing.PricedLine) error {
	if s == nil || s.client == nil || sessionID == "" {
		return nil
	}
	entries := billing.MemoEntries(lines)
	if len(entries) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(entries))
	for id, rate := range entries {
		values[strconv.FormatInt(id, 10)] = rate.String()
	}
	key := memoKey(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, values)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("pricecache: save %s: %w", sessionID, err)
	}
	return nil
}

// Clear drops a session's memo, typically once its bill is created.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if s == nil || s.client == nil || sessionID == "" {
		return nil
	}
	return s.client.Del(ctx, memoKey(sessionID)).Err()
}

// internal/dedup/redis.go
package dedup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	apperrors "nsa-scheduler/internal/common/errors"
	"nsa-scheduler/internal/models"
)

// hashKey is the Redis hash holding one field per record identifier.
const hashKey = "nsa:appointments"

// RedisStore backs the dedup cache with a Redis hash for multi-host runs.
// HSetNX gives the same at-most-once guarantee the file store gets from its
// lock: only one writer can create the field for a record identifier.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Lookup(ctx context.Context, recordID string) (*models.AppointmentRecord, bool, error) {
	data, err := s.client.HGet(ctx, hashKey, recordID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup: %w", err)
	}

	var entry models.AppointmentRecord
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, false, apperrors.NewCacheCorruptionError(err)
	}
	return &entry, true, nil
}

func (s *RedisStore) Record(ctx context.Context, entry models.AppointmentRecord, override bool) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	if override {
		if err := s.client.HSet(ctx, hashKey, entry.RecordID, data).Err(); err != nil {
			return fmt.Errorf("cache record: %w", err)
		}
		return nil
	}

	set, err := s.client.HSetNX(ctx, hashKey, entry.RecordID, data).Result()
	if err != nil {
		return fmt.Errorf("cache record: %w", err)
	}
	if !set {
		return apperrors.NewDuplicateConflictError(entry.RecordID)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix       = "idempotency:"
	processingValue = "processing"
	// LockDuration is the time a key stays reserved while its request runs
	LockDuration = 30 * time.Second
)

// ErrInProgress is returned when another request holds the key
var ErrInProgress = errors.New("request already in progress")

// StoredResponse is a replayable HTTP response
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        string `json:"body"`
}

// IdempotencyStore keeps completed responses keyed by idempotency key
type IdempotencyStore struct {
	client    *redis.Client
	retention time.Duration
}

// NewIdempotencyStore creates a store that keeps responses for retention
func NewIdempotencyStore(client *redis.Client, retention time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, retention: retention}
}

// Begin reserves key. When key already completed the stored response is
// returned instead; when it is reserved by a running request ErrInProgress.
func (s *IdempotencyStore) Begin(ctx context.Context, key string) (*StoredResponse, error) {
	for attempt := 0; attempt < 2; attempt++ {
		reserved, err := s.client.SetNX(ctx, keyPrefix+key, processingValue, LockDuration).Result()
		if err != nil {
			return nil, err
		}
		if reserved {
			return nil, nil
		}

		val, err := s.client.Get(ctx, keyPrefix+key).Result()
		if errors.Is(err, redis.Nil) {
			// expired between SETNX and GET
			continue
		}
		if err != nil {
			return nil, err
		}
		if val == processingValue {
			return nil, ErrInProgress
		}

		var resp StoredResponse
		if err := json.Unmarshal([]byte(val), &resp); err != nil {
			return nil, fmt.Errorf("decode stored response: %w", err)
		}
		return &resp, nil
	}
	return nil, ErrInProgress
}

// Complete stores resp under a key reserved by Begin
func (s *IdempotencyStore) Complete(ctx context.Context, key string, resp StoredResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+key, payload, s.retention).Err()
}

// Release frees a reserved key so the request can be retried
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}

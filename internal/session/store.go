package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nudgebot/api/internal/timeexpr"
)

const (
	keyPrefix = "session:draft:"
	draftTTL  = 30 * time.Minute
)

// Draft is a partially captured reminder accumulated across conversation
// turns, persisted so a follow-up message can complete it.
type Draft struct {
	Title      string               `json:"title,omitempty"`
	Body       string               `json:"body,omitempty"`
	Expression *timeexpr.Expression `json:"expression,omitempty"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// Store keeps per-owner drafts in Redis with a sliding TTL. Draft state is
// disposable conversation context, not durable data, so expiry losing one is
// acceptable.
type Store struct {
	client *redis.Client
}

// NewStore connects to Redis and verifies the connection.
func NewStore(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client}, nil
}

// Get returns the owner's draft, or nil if none exists.
func (s *Store) Get(ctx context.Context, owner string) (*Draft, error) {
	raw, err := s.client.Get(ctx, keyPrefix+owner).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var draft Draft
	if err := json.Unmarshal(raw, &draft); err != nil {
		// A corrupt draft is dropped rather than wedging the conversation.
		return nil, nil
	}
	return &draft, nil
}

// Put stores the owner's draft and resets its TTL.
func (s *Store) Put(ctx context.Context, owner string, draft *Draft) error {
	draft.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+owner, raw, draftTTL).Err()
}

// Clear removes the owner's draft.
func (s *Store) Clear(ctx context.Context, owner string) error {
	return s.client.Del(ctx, keyPrefix+owner).Err()
}

// Close releases the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

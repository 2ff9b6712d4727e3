package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aescanero/plexo/pkg/plugin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const resultsKey = "plexo:results"

// ResultStore implements ports.ResultStore on a Redis hash, so plugin
// results survive process restarts.
type ResultStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewResultStore creates a Redis-backed result store.
func NewResultStore(client *redis.Client, logger *zap.Logger) *ResultStore {
	return &ResultStore{client: client, logger: logger}
}

// Register writes the payload merged with the plugin's static info
// under name. An empty name is a silent no-op.
func (s *ResultStore) Register(ctx context.Context, name string, payload any, info plugin.Info) error {
	if name == "" {
		return nil
	}

	entry := plugin.ResultEntry{Results: payload, Info: info}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal result entry: %w", err)
	}

	if err := s.client.HSet(ctx, resultsKey, name, data).Err(); err != nil {
		return fmt.Errorf("failed to save result entry: %w", err)
	}

	s.logger.Debug("result registered",
		zap.String("plugin", name))

	return nil
}

// All returns every registered entry.
func (s *ResultStore) All(ctx context.Context) (map[string]plugin.ResultEntry, error) {
	raw, err := s.client.HGetAll(ctx, resultsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	entries := make(map[string]plugin.ResultEntry, len(raw))
	for name, data := range raw {
		var entry plugin.ResultEntry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			s.logger.Warn("skipping corrupt result entry",
				zap.String("plugin", name),
				zap.Error(err))
			continue
		}
		entries[name] = entry
	}
	return entries, nil
}

// Count returns the number of registered entries via HLEN.
func (s *ResultStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.HLen(ctx, resultsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	return int(n), nil
}

// Reset clears every entry.
func (s *ResultStore) Reset(ctx context.Context) error {
	if err := s.client.Del(ctx, resultsKey).Err(); err != nil {
		return fmt.Errorf("failed to reset results: %w", err)
	}

	s.logger.Debug("result registry cleared")
	return nil
}

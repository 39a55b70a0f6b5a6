// Package session associates a browser session with its latest check
// so a later feedback submission can reference it.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/factlens/backend/pkg/logger"
)

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(host string, port int, password string, db int, ttl time.Duration) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Session store initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Store{client: client, ttl: ttl}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// SetLastCheck overwrites the session's check association; only the
// most recent check is eligible for feedback.
func (s *Store) SetLastCheck(ctx context.Context, sessionID, checkID string) error {
	err := s.client.Set(ctx, sessionKey(sessionID), checkID, s.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set session check: %w", err)
	}

	logger.Debug("Session check associated",
		zap.String("session_id", sessionID),
		zap.String("check_id", checkID),
	)

	return nil
}

// GetLastCheck returns ("", nil) when the session has no check yet.
func (s *Store) GetLastCheck(ctx context.Context, sessionID string) (string, error) {
	checkID, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session check: %w", err)
	}

	return checkID, nil
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s:last_check", sessionID)
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ivanoskov/budget_bot/internal/model"
)

// RedisRepository хранит состояния бюджета в Redis в виде JSON
type RedisRepository struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisRepository создает репозиторий. ttl = 0 - без срока жизни.
func NewRedisRepository(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisRepository {
	if keyPrefix == "" {
		keyPrefix = "budget"
	}
	return &RedisRepository{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (r *RedisRepository) key(userID string) string {
	return fmt.Sprintf("%s:state:%s", r.keyPrefix, userID)
}

// GetState возвращает nil без ошибки, если состояния нет
func (r *RedisRepository) GetState(ctx context.Context, userID string) (*model.BudgetState, error) {
	data, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get state from redis: %w", err)
	}

	var state model.BudgetState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}
	return &state, nil
}

func (r *RedisRepository) SaveState(ctx context.Context, state *model.BudgetState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := r.client.Set(ctx, r.key(state.UserID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save state to redis: %w", err)
	}
	return nil
}

// Ping проверяет соединение с Redis
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

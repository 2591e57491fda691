// Package redisstore backs invitation notifications with Redis. Invitations
// are 30-second offers, so every record carries a native TTL and simply
// vanishes instead of needing a sweeper.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/models"
	"github.com/Akshay-cybersec/NeuroVibe/internal/infra/adapters/repository"
)

type notificationRepository struct {
	client *redis.Client
}

func NewNotificationRepository(ctx context.Context, redisURL string) (repository.NotificationRepository, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &notificationRepository{client: client}, nil
}

func inviteKey(email, roomCode string) string {
	return fmt.Sprintf("invite:%s:%s", email, roomCode)
}

func invitePattern(email string) string {
	return fmt.Sprintf("invite:%s:*", email)
}

func (r *notificationRepository) Push(ctx context.Context, email string, n models.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	ttl := time.Until(n.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	return r.client.Set(ctx, inviteKey(email, n.RoomCode), data, ttl).Err()
}

func (r *notificationRepository) Pending(ctx context.Context, email string) ([]models.Notification, error) {
	keys, err := r.client.Keys(ctx, invitePattern(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("list invite keys: %w", err)
	}

	pending := make([]models.Notification, 0, len(keys))
	for _, key := range keys {
		data, err := r.client.Get(ctx, key).Result()
		if err != nil {
			// expired between KEYS and GET
			continue
		}

		var n models.Notification
		if err := json.Unmarshal([]byte(data), &n); err != nil {
			continue
		}

		if n.Status == models.InviteStatusPending {
			pending = append(pending, n)
		}
	}

	return pending, nil
}

func (r *notificationRepository) UpdateStatus(ctx context.Context, email, roomCode, status string) error {
	key := inviteKey(email, roomCode)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		// already expired, nothing to decide anymore
		return nil
	}
	if err != nil {
		return fmt.Errorf("get invite: %w", err)
	}

	var n models.Notification
	if err := json.Unmarshal([]byte(data), &n); err != nil {
		return fmt.Errorf("unmarshal invite: %w", err)
	}

	n.Status = status

	updated, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal invite: %w", err)
	}

	return r.client.Set(ctx, key, updated, redis.KeepTTL).Err()
}

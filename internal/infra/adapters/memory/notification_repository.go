package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/models"
	"github.com/Akshay-cybersec/NeuroVibe/internal/infra/adapters/repository"
)

// notificationRepository keeps per-email invite records in memory. Records
// past their ExpiresAt are dropped lazily on read; there is no sweeper.
type notificationRepository struct {
	requests map[string][]models.Notification
	mu       sync.Mutex
}

func NewNotificationRepository() repository.NotificationRepository {
	return &notificationRepository{
		requests: make(map[string][]models.Notification),
	}
}

func (r *notificationRepository) Push(ctx context.Context, email string, n models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests[email] = append(r.requests[email], n)

	return nil
}

func (r *notificationRepository) Pending(ctx context.Context, email string) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()

	kept := make([]models.Notification, 0)
	pending := make([]models.Notification, 0)
	for _, n := range r.requests[email] {
		if now.After(n.ExpiresAt) {
			continue
		}
		kept = append(kept, n)
		if n.Status == models.InviteStatusPending {
			pending = append(pending, n)
		}
	}
	r.requests[email] = kept

	return pending, nil
}

func (r *notificationRepository) UpdateStatus(ctx context.Context, email, roomCode, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, n := range r.requests[email] {
		if n.RoomCode == roomCode && n.Status == models.InviteStatusPending {
			r.requests[email][i].Status = status
		}
	}

	return nil
}

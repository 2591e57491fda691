// Package repository defines the storage contracts for room documents and
// invitation notifications. Postgres backs rooms in production, Redis backs
// the short-lived notification records; both have in-memory twins for
// development and tests.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/models"
)

type RoomRepository interface {
	// Create writes the initial room document. Returns ErrRoomExists when
	// the client-generated code collides with a live room.
	Create(ctx context.Context, room *models.Room) error

	GetByCode(ctx context.Context, code string) (*models.Room, error)
	List(ctx context.Context) ([]models.Room, error)

	// AddReceiver appends the participant to the receiver set. The update is
	// additive so concurrent joins never clobber each other. Fails with
	// ErrRoomInactive on terminated rooms.
	AddReceiver(ctx context.Context, code string, p models.Participant) error
	RemoveReceiver(ctx context.Context, code string, id uuid.UUID) error

	// SetActive flips the room lifecycle flag. Ownership (only the sender
	// terminates) is enforced by the usecase layer.
	SetActive(ctx context.Context, code string, active bool) error

	AppendInvitation(ctx context.Context, code string, inv models.Invitation) error
}

type NotificationRepository interface {
	// Push writes a per-email notification record that expires on its own
	// after the invitation TTL.
	Push(ctx context.Context, email string, n models.Notification) error

	// Pending returns the undecided notifications for an email address.
	// Expiry is evaluated by the caller at consumption time.
	Pending(ctx context.Context, email string) ([]models.Notification, error)

	UpdateStatus(ctx context.Context, email, roomCode, status string) error
}

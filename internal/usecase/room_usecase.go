package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/models"
	"github.com/Akshay-cybersec/NeuroVibe/internal/infra/adapters/repository"
)

const createRetries = 3

type RoomUsecase interface {
	// CreateRoom persists the initial room document. The code is generated
	// by the creating client; an empty code means generate one server-side.
	CreateRoom(ctx context.Context, code string, sender *models.Participant) (*models.Room, error)

	GetRoom(ctx context.Context, code string) (*models.Room, error)
	ListRooms(ctx context.Context) (active, closed []models.Room, err error)

	// JoinRoom validates the code, requires the room to be active and adds
	// the participant to the receiver set.
	JoinRoom(ctx context.Context, code string, p models.Participant) (*models.Room, error)
	LeaveRoom(ctx context.Context, code string, id uuid.UUID) error

	// Terminate flips active=false. Only the room's sender may do it.
	Terminate(ctx context.Context, code string, requester uuid.UUID) error

	// InviteByEmail appends a pending invitation to the room document and
	// pushes a short-lived notification record for the recipient.
	InviteByEmail(ctx context.Context, code, email string) (*models.Invitation, error)
	PendingInvites(ctx context.Context, email string) ([]models.Notification, error)

	// RespondToInvite consumes a notification. Reading an expired one is a
	// rejection regardless of the requested status.
	RespondToInvite(ctx context.Context, email, code string, accept bool) error
}

type roomUsecase struct {
	roomRepo         repository.RoomRepository
	notificationRepo repository.NotificationRepository

	inviteTTL time.Duration
}

func NewRoomUsecase(
	roomRepo repository.RoomRepository,
	notificationRepo repository.NotificationRepository,
	inviteTTL time.Duration,
) RoomUsecase {
	if inviteTTL <= 0 {
		inviteTTL = models.InviteTTL
	}

	return &roomUsecase{
		roomRepo:         roomRepo,
		notificationRepo: notificationRepo,
		inviteTTL:        inviteTTL,
	}
}

func (u *roomUsecase) CreateRoom(ctx context.Context, code string, sender *models.Participant) (*models.Room, error) {
	generated := code == ""

	if !generated {
		normalized, err := models.NormalizeRoomCode(code)
		if err != nil {
			return nil, err
		}
		code = normalized
	}

	for attempt := 0; ; attempt++ {
		if generated {
			code = models.NewRoomCode()
		}

		room := &models.Room{
			Code:      code,
			Active:    true,
			CreatedAt: time.Now(),
			Sender:    sender,
			Receivers: make([]models.Participant, 0),
		}

		err := u.roomRepo.Create(ctx, room)
		if err == nil {
			return room, nil
		}

		// Regenerate on collision only when we picked the code ourselves.
		if generated && errors.Is(err, repository.ErrRoomExists) && attempt < createRetries {
			continue
		}

		return nil, err
	}
}

func (u *roomUsecase) GetRoom(ctx context.Context, code string) (*models.Room, error) {
	normalized, err := models.NormalizeRoomCode(code)
	if err != nil {
		return nil, err
	}

	return u.roomRepo.GetByCode(ctx, normalized)
}

func (u *roomUsecase) ListRooms(ctx context.Context) ([]models.Room, []models.Room, error) {
	rooms, err := u.roomRepo.List(ctx)
	if err != nil {
		return nil, nil, err
	}

	active := make([]models.Room, 0, len(rooms))
	closed := make([]models.Room, 0)
	for _, room := range rooms {
		if room.Active {
			active = append(active, room)
		} else {
			closed = append(closed, room)
		}
	}

	return active, closed, nil
}

func (u *roomUsecase) JoinRoom(ctx context.Context, code string, p models.Participant) (*models.Room, error) {
	normalized, err := models.NormalizeRoomCode(code)
	if err != nil {
		return nil, err
	}

	if err := u.roomRepo.AddReceiver(ctx, normalized, p); err != nil {
		return nil, err
	}

	return u.roomRepo.GetByCode(ctx, normalized)
}

func (u *roomUsecase) LeaveRoom(ctx context.Context, code string, id uuid.UUID) error {
	normalized, err := models.NormalizeRoomCode(code)
	if err != nil {
		return err
	}

	return u.roomRepo.RemoveReceiver(ctx, normalized, id)
}

func (u *roomUsecase) Terminate(ctx context.Context, code string, requester uuid.UUID) error {
	normalized, err := models.NormalizeRoomCode(code)
	if err != nil {
		return err
	}

	room, err := u.roomRepo.GetByCode(ctx, normalized)
	if err != nil {
		return err
	}

	if room.Sender == nil || room.Sender.ID != requester {
		return ErrNotSender
	}

	return u.roomRepo.SetActive(ctx, normalized, false)
}

func (u *roomUsecase) InviteByEmail(ctx context.Context, code, email string) (*models.Invitation, error) {
	normalized, err := models.NormalizeRoomCode(code)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	inv := models.Invitation{
		TargetEmail: email,
		Status:      models.InviteStatusPending,
		InvitedAt:   now,
		ExpiresAt:   now.Add(u.inviteTTL),
	}

	if err := u.roomRepo.AppendInvitation(ctx, normalized, inv); err != nil {
		return nil, err
	}

	// The notification is the out-of-band delivery path; the invitation in
	// the room document is the durable record.
	err = u.notificationRepo.Push(ctx, email, models.Notification{
		RoomCode:  normalized,
		Status:    models.InviteStatusPending,
		Timestamp: inv.InvitedAt,
		ExpiresAt: inv.ExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("push notification: %w", err)
	}

	return &inv, nil
}

func (u *roomUsecase) PendingInvites(ctx context.Context, email string) ([]models.Notification, error) {
	pending, err := u.notificationRepo.Pending(ctx, email)
	if err != nil {
		return nil, err
	}

	// Expiry is a logical timeout evaluated at read time.
	now := time.Now()
	valid := pending[:0]
	for _, n := range pending {
		if !now.After(n.ExpiresAt) {
			valid = append(valid, n)
		}
	}

	return valid, nil
}

func (u *roomUsecase) RespondToInvite(ctx context.Context, email, code string, accept bool) error {
	normalized, err := models.NormalizeRoomCode(code)
	if err != nil {
		return err
	}

	pending, err := u.notificationRepo.Pending(ctx, email)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, n := range pending {
		if n.RoomCode != normalized {
			continue
		}

		if now.After(n.ExpiresAt) {
			break
		}

		status := models.InviteStatusRejected
		if accept {
			status = models.InviteStatusAccepted
		}

		return u.notificationRepo.UpdateStatus(ctx, email, normalized, status)
	}

	// Absent or stale offers are treated as expired, never accepted.
	_ = u.notificationRepo.UpdateStatus(ctx, email, normalized, models.InviteStatusRejected)

	return ErrInviteExpired
}

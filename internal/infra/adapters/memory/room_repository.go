package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/models"
	"github.com/Akshay-cybersec/NeuroVibe/internal/infra/adapters/repository"
)

// roomRepository is the in-memory twin of the postgres room store, used in
// development mode and in tests.
type roomRepository struct {
	rooms map[string]*models.Room
	mu    sync.RWMutex
}

func NewRoomRepository() repository.RoomRepository {
	return &roomRepository{
		rooms: make(map[string]*models.Room),
	}
}

func (r *roomRepository) Create(ctx context.Context, room *models.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.rooms[room.Code]; ok && existing.Active {
		return repository.ErrRoomExists
	}

	clone := *room
	clone.Receivers = append([]models.Participant(nil), room.Receivers...)
	r.rooms[room.Code] = &clone

	return nil
}

func (r *roomRepository) GetByCode(ctx context.Context, code string) (*models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[code]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}

	clone := *room
	clone.Receivers = append([]models.Participant(nil), room.Receivers...)
	clone.Invitations = append([]models.Invitation(nil), room.Invitations...)

	return &clone, nil
}

func (r *roomRepository) List(ctx context.Context) ([]models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]models.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, *room)
	}

	return rooms, nil
}

func (r *roomRepository) AddReceiver(ctx context.Context, code string, p models.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[code]
	if !ok {
		return repository.ErrRoomNotFound
	}
	if !room.Active {
		return repository.ErrRoomInactive
	}
	if room.HasReceiver(p.ID) {
		return nil
	}

	room.Receivers = append(room.Receivers, p)

	return nil
}

func (r *roomRepository) RemoveReceiver(ctx context.Context, code string, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[code]
	if !ok {
		return nil
	}

	kept := room.Receivers[:0]
	for _, p := range room.Receivers {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	room.Receivers = kept

	return nil
}

func (r *roomRepository) SetActive(ctx context.Context, code string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[code]
	if !ok {
		return repository.ErrRoomNotFound
	}

	room.Active = active

	return nil
}

func (r *roomRepository) AppendInvitation(ctx context.Context, code string, inv models.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[code]
	if !ok {
		return repository.ErrRoomNotFound
	}
	if !room.Active {
		return repository.ErrRoomInactive
	}

	room.Invitations = append(room.Invitations, inv)

	return nil
}

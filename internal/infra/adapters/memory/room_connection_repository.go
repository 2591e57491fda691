package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/models"
)

// WriterConn is the subset of *websocket.Conn the registry relies on, kept
// narrow so the signaling usecase is testable without sockets.
type WriterConn interface {
	WriteJSON(v any) error
	Close() error
}

// SafeConn serializes writes to a single duplex connection and carries the
// participant bound to it after the identify handshake.
type SafeConn struct {
	conn WriterConn

	mu          sync.Mutex
	participant models.Participant
	identified  bool
}

func NewSafeConn(conn WriterConn) *SafeConn {
	return &SafeConn{conn: conn}
}

func (s *SafeConn) WriteJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.conn.WriteJSON(v)
}

func (s *SafeConn) Close() error {
	return s.conn.Close()
}

func (s *SafeConn) SetParticipant(p models.Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.participant = p
	s.identified = true
}

func (s *SafeConn) Participant() (models.Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.participant, s.identified
}

// RoomConnectionRepository tracks the live sockets of every room: one sender
// slot and any number of receivers.
type RoomConnectionRepository interface {
	// SetSender claims the single sender slot; false when occupied.
	SetSender(roomCode string, conn *SafeConn) bool
	// ClearSender releases the slot only if conn still holds it.
	ClearSender(roomCode string, conn *SafeConn)
	Sender(roomCode string) (*SafeConn, bool)

	AddReceiver(roomCode string, id uuid.UUID, conn *SafeConn)
	RemoveReceiver(roomCode string, id uuid.UUID)
	Receivers(roomCode string) []*SafeConn
}

type roomConns struct {
	sender    *SafeConn
	receivers map[uuid.UUID]*SafeConn
}

type roomConnectionRepository struct {
	rooms map[string]*roomConns
	mu    sync.RWMutex
}

func NewRoomConnectionRepository() RoomConnectionRepository {
	return &roomConnectionRepository{
		rooms: make(map[string]*roomConns),
	}
}

func (r *roomConnectionRepository) room(code string) *roomConns {
	if room, ok := r.rooms[code]; ok {
		return room
	}

	room := &roomConns{receivers: make(map[uuid.UUID]*SafeConn)}
	r.rooms[code] = room

	return room
}

func (r *roomConnectionRepository) SetSender(roomCode string, conn *SafeConn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.room(roomCode)
	if room.sender != nil {
		return false
	}

	room.sender = conn

	return true
}

func (r *roomConnectionRepository) ClearSender(roomCode string, conn *SafeConn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomCode]
	if !ok || room.sender != conn {
		return
	}

	room.sender = nil
	r.cleanup(roomCode, room)
}

func (r *roomConnectionRepository) Sender(roomCode string) (*SafeConn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomCode]
	if !ok || room.sender == nil {
		return nil, false
	}

	return room.sender, true
}

func (r *roomConnectionRepository) AddReceiver(roomCode string, id uuid.UUID, conn *SafeConn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.room(roomCode).receivers[id] = conn
}

func (r *roomConnectionRepository) RemoveReceiver(roomCode string, id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomCode]
	if !ok {
		return
	}

	delete(room.receivers, id)
	r.cleanup(roomCode, room)
}

func (r *roomConnectionRepository) Receivers(roomCode string) []*SafeConn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomCode]
	if !ok {
		return nil
	}

	conns := make([]*SafeConn, 0, len(room.receivers))
	for _, conn := range room.receivers {
		conns = append(conns, conn)
	}

	return conns
}

// cleanup drops the room entry once the last socket is gone. Caller holds mu.
func (r *roomConnectionRepository) cleanup(roomCode string, room *roomConns) {
	if room.sender == nil && len(room.receivers) == 0 {
		delete(r.rooms, roomCode)
	}
}

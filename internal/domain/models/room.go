package models

import (
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleSender   = "sender"
	RoleReceiver = "receiver"

	// RoomCodeLength - length of the human-shareable room code
	RoomCodeLength = 6

	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var ErrInvalidRoomCode = errors.New("invalid room code")

type Participant struct {
	ID    uuid.UUID `json:"id" db:"id"`
	Name  string    `json:"name" db:"name"`
	Photo string    `json:"photo,omitempty" db:"photo"`
}

// NewAnonymousParticipant issues an ephemeral identity for guests
// that did not come through the external identity provider.
func NewAnonymousParticipant(name string) Participant {
	return Participant{
		ID:   uuid.New(),
		Name: name,
	}
}

type Room struct {
	Code        string       `json:"code" db:"code"`
	Active      bool         `json:"active" db:"active"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	Sender      *Participant `json:"sender"`
	Receivers   []Participant `json:"receivers"`
	Invitations []Invitation  `json:"invitations,omitempty"`
}

func NewRoom(sender *Participant) *Room {
	return &Room{
		Code:      NewRoomCode(),
		Active:    true,
		CreatedAt: time.Now(),
		Sender:    sender,
		Receivers: make([]Participant, 0),
	}
}

// NewRoomCode generates a short shareable code. Uniqueness is not
// cryptographically guaranteed; the store rejects collisions at creation.
func NewRoomCode() string {
	buf := make([]byte, RoomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(err)
	}

	code := make([]byte, RoomCodeLength)
	for i, b := range buf {
		code[i] = roomCodeAlphabet[int(b)%len(roomCodeAlphabet)]
	}

	return string(code)
}

// NormalizeRoomCode canonicalizes user input before any lookup.
func NormalizeRoomCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))

	if len(code) != RoomCodeLength {
		return "", ErrInvalidRoomCode
	}

	for _, r := range code {
		if !strings.ContainsRune(roomCodeAlphabet, r) {
			return "", ErrInvalidRoomCode
		}
	}

	return code, nil
}


func (r *Room) HasReceiver(id uuid.UUID) bool {
	for _, p := range r.Receivers {
		if p.ID == id {
			return true
		}
	}

	return false
}

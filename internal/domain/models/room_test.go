package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoomCode(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		code := NewRoomCode()

		assert.Len(t, code, RoomCodeLength)

		normalized, err := NormalizeRoomCode(code)
		require.NoError(t, err)
		assert.Equal(t, code, normalized)

		seen[code] = true
	}

	// 36^6 codes; 100 draws colliding would indicate broken randomness.
	assert.Greater(t, len(seen), 95)
}

func TestNormalizeRoomCode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "valid", raw: "ABC123", want: "ABC123"},
		{name: "lowercase folds", raw: "abc123", want: "ABC123"},
		{name: "surrounding whitespace", raw: "  ABC123  ", want: "ABC123"},
		{name: "too short", raw: "ABC12", wantErr: true},
		{name: "too long", raw: "ABC1234", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "punctuation", raw: "ABC-12", wantErr: true},
		{name: "non-ascii", raw: "ABCÄ12", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeRoomCode(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRoomCode)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRoom(t *testing.T) {
	sender := NewAnonymousParticipant("alice")
	room := NewRoom(&sender)

	assert.True(t, room.Active)
	assert.Len(t, room.Code, RoomCodeLength)
	assert.Equal(t, &sender, room.Sender)
	assert.Empty(t, room.Receivers)
}

func TestHasReceiver(t *testing.T) {
	bob := NewAnonymousParticipant("bob")
	room := NewRoom(nil)
	room.Receivers = append(room.Receivers, bob)

	assert.True(t, room.HasReceiver(bob.ID))
	assert.False(t, room.HasReceiver(uuid.New()))
}

func TestInvitationExpiry(t *testing.T) {
	invite := NewInvitation("bob@example.com")

	assert.Equal(t, InviteStatusPending, invite.Status)
	assert.False(t, invite.Expired(time.Now()))
	assert.True(t, invite.Expired(time.Now().Add(InviteTTL+time.Second)))
}

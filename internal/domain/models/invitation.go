package models

import "time"

const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusRejected = "rejected"

	// InviteTTL - invitations are short-lived offers, not durable invites
	InviteTTL = 30 * time.Second
)

type Invitation struct {
	TargetEmail string    `json:"target_email"`
	Status      string    `json:"status"`
	InvitedAt   time.Time `json:"invited_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func NewInvitation(email string) Invitation {
	now := time.Now()

	return Invitation{
		TargetEmail: email,
		Status:      InviteStatusPending,
		InvitedAt:   now,
		ExpiresAt:   now.Add(InviteTTL),
	}
}

// Expired is checked at consumption time, there is no active expiry timer.
func (i Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// Notification is the per-email record delivered out-of-band through the
// notification store.
type Notification struct {
	RoomCode  string    `json:"room_code"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	ExpiresAt time.Time `json:"expires_at"`
}

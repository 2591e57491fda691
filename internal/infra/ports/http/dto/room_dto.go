package dto

import (
	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/models"
)

type GuestTokenRequest struct {
	Name  string `json:"name"`
	Photo string `json:"photo,omitempty"`
}

type GuestTokenResponse struct {
	Token       string             `json:"token"`
	Participant models.Participant `json:"participant"`
}

type CreateRoomRequest struct {
	// Code is generated by the creating client; leave empty to let the
	// server pick one.
	Code string `json:"code,omitempty"`
}

type ListRoomsResponse struct {
	ActiveRooms []models.Room `json:"active_rooms"`
	ClosedRooms []models.Room `json:"closed_rooms"`
	Total       int           `json:"total"`
}

type InviteRequest struct {
	Email string `json:"email"`
}

type RespondInviteRequest struct {
	RoomCode string `json:"room_code"`
	Accept   bool   `json:"accept"`
}

type NotificationsResponse struct {
	Requests []models.Notification `json:"requests"`
}

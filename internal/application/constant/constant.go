package constant

// slog attribute keys
const (
	Error         = "error"
	RoomCode      = "room_code"
	Role          = "role"
	ParticipantID = "participant_id"
)

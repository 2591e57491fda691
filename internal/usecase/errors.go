package usecase

import "errors"

var (
	ErrNotSender      = errors.New("only the sender may terminate the room")
	ErrSenderOccupied = errors.New("room already has an active sender")
	ErrInviteExpired  = errors.New("invitation has expired")
	ErrEmptyCode      = errors.New("tactile message without code")
)

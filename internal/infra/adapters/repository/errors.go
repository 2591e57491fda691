package repository

import "errors"

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room code already taken")
	ErrRoomInactive = errors.New("room is not active")
)

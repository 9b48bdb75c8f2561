package models

import "errors"

var (
	ErrSlideOutOfRange   = errors.New("slide index out of range")
	ErrInvalidDeckFile   = errors.New("invalid deck file")
	ErrInvalidImage      = errors.New("invalid image")
	ErrUnknownObjectType = errors.New("unknown object type")
	ErrUnknownBackend    = errors.New("unknown storage backend")
	ErrSnapshotNotFound  = errors.New("slide snapshot not found")
)

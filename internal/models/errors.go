package models

import "github.com/go-faster/errors"

var (
	// ErrNotFound is returned by stores when no document matches.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)

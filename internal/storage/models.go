package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested key does not exist.
var ErrNotFound = errors.New("not found")

// Item is one entry of the local key/value store.
type Item struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

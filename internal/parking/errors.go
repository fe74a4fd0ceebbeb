package parking

import "errors"

var (
	ErrNoCapacity      = errors.New("no available slots")
	ErrOutOfRange      = errors.New("slot id out of range")
	ErrAlreadyOccupied = errors.New("slot is already occupied")
	ErrSlotAlreadyFree = errors.New("slot is already free")
	// ErrNotFound is returned when a slot or vehicle has no active entry.
	ErrNotFound = errors.New("no active entry")
)

package parking

import "time"

// Slot is a single parking space. EntryTime is set exactly while the slot
// is occupied.
type Slot struct {
	ID        int
	Occupied  bool
	VehicleID string
	EntryTime time.Time
}

func NewSlot(id int) *Slot {
	return &Slot{ID: id}
}

func (s *Slot) Occupy(vehicleID string, at time.Time) {
	s.VehicleID = vehicleID
	s.EntryTime = at
	s.Occupied = true
}

// Free clears the slot and returns the vehicle that was parked in it.
func (s *Slot) Free() string {
	vehicleID := s.VehicleID
	s.VehicleID = ""
	s.EntryTime = time.Time{}
	s.Occupied = false
	return vehicleID
}

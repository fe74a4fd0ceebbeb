package parking

import (
	"fmt"
	"time"

	"parking-billing/internal/clock"
)

// ParkingLot is a fixed-size lot. Slot ids run from 1 to capacity and
// slots[id-1] holds slot id. It is not safe for concurrent use; see
// InstrumentedParkingLot.
type ParkingLot struct {
	capacity int
	slots    []Slot
	clock    clock.Clock
}

// NewParkingLot builds a lot with capacity free slots. A negative capacity
// yields an empty lot.
func NewParkingLot(capacity int, clk clock.Clock) *ParkingLot {
	if capacity < 0 {
		capacity = 0
	}
	if clk == nil {
		clk = clock.NewSystem()
	}

	slots := make([]Slot, capacity)
	for i := range slots {
		slots[i] = Slot{ID: i + 1}
	}

	return &ParkingLot{
		capacity: capacity,
		slots:    slots,
		clock:    clk,
	}
}

func (pl *ParkingLot) Capacity() int {
	return pl.capacity
}

func (pl *ParkingLot) slot(slotID int) (*Slot, error) {
	if slotID < 1 || slotID > pl.capacity {
		return nil, fmt.Errorf("slot %d: %w (valid range 1-%d)", slotID, ErrOutOfRange, pl.capacity)
	}
	return &pl.slots[slotID-1], nil
}

// FindFreeSlot returns the lowest-numbered free slot.
func (pl *ParkingLot) FindFreeSlot() (int, bool) {
	for i := range pl.slots {
		if !pl.slots[i].Occupied {
			return pl.slots[i].ID, true
		}
	}
	return 0, false
}

func (pl *ParkingLot) Occupy(slotID int, vehicleID string) error {
	slot, err := pl.slot(slotID)
	if err != nil {
		return err
	}
	if slot.Occupied {
		return fmt.Errorf("slot %d: %w", slotID, ErrAlreadyOccupied)
	}

	slot.Occupy(vehicleID, pl.clock.Now())
	return nil
}

// Reserve parks vehicleID in the lowest-numbered free slot.
func (pl *ParkingLot) Reserve(vehicleID string) (int, error) {
	slotID, ok := pl.FindFreeSlot()
	if !ok {
		return 0, ErrNoCapacity
	}
	if err := pl.Occupy(slotID, vehicleID); err != nil {
		return 0, err
	}
	return slotID, nil
}

func (pl *ParkingLot) Free(slotID int) error {
	slot, err := pl.slot(slotID)
	if err != nil {
		return err
	}
	if !slot.Occupied {
		return fmt.Errorf("slot %d: %w", slotID, ErrSlotAlreadyFree)
	}

	slot.Free()
	return nil
}

func (pl *ParkingLot) AvailableSlotIDs() []int {
	ids := make([]int, 0, pl.capacity)
	for i := range pl.slots {
		if !pl.slots[i].Occupied {
			ids = append(ids, pl.slots[i].ID)
		}
	}
	return ids
}

func (pl *ParkingLot) occupied(slotID int) (*Slot, error) {
	slot, err := pl.slot(slotID)
	if err != nil {
		return nil, err
	}
	if !slot.Occupied {
		return nil, fmt.Errorf("slot %d: %w", slotID, ErrNotFound)
	}
	return slot, nil
}

func (pl *ParkingLot) VehicleAt(slotID int) (string, error) {
	slot, err := pl.occupied(slotID)
	if err != nil {
		return "", err
	}
	return slot.VehicleID, nil
}

func (pl *ParkingLot) EntryTimeOf(slotID int) (time.Time, error) {
	slot, err := pl.occupied(slotID)
	if err != nil {
		return time.Time{}, err
	}
	return slot.EntryTime, nil
}

// Slot returns a copy of the slot with the given id.
func (pl *ParkingLot) Slot(slotID int) (Slot, error) {
	slot, err := pl.slot(slotID)
	if err != nil {
		return Slot{}, err
	}
	return *slot, nil
}

// Slots returns a copy of every slot in id order.
func (pl *ParkingLot) Slots() []Slot {
	out := make([]Slot, len(pl.slots))
	copy(out, pl.slots)
	return out
}

func (pl *ParkingLot) SlotByVehicle(vehicleID string) (int, error) {
	for i := range pl.slots {
		if pl.slots[i].Occupied && pl.slots[i].VehicleID == vehicleID {
			return pl.slots[i].ID, nil
		}
	}
	return 0, fmt.Errorf("vehicle %s: %w", vehicleID, ErrNotFound)
}

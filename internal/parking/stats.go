package parking

// Stats is the admin view of a lot.
type Stats struct {
	Total     int `json:"total"`
	Occupied  int `json:"occupied"`
	Available int `json:"available"`
}

func (pl *ParkingLot) Stats() Stats {
	occupied := 0
	for i := range pl.slots {
		if pl.slots[i].Occupied {
			occupied++
		}
	}

	return Stats{
		Total:     pl.capacity,
		Occupied:  occupied,
		Available: pl.capacity - occupied,
	}
}

package billing

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout renders bill timestamps as YYYY-MM-DD HH:MM:SS.
const TimeLayout = "2006-01-02 15:04:05"

// Divider separates bills in the text ledger.
const Divider = "-----------------------------------------"

type Bill struct {
	ID               string    `json:"id"`
	SlotID           int       `json:"slot_id"`
	VehicleID        string    `json:"vehicle_id"`
	EntryTime        time.Time `json:"entry_time"`
	ExitTime         time.Time `json:"exit_time"`
	Fee              float64   `json:"fee"`
	AdditionalCharge float64   `json:"additional_charge"`
	Total            float64   `json:"total"`
}

func (b Bill) Duration() time.Duration {
	return b.ExitTime.Sub(b.EntryTime)
}

// Lines renders the three report lines shown on the console and written to
// the text ledger. Times are shown in the local zone.
func (b Bill) Lines() []string {
	return []string{
		fmt.Sprintf("Vehicle Number: %s", b.VehicleID),
		fmt.Sprintf("Entry Time: %s | Exit Time: %s",
			b.EntryTime.Local().Format(TimeLayout), b.ExitTime.Local().Format(TimeLayout)),
		fmt.Sprintf("Parking Slot: %d | Fee: ₹%.2f | Additional Charges: ₹%.2f | Total Amount: ₹%.2f",
			b.SlotID, b.Fee, b.AdditionalCharge, b.Total),
	}
}

func (b Bill) String() string {
	return strings.Join(b.Lines(), "\n")
}

package billing

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-billing/internal/clock"
	"parking-billing/internal/parking"
)

var t0 = time.Date(2025, 1, 1, 10, 0, 0, 0, time.Local)

type failingLedger struct{}

func (failingLedger) Append(Bill) error { return errors.New("disk full") }

type countingRecorder struct {
	bills    int
	failures int
}

func (r *countingRecorder) ObserveBill(Bill)      { r.bills++ }
func (r *countingRecorder) ObserveLedgerFailure() { r.failures++ }

func TestFee(t *testing.T) {
	tests := []struct {
		name   string
		elapse time.Duration
		expect float64
	}{
		{name: "zero duration", elapse: 0, expect: 0},
		{name: "ten minutes", elapse: 10 * time.Minute, expect: 30},
		{name: "fractional minute", elapse: 90 * time.Second, expect: 4.5},
		{name: "one hour", elapse: time.Hour, expect: 180},
		{name: "exit before entry", elapse: -time.Minute, expect: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expect, Fee(t0, t0.Add(tt.elapse), DefaultRatePerMinute), 1e-9)
		})
	}
}

func TestFeeIsMonotonic(t *testing.T) {
	prev := -1.0
	for s := 0; s <= 7200; s += 37 {
		fee := Fee(t0, t0.Add(time.Duration(s)*time.Second), DefaultRatePerMinute)
		assert.GreaterOrEqual(t, fee, prev)
		prev = fee
	}
}

func TestTotalAmount(t *testing.T) {
	assert.InDelta(t, 40.0, TotalAmount(30, DefaultAdditionalCharge), 1e-9)
	assert.InDelta(t, 10.0, TotalAmount(0, DefaultAdditionalCharge), 1e-9)
}

func TestGenerateBillTenMinutes(t *testing.T) {
	clk := clock.NewManual(t0)
	lot := parking.NewParkingLot(3, clk)
	require.NoError(t, lot.Occupy(1, "KA01AB1234"))
	clk.Advance(600 * time.Second)

	path := filepath.Join(t.TempDir(), "records.txt")
	var out bytes.Buffer
	rec := &countingRecorder{}
	b := New(Config{
		RatePerMinute:    DefaultRatePerMinute,
		AdditionalCharge: DefaultAdditionalCharge,
		Clock:            clk,
		Out:              &out,
		Ledger:           NewFileLedger(path, "text"),
		Recorder:         rec,
	})

	bill, err := b.GenerateBill(context.Background(), 1, lot)
	require.NoError(t, err)

	assert.NotEmpty(t, bill.ID)
	assert.Equal(t, "KA01AB1234", bill.VehicleID)
	assert.Equal(t, 1, bill.SlotID)
	assert.Equal(t, 10*time.Minute, bill.Duration())
	assert.InDelta(t, 30.0, bill.Fee, 1e-9)
	assert.InDelta(t, 10.0, bill.AdditionalCharge, 1e-9)
	assert.InDelta(t, 40.0, bill.Total, 1e-9)
	assert.Equal(t, 1, rec.bills)

	wantConsole := "Vehicle Number: KA01AB1234\n" +
		"Entry Time: 2025-01-01 10:00:00 | Exit Time: 2025-01-01 10:10:00\n" +
		"Parking Slot: 1 | Fee: ₹30.00 | Additional Charges: ₹10.00 | Total Amount: ₹40.00\n"
	assert.Equal(t, wantConsole, out.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, wantConsole+Divider+"\n", string(data))

	_, err = lot.EntryTimeOf(1)
	assert.NoError(t, err, "billing must not clear the entry record")
}

func TestGenerateBillNoActiveEntry(t *testing.T) {
	lot := parking.NewParkingLot(2, nil)
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), "records.txt")
	b := New(Config{RatePerMinute: 3, Out: &out, Ledger: NewFileLedger(path, "text")})

	_, err := b.GenerateBill(context.Background(), 2, lot)
	assert.ErrorIs(t, err, ErrNoActiveEntry)
	assert.ErrorIs(t, err, parking.ErrNotFound)
	assert.Zero(t, out.Len())
	assert.NoFileExists(t, path)

	_, err = b.GenerateBill(context.Background(), 9, lot)
	assert.ErrorIs(t, err, parking.ErrOutOfRange)
}

func TestGenerateBillLedgerFailureStillPrints(t *testing.T) {
	clk := clock.NewManual(t0)
	lot := parking.NewParkingLot(1, clk)
	require.NoError(t, lot.Occupy(1, "KA01AB1234"))
	clk.Advance(time.Minute)

	var out bytes.Buffer
	rec := &countingRecorder{}
	b := New(Config{
		RatePerMinute:    DefaultRatePerMinute,
		AdditionalCharge: DefaultAdditionalCharge,
		Clock:            clk,
		Out:              &out,
		Ledger:           failingLedger{},
		Recorder:         rec,
	})

	bill, err := b.GenerateBill(context.Background(), 1, lot)
	assert.ErrorIs(t, err, ErrLogWrite)
	assert.InDelta(t, 13.0, bill.Total, 1e-9)
	assert.Contains(t, out.String(), "Total Amount: ₹13.00")
	assert.Equal(t, 1, rec.failures)
}

func TestQuoteHasNoSideEffects(t *testing.T) {
	clk := clock.NewManual(t0)
	lot := parking.NewParkingLot(1, clk)
	require.NoError(t, lot.Occupy(1, "V1"))
	clk.Advance(20 * time.Minute)

	var out bytes.Buffer
	b := New(Config{RatePerMinute: 3, AdditionalCharge: 10, Clock: clk, Out: &out, Ledger: failingLedger{}})

	bill, err := b.Quote(1, lot)
	require.NoError(t, err)
	assert.InDelta(t, 70.0, bill.Total, 1e-9)
	assert.Zero(t, out.Len())
}

func TestFileLedgerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.txt")
	l := NewFileLedger(path, "text")
	bill := Bill{SlotID: 2, VehicleID: "V2", EntryTime: t0, ExitTime: t0.Add(time.Minute), Fee: 3, AdditionalCharge: 10, Total: 13}

	require.NoError(t, l.Append(bill))
	require.NoError(t, l.Append(bill))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, Divider, lines[3])
	assert.Equal(t, Divider, lines[7])
}

func TestFileLedgerJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.jsonl")
	l := NewFileLedger(path, "jsonl")
	bill := Bill{ID: "b-1", SlotID: 2, VehicleID: "V2", EntryTime: t0, ExitTime: t0.Add(time.Minute), Fee: 3, AdditionalCharge: 10, Total: 13}

	require.NoError(t, l.Append(bill))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id":"b-1"`)
	assert.Contains(t, string(data), `"vehicle_id":"V2"`)
	assert.Contains(t, string(data), `"total":13`)
	assert.True(t, strings.HasSuffix(string(data), "}\n"))
}

func TestFileLedgerOpenFailure(t *testing.T) {
	l := NewFileLedger(filepath.Join(t.TempDir(), "missing", "records.txt"), "text")
	assert.Error(t, l.Append(Bill{}))
}

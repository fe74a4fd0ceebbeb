package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-billing/internal/billing"
	"parking-billing/internal/clock"
	"parking-billing/internal/parking"
	"parking-billing/internal/telemetry"
)

var t0 = time.Date(2025, 1, 1, 10, 0, 0, 0, time.Local)

func init() {
	color.NoColor = true
}

// stepReader hands out one chunk per Read, running before() ahead of every
// chunk after the first so tests can move the clock between menu actions.
type stepReader struct {
	chunks []string
	before func(i int)
	i      int
}

func (r *stepReader) Read(p []byte) (int, error) {
	if r.i >= len(r.chunks) {
		return 0, io.EOF
	}
	if r.i > 0 && r.before != nil {
		r.before(r.i)
	}
	n := copy(p, r.chunks[r.i])
	r.i++
	return n, nil
}

type fixture struct {
	lot    *parking.InstrumentedParkingLot
	clock  *clock.Manual
	out    *bytes.Buffer
	ledger string
}

func newFixture(t *testing.T, capacity int) *fixture {
	t.Helper()
	clk := clock.NewManual(t0)
	tp := telemetry.NewLocal("test", nil, nil)
	lot, err := parking.NewInstrumentedParkingLot(capacity, clk, tp)
	require.NoError(t, err)

	return &fixture{
		lot:    lot,
		clock:  clk,
		out:    &bytes.Buffer{},
		ledger: filepath.Join(t.TempDir(), "records.txt"),
	}
}

func (f *fixture) run(t *testing.T, r io.Reader) error {
	t.Helper()
	tp := telemetry.NewLocal("test", nil, nil)
	b := billing.New(billing.Config{
		RatePerMinute:    billing.DefaultRatePerMinute,
		AdditionalCharge: billing.DefaultAdditionalCharge,
		Clock:            f.clock,
		Out:              f.out,
		Ledger:           billing.NewFileLedger(f.ledger, "text"),
		Tracer:           tp.Tracer(),
	})
	return New(f.lot, b, NewInput(r, f.out), f.out, tp).Run(context.Background())
}

func TestShellReserveAndBillAfterTenMinutes(t *testing.T) {
	f := newFixture(t, 3)
	r := &stepReader{
		chunks: []string{"2 KA01AB1234\n", "4 1\n", "3 1\n1\n6\n"},
		before: func(i int) {
			if i == 1 {
				f.clock.Advance(600 * time.Second)
			}
		},
	}

	require.NoError(t, f.run(t, r))

	out := f.out.String()
	assert.Contains(t, out, "Slot 1 reserved for vehicle KA01AB1234.")
	assert.Equal(t, 2, strings.Count(out, "Parking Slot: 1 | Fee: ₹30.00 | Additional Charges: ₹10.00 | Total Amount: ₹40.00"))
	assert.Contains(t, out, "Slot 1 is now free.")
	assert.Contains(t, out, "Available Slots: 1 2 3\n")
	assert.True(t, strings.HasSuffix(out, "Exiting...\n"))

	data, err := os.ReadFile(f.ledger)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), billing.Divider))
	assert.Contains(t, string(data), "Entry Time: 2025-01-01 10:00:00 | Exit Time: 2025-01-01 10:10:00")
}

func TestShellFreeOnFreeSlot(t *testing.T) {
	f := newFixture(t, 3)

	require.NoError(t, f.run(t, strings.NewReader("3 2\n4 2\n6\n")))

	out := f.out.String()
	assert.Contains(t, out, "Slot 2 is already free.")
	assert.Contains(t, out, "Slot 2 is free and has no active bill.")
	assert.NoFileExists(t, f.ledger)
	assert.Equal(t, parking.Stats{Total: 3, Occupied: 0, Available: 3}, f.lot.Stats(context.Background()))
}

func TestShellOutOfRangeSlot(t *testing.T) {
	f := newFixture(t, 3)

	require.NoError(t, f.run(t, strings.NewReader("3 7\n4 0\n3 x\n6\n")))

	out := f.out.String()
	assert.Equal(t, 2, strings.Count(out, "Invalid slot ID. Valid range is 1-3."))
	assert.Contains(t, out, "Invalid slot ID.\n")
	assert.NoFileExists(t, f.ledger)
}

func TestShellNoCapacity(t *testing.T) {
	f := newFixture(t, 2)

	require.NoError(t, f.run(t, strings.NewReader("2 A\n2 B\n2\n5\n6\n")))

	out := f.out.String()
	assert.Contains(t, out, "Slot 1 reserved for vehicle A.")
	assert.Contains(t, out, "Slot 2 reserved for vehicle B.")
	assert.Contains(t, out, "No available slots.")
	assert.Contains(t, out, "Total Slots: 2 | Occupied: 2 | Available: 0")
}

func TestShellAdminView(t *testing.T) {
	f := newFixture(t, 5)

	require.NoError(t, f.run(t, strings.NewReader("2 A 2 B 5 6")))

	assert.Contains(t, f.out.String(), "Total Slots: 5 | Occupied: 2 | Available: 3")
}

func TestShellInvalidChoice(t *testing.T) {
	f := newFixture(t, 1)

	require.NoError(t, f.run(t, strings.NewReader("9 abc 0 6")))

	assert.Equal(t, 3, strings.Count(f.out.String(), "Invalid choice, try again."))
}

func TestShellEndOfInputExitsCleanly(t *testing.T) {
	f := newFixture(t, 1)

	assert.NoError(t, f.run(t, strings.NewReader("1\n")))
	assert.NoError(t, f.run(t, strings.NewReader("2")))
	assert.NotContains(t, f.out.String(), "Exiting...")
}

func TestShellLedgerFailureStillBillsAndFrees(t *testing.T) {
	f := newFixture(t, 1)
	f.ledger = filepath.Join(t.TempDir(), "missing", "records.txt")

	require.NoError(t, f.run(t, strings.NewReader("2 A 3 1 6")))

	out := f.out.String()
	assert.Contains(t, out, "Vehicle Number: A")
	assert.Contains(t, out, "Error writing bill record")
	assert.Contains(t, out, "Slot 1 is now free.")
}

func TestShellCancelledContext(t *testing.T) {
	f := newFixture(t, 1)
	tp := telemetry.NewLocal("test", nil, nil)
	b := billing.New(billing.Config{Out: f.out})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(f.lot, b, NewInput(strings.NewReader("1"), f.out), f.out, tp).Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestReadCapacity(t *testing.T) {
	var out bytes.Buffer
	in := NewInput(strings.NewReader("abc -3 4"), &out)

	n, err := ReadCapacity(in)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 2, strings.Count(out.String(), "Invalid slot count"))

	_, err = ReadCapacity(NewInput(strings.NewReader(""), &out))
	assert.ErrorIs(t, err, io.EOF)
}

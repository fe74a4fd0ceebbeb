package billing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"parking-billing/internal/clock"
	"parking-billing/internal/logging"
	"parking-billing/internal/parking"
)

const (
	DefaultRatePerMinute    = 3.0
	DefaultAdditionalCharge = 10.0
)

var (
	ErrNoActiveEntry = fmt.Errorf("no entry record: %w", parking.ErrNotFound)
	ErrLogWrite      = errors.New("bill log write failed")
)

// SlotReader is the part of a lot billing needs.
type SlotReader interface {
	VehicleAt(slotID int) (string, error)
	EntryTimeOf(slotID int) (time.Time, error)
}

// Ledger persists emitted bills.
type Ledger interface {
	Append(b Bill) error
}

// Recorder observes bills for metrics. May be nil.
type Recorder interface {
	ObserveBill(b Bill)
	ObserveLedgerFailure()
}

type Config struct {
	RatePerMinute    float64
	AdditionalCharge float64
	Clock            clock.Clock
	Out              io.Writer
	Ledger           Ledger
	Recorder         Recorder
	Tracer           trace.Tracer
}

type Billing struct {
	rate       float64
	additional float64
	clock      clock.Clock
	out        io.Writer
	ledger     Ledger
	recorder   Recorder
	tracer     trace.Tracer
}

func New(cfg Config) *Billing {
	if cfg.Clock == nil {
		cfg.Clock = clock.NewSystem()
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Tracer == nil {
		cfg.Tracer = noop.NewTracerProvider().Tracer("billing")
	}

	return &Billing{
		rate:       cfg.RatePerMinute,
		additional: cfg.AdditionalCharge,
		clock:      cfg.Clock,
		out:        cfg.Out,
		ledger:     cfg.Ledger,
		recorder:   cfg.Recorder,
		tracer:     cfg.Tracer,
	}
}

// Fee charges ratePerMinute for every minute between entry and exit,
// including fractions. Exit before entry is billed as zero.
func Fee(entry, exit time.Time, ratePerMinute float64) float64 {
	minutes := exit.Sub(entry).Seconds() / 60.0
	if minutes < 0 {
		return 0
	}
	return minutes * ratePerMinute
}

func TotalAmount(fee, additionalCharges float64) float64 {
	return fee + additionalCharges
}

func (b *Billing) Fee(entry, exit time.Time) float64 {
	return Fee(entry, exit, b.rate)
}

// Quote computes the bill for slotID as of now without printing or
// persisting it.
func (b *Billing) Quote(slotID int, lot SlotReader) (Bill, error) {
	entry, err := lot.EntryTimeOf(slotID)
	if err != nil {
		if errors.Is(err, parking.ErrNotFound) {
			return Bill{}, fmt.Errorf("slot %d: %w", slotID, ErrNoActiveEntry)
		}
		return Bill{}, err
	}
	vehicleID, err := lot.VehicleAt(slotID)
	if err != nil {
		return Bill{}, err
	}

	exit := b.clock.Now()
	fee := b.Fee(entry, exit)

	return Bill{
		ID:               uuid.NewString(),
		SlotID:           slotID,
		VehicleID:        vehicleID,
		EntryTime:        entry,
		ExitTime:         exit,
		Fee:              fee,
		AdditionalCharge: b.additional,
		Total:            TotalAmount(fee, b.additional),
	}, nil
}

// GenerateBill checks out slotID as of now, prints the bill and appends it
// to the ledger. The slot is left occupied; freeing it is the caller's job.
// A ledger failure still returns the bill, with an error wrapping
// ErrLogWrite.
func (b *Billing) GenerateBill(ctx context.Context, slotID int, lot SlotReader) (Bill, error) {
	ctx, span := b.tracer.Start(ctx, "billing.generate_bill",
		trace.WithAttributes(attribute.Int("slot.id", slotID)))
	defer span.End()

	bill, err := b.Quote(slotID, lot)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Bill{}, err
	}

	span.SetAttributes(
		attribute.String("bill.id", bill.ID),
		attribute.String("vehicle.id", bill.VehicleID),
		attribute.Float64("bill.total", bill.Total),
	)

	for _, line := range bill.Lines() {
		fmt.Fprintln(b.out, line)
	}

	if b.recorder != nil {
		b.recorder.ObserveBill(bill)
	}

	logging.Info(ctx).
		Str("bill_id", bill.ID).
		Int("slot_id", bill.SlotID).
		Str("vehicle_id", bill.VehicleID).
		Float64("total", bill.Total).
		Msg("bill generated")

	if b.ledger == nil {
		return bill, nil
	}
	if err := b.ledger.Append(bill); err != nil {
		span.RecordError(err)
		if b.recorder != nil {
			b.recorder.ObserveLedgerFailure()
		}
		logging.Error(ctx).Err(err).Str("bill_id", bill.ID).Msg("bill not persisted")
		return bill, fmt.Errorf("%w: %v", ErrLogWrite, err)
	}

	return bill, nil
}

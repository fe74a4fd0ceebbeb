package parking

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"parking-billing/internal/clock"
	"parking-billing/internal/telemetry"
)

// InstrumentedParkingLot wraps a ParkingLot with tracing, metrics and a lock
// so the admin API can read while the menu mutates.
type InstrumentedParkingLot struct {
	mu  sync.RWMutex
	lot *ParkingLot

	tracer trace.Tracer

	reserveOperations metric.Int64Counter
	freeOperations    metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	operationDuration metric.Float64Histogram
	totalSlotsGauge   metric.Int64UpDownCounter
}

func NewInstrumentedParkingLot(capacity int, clk clock.Clock, tp *telemetry.Provider) (*InstrumentedParkingLot, error) {
	meter := tp.Meter()

	reserveOperations, err := meter.Int64Counter("parking_reserve_operations_total",
		metric.WithDescription("Total number of slot reservations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	freeOperations, err := meter.Int64Counter("parking_free_operations_total",
		metric.WithDescription("Total number of slot releases"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("parking_lot_occupancy",
		metric.WithDescription("Current number of occupied parking slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("parking_operation_duration_seconds",
		metric.WithDescription("Duration of parking lot operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	totalSlotsGauge, err := meter.Int64UpDownCounter("parking_lot_total_slots",
		metric.WithDescription("Total number of parking slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	ipl := &InstrumentedParkingLot{
		lot:               NewParkingLot(capacity, clk),
		tracer:            tp.Tracer(),
		reserveOperations: reserveOperations,
		freeOperations:    freeOperations,
		occupancyGauge:    occupancyGauge,
		operationDuration: operationDuration,
		totalSlotsGauge:   totalSlotsGauge,
	}

	totalSlotsGauge.Add(context.Background(), int64(ipl.lot.Capacity()))

	return ipl, nil
}

func (ipl *InstrumentedParkingLot) Capacity() int {
	return ipl.lot.Capacity()
}

// Reserve parks vehicleID in the lowest free slot.
func (ipl *InstrumentedParkingLot) Reserve(ctx context.Context, vehicleID string) (int, error) {
	ctx, span := ipl.tracer.Start(ctx, "parking_lot.reserve",
		trace.WithAttributes(attribute.String("vehicle.id", vehicleID)))
	defer span.End()

	start := time.Now()
	span.AddEvent("finding_free_slot")

	ipl.mu.Lock()
	slotID, err := ipl.lot.Reserve(vehicleID)
	ipl.mu.Unlock()

	labels := []attribute.KeyValue{attribute.String("operation", "reserve")}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		labels = append(labels, attribute.String("status", "success"))
		span.SetAttributes(attribute.Int("slot.id", slotID))
		span.AddEvent("slot_allocated")
		ipl.occupancyGauge.Add(ctx, 1)
	}

	ipl.reserveOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ipl.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return slotID, err
}

func (ipl *InstrumentedParkingLot) Free(ctx context.Context, slotID int) error {
	ctx, span := ipl.tracer.Start(ctx, "parking_lot.free",
		trace.WithAttributes(attribute.Int("slot.id", slotID)))
	defer span.End()

	start := time.Now()

	ipl.mu.Lock()
	var leaving string
	if s, err := ipl.lot.occupied(slotID); err == nil {
		leaving = s.VehicleID
	}
	err := ipl.lot.Free(slotID)
	ipl.mu.Unlock()

	labels := []attribute.KeyValue{attribute.String("operation", "free")}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		labels = append(labels, attribute.String("status", "success"))
		span.SetAttributes(attribute.String("vehicle.id", leaving))
		span.AddEvent("slot_released")
		ipl.occupancyGauge.Add(ctx, -1)
	}

	ipl.freeOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ipl.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return err
}

func (ipl *InstrumentedParkingLot) AvailableSlotIDs(ctx context.Context) []int {
	_, span := ipl.tracer.Start(ctx, "parking_lot.available_slots")
	defer span.End()

	ipl.mu.RLock()
	ids := ipl.lot.AvailableSlotIDs()
	ipl.mu.RUnlock()

	span.SetAttributes(attribute.Int("available_slots_count", len(ids)))
	return ids
}

func (ipl *InstrumentedParkingLot) Stats(ctx context.Context) Stats {
	_, span := ipl.tracer.Start(ctx, "parking_lot.stats")
	defer span.End()

	ipl.mu.RLock()
	stats := ipl.lot.Stats()
	ipl.mu.RUnlock()

	span.SetAttributes(
		attribute.Int("total_capacity", stats.Total),
		attribute.Int("occupied_slots_count", stats.Occupied),
	)
	return stats
}

func (ipl *InstrumentedParkingLot) VehicleAt(slotID int) (string, error) {
	ipl.mu.RLock()
	defer ipl.mu.RUnlock()
	return ipl.lot.VehicleAt(slotID)
}

func (ipl *InstrumentedParkingLot) EntryTimeOf(slotID int) (time.Time, error) {
	ipl.mu.RLock()
	defer ipl.mu.RUnlock()
	return ipl.lot.EntryTimeOf(slotID)
}

func (ipl *InstrumentedParkingLot) Slot(slotID int) (Slot, error) {
	ipl.mu.RLock()
	defer ipl.mu.RUnlock()
	return ipl.lot.Slot(slotID)
}

func (ipl *InstrumentedParkingLot) Slots() []Slot {
	ipl.mu.RLock()
	defer ipl.mu.RUnlock()
	return ipl.lot.Slots()
}

func (ipl *InstrumentedParkingLot) SlotByVehicle(ctx context.Context, vehicleID string) (int, error) {
	_, span := ipl.tracer.Start(ctx, "parking_lot.slot_by_vehicle",
		trace.WithAttributes(attribute.String("vehicle.id", vehicleID)))
	defer span.End()

	ipl.mu.RLock()
	slotID, err := ipl.lot.SlotByVehicle(vehicleID)
	ipl.mu.RUnlock()

	if err != nil {
		span.AddEvent("vehicle_not_found")
	} else {
		span.SetAttributes(attribute.Int("slot.id", slotID))
	}
	return slotID, err
}

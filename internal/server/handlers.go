package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"parking-billing/internal/billing"
	"parking-billing/internal/parking"
)

// Handler serves read-only views of the lot. Mutation stays with the menu.
type Handler struct {
	serviceName string
	lot         *parking.InstrumentedParkingLot
	billing     *billing.Billing
}

func NewHandler(serviceName string, lot *parking.InstrumentedParkingLot, b *billing.Billing) *Handler {
	return &Handler{serviceName: serviceName, lot: lot, billing: b}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: h.serviceName,
		Meta:    extractMeta(r.Context()),
	})
}

func toSlotStatus(s parking.Slot) SlotStatus {
	status := SlotStatus{SlotID: s.ID, Occupied: s.Occupied}
	if s.Occupied {
		entry := s.EntryTime
		status.VehicleID = s.VehicleID
		status.EntryTime = &entry
	}
	return status
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats := h.lot.Stats(ctx)
	slots := h.lot.Slots()

	response := StatusResponse{
		Capacity:  stats.Total,
		Occupied:  stats.Occupied,
		Available: stats.Available,
		Slots:     make([]SlotStatus, 0, len(slots)),
	}
	for _, s := range slots {
		response.Slots = append(response.Slots, toSlotStatus(s))
	}

	WriteSuccess(ctx, w, "Status retrieved successfully", response)
}

func (h *Handler) GetAvailable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	WriteSuccess(ctx, w, "Available slots retrieved successfully", AvailableResponse{
		SlotIDs: h.lot.AvailableSlotIDs(ctx),
	})
}

func (h *Handler) GetSlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	slotID, err := strconv.Atoi(chi.URLParam(r, "slotID"))
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Slot id must be a number")
		return
	}

	slot, err := h.lot.Slot(slotID)
	if errors.Is(err, parking.ErrOutOfRange) {
		WriteError(ctx, w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		WriteError(ctx, w, http.StatusInternalServerError, err.Error())
		return
	}

	response := SlotDetailResponse{SlotStatus: toSlotStatus(slot)}
	if slot.Occupied {
		bill, err := h.billing.Quote(slotID, h.lot)
		switch {
		case errors.Is(err, billing.ErrNoActiveEntry):
			// freed between the two reads
			response.SlotStatus = SlotStatus{SlotID: slotID}
		case err != nil:
			WriteError(ctx, w, http.StatusInternalServerError, err.Error())
			return
		default:
			response.Quote = &QuoteResponse{
				VehicleID:        bill.VehicleID,
				EntryTime:        bill.EntryTime,
				AsOf:             bill.ExitTime,
				Minutes:          bill.Duration().Minutes(),
				Fee:              bill.Fee,
				AdditionalCharge: bill.AdditionalCharge,
				Total:            bill.Total,
			}
		}
	}

	WriteSuccess(ctx, w, "Slot retrieved successfully", response)
}

func (h *Handler) FindByVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	vehicleID := chi.URLParam(r, "vehicleID")
	if vehicleID == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Vehicle id is required")
		return
	}

	slotID, err := h.lot.SlotByVehicle(ctx, vehicleID)
	if err != nil {
		WriteError(ctx, w, http.StatusNotFound, "Vehicle not found")
		return
	}

	slot, err := h.lot.Slot(slotID)
	if err != nil || !slot.Occupied {
		WriteError(ctx, w, http.StatusNotFound, "Vehicle not found")
		return
	}

	WriteSuccess(ctx, w, "Vehicle found", toSlotStatus(slot))
}

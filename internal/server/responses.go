package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type SlotStatus struct {
	SlotID    int        `json:"slot_id"`
	Occupied  bool       `json:"occupied"`
	VehicleID string     `json:"vehicle_id,omitempty"`
	EntryTime *time.Time `json:"entry_time,omitempty"`
}

type StatusResponse struct {
	Capacity  int          `json:"capacity"`
	Occupied  int          `json:"occupied"`
	Available int          `json:"available"`
	Slots     []SlotStatus `json:"slots"`
}

type AvailableResponse struct {
	SlotIDs []int `json:"slot_ids"`
}

// QuoteResponse is the running charge for an occupied slot; nothing is
// persisted when it is produced.
type QuoteResponse struct {
	VehicleID        string    `json:"vehicle_id"`
	EntryTime        time.Time `json:"entry_time"`
	AsOf             time.Time `json:"as_of"`
	Minutes          float64   `json:"minutes"`
	Fee              float64   `json:"fee"`
	AdditionalCharge float64   `json:"additional_charge"`
	Total            float64   `json:"total"`
}

type SlotDetailResponse struct {
	SlotStatus
	Quote *QuoteResponse `json:"quote,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}

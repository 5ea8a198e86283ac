package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/roomly/go-room-booking/internal/booking"
	kafkax "github.com/roomly/go-room-booking/internal/kafka"
	"github.com/roomly/go-room-booking/internal/redisx"
)

// BookingsHandler is the thin transport shell around the booking core. All
// interesting decisions live in the coordinator and lifecycle; this layer only
// decodes, maps errors to status codes, caches and publishes.
type BookingsHandler struct {
	Coordinator *booking.Coordinator
	Lifecycle   *booking.Lifecycle
	Store       *booking.Store
	Rooms       *booking.Rooms
	Confirmed   *kafkax.Producer
	Cancelled   *kafkax.Producer
	Redis       *redis.Client
	Service     string
	Log         *slog.Logger
}

func (h *BookingsHandler) Register(r *chi.Mux) {
	r.Post("/bookings", h.createBooking)
	r.Get("/bookings", h.listBookings)
	r.Get("/bookings/{id}", h.getBooking)
	r.Delete("/bookings/{id}", h.cancelBooking)
	r.Get("/rooms", h.listRooms)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the core's closed error set onto transport codes. The core
// itself never sees HTTP.
func statusFor(err error) int {
	var (
		validation *booking.ValidationError
		notFound   *booking.NotFoundError
		conflict   *booking.ConflictError
		window     *booking.CancellationWindowError
		overload   *booking.OverloadError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &window):
		return http.StatusUnprocessableEntity
	case errors.As(err, &overload):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *BookingsHandler) writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	body := map[string]any{"error": err.Error()}

	var conflict *booking.ConflictError
	if errors.As(err, &conflict) {
		body["conflicting_start"] = conflict.ConflictingStart
		body["conflicting_end"] = conflict.ConflictingEnd
	}
	if code == http.StatusInternalServerError {
		h.Log.Error("request failed", "error", err)
		body["error"] = "internal error"
	}
	writeJSON(w, code, body)
}

func (h *BookingsHandler) createBooking(w http.ResponseWriter, r *http.Request) {
	var in booking.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	b, err := h.Coordinator.CreateBooking(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.cacheBooking(r.Context(), b)
	h.publish(h.Confirmed, booking.EventBookingConfirmed, b.ID, r,
		booking.BookingConfirmedPayload{
			BookingID:       b.ID,
			RoomID:          b.RoomID,
			UserName:        b.UserName,
			StartTime:       b.StartTime,
			EndTime:         b.EndTime,
			DurationMinutes: b.DurationMinutes,
			TotalCents:      b.TotalCents,
		})

	writeJSON(w, http.StatusCreated, b)
}

func (h *BookingsHandler) cancelBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}

	b, err := h.Lifecycle.Cancel(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.cacheBooking(r.Context(), b)
	h.publish(h.Cancelled, booking.EventBookingCancelled, b.ID, r,
		booking.BookingCancelledPayload{
			BookingID:   b.ID,
			RoomID:      b.RoomID,
			UserName:    b.UserName,
			CancelledAt: time.Now().UTC(),
		})

	writeJSON(w, http.StatusOK, b)
}

func (h *BookingsHandler) getBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}

	key := fmt.Sprintf(redisx.KeyBooking, id)
	if s, err := h.Redis.Get(r.Context(), key).Result(); err == nil && s != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(s))
		return
	}

	b, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.cacheBooking(r.Context(), b)
	writeJSON(w, http.StatusOK, b)
}

func (h *BookingsHandler) listBookings(w http.ResponseWriter, r *http.Request) {
	f := booking.ListFilter{
		RoomID: r.URL.Query().Get("room_id"),
		Status: booking.Status(r.URL.Query().Get("status")),
	}
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "from must be RFC3339"})
			return
		}
		f.From = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "to must be RFC3339"})
			return
		}
		f.To = t
	}

	out, err := h.Store.List(r.Context(), f)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if out == nil {
		out = []booking.Booking{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *BookingsHandler) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Rooms.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if rooms == nil {
		rooms = []booking.Room{}
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *BookingsHandler) cacheBooking(ctx context.Context, b *booking.Booking) {
	key := fmt.Sprintf(redisx.KeyBooking, b.ID)
	if err := h.Redis.Set(ctx, key, kafkax.MustMarshal(b), redisx.TTLBookingCache).Err(); err != nil {
		h.Log.Warn("booking cache set failed", "booking_id", b.ID, "error", err)
	}
}

func (h *BookingsHandler) publish(p *kafkax.Producer, eventType, bookingID string, r *http.Request, payload any) {
	ev := booking.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: bookingID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(booking.PartitionKey(bookingID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

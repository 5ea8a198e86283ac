package booking

import (
	"encoding/json"
	"time"
)

const (
	EventBookingConfirmed = "BookingConfirmed"
	EventBookingCancelled = "BookingCancelled"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // booking_id
	Payload       json.RawMessage `json:"payload"`
}

type BookingConfirmedPayload struct {
	BookingID       string    `json:"booking_id"`
	RoomID          string    `json:"room_id"`
	UserName        string    `json:"user_name"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int64     `json:"duration_minutes"`
	TotalCents      int64     `json:"total_cents"`
}

type BookingCancelledPayload struct {
	BookingID   string    `json:"booking_id"`
	RoomID      string    `json:"room_id"`
	UserName    string    `json:"user_name"`
	CancelledAt time.Time `json:"cancelled_at"`
}

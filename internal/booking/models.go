package booking

import "time"

type Room struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	HourlyRateCents int64     `json:"hourly_rate_cents"`
	CreatedAt       time.Time `json:"created_at"`
}

// Booking is a confirmed or cancelled reservation of one room for the
// half-open UTC interval [StartTime, EndTime). TotalCents is fixed at creation
// and never recomputed, even if the room's rate changes later.
type Booking struct {
	ID              string    `json:"id"`
	RoomID          string    `json:"room_id"`
	UserName        string    `json:"user_name"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int64     `json:"duration_minutes"`
	TotalCents      int64     `json:"total_cents"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Interval is a half-open [Start, End) time range.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ListFilter narrows ListBookings. Zero fields are ignored.
type ListFilter struct {
	RoomID string
	Status Status
	From   time.Time
	To     time.Time
}

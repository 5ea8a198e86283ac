package redisx

import "time"

const (
	// Booking read cache: booking:{booking_id} -> serialized booking
	KeyBooking = "booking:%s"

	// Dedup for event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLBookingCache = 5 * time.Minute
	TTLDedup        = 48 * time.Hour
)

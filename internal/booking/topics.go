package booking

const (
	TopicBookingConfirmed = "booking.confirmed"
	TopicBookingCancelled = "booking.cancelled"
)

// Partition key = booking_id, so all events for one booking keep their order.
func PartitionKey(bookingID string) []byte { return []byte(bookingID) }

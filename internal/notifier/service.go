// Package notifier consumes booking events and emits user-facing notices.
// Delivery here is a structured log line; a mail or chat transport would hang
// off the same handler.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/roomly/go-room-booking/internal/booking"
	kafkax "github.com/roomly/go-room-booking/internal/kafka"
	"github.com/roomly/go-room-booking/internal/redisx"
)

type Service struct {
	Redis       *redis.Client
	Log         *slog.Logger
	ServiceName string
}

// HandleBookingEvent is wired as the consumer handler for both booking topics.
func (s *Service) HandleBookingEvent(ctx context.Context, m kafkago.Message) error {
	var env booking.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	// At-least-once delivery: skip events this service already handled.
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	first, err := redisx.Once(ctx, s.Redis, dkey, redisx.TTLDedup)
	if err != nil {
		return err
	}
	if !first {
		return nil
	}

	switch env.EventType {
	case booking.EventBookingConfirmed:
		p, err := kafkax.UnwrapPayload[booking.BookingConfirmedPayload](env.Payload)
		if err != nil {
			return err
		}
		s.Log.Info("booking confirmation notice",
			"booking_id", p.BookingID, "room_id", p.RoomID, "user", p.UserName,
			"start", p.StartTime, "end", p.EndTime, "total_cents", p.TotalCents)
	case booking.EventBookingCancelled:
		p, err := kafkax.UnwrapPayload[booking.BookingCancelledPayload](env.Payload)
		if err != nil {
			return err
		}
		s.Log.Info("booking cancellation notice",
			"booking_id", p.BookingID, "room_id", p.RoomID, "user", p.UserName,
			"cancelled_at", p.CancelledAt)
	default:
		// Unknown event types are not an error; commit and move on.
	}
	return nil
}

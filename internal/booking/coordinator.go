package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/roomly/go-room-booking/internal/pricing"
)

const (
	// MaxDurationMinutes caps a single booking at 12 hours.
	MaxDurationMinutes = 720

	DefaultMaxAttempts = 3
	DefaultBackoffBase = 100 * time.Millisecond
)

// Reserver performs one serializable conflict-check-and-insert attempt.
type Reserver interface {
	Reserve(ctx context.Context, b *Booking) error
}

// RoomCatalog resolves the authoritative hourly rate for a room.
type RoomCatalog interface {
	RateCents(ctx context.Context, roomID string) (int64, error)
}

type CreateInput struct {
	RoomID    string    `json:"room_id" validate:"required"`
	UserName  string    `json:"user_name" validate:"required"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
}

// CoordinatorConfig bounds the retry loop. Zero fields fall back to defaults;
// there is no ambient global state.
type CoordinatorConfig struct {
	MaxAttempts int
	BackoffBase time.Duration
}

// Coordinator orchestrates validation, pricing and the transactional insert
// with bounded retry on transient serialization conflicts.
type Coordinator struct {
	store    Reserver
	rooms    RoomCatalog
	validate *validator.Validate
	log      *slog.Logger

	maxAttempts int
	backoffBase time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewCoordinator(store Reserver, rooms RoomCatalog, log *slog.Logger, cfg CoordinatorConfig) *Coordinator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}
	return &Coordinator{
		store:       store,
		rooms:       rooms,
		validate:    validator.New(),
		log:         log,
		maxAttempts: cfg.MaxAttempts,
		backoffBase: cfg.BackoffBase,
		sleep:       sleepCtx,
	}
}

// CreateBooking validates the request, prices the interval server-side and
// inserts the booking under serializable isolation.
//
// A ConflictError is a real business conflict and is returned on the first
// detection, never retried. Only ErrSerialization is retried, with linear
// backoff, until the attempt budget runs out; exhaustion becomes OverloadError.
func (c *Coordinator) CreateBooking(ctx context.Context, in CreateInput) (*Booking, error) {
	if err := c.checkInput(in); err != nil {
		return nil, err
	}

	rate, err := c.rooms.RateCents(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}

	// Price is computed here from the catalog rate; client-submitted prices
	// are never trusted.
	quote := pricing.Compute(rate, in.StartTime, in.EndTime)

	b := &Booking{
		ID:              uuid.NewString(),
		RoomID:          in.RoomID,
		UserName:        in.UserName,
		StartTime:       in.StartTime.UTC(),
		EndTime:         in.EndTime.UTC(),
		DurationMinutes: quote.TotalMinutes,
		TotalCents:      quote.TotalCents,
		Status:          StatusConfirmed,
	}

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err := c.store.Reserve(ctx, b)
		if err == nil {
			c.log.Info("booking confirmed",
				"booking_id", b.ID, "room_id", b.RoomID,
				"start", b.StartTime, "end", b.EndTime,
				"total_cents", b.TotalCents, "attempt", attempt)
			return b, nil
		}
		if !errors.Is(err, ErrSerialization) {
			return nil, err
		}

		c.log.Warn("serialization conflict on booking insert",
			"booking_id", b.ID, "room_id", b.RoomID, "attempt", attempt, "error", err)
		if attempt < c.maxAttempts {
			if err := c.sleep(ctx, c.backoffBase*time.Duration(attempt)); err != nil {
				return nil, err
			}
		}
	}

	return nil, &OverloadError{Attempts: c.maxAttempts}
}

func (c *Coordinator) checkInput(in CreateInput) error {
	if err := c.validate.Struct(in); err != nil {
		var verr validator.ValidationErrors
		if errors.As(err, &verr) && len(verr) > 0 {
			return &ValidationError{Msg: verr[0].Field() + " is required"}
		}
		return &ValidationError{Msg: err.Error()}
	}
	if !in.StartTime.Before(in.EndTime) {
		return &ValidationError{Msg: "end time must be after start time"}
	}
	if in.EndTime.Sub(in.StartTime) > MaxDurationMinutes*time.Minute {
		return &ValidationError{Msg: "booking may not exceed 12 hours"}
	}
	return nil
}

// sleepCtx waits for d, aborting early when the caller's context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

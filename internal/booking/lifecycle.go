package booking

import (
	"context"
	"log/slog"
	"time"
)

// CancellationCutoff is the minimum lead time before start for a cancellation.
const CancellationCutoff = 2 * time.Hour

// LifecycleStore is the read-then-write surface the cancellation path needs.
type LifecycleStore interface {
	GetByID(ctx context.Context, id string) (*Booking, error)
	MarkCancelled(ctx context.Context, id string) error
}

// Lifecycle owns the CONFIRMED -> CANCELLED transition. The check-then-write
// is not serializable: a stale read only risks a double-cancel, which is
// idempotent.
type Lifecycle struct {
	store LifecycleStore
	now   func() time.Time
	log   *slog.Logger
}

func NewLifecycle(store LifecycleStore, log *slog.Logger) *Lifecycle {
	return &Lifecycle{store: store, now: time.Now, log: log}
}

// Cancel transitions a booking to CANCELLED. Cancelling an already cancelled
// booking succeeds without mutation. A cancellation at or inside the cutoff
// (start - now <= 2h) fails with CancellationWindowError.
func (l *Lifecycle) Cancel(ctx context.Context, id string) (*Booking, error) {
	b, err := l.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == StatusCancelled {
		return b, nil
	}
	if b.StartTime.Sub(l.now()) <= CancellationCutoff {
		return nil, &CancellationWindowError{StartTime: b.StartTime}
	}

	if err := l.store.MarkCancelled(ctx, b.ID); err != nil {
		return nil, err
	}
	b.Status = StatusCancelled
	l.log.Info("booking cancelled", "booking_id", b.ID, "room_id", b.RoomID)
	return b, nil
}

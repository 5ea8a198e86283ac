package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrSerialization marks a transient serializable-transaction conflict. The
// coordinator retries these within its attempt budget; everything else in this
// file is a terminal business outcome and is never retried.
var ErrSerialization = errors.New("serializable transaction conflict")

// ValidationError rejects malformed input before any transaction is opened.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return "invalid booking request: " + e.Msg }

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %s not found", e.Resource, e.ID) }

// ConflictError reports an overlapping CONFIRMED booking, carrying the
// conflicting interval so callers can pick a different time.
type ConflictError struct {
	ConflictingStart time.Time
	ConflictingEnd   time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("room already booked from %s to %s",
		e.ConflictingStart.Format(time.RFC3339), e.ConflictingEnd.Format(time.RFC3339))
}

// OverloadError reports retry-budget exhaustion on transient conflicts. Unlike
// ConflictError, retrying the same interval later may succeed.
type OverloadError struct {
	Attempts int
}

func (e *OverloadError) Error() string {
	return fmt.Sprintf("booking contention not resolved after %d attempts", e.Attempts)
}

type CancellationWindowError struct {
	StartTime time.Time
}

func (e *CancellationWindowError) Error() string {
	return fmt.Sprintf("booking starting at %s is within the %s cancellation cutoff",
		e.StartTime.Format(time.RFC3339), CancellationCutoff)
}

// Postgres SQLSTATEs that signal a transient conflict under serializable
// isolation: serialization_failure and deadlock_detected.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// classifyTxErr wraps transient serialization conflicts with ErrSerialization
// so the coordinator can tell them apart from hard failures.
func classifyTxErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) &&
		(pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected) {
		return fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	return err
}

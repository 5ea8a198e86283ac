package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the transactional query surface over persisted booking rows.
type Store struct{ DB *pgxpool.Pool }

// Reserve runs one serializable conflict-check-and-insert attempt.
//
// The overlap re-check and the insert execute inside a single transaction at
// serializable isolation; Postgres SSI detects commit-time write skew between
// concurrently committing attempts, which surfaces here as ErrSerialization.
// The deferred rollback is a no-op after commit, so the connection is released
// exactly once on every exit path.
func (s *Store) Reserve(ctx context.Context, b *Booking) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	conflict, err := findOverlap(ctx, tx, b.RoomID, b.StartTime, b.EndTime)
	if err != nil {
		return classifyTxErr(err)
	}
	if conflict != nil {
		return &ConflictError{ConflictingStart: conflict.Start, ConflictingEnd: conflict.End}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO bookings(id, room_id, user_name, start_time, end_time,
		                     duration_minutes, total_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID, b.RoomID, b.UserName, b.StartTime, b.EndTime,
		b.DurationMinutes, b.TotalCents, b.Status,
	)
	if err != nil {
		return classifyTxErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return classifyTxErr(err)
	}
	return nil
}

// findOverlap returns the earliest CONFIRMED booking overlapping [start,end),
// or nil. Touching endpoints are not a conflict (half-open comparison).
func findOverlap(ctx context.Context, tx pgx.Tx, roomID string, start, end time.Time) (*Interval, error) {
	row := tx.QueryRow(ctx, `
		SELECT start_time, end_time
		FROM bookings
		WHERE room_id = $1 AND status = 'CONFIRMED'
		  AND start_time < $3 AND end_time > $2
		ORDER BY start_time
		LIMIT 1`, roomID, start, end)

	var iv Interval
	if err := row.Scan(&iv.Start, &iv.End); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("overlap query: %w", err)
	}
	return &iv, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*Booking, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT id, room_id, user_name, start_time, end_time,
		       duration_minutes, total_cents, status, created_at, updated_at
		FROM bookings WHERE id = $1`, id)

	var b Booking
	err := row.Scan(&b.ID, &b.RoomID, &b.UserName, &b.StartTime, &b.EndTime,
		&b.DurationMinutes, &b.TotalCents, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Resource: "booking", ID: id}
		}
		return nil, err
	}
	return &b, nil
}

// List reads committed rows at the default isolation level; stale reads of
// historical data are acceptable here.
func (s *Store) List(ctx context.Context, f ListFilter) ([]Booking, error) {
	query := `
		SELECT id, room_id, user_name, start_time, end_time,
		       duration_minutes, total_cents, status, created_at, updated_at
		FROM bookings`
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.RoomID != "" {
		add("room_id = $%d", f.RoomID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if !f.From.IsZero() {
		add("end_time > $%d", f.From)
	}
	if !f.To.IsZero() {
		add("start_time < $%d", f.To)
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY start_time"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.RoomID, &b.UserName, &b.StartTime, &b.EndTime,
			&b.DurationMinutes, &b.TotalCents, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// MarkCancelled flips a CONFIRMED row to CANCELLED. The status guard in the
// WHERE clause makes a racing double-cancel a harmless no-op.
func (s *Store) MarkCancelled(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE bookings SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3`,
		id, StatusCancelled, StatusConfirmed)
	return err
}

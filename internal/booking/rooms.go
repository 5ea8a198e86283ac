package booking

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Rooms is the read-only room catalog collaborator. The core never writes
// rooms; catalog CRUD lives elsewhere.
type Rooms struct{ DB *pgxpool.Pool }

func (r *Rooms) RateCents(ctx context.Context, roomID string) (int64, error) {
	var rate int64
	err := r.DB.QueryRow(ctx,
		`SELECT hourly_rate_cents FROM rooms WHERE id = $1`, roomID).Scan(&rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, &NotFoundError{Resource: "room", ID: roomID}
		}
		return 0, err
	}
	return rate, nil
}

func (r *Rooms) List(ctx context.Context) ([]Room, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name, hourly_rate_cents, created_at FROM rooms ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Room
	for rows.Next() {
		var rm Room
		if err := rows.Scan(&rm.ID, &rm.Name, &rm.HourlyRateCents, &rm.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

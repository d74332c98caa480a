package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/collegeevents/internal/domain/event"
	"github.com/geocoder89/collegeevents/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `id, title, description, location, organizer, start_time, end_time, capacity, approved, approved_at, created_by, created_at, updated_at`

type EventsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewEventsRepo(pool *pgxpool.Pool, prom *observability.Prom) *EventsRepo {
	return &EventsRepo{
		pool: pool,
		prom: prom,
	}
}

func scanEvent(row scanner, e *event.Event) error {
	return row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.Location,
		&e.Organizer,
		&e.StartTime,
		&e.EndTime,
		&e.Capacity,
		&e.Approved,
		&e.ApprovedAt,
		&e.CreatedBy,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
}

func (r *EventsRepo) Create(ctx context.Context, e event.Event) error {
	return r.prom.ObserveDB("events.create", func() error {
		_, err := r.pool.Exec(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			e.ID, e.Title, e.Description, e.Location, e.Organizer, e.StartTime, e.EndTime,
			e.Capacity, e.Approved, e.ApprovedAt, e.CreatedBy, e.CreatedAt, e.UpdatedAt,
		)
		return err
	})
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (event.Event, error) {
	var e event.Event
	err := r.prom.ObserveDB("events.get_by_id", func() error {
		return scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id), &e)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, err
	}

	return e, nil
}

// List orders by the identity column, i.e. creation order.
func (r *EventsRepo) List(ctx context.Context, approvedOnly bool) ([]event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	if approvedOnly {
		query += ` WHERE approved`
	}
	query += ` ORDER BY seq ASC`

	var rows pgx.Rows
	err := r.prom.ObserveDB("events.list", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, query)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]event.Event, 0)
	for rows.Next() {
		var e event.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// Update runs fn against a row locked with FOR UPDATE so concurrent
// transitions on the same event serialize.
func (r *EventsRepo) Update(ctx context.Context, id string, fn func(*event.Event) error) (e event.Event, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = r.prom.ObserveDB("events.update.lock", func() error {
		return scanEvent(tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id), &e)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = event.ErrNotFound
		}
		return event.Event{}, err
	}

	if err = fn(&e); err != nil {
		return event.Event{}, err
	}

	err = r.prom.ObserveDB("events.update.write", func() error {
		_, werr := tx.Exec(ctx, `
		UPDATE events
		SET title = $2,
		    description = $3,
		    location = $4,
		    organizer = $5,
		    start_time = $6,
		    end_time = $7,
		    capacity = $8,
		    approved = $9,
		    approved_at = $10,
		    updated_at = $11
		WHERE id = $1`,
			e.ID, e.Title, e.Description, e.Location, e.Organizer, e.StartTime, e.EndTime,
			e.Capacity, e.Approved, e.ApprovedAt, e.UpdatedAt,
		)
		return werr
	})
	if err != nil {
		return event.Event{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return event.Event{}, err
	}

	return e, nil
}

// Delete relies on ON DELETE CASCADE for the event's registrations.
func (r *EventsRepo) Delete(ctx context.Context, id string) error {
	var tag pgconn.CommandTag
	err := r.prom.ObserveDB("events.delete", func() error {
		var derr error
		tag, derr = r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
		return derr
	})
	if err != nil {
		return err
	}

	// if no rows were deleted the event never existed
	if tag.RowsAffected() == 0 {
		return event.ErrNotFound
	}

	return nil
}

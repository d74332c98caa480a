package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/collegeevents/internal/domain/event"
	"github.com/geocoder89/collegeevents/internal/domain/registration"
	"github.com/geocoder89/collegeevents/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const registrationColumns = `id, event_id, student_id, registration_date, feedback, attended, certificate_issued, updated_at`

type RegistrationRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRegistrationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *RegistrationRepo {
	return &RegistrationRepo{
		pool: pool,
		prom: prom,
	}
}

func scanRegistration(row scanner, r *registration.Registration) error {
	return row.Scan(
		&r.ID,
		&r.EventID,
		&r.StudentID,
		&r.RegistrationDate,
		&r.Feedback,
		&r.Attended,
		&r.CertificateIssued,
		&r.UpdatedAt,
	)
}

// Create enforces existence, uniqueness and capacity in one transaction with
// the event row locked.
func (repo *RegistrationRepo) Create(ctx context.Context, reg registration.Registration) (err error) {
	tx, err := repo.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// 1) lock event row, then count under the lock
	var capacity, current int
	err = repo.prom.ObserveDB("registrations.create.capacity_lock", func() error {
		return tx.QueryRow(ctx, `SELECT capacity FROM events WHERE id = $1 FOR UPDATE`, reg.EventID).Scan(&capacity)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = event.ErrNotFound
		}
		return
	}

	err = repo.prom.ObserveDB("registrations.create.count", func() error {
		return tx.QueryRow(ctx, `SELECT COUNT(*) FROM registrations WHERE event_id = $1`, reg.EventID).Scan(&current)
	})
	if err != nil {
		return
	}

	// 2) duplicate check
	var exists bool
	err = repo.prom.ObserveDB("registrations.create.duplicate_check", func() error {
		return tx.QueryRow(ctx, `SELECT EXISTS(
			SELECT 1 FROM registrations
			WHERE event_id = $1 AND student_id = $2
		)`, reg.EventID, reg.StudentID).Scan(&exists)
	})
	if err != nil {
		return
	}

	if exists {
		return registration.ErrAlreadyRegistered
	}

	if !(event.Event{Capacity: capacity}).HasRoom(current) {
		return registration.ErrEventFull
	}

	// 3) insert
	err = repo.prom.ObserveDB("registrations.create.insert", func() error {
		_, e := tx.Exec(ctx, `
		INSERT INTO registrations (`+registrationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, reg.ID, reg.EventID, reg.StudentID, reg.RegistrationDate, reg.Feedback, reg.Attended, reg.CertificateIssued, reg.UpdatedAt)
		return e
	})
	if err != nil {
		if IsUniqueViolation(err) && isConstraint(err, constraintRegistrationsEventStudent) {
			return registration.ErrAlreadyRegistered
		}
		return
	}

	return tx.Commit(ctx)
}

func (repo *RegistrationRepo) GetByID(ctx context.Context, id string) (registration.Registration, error) {
	var r registration.Registration
	err := repo.prom.ObserveDB("registrations.get_by_id", func() error {
		return scanRegistration(repo.pool.QueryRow(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id), &r)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return registration.Registration{}, registration.ErrNotFound
		}
		return registration.Registration{}, err
	}
	return r, nil
}

func (repo *RegistrationRepo) GetByStudentAndEvent(ctx context.Context, studentID, eventID string) (registration.Registration, error) {
	var r registration.Registration
	err := repo.prom.ObserveDB("registrations.get_by_student_event", func() error {
		return scanRegistration(repo.pool.QueryRow(ctx, `
		SELECT `+registrationColumns+`
		FROM registrations
		WHERE student_id = $1 AND event_id = $2`, studentID, eventID), &r)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return registration.Registration{}, registration.ErrNotFound
		}
		return registration.Registration{}, err
	}
	return r, nil
}

func (repo *RegistrationRepo) Update(ctx context.Context, id string, fn func(*registration.Registration) error) (r registration.Registration, err error) {
	tx, err := repo.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = repo.prom.ObserveDB("registrations.update.lock", func() error {
		return scanRegistration(tx.QueryRow(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1 FOR UPDATE`, id), &r)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = registration.ErrNotFound
		}
		return registration.Registration{}, err
	}

	if err = fn(&r); err != nil {
		return registration.Registration{}, err
	}

	err = repo.prom.ObserveDB("registrations.update.write", func() error {
		_, werr := tx.Exec(ctx, `
		UPDATE registrations
		SET feedback = $2,
		    attended = $3,
		    certificate_issued = $4,
		    updated_at = $5
		WHERE id = $1`,
			r.ID, r.Feedback, r.Attended, r.CertificateIssued, r.UpdatedAt,
		)
		return werr
	})
	if err != nil {
		return registration.Registration{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return registration.Registration{}, err
	}

	return r, nil
}

func (repo *RegistrationRepo) ListByStudent(ctx context.Context, studentID string) (out []registration.WithEvent, err error) {
	var rows pgx.Rows

	err = repo.prom.ObserveDB("registrations.list_by_student", func() error {
		var qerr error
		rows, qerr = repo.pool.Query(ctx, `
		SELECT r.id, r.registration_date, r.feedback, r.attended, r.certificate_issued,
		       e.id, e.title, e.description, e.location, e.organizer, e.start_time, e.end_time,
		       e.capacity, e.approved, e.approved_at, e.created_by, e.created_at, e.updated_at
		FROM registrations r
		JOIN events e ON e.id = r.event_id
		WHERE r.student_id = $1
		ORDER BY r.seq ASC`, studentID)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out = make([]registration.WithEvent, 0)
	for rows.Next() {
		var v registration.WithEvent
		e := &v.Event
		if err = rows.Scan(
			&v.ID, &v.RegistrationDate, &v.Feedback, &v.Attended, &v.CertificateIssued,
			&e.ID, &e.Title, &e.Description, &e.Location, &e.Organizer, &e.StartTime, &e.EndTime,
			&e.Capacity, &e.Approved, &e.ApprovedAt, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, v)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// ListParticipants returns event.ErrNotFound for unknown events, so an empty
// list always means "no registrations yet".
func (repo *RegistrationRepo) ListParticipants(ctx context.Context, eventID string) (out []registration.Participant, err error) {
	var exists bool
	err = repo.prom.ObserveDB("registrations.list_participants.check_event", func() error {
		return repo.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)`, eventID).Scan(&exists)
	})
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, event.ErrNotFound
	}

	var rows pgx.Rows
	err = repo.prom.ObserveDB("registrations.list_participants", func() error {
		var qerr error
		rows, qerr = repo.pool.Query(ctx, `
		SELECT r.id, r.event_id, r.student_id, r.registration_date, r.feedback, r.attended,
		       r.certificate_issued, r.updated_at,
		       COALESCE(u.name, ''), COALESCE(u.email, '')
		FROM registrations r
		LEFT JOIN users u ON u.id = r.student_id
		WHERE r.event_id = $1
		ORDER BY r.seq ASC`, eventID)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out = make([]registration.Participant, 0)
	for rows.Next() {
		var p registration.Participant
		if err = rows.Scan(
			&p.ID, &p.EventID, &p.StudentID, &p.RegistrationDate, &p.Feedback, &p.Attended,
			&p.CertificateIssued, &p.UpdatedAt, &p.StudentName, &p.StudentEmail,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

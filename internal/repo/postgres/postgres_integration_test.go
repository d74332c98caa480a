package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/collegeevents/internal/db"
	"github.com/geocoder89/collegeevents/internal/domain/event"
	"github.com/geocoder89/collegeevents/internal/domain/registration"
	"github.com/geocoder89/collegeevents/internal/domain/user"
	"github.com/geocoder89/collegeevents/internal/observability"
	"github.com/geocoder89/collegeevents/internal/repo/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// setupPool connects to TEST_DB_DSN, applies the schema and truncates the
// tables. Tests are skipped when no database is configured.
func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	// registrations depend on events
	if _, err := pool.Exec(ctx, `TRUNCATE registrations, events, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}

	return pool
}

type repos struct {
	events *postgres.EventsRepo
	regs   *postgres.RegistrationRepo
	users  *postgres.UsersRepo
}

func newRepos(pool *pgxpool.Pool) repos {
	prom := observability.NewProm(prometheus.NewRegistry())
	return repos{
		events: postgres.NewEventsRepo(pool, prom),
		regs:   postgres.NewRegistrationsRepo(pool, prom),
		users:  postgres.NewUsersRepo(pool, prom),
	}
}

func seedEvent(t *testing.T, r repos, title string, capacity int) event.Event {
	t.Helper()
	e := event.NewFromCreateRequest(event.CreateEventRequest{
		Title:     title,
		StartTime: time.Now().UTC().Add(24 * time.Hour).Truncate(time.Microsecond),
		Capacity:  capacity,
	}, time.Now().UTC().Truncate(time.Microsecond))

	if err := r.events.Create(context.Background(), e); err != nil {
		t.Fatalf("failed to insert seed event: %v", err)
	}
	return e
}

func TestEventsRepo_Integration(t *testing.T) {
	r := newRepos(setupPool(t))
	ctx := context.Background()

	a := seedEvent(t, r, "Alpha", 0)
	b := seedEvent(t, r, "Bravo", 0)

	approved, err := r.events.Update(ctx, b.ID, func(e *event.Event) error {
		e.Approve(time.Now().UTC())
		return nil
	})
	if err != nil || !approved.Approved || approved.ApprovedAt == nil {
		t.Fatalf("approve: %+v %v", approved, err)
	}

	all, err := r.events.List(ctx, false)
	if err != nil || len(all) != 2 || all[0].ID != a.ID || all[1].ID != b.ID {
		t.Fatalf("list all: %+v %v", all, err)
	}

	only, err := r.events.List(ctx, true)
	if err != nil || len(only) != 1 || only[0].ID != b.ID {
		t.Fatalf("list approved: %+v %v", only, err)
	}

	if _, err := r.events.GetByID(ctx, "missing"); !errors.Is(err, event.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := r.events.Delete(ctx, "missing"); !errors.Is(err, event.ErrNotFound) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
}

func TestRegistrationsRepo_Integration(t *testing.T) {
	r := newRepos(setupPool(t))
	ctx := context.Background()

	u, err := r.users.Create(ctx, "ada@college.test", "hash", "Ada", user.RoleStudent)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := r.users.Create(ctx, "ADA@college.test", "hash", "Ada", user.RoleStudent); !errors.Is(err, user.ErrEmailAlreadyUsed) {
		t.Fatalf("expected duplicate email, got %v", err)
	}

	e := seedEvent(t, r, "Alpha", 0)
	reg := registration.New(u.ID, e.ID, time.Now().UTC())

	if err := r.regs.Create(ctx, reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.regs.Create(ctx, registration.New(u.ID, e.ID, time.Now().UTC())); !errors.Is(err, registration.ErrAlreadyRegistered) {
		t.Fatalf("expected already registered, got %v", err)
	}
	if err := r.regs.Create(ctx, registration.New(u.ID, "missing", time.Now().UTC())); !errors.Is(err, event.ErrNotFound) {
		t.Fatalf("expected event not found, got %v", err)
	}

	if _, err := r.regs.Update(ctx, reg.ID, func(cur *registration.Registration) error {
		_, ierr := cur.IssueCertificate(time.Now().UTC())
		return ierr
	}); !errors.Is(err, registration.ErrNotAttended) {
		t.Fatalf("expected not attended, got %v", err)
	}

	updated, err := r.regs.Update(ctx, reg.ID, func(cur *registration.Registration) error {
		cur.MarkAttended(time.Now().UTC())
		cur.SetFeedback("nice", time.Now().UTC())
		return nil
	})
	if err != nil || !updated.Attended || updated.Feedback == nil {
		t.Fatalf("update: %+v %v", updated, err)
	}

	ps, err := r.regs.ListParticipants(ctx, e.ID)
	if err != nil || len(ps) != 1 || ps[0].StudentEmail != "ada@college.test" {
		t.Fatalf("participants: %+v %v", ps, err)
	}

	mine, err := r.regs.ListByStudent(ctx, u.ID)
	if err != nil || len(mine) != 1 || mine[0].Event.Title != "Alpha" {
		t.Fatalf("list by student: %+v %v", mine, err)
	}

	if err := r.events.Delete(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := r.regs.GetByID(ctx, reg.ID); !errors.Is(err, registration.ErrNotFound) {
		t.Fatalf("expected cascade delete, got %v", err)
	}
}

func TestRegistrationsRepo_CapacityUnderConcurrency(t *testing.T) {
	r := newRepos(setupPool(t))
	ctx := context.Background()
	e := seedEvent(t, r, "Seminar", 3)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, full := 0, 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := r.regs.Create(ctx, registration.New(fmt.Sprintf("student-%d", i), e.ID, time.Now().UTC()))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, registration.ErrEventFull):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if ok != 3 || full != 17 {
		t.Fatalf("got %d ok / %d full, want 3/17", ok, full)
	}
}

func TestUsersRepo_UpdateAndDelete_Integration(t *testing.T) {
	r := newRepos(setupPool(t))
	ctx := context.Background()

	ada, err := r.users.Create(ctx, "ada@college.test", "hash", "Ada", user.RoleStudent)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := r.users.Create(ctx, "bob@college.test", "hash", "Bob", user.RoleStudent); err != nil {
		t.Fatalf("create user: %v", err)
	}

	_, err = r.users.Update(ctx, ada.ID, func(u *user.User) error {
		u.Email = "Bob@college.test"
		return nil
	})
	if !errors.Is(err, user.ErrEmailAlreadyUsed) {
		t.Fatalf("expected duplicate email, got %v", err)
	}

	updated, err := r.users.Update(ctx, ada.ID, func(u *user.User) error {
		u.Name = "Ada L."
		u.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil || updated.Name != "Ada L." || updated.Email != "ada@college.test" {
		t.Fatalf("update: %+v %v", updated, err)
	}

	e := seedEvent(t, r, "Alpha", 0)
	reg := registration.New(ada.ID, e.ID, time.Now().UTC())
	if err := r.regs.Create(ctx, reg); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := r.users.Delete(ctx, ada.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := r.regs.GetByID(ctx, reg.ID); !errors.Is(err, registration.ErrNotFound) {
		t.Fatalf("registrations of a deleted user should be gone, got %v", err)
	}
	if err := r.users.Delete(ctx, ada.ID); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

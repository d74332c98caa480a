package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/geocoder89/collegeevents/internal/domain/event"
	"github.com/geocoder89/collegeevents/internal/domain/registration"
	"github.com/geocoder89/collegeevents/internal/domain/user"
)

func seedEvent(t *testing.T, repo *EventsRepo, title string, capacity int) event.Event {
	t.Helper()
	e := event.NewFromCreateRequest(event.CreateEventRequest{
		Title:     title,
		StartTime: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
		Capacity:  capacity,
	}, time.Now().UTC())

	if err := repo.Create(context.Background(), e); err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return e
}

func TestEventsRepo_ListKeepsInsertionOrder(t *testing.T) {
	db := NewDB()
	repo := NewEventsRepo(db)
	ctx := context.Background()

	a := seedEvent(t, repo, "Alpha", 0)
	b := seedEvent(t, repo, "Bravo", 0)
	c := seedEvent(t, repo, "Charlie", 0)

	if _, err := repo.Update(ctx, b.ID, func(e *event.Event) error {
		e.Approve(time.Now())
		return nil
	}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	all, _ := repo.List(ctx, false)
	if len(all) != 3 || all[0].ID != a.ID || all[1].ID != b.ID || all[2].ID != c.ID {
		t.Fatalf("unexpected order: %+v", all)
	}

	approved, _ := repo.List(ctx, true)
	if len(approved) != 1 || approved[0].ID != b.ID {
		t.Fatalf("approved filter broken: %+v", approved)
	}
}

func TestEventsRepo_UpdateErrorLeavesEventUntouched(t *testing.T) {
	db := NewDB()
	repo := NewEventsRepo(db)
	ctx := context.Background()
	e := seedEvent(t, repo, "Alpha", 0)

	boom := errors.New("boom")
	_, err := repo.Update(ctx, e.ID, func(cur *event.Event) error {
		cur.Title = "changed"
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}

	got, _ := repo.GetByID(ctx, e.ID)
	if got.Title != "Alpha" {
		t.Fatalf("failed update must not persist, title=%q", got.Title)
	}
}

func TestEventsRepo_DeleteCascades(t *testing.T) {
	db := NewDB()
	events := NewEventsRepo(db)
	regs := NewRegistrationsRepo(db)
	ctx := context.Background()

	e := seedEvent(t, events, "Alpha", 0)
	other := seedEvent(t, events, "Bravo", 0)

	r1 := registration.New("s1", e.ID, time.Now())
	r2 := registration.New("s1", other.ID, time.Now())
	_ = regs.Create(ctx, r1)
	_ = regs.Create(ctx, r2)

	if err := events.Delete(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := regs.GetByID(ctx, r1.ID); !errors.Is(err, registration.ErrNotFound) {
		t.Fatalf("registration of deleted event should be gone, got %v", err)
	}
	if _, err := regs.GetByID(ctx, r2.ID); err != nil {
		t.Fatalf("unrelated registration should survive: %v", err)
	}
	if err := events.Delete(ctx, e.ID); !errors.Is(err, event.ErrNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}

func TestRegistrationsRepo_CapacityUnderConcurrency(t *testing.T) {
	db := NewDB()
	events := NewEventsRepo(db)
	regs := NewRegistrationsRepo(db)
	ctx := context.Background()

	e := seedEvent(t, events, "GopherCon campus edition", 5)

	var ok, full atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := regs.Create(ctx, registration.New(fmt.Sprintf("student-%d", i), e.ID, time.Now()))
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, registration.ErrEventFull):
				full.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if ok.Load() != 5 || full.Load() != 95 {
		t.Fatalf("got %d successes and %d full, want 5/95", ok.Load(), full.Load())
	}
}

func TestRegistrationsRepo_ParticipantsJoinUsers(t *testing.T) {
	db := NewDB()
	events := NewEventsRepo(db)
	regs := NewRegistrationsRepo(db)
	users := NewUsersRepo(db)
	ctx := context.Background()

	u, _ := users.Create(ctx, "ada@college.test", "hash", "Ada", "student")
	e := seedEvent(t, events, "Alpha", 0)
	_ = regs.Create(ctx, registration.New(u.ID, e.ID, time.Now()))

	ps, err := regs.ListParticipants(ctx, e.ID)
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	if len(ps) != 1 || ps[0].StudentEmail != "ada@college.test" || ps[0].StudentName != "Ada" {
		t.Fatalf("unexpected participants: %+v", ps)
	}

	if _, err := regs.ListParticipants(ctx, "missing"); !errors.Is(err, event.ErrNotFound) {
		t.Fatalf("expected event not found, got %v", err)
	}
}

func TestUsersRepo_EmailIsUniqueCaseInsensitive(t *testing.T) {
	users := NewUsersRepo(NewDB())
	ctx := context.Background()

	if _, err := users.Create(ctx, "ada@college.test", "h", "Ada", "student"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := users.Create(ctx, "ADA@college.test", "h", "Ada", "student"); err == nil {
		t.Fatalf("expected duplicate email error")
	}
}

func TestUsersRepo_UpdateRejectsTakenEmail(t *testing.T) {
	users := NewUsersRepo(NewDB())
	ctx := context.Background()

	ada, _ := users.Create(ctx, "ada@college.test", "h", "Ada", "student")
	_, _ = users.Create(ctx, "bob@college.test", "h", "Bob", "student")

	_, err := users.Update(ctx, ada.ID, func(u *user.User) error {
		u.Email = "BOB@college.test"
		return nil
	})
	if !errors.Is(err, user.ErrEmailAlreadyUsed) {
		t.Fatalf("expected duplicate email, got %v", err)
	}

	got, _ := users.GetByID(ctx, ada.ID)
	if got.Email != "ada@college.test" {
		t.Fatalf("rejected update must not persist, email=%q", got.Email)
	}

	updated, err := users.Update(ctx, ada.ID, func(u *user.User) error {
		u.Email = "ADA@college.test"
		u.Name = "Ada L."
		return nil
	})
	if err != nil {
		t.Fatalf("changing case of own email should be fine: %v", err)
	}
	if updated.Name != "Ada L." {
		t.Fatalf("unexpected user %+v", updated)
	}

	if _, err := users.Update(ctx, "missing", func(*user.User) error { return nil }); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUsersRepo_DeleteRemovesRegistrations(t *testing.T) {
	db := NewDB()
	users := NewUsersRepo(db)
	events := NewEventsRepo(db)
	regs := NewRegistrationsRepo(db)
	ctx := context.Background()

	ada, _ := users.Create(ctx, "ada@college.test", "h", "Ada", "student")
	bob, _ := users.Create(ctx, "bob@college.test", "h", "Bob", "student")
	e := seedEvent(t, events, "Alpha", 0)

	adaReg := registration.New(ada.ID, e.ID, time.Now())
	bobReg := registration.New(bob.ID, e.ID, time.Now())
	_ = regs.Create(ctx, adaReg)
	_ = regs.Create(ctx, bobReg)

	if err := users.Delete(ctx, ada.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := users.GetByID(ctx, ada.ID); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("user should be gone, got %v", err)
	}
	if _, err := regs.GetByID(ctx, adaReg.ID); !errors.Is(err, registration.ErrNotFound) {
		t.Fatalf("registration of deleted user should be gone, got %v", err)
	}
	if _, err := regs.GetByID(ctx, bobReg.ID); err != nil {
		t.Fatalf("other registrations must survive: %v", err)
	}

	all, _ := users.List(ctx)
	if len(all) != 1 || all[0].ID != bob.ID {
		t.Fatalf("unexpected users %+v", all)
	}

	if err := users.Delete(ctx, ada.ID); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}

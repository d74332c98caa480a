package memory

import (
	"context"

	"github.com/geocoder89/collegeevents/internal/domain/event"
)

type EventsRepo struct {
	db *DB
}

func NewEventsRepo(db *DB) *EventsRepo {
	return &EventsRepo{db: db}
}

func (r *EventsRepo) Create(_ context.Context, e event.Event) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.events[e.ID] = e
	r.db.eventOrder = append(r.db.eventOrder, e.ID)
	return nil
}

func (r *EventsRepo) GetByID(_ context.Context, id string) (event.Event, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	e, ok := r.db.events[id]
	if !ok {
		return event.Event{}, event.ErrNotFound
	}
	return e, nil
}

func (r *EventsRepo) List(_ context.Context, approvedOnly bool) ([]event.Event, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]event.Event, 0, len(r.db.eventOrder))
	for _, id := range r.db.eventOrder {
		e := r.db.events[id]
		if approvedOnly && !e.Approved {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *EventsRepo) Update(_ context.Context, id string, fn func(*event.Event) error) (event.Event, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	e, ok := r.db.events[id]
	if !ok {
		return event.Event{}, event.ErrNotFound
	}

	if err := fn(&e); err != nil {
		return event.Event{}, err
	}

	r.db.events[id] = e
	return e, nil
}

func (r *EventsRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.events[id]; !ok {
		return event.ErrNotFound
	}

	delete(r.db.events, id)
	r.db.eventOrder = removeID(r.db.eventOrder, id)

	kept := r.db.regOrder[:0]
	for _, regID := range r.db.regOrder {
		if r.db.regs[regID].EventID == id {
			delete(r.db.regs, regID)
			continue
		}
		kept = append(kept, regID)
	}
	r.db.regOrder = kept

	return nil
}

package memory

import (
	"context"

	"github.com/geocoder89/collegeevents/internal/domain/event"
	"github.com/geocoder89/collegeevents/internal/domain/registration"
)

type RegistrationsRepo struct {
	db *DB
}

func NewRegistrationsRepo(db *DB) *RegistrationsRepo {
	return &RegistrationsRepo{db: db}
}

func (r *RegistrationsRepo) Create(_ context.Context, reg registration.Registration) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	e, ok := r.db.events[reg.EventID]
	if !ok {
		return event.ErrNotFound
	}

	current := 0
	for _, existing := range r.db.regs {
		if existing.EventID != reg.EventID {
			continue
		}
		if existing.StudentID == reg.StudentID {
			return registration.ErrAlreadyRegistered
		}
		current++
	}

	if !e.HasRoom(current) {
		return registration.ErrEventFull
	}

	r.db.regs[reg.ID] = reg
	r.db.regOrder = append(r.db.regOrder, reg.ID)
	return nil
}

func (r *RegistrationsRepo) GetByID(_ context.Context, id string) (registration.Registration, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	reg, ok := r.db.regs[id]
	if !ok {
		return registration.Registration{}, registration.ErrNotFound
	}
	return reg, nil
}

func (r *RegistrationsRepo) GetByStudentAndEvent(_ context.Context, studentID, eventID string) (registration.Registration, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, reg := range r.db.regs {
		if reg.StudentID == studentID && reg.EventID == eventID {
			return reg, nil
		}
	}
	return registration.Registration{}, registration.ErrNotFound
}

func (r *RegistrationsRepo) Update(_ context.Context, id string, fn func(*registration.Registration) error) (registration.Registration, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	reg, ok := r.db.regs[id]
	if !ok {
		return registration.Registration{}, registration.ErrNotFound
	}

	if err := fn(&reg); err != nil {
		return registration.Registration{}, err
	}

	r.db.regs[id] = reg
	return reg, nil
}

func (r *RegistrationsRepo) ListByStudent(_ context.Context, studentID string) ([]registration.WithEvent, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]registration.WithEvent, 0)
	for _, id := range r.db.regOrder {
		reg := r.db.regs[id]
		if reg.StudentID != studentID {
			continue
		}
		out = append(out, reg.WithEvent(r.db.events[reg.EventID]))
	}
	return out, nil
}

func (r *RegistrationsRepo) ListParticipants(_ context.Context, eventID string) ([]registration.Participant, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if _, ok := r.db.events[eventID]; !ok {
		return nil, event.ErrNotFound
	}

	out := make([]registration.Participant, 0)
	for _, id := range r.db.regOrder {
		reg := r.db.regs[id]
		if reg.EventID != eventID {
			continue
		}
		u := r.db.users[reg.StudentID]
		out = append(out, registration.Participant{
			Registration: reg,
			StudentName:  u.Name,
			StudentEmail: u.Email,
		})
	}
	return out, nil
}

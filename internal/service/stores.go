// Package service holds the event approval workflow and registration
// bookkeeping. Stores provide per-operation atomicity; the services own the
// rules.
package service

import (
	"context"

	"github.com/geocoder89/collegeevents/internal/domain/event"
	"github.com/geocoder89/collegeevents/internal/domain/registration"
	"github.com/geocoder89/collegeevents/internal/domain/user"
)

// EventStore persists events. List returns insertion order.
type EventStore interface {
	Create(ctx context.Context, e event.Event) error
	GetByID(ctx context.Context, id string) (event.Event, error)
	List(ctx context.Context, approvedOnly bool) ([]event.Event, error)
	// Update loads the event, applies fn and saves the result atomically.
	// If fn returns an error nothing is written.
	Update(ctx context.Context, id string, fn func(*event.Event) error) (event.Event, error)
	// Delete removes the event together with its registrations.
	Delete(ctx context.Context, id string) error
}

type RegistrationStore interface {
	// Create inserts r if the event exists, the (student, event) pair is free
	// and the event has room.
	Create(ctx context.Context, r registration.Registration) error
	GetByID(ctx context.Context, id string) (registration.Registration, error)
	GetByStudentAndEvent(ctx context.Context, studentID, eventID string) (registration.Registration, error)
	Update(ctx context.Context, id string, fn func(*registration.Registration) error) (registration.Registration, error)
	ListByStudent(ctx context.Context, studentID string) ([]registration.WithEvent, error)
	ListParticipants(ctx context.Context, eventID string) ([]registration.Participant, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

package memory

import (
	"sync"

	"github.com/geocoder89/collegeevents/internal/domain/event"
	"github.com/geocoder89/collegeevents/internal/domain/registration"
	"github.com/geocoder89/collegeevents/internal/domain/user"
)

// DB is the shared in-process state behind the memory repos. One lock
// guards all tables so cross-table checks (capacity, cascade delete) are
// atomic.
type DB struct {
	mu sync.RWMutex

	events     map[string]event.Event
	eventOrder []string

	regs     map[string]registration.Registration
	regOrder []string

	users     map[string]user.User
	userOrder []string
}

func NewDB() *DB {
	return &DB{
		events: make(map[string]event.Event),
		regs:   make(map[string]registration.Registration),
		users:  make(map[string]user.User),
	}
}

func removeID(order []string, id string) []string {
	for i, v := range order {
		if v == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

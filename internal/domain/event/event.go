package event

import (
	"time"

	"github.com/geocoder89/collegeevents/internal/apperr"
)

type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Organizer   string     `json:"organizer,omitempty"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	Capacity    int        `json:"capacity"`
	Approved    bool       `json:"approved"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

var (
	ErrNotFound       = apperr.NotFound("event not found")
	ErrInvalidEndTime = apperr.Validation("endTime must not be before startTime")
)

// CreateEventRequest is the faculty/admin submission payload. There is no
// approved field: new events always start unapproved.
type CreateEventRequest struct {
	Title       string     `json:"title" binding:"required,max=120"`
	Description string     `json:"description" binding:"omitempty,max=2000"`
	Location    string     `json:"location" binding:"omitempty,max=200"`
	Organizer   string     `json:"organizer" binding:"omitempty,max=120"`
	StartTime   time.Time  `json:"startTime" binding:"required"`
	EndTime     *time.Time `json:"endTime"`
	Capacity    int        `json:"capacity" binding:"omitempty,min=0,max=50000"`
	CreatedBy   string     `json:"-"`
}

// a full update payload; approval state is not editable here.
type UpdateEventRequest struct {
	Title       string     `json:"title" binding:"required,max=120"`
	Description string     `json:"description" binding:"omitempty,max=2000"`
	Location    string     `json:"location" binding:"omitempty,max=200"`
	Organizer   string     `json:"organizer" binding:"omitempty,max=120"`
	StartTime   time.Time  `json:"startTime" binding:"required"`
	EndTime     *time.Time `json:"endTime"`
	Capacity    int        `json:"capacity" binding:"omitempty,min=0,max=50000"`
}

// Approve moves the event into its terminal Approved state. Approving an
// already approved event keeps the original approval time.
func (e *Event) Approve(now time.Time) {
	if e.Approved {
		return
	}
	e.Approved = true
	e.ApprovedAt = &now
	e.UpdatedAt = now
}

func (e *Event) Apply(req UpdateEventRequest, now time.Time) {
	e.Title = req.Title
	e.Description = req.Description
	e.Location = req.Location
	e.Organizer = req.Organizer
	e.StartTime = req.StartTime
	e.EndTime = req.EndTime
	e.Capacity = req.Capacity
	e.UpdatedAt = now
}

// HasRoom reports whether one more registration fits. Zero capacity is unlimited.
func (e Event) HasRoom(current int) bool {
	return e.Capacity <= 0 || current < e.Capacity
}

func CheckTimes(start time.Time, end *time.Time) error {
	if end != nil && end.Before(start) {
		return ErrInvalidEndTime
	}
	return nil
}

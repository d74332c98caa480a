package registration

import (
	"time"

	"github.com/geocoder89/collegeevents/internal/apperr"
	"github.com/geocoder89/collegeevents/internal/domain/event"
	"github.com/google/uuid"
)

type Registration struct {
	ID                string    `json:"id"`
	EventID           string    `json:"eventId"`
	StudentID         string    `json:"studentId"`
	RegistrationDate  time.Time `json:"registrationDate"`
	Feedback          *string   `json:"feedback"`
	Attended          bool      `json:"attended"`
	CertificateIssued bool      `json:"certificateIssued"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// WithEvent is the registration view handed to students: the registration
// plus full event details.
type WithEvent struct {
	ID                string      `json:"id"`
	Event             event.Event `json:"event"`
	RegistrationDate  time.Time   `json:"registrationDate"`
	Feedback          *string     `json:"feedback"`
	Attended          bool        `json:"attended"`
	CertificateIssued bool        `json:"certificateIssued"`
}

// Participant is a registration joined with the student's identity, used by
// staff-facing listings and the CSV export.
type Participant struct {
	Registration
	StudentName  string `json:"studentName"`
	StudentEmail string `json:"studentEmail"`
}

var (
	ErrNotFound          = apperr.NotFound("registration not found")
	ErrAlreadyRegistered = apperr.Duplicate("student is already registered for this event")
	ErrNotAttended       = apperr.Precondition("certificate requires recorded attendance")
	ErrEventFull         = apperr.Precondition("event is already at full capacity")
	ErrNotOwner          = apperr.Forbidden("registration belongs to another student")
)

type FeedbackRequest struct {
	Feedback string `json:"feedback" binding:"max=2000"`
}

func New(studentID, eventID string, now time.Time) Registration {
	return Registration{
		ID:               uuid.NewString(),
		EventID:          eventID,
		StudentID:        studentID,
		RegistrationDate: now,
		UpdatedAt:        now,
	}
}

// MarkAttended reports whether the state changed.
func (r *Registration) MarkAttended(now time.Time) bool {
	if r.Attended {
		return false
	}
	r.Attended = true
	r.UpdatedAt = now
	return true
}

// IssueCertificate reports whether the state changed. Attendance is a
// precondition.
func (r *Registration) IssueCertificate(now time.Time) (bool, error) {
	if !r.Attended {
		return false, ErrNotAttended
	}
	if r.CertificateIssued {
		return false, nil
	}
	r.CertificateIssued = true
	r.UpdatedAt = now
	return true, nil
}

func (r *Registration) SetFeedback(text string, now time.Time) {
	r.Feedback = &text
	r.UpdatedAt = now
}

func (r Registration) WithEvent(e event.Event) WithEvent {
	return WithEvent{
		ID:                r.ID,
		Event:             e,
		RegistrationDate:  r.RegistrationDate,
		Feedback:          r.Feedback,
		Attended:          r.Attended,
		CertificateIssued: r.CertificateIssued,
	}
}

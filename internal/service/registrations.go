package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/geocoder89/collegeevents/internal/domain/registration"
	"github.com/geocoder89/collegeevents/internal/notifications"
	"github.com/geocoder89/collegeevents/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

type RegistrationService struct {
	regs     RegistrationStore
	events   EventStore
	users    UserLookup
	notifier notifications.Notifier
	log      *slog.Logger
	prom     *observability.Prom
	now      func() time.Time
}

type RegistrationDeps struct {
	Registrations RegistrationStore
	Events        EventStore
	Users         UserLookup
	Notifier      notifications.Notifier // optional
	Log           *slog.Logger           // optional
	Prom          *observability.Prom    // optional
}

func NewRegistrationService(d RegistrationDeps) *RegistrationService {
	log := d.Log
	if log == nil {
		log = observability.DiscardLogger()
	}
	return &RegistrationService{
		regs:     d.Registrations,
		events:   d.Events,
		users:    d.Users,
		notifier: d.Notifier,
		log:      log,
		prom:     d.Prom,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register enrolls a student. Approval of the event is not required.
func (s *RegistrationService) Register(ctx context.Context, studentID, eventID string) (r registration.Registration, err error) {
	ctx, span := startSpan(ctx, "registrations.register",
		attribute.String("event.id", eventID),
		attribute.String("student.id", studentID),
	)
	defer func() { endSpan(span, err) }()

	r = registration.New(studentID, eventID, s.now())

	if err = s.regs.Create(ctx, r); err != nil {
		return registration.Registration{}, err
	}

	s.prom.Transition("registration_created")
	s.log.InfoContext(ctx, "registration created", "registration_id", r.ID, "event_id", eventID, "student_id", studentID)

	s.notifyRegistered(ctx, r)

	return r, nil
}

func (s *RegistrationService) GetRegistration(ctx context.Context, id string) (registration.Registration, error) {
	return s.regs.GetByID(ctx, id)
}

// RecordAttendance is idempotent.
func (s *RegistrationService) RecordAttendance(ctx context.Context, registrationID string) (r registration.Registration, err error) {
	ctx, span := startSpan(ctx, "registrations.record_attendance", attribute.String("registration.id", registrationID))
	defer func() { endSpan(span, err) }()

	changed := false
	r, err = s.regs.Update(ctx, registrationID, func(cur *registration.Registration) error {
		changed = cur.MarkAttended(s.now())
		return nil
	})
	if err != nil {
		return registration.Registration{}, err
	}

	if changed {
		s.prom.Transition("attendance_recorded")
	}
	return r, nil
}

// IssueCertificate requires recorded attendance and is idempotent once issued.
func (s *RegistrationService) IssueCertificate(ctx context.Context, registrationID string) (r registration.Registration, err error) {
	ctx, span := startSpan(ctx, "registrations.issue_certificate", attribute.String("registration.id", registrationID))
	defer func() { endSpan(span, err) }()

	changed := false
	r, err = s.regs.Update(ctx, registrationID, func(cur *registration.Registration) error {
		var ierr error
		changed, ierr = cur.IssueCertificate(s.now())
		return ierr
	})
	if err != nil {
		return registration.Registration{}, err
	}

	if changed {
		s.prom.Transition("certificate_issued")
		s.log.InfoContext(ctx, "certificate issued", "registration_id", r.ID, "event_id", r.EventID)
		s.notifyCertificate(ctx, r)
	}
	return r, nil
}

// SubmitFeedback overwrites the feedback text. Allowed at any time.
func (s *RegistrationService) SubmitFeedback(ctx context.Context, registrationID, text string) (registration.Registration, error) {
	return s.submitFeedback(ctx, registrationID, "", text)
}

// SubmitOwnFeedback is SubmitFeedback restricted to the registration's student.
func (s *RegistrationService) SubmitOwnFeedback(ctx context.Context, studentID, registrationID, text string) (registration.Registration, error) {
	return s.submitFeedback(ctx, registrationID, studentID, text)
}

// SubmitFeedbackForEvent resolves the student's registration for eventID.
func (s *RegistrationService) SubmitFeedbackForEvent(ctx context.Context, studentID, eventID, text string) (registration.Registration, error) {
	r, err := s.regs.GetByStudentAndEvent(ctx, studentID, eventID)
	if err != nil {
		return registration.Registration{}, err
	}
	return s.submitFeedback(ctx, r.ID, studentID, text)
}

func (s *RegistrationService) submitFeedback(ctx context.Context, registrationID, ownerID, text string) (r registration.Registration, err error) {
	ctx, span := startSpan(ctx, "registrations.submit_feedback", attribute.String("registration.id", registrationID))
	defer func() { endSpan(span, err) }()

	if err = validateStruct("invalid feedback", registration.FeedbackRequest{Feedback: text}); err != nil {
		return registration.Registration{}, err
	}

	return s.regs.Update(ctx, registrationID, func(cur *registration.Registration) error {
		if ownerID != "" && cur.StudentID != ownerID {
			return registration.ErrNotOwner
		}
		cur.SetFeedback(text, s.now())
		return nil
	})
}

func (s *RegistrationService) ListForStudent(ctx context.Context, studentID string) (out []registration.WithEvent, err error) {
	ctx, span := startSpan(ctx, "registrations.list_for_student", attribute.String("student.id", studentID))
	defer func() { endSpan(span, err) }()

	return s.regs.ListByStudent(ctx, studentID)
}

func (s *RegistrationService) ListForEvent(ctx context.Context, eventID string) (out []registration.Participant, err error) {
	ctx, span := startSpan(ctx, "registrations.list_for_event", attribute.String("event.id", eventID))
	defer func() { endSpan(span, err) }()

	return s.regs.ListParticipants(ctx, eventID)
}

var participantsCSVHeader = []string{
	"registration_id",
	"student_id",
	"student_name",
	"student_email",
	"registration_date",
	"attended",
	"certificate_issued",
	"feedback",
}

// ExportParticipantsCSV writes one row per registration of eventID.
func (s *RegistrationService) ExportParticipantsCSV(ctx context.Context, eventID string, w io.Writer) error {
	participants, err := s.ListForEvent(ctx, eventID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(participantsCSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, p := range participants {
		feedback := ""
		if p.Feedback != nil {
			feedback = *p.Feedback
		}
		row := []string{
			p.ID,
			p.StudentID,
			csvCell(p.StudentName),
			csvCell(p.StudentEmail),
			p.RegistrationDate.UTC().Format(time.RFC3339),
			strconv.FormatBool(p.Attended),
			strconv.FormatBool(p.CertificateIssued),
			csvCell(feedback),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// csvCell neutralises user text that spreadsheets would evaluate as a formula.
func csvCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

// Notifications are best effort: failures are logged and counted, never
// returned to the caller.

func (s *RegistrationService) notifyRegistered(ctx context.Context, r registration.Registration) {
	if s.notifier == nil {
		return
	}
	in := notifications.RegistrationConfirmation{EventID: r.EventID, RegistrationID: r.ID}
	s.fillRecipient(ctx, r, &in.Email, &in.Name, &in.EventTitle)

	err := s.notifier.SendRegistrationConfirmation(ctx, in)
	s.prom.NotifyResult("registration_confirmation", err)
	if err != nil {
		s.log.WarnContext(ctx, "registration confirmation not sent", "registration_id", r.ID, "err", err)
	}
}

func (s *RegistrationService) notifyCertificate(ctx context.Context, r registration.Registration) {
	if s.notifier == nil {
		return
	}
	in := notifications.CertificateIssued{EventID: r.EventID, RegistrationID: r.ID}
	s.fillRecipient(ctx, r, &in.Email, &in.Name, &in.EventTitle)

	err := s.notifier.SendCertificateIssued(ctx, in)
	s.prom.NotifyResult("certificate_issued", err)
	if err != nil {
		s.log.WarnContext(ctx, "certificate notice not sent", "registration_id", r.ID, "err", err)
	}
}

func (s *RegistrationService) fillRecipient(ctx context.Context, r registration.Registration, email, name, title *string) {
	if s.users != nil {
		if u, err := s.users.GetByID(ctx, r.StudentID); err == nil {
			*email, *name = u.Email, u.Name
		}
	}
	if e, err := s.events.GetByID(ctx, r.EventID); err == nil {
		*title = e.Title
	}
}

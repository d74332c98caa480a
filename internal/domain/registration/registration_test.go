package registration

import (
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/collegeevents/internal/apperr"
	"github.com/geocoder89/collegeevents/internal/domain/event"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	r := New("42", "1", now)

	require.NotEmpty(t, r.ID)
	require.Equal(t, now, r.RegistrationDate)
	require.False(t, r.Attended)
	require.False(t, r.CertificateIssued)
	require.Nil(t, r.Feedback)
}

func TestIssueCertificate_RequiresAttendance(t *testing.T) {
	now := time.Now().UTC()
	r := New("42", "1", now)

	changed, err := r.IssueCertificate(now)
	require.False(t, changed)
	require.True(t, errors.Is(err, ErrNotAttended))
	require.True(t, apperr.IsKind(err, apperr.KindPrecondition))
	require.False(t, r.CertificateIssued)

	require.True(t, r.MarkAttended(now))
	require.False(t, r.MarkAttended(now), "second attendance is a no-op")

	changed, err = r.IssueCertificate(now)
	require.NoError(t, err)
	require.True(t, changed)

	changed, err = r.IssueCertificate(now)
	require.NoError(t, err)
	require.False(t, changed)
	require.True(t, r.CertificateIssued)
}

func TestSetFeedback_Overwrites(t *testing.T) {
	now := time.Now().UTC()
	r := New("42", "1", now)

	r.SetFeedback("signup form was confusing", now)
	r.SetFeedback("great event", now)

	require.NotNil(t, r.Feedback)
	require.Equal(t, "great event", *r.Feedback)
}

func TestWithEvent_EmbedsEvent(t *testing.T) {
	now := time.Now().UTC()
	r := New("42", "1", now)
	r.MarkAttended(now)

	view := r.WithEvent(event.Event{ID: "1", Title: "Hackathon"})

	require.Equal(t, r.ID, view.ID)
	require.Equal(t, "Hackathon", view.Event.Title)
	require.True(t, view.Attended)
}

package notifications

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeNotifier struct {
	err   error
	calls int
}

func (f *fakeNotifier) SendRegistrationConfirmation(ctx context.Context, _ RegistrationConfirmation) error {
	f.calls++
	return f.err
}

func (f *fakeNotifier) SendCertificateIssued(ctx context.Context, _ CertificateIssued) error {
	f.calls++
	return f.err
}

func TestProtectedNotifier_OpensAfterThreshold(t *testing.T) {
	inner := &fakeNotifier{err: errors.New("provider down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 2, Cooldown: time.Minute})

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }

	ctx := context.Background()
	_ = n.SendRegistrationConfirmation(ctx, RegistrationConfirmation{})
	_ = n.SendCertificateIssued(ctx, CertificateIssued{})

	if err := n.SendRegistrationConfirmation(ctx, RegistrationConfirmation{}); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("open circuit must not reach the provider, calls=%d", inner.calls)
	}
}

func TestProtectedNotifier_HalfOpenRecovers(t *testing.T) {
	inner := &fakeNotifier{err: errors.New("provider down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 1, Cooldown: time.Second})

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }

	ctx := context.Background()
	_ = n.SendRegistrationConfirmation(ctx, RegistrationConfirmation{})

	now = now.Add(2 * time.Second)
	inner.err = nil

	if err := n.SendRegistrationConfirmation(ctx, RegistrationConfirmation{}); err != nil {
		t.Fatalf("trial call should pass through, got %v", err)
	}
	if n.state != stateClosed {
		t.Fatalf("successful trial should close the circuit, state=%s", n.state)
	}
}

func TestLogNotifier_RespectsCancelledContext(t *testing.T) {
	n := NewLogNotifier(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := n.SendCertificateIssued(ctx, CertificateIssued{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

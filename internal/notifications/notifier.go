package notifications

import "context"

type RegistrationConfirmation struct {
	Email          string
	Name           string
	EventID        string
	EventTitle     string
	RegistrationID string
}

type CertificateIssued struct {
	Email          string
	Name           string
	EventID        string
	EventTitle     string
	RegistrationID string
}

type Notifier interface {
	SendRegistrationConfirmation(ctx context.Context, in RegistrationConfirmation) error
	SendCertificateIssued(ctx context.Context, in CertificateIssued) error
}

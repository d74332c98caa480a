package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier writes notices to the structured log instead of a mail provider.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendRegistrationConfirmation(ctx context.Context, in RegistrationConfirmation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.log.InfoContext(ctx, "notification.registration_confirmation",
		"email", in.Email,
		"name", in.Name,
		"event_id", in.EventID,
		"event_title", in.EventTitle,
		"registration_id", in.RegistrationID,
	)
	return nil
}

func (n *LogNotifier) SendCertificateIssued(ctx context.Context, in CertificateIssued) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.log.InfoContext(ctx, "notification.certificate_issued",
		"email", in.Email,
		"name", in.Name,
		"event_id", in.EventID,
		"event_title", in.EventTitle,
		"registration_id", in.RegistrationID,
	)
	return nil
}

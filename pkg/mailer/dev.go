package mailer

import (
	"context"

	"github.com/diagnosis/coachbook/pkg/logger"
)

// DevMailer logs mail instead of sending it.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendNotification(ctx context.Context, n Notice) error {
	subject, text, _ := render(n)
	logger.InfoContext(ctx, "[DEV MAIL] Notification email",
		"to", n.ToEmail,
		"name", n.ToName,
		"subject", subject,
		"type", n.Type,
		"appointment_id", n.AppointmentID,
		"body", text,
	)
	return nil
}

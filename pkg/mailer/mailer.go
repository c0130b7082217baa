package mailer

import (
	"context"
	"fmt"
	"html"

	"github.com/diagnosis/coachbook/pkg/config"
	"github.com/diagnosis/coachbook/pkg/logger"
)

// Notice is one notification to be mailed to its recipient.
type Notice struct {
	ToEmail       string
	ToName        string
	Type          string
	Message       string
	AppointmentID string
}

type Service interface {
	SendNotification(ctx context.Context, n Notice) error
}

// New returns the MailerSend client when it is configured and dev mode is
// off, and the logging dev mailer otherwise.
func New(cfg config.EmailConfig) Service {
	if !cfg.DevMode {
		ms := NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.FromEmail)
		if ms.enabled {
			return ms
		}
		logger.Warn("MailerSend not configured, falling back to dev mailer")
	}
	return NewDevMailer()
}

func subjectFor(noticeType string) string {
	switch noticeType {
	case "appointment_booked":
		return "New appointment request"
	case "appointment_confirmed":
		return "Your appointment is confirmed"
	case "appointment_cancelled":
		return "Appointment cancelled"
	case "appointment_completed":
		return "Appointment completed"
	case "reminder":
		return "Appointment reminder"
	default:
		return "Appointment updated"
	}
}

func render(n Notice) (subject, text, body string) {
	subject = subjectFor(n.Type)
	name := n.ToName
	if name == "" {
		name = "there"
	}
	text = fmt.Sprintf("Hi %s,\n\n%s\n", name, n.Message)
	body = fmt.Sprintf(`
		<h2>%s</h2>
		<p>Hi %s,</p>
		<p>%s</p>
		<p style="color: #888; font-size: 12px;">You are receiving this because you have an account with Coachbook.</p>
	`, html.EscapeString(subject), html.EscapeString(name), html.EscapeString(n.Message))
	return subject, text, body
}

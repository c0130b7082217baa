// Package consumer turns notification events into emails.
package consumer

import (
	"context"
	"time"

	"github.com/diagnosis/coachbook/pkg/events"
	"github.com/diagnosis/coachbook/pkg/logger"
	"github.com/diagnosis/coachbook/pkg/mailer"
)

// Queue is the NATS queue group shared by notify replicas, so each event is
// mailed once.
const Queue = "notify"

type Consumer struct {
	mail    mailer.Service
	timeout time.Duration
}

func New(mail mailer.Service) *Consumer {
	return &Consumer{mail: mail, timeout: 10 * time.Second}
}

// Start subscribes to notification events.
func (c *Consumer) Start(sub events.Subscriber) error {
	return sub.QueueSubscribe(events.NotificationCreated, Queue, c.Handle)
}

// Handle mails one notification. Failures are logged and dropped.
func (c *Consumer) Handle(msg *events.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var ev events.NotificationCreatedEvent
	if err := msg.Decode(&ev); err != nil {
		logger.ErrorContext(ctx, "Invalid notification event", "error", err, "event_id", msg.ID)
		return
	}
	if ev.RecipientEmail == "" {
		logger.WarnContext(ctx, "Notification has no recipient email", "notification_id", ev.NotificationID)
		return
	}

	err := c.mail.SendNotification(ctx, mailer.Notice{
		ToEmail:       ev.RecipientEmail,
		ToName:        ev.RecipientName,
		Type:          ev.Type,
		Message:       ev.Message,
		AppointmentID: ev.AppointmentID,
	})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to send notification email", "error", err, "notification_id", ev.NotificationID)
		return
	}
	logger.InfoContext(ctx, "Notification email sent", "notification_id", ev.NotificationID, "type", ev.Type)
}

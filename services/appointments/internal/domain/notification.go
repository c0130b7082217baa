package domain

import "time"

type NotificationType string

const (
	NotifyBooked    NotificationType = "appointment_booked"
	NotifyConfirmed NotificationType = "appointment_confirmed"
	NotifyCancelled NotificationType = "appointment_cancelled"
	NotifyCompleted NotificationType = "appointment_completed"
	NotifyUpdated   NotificationType = "appointment_updated"
	NotifyReminder  NotificationType = "reminder"
)

// NotificationTypeFor returns the notification sent to the booker when an
// appointment moves to status s.
func NotificationTypeFor(s Status) NotificationType {
	switch s {
	case StatusConfirmed:
		return NotifyConfirmed
	case StatusCancelled:
		return NotifyCancelled
	case StatusCompleted:
		return NotifyCompleted
	default:
		return NotifyUpdated
	}
}

type Notification struct {
	ID            string           `json:"_id"`
	User          string           `json:"user"`
	AppointmentID string           `json:"appointment,omitempty"`
	Message       string           `json:"message"`
	Type          NotificationType `json:"type"`
	Read          bool             `json:"read"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

type NewNotification struct {
	UserID        string
	AppointmentID string
	Message       string
	Type          NotificationType
}

package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrSlotTaken is returned by the repository when the user already holds a
// self-booked appointment for the same date and time.
var ErrSlotTaken = errors.New("slot already booked by user")

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return Status(s), true
	default:
		return "", false
	}
}

// Origin records how an appointment was created. Only self-booked
// appointments are subject to the one-per-slot rule.
type Origin string

const (
	OriginSelf  Origin = "self"
	OriginAdmin Origin = "admin"
)

// Party is a user referenced by an appointment. Name and Email are filled in
// only by listings that join the user record.
type Party struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type Appointment struct {
	ID        string    `json:"_id"`
	User      Party     `json:"user"`
	Trainer   Party     `json:"trainer"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Status    Status    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	Price     float64   `json:"price"`
	Scolor    string    `json:"scolor"`
	Origin    Origin    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Appointment) IsTrainer(userID string) bool { return a.Trainer.ID == userID }
func (a *Appointment) IsOwner(userID string) bool   { return a.User.ID == userID }

type NewAppointment struct {
	UserID    string
	TrainerID string
	Date      string
	Time      string
	Notes     string
	Price     float64
	Scolor    string
	Status    Status
	Origin    Origin
}

// AppointmentPatch holds the fields an admin may overwrite. Status is not
// among them.
type AppointmentPatch struct {
	UserID    *string
	TrainerID *string
	Date      *string
	Time      *string
	Notes     *string
	Scolor    *string
}

type BookRequest struct {
	Trainer string `json:"trainer"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Notes   string `json:"notes,omitempty"`
	Scolor  string `json:"scolor,omitempty"`
}

func (r *BookRequest) Normalize() {
	r.Trainer = strings.TrimSpace(r.Trainer)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.Scolor = strings.TrimSpace(r.Scolor)
}

type StatusRequest struct {
	Status string `json:"status"`
}

type AdminCreateRequest struct {
	User    string `json:"user"`
	Trainer string `json:"trainer"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Notes   string `json:"notes,omitempty"`
	Status  string `json:"status,omitempty"`
	Scolor  string `json:"scolor,omitempty"`
}

func (r *AdminCreateRequest) Normalize() {
	r.User = strings.TrimSpace(r.User)
	r.Trainer = strings.TrimSpace(r.Trainer)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.Status = strings.TrimSpace(r.Status)
	r.Scolor = strings.TrimSpace(r.Scolor)
}

// AdminUpdateRequest overwrites every non-empty field.
type AdminUpdateRequest struct {
	User    string `json:"user,omitempty"`
	Trainer string `json:"trainer,omitempty"`
	Date    string `json:"date,omitempty"`
	Time    string `json:"time,omitempty"`
	Notes   string `json:"notes,omitempty"`
	Scolor  string `json:"scolor,omitempty"`
}

func (r *AdminUpdateRequest) Patch() AppointmentPatch {
	return AppointmentPatch{
		UserID:    nonEmpty(r.User),
		TrainerID: nonEmpty(r.Trainer),
		Date:      nonEmpty(r.Date),
		Time:      nonEmpty(r.Time),
		Notes:     nonEmpty(r.Notes),
		Scolor:    nonEmpty(r.Scolor),
	}
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

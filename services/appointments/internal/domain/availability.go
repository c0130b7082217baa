package domain

import (
	"strings"
	"time"
)

type Slot struct {
	Time     string `json:"time"`
	IsBooked bool   `json:"isBooked"`
}

// Availability is the slot list a trainer declared for one date. It is
// advisory: booking does not read or update it.
type Availability struct {
	ID        string    `json:"_id"`
	Trainer   string    `json:"trainer"`
	Date      string    `json:"date"`
	Slots     []Slot    `json:"slots"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type SetAvailabilityRequest struct {
	Date  string `json:"date"`
	Slots []Slot `json:"slots"`
}

func (r *SetAvailabilityRequest) Normalize() {
	r.Date = strings.TrimSpace(r.Date)
	for i := range r.Slots {
		r.Slots[i].Time = strings.TrimSpace(r.Slots[i].Time)
	}
}

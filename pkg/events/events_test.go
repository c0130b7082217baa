package events

import (
	"testing"

	"github.com/nats-io/nats.go"
)

func TestToMessage_KeepsEventID(t *testing.T) {
	msg := nats.NewMsg(NotificationCreated)
	msg.Data = []byte(`{"notification_id":"n1","type":"appointment_booked","recipient_id":"t1"}`)
	msg.Header.Set("Event-ID", "evt-1")

	m := toMessage(msg)
	if m.ID != "evt-1" || m.Subject != NotificationCreated {
		t.Fatalf("unexpected message %+v", m)
	}

	var ev NotificationCreatedEvent
	if err := m.Decode(&ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.NotificationID != "n1" || ev.Type != "appointment_booked" || ev.RecipientID != "t1" {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestToMessage_GeneratesID(t *testing.T) {
	m := toMessage(&nats.Msg{Subject: AppointmentBooked, Data: []byte(`{}`)})
	if m.ID == "" {
		t.Error("expected generated id")
	}
}

package mailer

import (
	"context"
	"strings"
	"testing"

	"github.com/diagnosis/coachbook/pkg/config"
)

func TestNew_PicksImplementation(t *testing.T) {
	if _, ok := New(config.EmailConfig{DevMode: true, MailerSendKey: "k", FromEmail: "a@b.c"}).(*DevMailer); !ok {
		t.Error("dev mode must use the dev mailer")
	}
	if _, ok := New(config.EmailConfig{DevMode: false}).(*DevMailer); !ok {
		t.Error("unconfigured MailerSend must fall back to the dev mailer")
	}
	if _, ok := New(config.EmailConfig{MailerSendKey: "k", FromEmail: "a@b.c"}).(*MailerSendClient); !ok {
		t.Error("configured MailerSend should be used outside dev mode")
	}
}

func TestRender_EscapesMessage(t *testing.T) {
	subject, text, body := render(Notice{
		ToName:  "Ann",
		Type:    "appointment_confirmed",
		Message: "Your appointment on 2024-06-01 <b>10:00</b> has been confirmed",
	})

	if subject != "Your appointment is confirmed" {
		t.Errorf("unexpected subject %q", subject)
	}
	if !strings.Contains(text, "Hi Ann") {
		t.Errorf("text missing greeting: %q", text)
	}
	if strings.Contains(body, "<b>10:00</b>") {
		t.Error("html body must escape the message")
	}
}

func TestSubjectFor_Unknown(t *testing.T) {
	if got := subjectFor("something_else"); got != "Appointment updated" {
		t.Errorf("unexpected subject %q", got)
	}
}

func TestDevMailer_Send(t *testing.T) {
	if err := NewDevMailer().SendNotification(context.Background(), Notice{ToEmail: "x@y.z", Type: "reminder"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMailerSend_Disabled(t *testing.T) {
	if err := NewMailerSend("", "", "").SendNotification(context.Background(), Notice{}); err == nil {
		t.Error("expected error from unconfigured client")
	}
}

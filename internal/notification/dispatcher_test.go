package notification

import (
	"context"
	"testing"
	"time"

	"github.com/perly101/purrfectpaw/internal/config"
	"github.com/perly101/purrfectpaw/internal/providers/email"
	"github.com/perly101/purrfectpaw/internal/providers/sms"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type sentSMS struct {
	to   string
	body string
}

type channelSMS struct {
	sent chan sentSMS
}

func (p *channelSMS) Send(ctx context.Context, to string, message string) error {
	p.sent <- sentSMS{to: to, body: message}
	return nil
}

type sentMail struct {
	to      []string
	subject string
	body    string
}

type channelMailer struct {
	sent chan sentMail
}

func (p *channelMailer) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	p.sent <- sentMail{to: to, subject: subject, body: htmlBody}
	return nil
}

func newTestDispatcher(sender sms.Provider, mailer email.Provider) Dispatcher {
	return NewDispatcher(
		zap.NewNop(),
		sender,
		mailer,
		config.NewStaticMessagingConfigHolder(config.DefaultMessagingConfig()),
	)
}

func TestConfirmed_SendsNormalizedSanitizedSMS(t *testing.T) {
	sender := &channelSMS{sent: make(chan sentSMS, 1)}
	d := newTestDispatcher(sender, &email.NoOpProvider{})

	d.Confirmed(AppointmentEvent{
		AppointmentID: "1",
		ClinicName:    "Purrfect Paw — Quezon City",
		OwnerName:     "Maria",
		OwnerPhone:    "0917 123 4567",
		Date:          "Mar 18, 2026",
		Time:          "10:30",
	})

	select {
	case msg := <-sender.sent:
		assert.Equal(t, "+639171234567", msg.to)
		assert.Contains(t, msg.body, "Maria")
		assert.Contains(t, msg.body, "Purrfect Paw - Quezon City")
		assert.Contains(t, msg.body, "Available Doctor")
	case <-time.After(2 * time.Second):
		t.Fatal("no SMS dispatched")
	}
}

func TestConfirmed_SkipsBadRecipient(t *testing.T) {
	sender := &channelSMS{sent: make(chan sentSMS, 1)}
	d := newTestDispatcher(sender, &email.NoOpProvider{})

	d.Confirmed(AppointmentEvent{AppointmentID: "1", OwnerPhone: "12345"})

	select {
	case <-sender.sent:
		t.Fatal("SMS dispatched to an invalid number")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestConsultationCompleted_EmailsClinicInbox(t *testing.T) {
	mailer := &channelMailer{sent: make(chan sentMail, 1)}
	d := newTestDispatcher(&sms.NoOpProvider{}, mailer)

	d.ConsultationCompleted(AppointmentEvent{
		AppointmentID: "42",
		ClinicEmail:   "frontdesk@purrfectpaw.ph",
		OwnerName:     "Maria Cruz",
		PetName:       "Bantay",
		Service:       "Surgery <major>",
		DoctorName:    "Dr. Santos",
		Date:          "Mar 18, 2026",
		Time:          "10:30",
	})

	select {
	case mail := <-mailer.sent:
		assert.Equal(t, []string{"frontdesk@purrfectpaw.ph"}, mail.to)
		assert.Contains(t, mail.subject, "payment pending")
		assert.Contains(t, mail.body, "Maria Cruz")
		assert.Contains(t, mail.body, "Surgery &lt;major&gt;")
		assert.Contains(t, mail.body, "Dr. Santos")
	case <-time.After(2 * time.Second):
		t.Fatal("no staff notice dispatched")
	}
}

func TestConsultationCompleted_SkipsWithoutClinicEmail(t *testing.T) {
	mailer := &channelMailer{sent: make(chan sentMail, 1)}
	d := newTestDispatcher(&sms.NoOpProvider{}, mailer)

	d.ConsultationCompleted(AppointmentEvent{AppointmentID: "42", OwnerName: "Maria"})

	select {
	case <-mailer.sent:
		t.Fatal("staff notice dispatched without a recipient")
	case <-time.After(100 * time.Millisecond):
	}
}

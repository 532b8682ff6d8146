// Package notification delivers appointment SMS messages. Dispatch is
// best effort: it runs after the triggering transaction has committed,
// on its own deadline, and a failed send never fails the operation.
package notification

import (
	"context"
	"html"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/perly101/purrfectpaw/internal/config"
	"github.com/perly101/purrfectpaw/internal/phone"
	"github.com/perly101/purrfectpaw/internal/providers/email"
	"github.com/perly101/purrfectpaw/internal/providers/sms"
	"go.uber.org/zap"
)

const dispatchTimeout = 10 * time.Second

// AppointmentEvent carries the fields the templates can reference.
type AppointmentEvent struct {
	AppointmentID string
	ClinicName    string
	ClinicEmail   string
	OwnerName     string
	OwnerPhone    string
	PetName       string
	DoctorName    string
	DoctorPhone   string
	Service       string
	Date          string
	Time          string
}

type Dispatcher interface {
	Confirmed(event AppointmentEvent)
	Cancelled(event AppointmentEvent)
	DoctorAssigned(event AppointmentEvent)
	// ConsultationCompleted is the staff-facing notice: an email to the
	// clinic inbox that the appointment is awaiting payment. No owner SMS.
	ConsultationCompleted(event AppointmentEvent)
}

type dispatcher struct {
	log    *zap.Logger
	sender sms.Provider
	mailer email.Provider
	cfg    *config.MessagingConfigHolder
}

func NewDispatcher(log *zap.Logger, sender sms.Provider, mailer email.Provider, cfg *config.MessagingConfigHolder) Dispatcher {
	return &dispatcher{
		log:    log.Named("notification.dispatcher"),
		sender: sender,
		mailer: mailer,
		cfg:    cfg,
	}
}

func (d *dispatcher) Confirmed(event AppointmentEvent) {
	cfg := d.cfg.Get()
	d.send("confirmation", event.OwnerPhone, renderTemplate(cfg.ConfirmationTemplate, cfg, event), event.AppointmentID)
}

func (d *dispatcher) Cancelled(event AppointmentEvent) {
	cfg := d.cfg.Get()
	d.send("cancellation", event.OwnerPhone, renderTemplate(cfg.CancellationTemplate, cfg, event), event.AppointmentID)
}

func (d *dispatcher) DoctorAssigned(event AppointmentEvent) {
	cfg := d.cfg.Get()
	d.send("doctor_assigned", event.DoctorPhone, renderTemplate(cfg.DoctorAssignTemplate, cfg, event), event.AppointmentID)
}

func (d *dispatcher) ConsultationCompleted(event AppointmentEvent) {
	log := d.log.With(
		zap.String("dispatch_id", ulid.Make().String()),
		zap.String("kind", "consultation_completed"),
		zap.String("appointment_id", event.AppointmentID),
	)

	recipient := strings.TrimSpace(event.ClinicEmail)
	if recipient == "" {
		log.Warn("staff notice skipped, clinic has no email on file")
		return
	}

	subject := "Consultation completed - payment pending"
	body := completedNoticeBody(event)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		start := time.Now()
		if err := d.mailer.Send(ctx, []string{recipient}, subject, body); err != nil {
			log.Warn("staff notice send failed",
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err),
			)
			return
		}
		log.Info("staff notice sent", zap.Duration("elapsed", time.Since(start)))
	}()
}

func completedNoticeBody(event AppointmentEvent) string {
	var b strings.Builder
	b.WriteString("<p>A consultation has been completed and is awaiting payment.</p><ul>")
	rows := []struct{ label, value string }{
		{"Appointment", event.AppointmentID},
		{"Owner", event.OwnerName},
		{"Pet", event.PetName},
		{"Service", event.Service},
		{"Doctor", event.DoctorName},
		{"Schedule", strings.TrimSpace(event.Date + " " + event.Time)},
	}
	for _, row := range rows {
		if strings.TrimSpace(row.value) == "" {
			continue
		}
		b.WriteString("<li>" + row.label + ": " + html.EscapeString(row.value) + "</li>")
	}
	b.WriteString("</ul>")
	return b.String()
}

// send runs in its own goroutine with a detached context so a slow
// gateway cannot hold up the caller.
func (d *dispatcher) send(kind, rawPhone, message, appointmentID string) {
	dispatchID := ulid.Make().String()
	log := d.log.With(
		zap.String("dispatch_id", dispatchID),
		zap.String("kind", kind),
		zap.String("appointment_id", appointmentID),
	)

	normalized, err := phone.Normalize(rawPhone)
	if err != nil {
		log.Warn("notification skipped, bad recipient number", zap.Error(err))
		return
	}

	body := SanitizeSMS(message)
	if body == "" {
		log.Warn("notification skipped, empty message after sanitization")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		start := time.Now()
		if err := d.sender.Send(ctx, normalized, body); err != nil {
			log.Warn("notification send failed",
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err),
			)
			return
		}
		log.Info("notification sent", zap.Duration("elapsed", time.Since(start)))
	}()
}

func renderTemplate(template string, cfg config.MessagingConfig, event AppointmentEvent) string {
	doctorName := strings.TrimSpace(event.DoctorName)
	if doctorName == "" {
		doctorName = cfg.FallbackDoctorName
	}
	petName := strings.TrimSpace(event.PetName)
	if petName == "" {
		petName = cfg.FallbackPetName
	}

	replacer := strings.NewReplacer(
		"{owner_name}", strings.TrimSpace(event.OwnerName),
		"{pet_name}", petName,
		"{clinic_name}", strings.TrimSpace(event.ClinicName),
		"{doctor_name}", doctorName,
		"{date}", event.Date,
		"{time}", event.Time,
	)
	return replacer.Replace(template)
}

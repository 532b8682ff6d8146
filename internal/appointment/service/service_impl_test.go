package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/perly101/purrfectpaw/internal/appointment/domain"
	"github.com/perly101/purrfectpaw/internal/appointment/repository"
	clinicdomain "github.com/perly101/purrfectpaw/internal/clinic/domain"
	clinicrepository "github.com/perly101/purrfectpaw/internal/clinic/repository"
	"github.com/perly101/purrfectpaw/internal/clock"
	"github.com/perly101/purrfectpaw/internal/cliniccontext"
	"github.com/perly101/purrfectpaw/internal/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeDispatcher records events instead of sending anything.
type fakeDispatcher struct {
	confirmed      []notification.AppointmentEvent
	cancelled      []notification.AppointmentEvent
	doctorAssigned []notification.AppointmentEvent
	completed      []notification.AppointmentEvent
}

func (d *fakeDispatcher) Confirmed(event notification.AppointmentEvent) {
	d.confirmed = append(d.confirmed, event)
}

func (d *fakeDispatcher) Cancelled(event notification.AppointmentEvent) {
	d.cancelled = append(d.cancelled, event)
}

func (d *fakeDispatcher) DoctorAssigned(event notification.AppointmentEvent) {
	d.doctorAssigned = append(d.doctorAssigned, event)
}

func (d *fakeDispatcher) ConsultationCompleted(event notification.AppointmentEvent) {
	d.completed = append(d.completed, event)
}

func newTestDB(t *testing.T) *gorm.DB {
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&clinicdomain.Clinic{},
		&clinicdomain.Doctor{},
		&domain.Appointment{},
		&domain.FieldResponse{},
	))
	return conn
}

type fixture struct {
	db         *gorm.DB
	node       *snowflake.Node
	clk        *clock.FakeClock
	dispatcher *fakeDispatcher
	svc        domain.Service
	clinicID   snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	conn := newTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC))

	dispatcher := &fakeDispatcher{}
	svc := New(Params{
		DB:         conn,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      clk,
		Repo:       repository.Provide(),
		ClinicRepo: clinicrepository.Provide(),
		Dispatcher: dispatcher,
	})

	clinicID := node.Generate()
	require.NoError(t, conn.Create(&clinicdomain.Clinic{
		ID:   clinicID,
		Name: "Purrfect Paw Main",
		Slug: "main",
	}).Error)

	return &fixture{
		db:         conn,
		node:       node,
		clk:        clk,
		dispatcher: dispatcher,
		svc:        svc,
		clinicID:   clinicID,
	}
}

func (f *fixture) ctx() context.Context {
	return cliniccontext.WithClinicID(context.Background(), f.clinicID)
}

func (f *fixture) seedDoctor(t *testing.T) clinicdomain.Doctor {
	doctor := clinicdomain.Doctor{
		ID:       f.node.Generate(),
		ClinicID: f.clinicID,
		Name:     "Santos",
		Phone:    "+639181234567",
		Active:   true,
	}
	require.NoError(t, f.db.Create(&doctor).Error)
	return doctor
}

func (f *fixture) seedAppointment(t *testing.T, status domain.Status, doctorID *snowflake.ID) domain.Appointment {
	appointment := domain.Appointment{
		ID:              f.node.Generate(),
		ClinicID:        f.clinicID,
		DoctorID:        doctorID,
		OwnerName:       "Maria Cruz",
		OwnerPhone:      "+639171234567",
		PetName:         "Bantay",
		Service:         "Vaccination",
		AppointmentDate: time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC),
		AppointmentTime: "10:30",
		Status:          status,
		PaymentStatus:   domain.PaymentUnpaid,
		CreatedAt:       f.clk.Now(),
		UpdatedAt:       f.clk.Now(),
	}
	require.NoError(t, f.db.Create(&appointment).Error)
	return appointment
}

func (f *fixture) reload(t *testing.T, id snowflake.ID) domain.Appointment {
	var appointment domain.Appointment
	require.NoError(t, f.db.First(&appointment, "id = ?", id).Error)
	return appointment
}

func TestCreate_DefaultsAndPhoneNormalization(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(f.ctx(), domain.CreateAppointmentRequest{
		OwnerName:       " Maria Cruz ",
		OwnerPhone:      "0917 123 4567",
		PetName:         "Bantay",
		Service:         "Vaccination",
		AppointmentDate: "2026-03-12",
		AppointmentTime: "10:30",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, created.Status)
	assert.Equal(t, domain.PaymentUnpaid, created.PaymentStatus)
	assert.Equal(t, "Maria Cruz", created.OwnerName)
	assert.Equal(t, "+639171234567", created.OwnerPhone)
	assert.Nil(t, created.UserID)

	stored := f.reload(t, created.ID)
	assert.Equal(t, domain.StatusPending, stored.Status)
}

func TestCreate_RejectsBadInput(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		req  domain.CreateAppointmentRequest
	}{
		{"missing owner name", domain.CreateAppointmentRequest{
			OwnerPhone: "09171234567", Service: "Checkup",
			AppointmentDate: "2026-03-12", AppointmentTime: "10:30",
		}},
		{"bad phone", domain.CreateAppointmentRequest{
			OwnerName: "Maria", OwnerPhone: "12345", Service: "Checkup",
			AppointmentDate: "2026-03-12", AppointmentTime: "10:30",
		}},
		{"bad date", domain.CreateAppointmentRequest{
			OwnerName: "Maria", OwnerPhone: "09171234567", Service: "Checkup",
			AppointmentDate: "March 12", AppointmentTime: "10:30",
		}},
		{"bad time", domain.CreateAppointmentRequest{
			OwnerName: "Maria", OwnerPhone: "09171234567", Service: "Checkup",
			AppointmentDate: "2026-03-12", AppointmentTime: "morning",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(f.ctx(), tc.req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestApplyStatusChange_CompleteRequiresDoctor(t *testing.T) {
	f := newFixture(t)
	appointment := f.seedAppointment(t, domain.StatusAssigned, nil)

	_, err := f.svc.ApplyStatusChange(f.ctx(), domain.StatusChangeRequest{
		AppointmentID: appointment.ID.String(),
		Status:        "completed",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// the failed transition must leave the row untouched
	stored := f.reload(t, appointment.ID)
	assert.Equal(t, domain.StatusAssigned, stored.Status)
}

func TestApplyStatusChange_CompleteWithDoctor(t *testing.T) {
	f := newFixture(t)
	doctor := f.seedDoctor(t)
	appointment := f.seedAppointment(t, domain.StatusConfirmed, &doctor.ID)

	updated, err := f.svc.ApplyStatusChange(f.ctx(), domain.StatusChangeRequest{
		AppointmentID: appointment.ID.String(),
		Status:        "completed",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)

	// completion is staff-facing: a clinic notice, no owner SMS
	assert.Empty(t, f.dispatcher.confirmed)
	assert.Empty(t, f.dispatcher.cancelled)
	require.Len(t, f.dispatcher.completed, 1)
	assert.Equal(t, "Vaccination", f.dispatcher.completed[0].Service)
}

func TestApplyStatusChange_ConfirmNotifiesOwner(t *testing.T) {
	f := newFixture(t)
	appointment := f.seedAppointment(t, domain.StatusAssigned, nil)

	_, err := f.svc.ApplyStatusChange(f.ctx(), domain.StatusChangeRequest{
		AppointmentID: appointment.ID.String(),
		Status:        "confirmed",
	})
	require.NoError(t, err)

	require.Len(t, f.dispatcher.confirmed, 1)
	assert.Equal(t, "+639171234567", f.dispatcher.confirmed[0].OwnerPhone)
	assert.Equal(t, "Purrfect Paw Main", f.dispatcher.confirmed[0].ClinicName)
}

func TestApplyStatusChange_CancelNotifiesOwner(t *testing.T) {
	f := newFixture(t)
	appointment := f.seedAppointment(t, domain.StatusPending, nil)

	updated, err := f.svc.ApplyStatusChange(f.ctx(), domain.StatusChangeRequest{
		AppointmentID: appointment.ID.String(),
		Status:        "cancelled",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, updated.Status)
	assert.Len(t, f.dispatcher.cancelled, 1)
}

func TestApplyStatusChange_SameStatusIsNoOp(t *testing.T) {
	f := newFixture(t)
	appointment := f.seedAppointment(t, domain.StatusConfirmed, nil)
	before := f.reload(t, appointment.ID)

	updated, err := f.svc.ApplyStatusChange(f.ctx(), domain.StatusChangeRequest{
		AppointmentID: appointment.ID.String(),
		Status:        "confirmed",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)

	// no status change means no side effects at all
	assert.Empty(t, f.dispatcher.confirmed)
	after := f.reload(t, appointment.ID)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestApplyStatusChange_TerminalStatesAreFinal(t *testing.T) {
	f := newFixture(t)

	for _, status := range []domain.Status{domain.StatusCancelled, domain.StatusClosed} {
		appointment := f.seedAppointment(t, status, nil)
		_, err := f.svc.ApplyStatusChange(f.ctx(), domain.StatusChangeRequest{
			AppointmentID: appointment.ID.String(),
			Status:        "confirmed",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, "from %s", status)
	}
}

func TestApplyStatusChange_UnknownStatusAndMissingRow(t *testing.T) {
	f := newFixture(t)
	appointment := f.seedAppointment(t, domain.StatusPending, nil)

	_, err := f.svc.ApplyStatusChange(f.ctx(), domain.StatusChangeRequest{
		AppointmentID: appointment.ID.String(),
		Status:        "archived",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.ApplyStatusChange(f.ctx(), domain.StatusChangeRequest{
		AppointmentID: f.node.Generate().String(),
		Status:        "confirmed",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAssignDoctor_PendingAdvancesAndNotifies(t *testing.T) {
	f := newFixture(t)
	doctor := f.seedDoctor(t)
	appointment := f.seedAppointment(t, domain.StatusPending, nil)

	updated, err := f.svc.AssignDoctor(f.ctx(), domain.AssignDoctorRequest{
		AppointmentID: appointment.ID.String(),
		DoctorID:      doctor.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, updated.Status)
	require.NotNil(t, updated.DoctorID)
	assert.Equal(t, doctor.ID, *updated.DoctorID)

	require.Len(t, f.dispatcher.doctorAssigned, 1)
	assert.Equal(t, doctor.Phone, f.dispatcher.doctorAssigned[0].DoctorPhone)
	assert.Equal(t, doctor.Name, f.dispatcher.doctorAssigned[0].DoctorName)
}

func TestAssignDoctor_LaterStatusKeepsStatus(t *testing.T) {
	f := newFixture(t)
	doctor := f.seedDoctor(t)
	appointment := f.seedAppointment(t, domain.StatusConfirmed, nil)

	updated, err := f.svc.AssignDoctor(f.ctx(), domain.AssignDoctorRequest{
		AppointmentID: appointment.ID.String(),
		DoctorID:      doctor.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)

	// reassignment past pending is silent
	assert.Empty(t, f.dispatcher.doctorAssigned)
}

func TestAssignDoctor_UnknownDoctor(t *testing.T) {
	f := newFixture(t)
	appointment := f.seedAppointment(t, domain.StatusPending, nil)

	_, err := f.svc.AssignDoctor(f.ctx(), domain.AssignDoctorRequest{
		AppointmentID: appointment.ID.String(),
		DoctorID:      f.node.Generate().String(),
	})
	assert.ErrorIs(t, err, domain.ErrDoctorNotFound)
}

func TestCloseWithNotes_CompletedAdvancesToClosed(t *testing.T) {
	f := newFixture(t)
	doctor := f.seedDoctor(t)
	appointment := f.seedAppointment(t, domain.StatusCompleted, &doctor.ID)

	updated, err := f.svc.CloseWithNotes(f.ctx(), domain.CloseWithNotesRequest{
		AppointmentID: appointment.ID.String(),
		Notes:         "Administered anti-rabies booster.",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, updated.Status)
	assert.Equal(t, "Administered anti-rabies booster.", updated.Notes)
}

func TestCloseWithNotes_EarlierStatusKeepsStatus(t *testing.T) {
	f := newFixture(t)
	appointment := f.seedAppointment(t, domain.StatusAssigned, nil)

	updated, err := f.svc.CloseWithNotes(f.ctx(), domain.CloseWithNotesRequest{
		AppointmentID: appointment.ID.String(),
		Notes:         "Owner called to reschedule.",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, updated.Status)
	assert.Equal(t, "Owner called to reschedule.", updated.Notes)
}

func TestGetByID_OwnerScopeIsUserIDOnly(t *testing.T) {
	f := newFixture(t)
	ownerA := f.node.Generate()
	ownerB := f.node.Generate()

	// owner B's appointment, booked under the same phone number and
	// name that owner A uses
	appointment := f.seedAppointment(t, domain.StatusPending, nil)
	require.NoError(t, f.db.Model(&domain.Appointment{}).
		Where("id = ?", appointment.ID).
		Update("user_id", ownerB).Error)

	ctxA := cliniccontext.WithUserID(context.Background(), ownerA)
	_, err := f.svc.GetByID(ctxA, domain.GetAppointmentRequest{ID: appointment.ID.String()})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ctxB := cliniccontext.WithUserID(context.Background(), ownerB)
	detail, err := f.svc.GetByID(ctxB, domain.GetAppointmentRequest{ID: appointment.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, appointment.ID, detail.ID)
}

func TestApplyStatusChange_OwnerScopeIsUserIDOnly(t *testing.T) {
	f := newFixture(t)
	ownerA := f.node.Generate()
	ownerB := f.node.Generate()

	// owner B's appointment in the same clinic owner A's session carries
	appointment := f.seedAppointment(t, domain.StatusPending, nil)
	require.NoError(t, f.db.Model(&domain.Appointment{}).
		Where("id = ?", appointment.ID).
		Update("user_id", ownerB).Error)

	ctxA := cliniccontext.WithUserID(f.ctx(), ownerA)
	_, err := f.svc.ApplyStatusChange(ctxA, domain.StatusChangeRequest{
		AppointmentID: appointment.ID.String(),
		Status:        "cancelled",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// nothing changed and nobody was texted
	stored := f.reload(t, appointment.ID)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.Empty(t, f.dispatcher.cancelled)

	ctxB := cliniccontext.WithUserID(f.ctx(), ownerB)
	updated, err := f.svc.ApplyStatusChange(ctxB, domain.StatusChangeRequest{
		AppointmentID: appointment.ID.String(),
		Status:        "cancelled",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, updated.Status)
	assert.Len(t, f.dispatcher.cancelled, 1)
}

func TestListMine_ExcludesOtherOwners(t *testing.T) {
	f := newFixture(t)
	ownerA := f.node.Generate()
	ownerB := f.node.Generate()

	mine := f.seedAppointment(t, domain.StatusPending, nil)
	require.NoError(t, f.db.Model(&domain.Appointment{}).
		Where("id = ?", mine.ID).Update("user_id", ownerA).Error)

	theirs := f.seedAppointment(t, domain.StatusPending, nil)
	require.NoError(t, f.db.Model(&domain.Appointment{}).
		Where("id = ?", theirs.ID).Update("user_id", ownerB).Error)

	ctxA := cliniccontext.WithUserID(context.Background(), ownerA)
	resp, err := f.svc.ListMine(ctxA, domain.ListAppointmentRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Appointments, 1)
	assert.Equal(t, mine.ID, resp.Appointments[0].ID)
}

func TestListByClinic_FiltersByStatus(t *testing.T) {
	f := newFixture(t)
	f.seedAppointment(t, domain.StatusPending, nil)
	confirmed := f.seedAppointment(t, domain.StatusConfirmed, nil)

	resp, err := f.svc.ListByClinic(f.ctx(), domain.ListAppointmentRequest{Status: "confirmed"})
	require.NoError(t, err)
	require.Len(t, resp.Appointments, 1)
	assert.Equal(t, confirmed.ID, resp.Appointments[0].ID)

	_, err = f.svc.ListByClinic(f.ctx(), domain.ListAppointmentRequest{Status: "archived"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

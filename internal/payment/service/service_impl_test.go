package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	appointmentdomain "github.com/perly101/purrfectpaw/internal/appointment/domain"
	appointmentrepository "github.com/perly101/purrfectpaw/internal/appointment/repository"
	auditdomain "github.com/perly101/purrfectpaw/internal/audit/domain"
	clinicdomain "github.com/perly101/purrfectpaw/internal/clinic/domain"
	clinicrepository "github.com/perly101/purrfectpaw/internal/clinic/repository"
	"github.com/perly101/purrfectpaw/internal/clock"
	"github.com/perly101/purrfectpaw/internal/cliniccontext"
	"github.com/perly101/purrfectpaw/internal/config"
	"github.com/perly101/purrfectpaw/internal/payment/domain"
	"github.com/perly101/purrfectpaw/internal/payment/repository"
	"github.com/perly101/purrfectpaw/internal/providers/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type auditEntry struct {
	actorType string
	actorID   *string
	action    string
}

// recordingAuditSvc captures audit writes for assertions.
type recordingAuditSvc struct {
	entries []auditEntry
}

func (a *recordingAuditSvc) AuditLog(ctx context.Context, clinicID *snowflake.ID, actorType string, actorID *string, action string, targetType string, targetID *string, metadata map[string]any) error {
	a.entries = append(a.entries, auditEntry{actorType: actorType, actorID: actorID, action: action})
	return nil
}

func (a *recordingAuditSvc) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	return auditdomain.ListAuditLogResponse{}, nil
}

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	clk      *clock.FakeClock
	svc      domain.Service
	auditSvc *recordingAuditSvc
	clinicID snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&clinicdomain.Clinic{},
		&clinicdomain.Doctor{},
		&appointmentdomain.Appointment{},
		&domain.Receipt{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, time.March, 10, 14, 30, 0, 0, time.UTC))

	auditSvc := &recordingAuditSvc{}
	svc := New(Params{
		DB:           conn,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        clk,
		Repo:         repository.Provide(),
		ApptRepo:     appointmentrepository.Provide(),
		ClinicRepo:   clinicrepository.Provide(),
		PDF:          &pdf.NoOpProvider{},
		MessagingCfg: config.NewStaticMessagingConfigHolder(config.DefaultMessagingConfig()),
		AuditSvc:     auditSvc,
	})

	clinicID := node.Generate()
	require.NoError(t, conn.Create(&clinicdomain.Clinic{
		ID:      clinicID,
		Name:    "Purrfect Paw Main",
		Slug:    "main",
		Address: "123 Mabini St, Quezon City",
		Phone:   "+639171230000",
	}).Error)

	return &fixture{db: conn, node: node, clk: clk, svc: svc, auditSvc: auditSvc, clinicID: clinicID}
}

func (f *fixture) ctx() context.Context {
	return cliniccontext.WithClinicID(context.Background(), f.clinicID)
}

func (f *fixture) seedAppointment(t *testing.T, status appointmentdomain.Status) appointmentdomain.Appointment {
	appointment := appointmentdomain.Appointment{
		ID:              f.node.Generate(),
		ClinicID:        f.clinicID,
		OwnerName:       "Maria Cruz",
		OwnerPhone:      "+639171234567",
		PetName:         "Bantay",
		Service:         "Vaccination",
		AppointmentDate: time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		AppointmentTime: "10:30",
		Status:          status,
		PaymentStatus:   appointmentdomain.PaymentUnpaid,
		CreatedAt:       f.clk.Now(),
		UpdatedAt:       f.clk.Now(),
	}
	require.NoError(t, f.db.Create(&appointment).Error)
	return appointment
}

func TestSettle_IssuesSequentialReceiptNumbers(t *testing.T) {
	f := newFixture(t)
	first := f.seedAppointment(t, appointmentdomain.StatusCompleted)
	second := f.seedAppointment(t, appointmentdomain.StatusCompleted)

	receipt1, err := f.svc.Settle(f.ctx(), domain.SettleRequest{
		AppointmentID: first.ID.String(),
		Amount:        50000,
		Method:        "cash",
		ProcessedBy:   "Ana Reyes",
	})
	require.NoError(t, err)
	assert.Equal(t, "RCPT-2026-00001", receipt1.ReceiptNumber)
	assert.Equal(t, 2026, receipt1.Year)
	assert.Equal(t, 1, receipt1.SequenceNo)

	receipt2, err := f.svc.Settle(f.ctx(), domain.SettleRequest{
		AppointmentID: second.ID.String(),
		Amount:        120000,
		Method:        "gcash",
	})
	require.NoError(t, err)
	assert.Equal(t, "RCPT-2026-00002", receipt2.ReceiptNumber)
}

func TestSettle_UpdatesAppointmentPaymentFields(t *testing.T) {
	f := newFixture(t)
	appointment := f.seedAppointment(t, appointmentdomain.StatusCompleted)

	receipt, err := f.svc.Settle(f.ctx(), domain.SettleRequest{
		AppointmentID: appointment.ID.String(),
		Amount:        50000,
		Method:        "credit_card",
	})
	require.NoError(t, err)

	var stored appointmentdomain.Appointment
	require.NoError(t, f.db.First(&stored, "id = ?", appointment.ID).Error)
	assert.Equal(t, appointmentdomain.PaymentPaid, stored.PaymentStatus)
	require.NotNil(t, stored.Amount)
	assert.Equal(t, int64(50000), *stored.Amount)
	require.NotNil(t, stored.PaymentMethod)
	assert.Equal(t, "credit_card", *stored.PaymentMethod)
	require.NotNil(t, stored.ReceiptNumber)
	assert.Equal(t, receipt.ReceiptNumber, *stored.ReceiptNumber)
	require.NotNil(t, stored.PaymentDate)

	// lifecycle status is untouched; closing needs notes
	assert.Equal(t, appointmentdomain.StatusCompleted, stored.Status)
}

func TestSettle_SequenceRestartsEachYear(t *testing.T) {
	f := newFixture(t)
	first := f.seedAppointment(t, appointmentdomain.StatusCompleted)
	second := f.seedAppointment(t, appointmentdomain.StatusCompleted)

	receipt1, err := f.svc.Settle(f.ctx(), domain.SettleRequest{
		AppointmentID: first.ID.String(), Amount: 50000, Method: "cash",
	})
	require.NoError(t, err)
	assert.Equal(t, "RCPT-2026-00001", receipt1.ReceiptNumber)

	f.clk.Advance(365 * 24 * time.Hour)
	require.Equal(t, 2027, f.clk.Now().Year())

	receipt2, err := f.svc.Settle(f.ctx(), domain.SettleRequest{
		AppointmentID: second.ID.String(), Amount: 50000, Method: "cash",
	})
	require.NoError(t, err)
	assert.Equal(t, "RCPT-2027-00001", receipt2.ReceiptNumber)
}

func TestSettle_RequiresCompletedStatus(t *testing.T) {
	f := newFixture(t)

	for _, status := range []appointmentdomain.Status{
		appointmentdomain.StatusPending,
		appointmentdomain.StatusAssigned,
		appointmentdomain.StatusConfirmed,
		appointmentdomain.StatusCancelled,
	} {
		appointment := f.seedAppointment(t, status)
		_, err := f.svc.Settle(f.ctx(), domain.SettleRequest{
			AppointmentID: appointment.ID.String(),
			Amount:        50000,
			Method:        "cash",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidPaymentState, "status %s", status)
	}

	var count int64
	require.NoError(t, f.db.Model(&domain.Receipt{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSettle_RejectsSecondSettlement(t *testing.T) {
	f := newFixture(t)
	appointment := f.seedAppointment(t, appointmentdomain.StatusCompleted)

	_, err := f.svc.Settle(f.ctx(), domain.SettleRequest{
		AppointmentID: appointment.ID.String(), Amount: 50000, Method: "cash",
	})
	require.NoError(t, err)

	_, err = f.svc.Settle(f.ctx(), domain.SettleRequest{
		AppointmentID: appointment.ID.String(), Amount: 50000, Method: "cash",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentState)

	var count int64
	require.NoError(t, f.db.Model(&domain.Receipt{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSettle_ValidatesAmountAndMethod(t *testing.T) {
	f := newFixture(t)
	appointment := f.seedAppointment(t, appointmentdomain.StatusCompleted)

	_, err := f.svc.Settle(f.ctx(), domain.SettleRequest{
		AppointmentID: appointment.ID.String(), Amount: 0, Method: "cash",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Settle(f.ctx(), domain.SettleRequest{
		AppointmentID: appointment.ID.String(), Amount: -100, Method: "cash",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Settle(f.ctx(), domain.SettleRequest{
		AppointmentID: appointment.ID.String(), Amount: 50000, Method: "check",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSettle_PersistentCollisionLeavesAppointmentUnpaid(t *testing.T) {
	f := newFixture(t)
	appointment := f.seedAppointment(t, appointmentdomain.StatusCompleted)

	// a receipt already holds this appointment's unique slot, while the
	// appointment row still reads unpaid; both settle attempts hit the
	// unique index and the second maps to conflict
	require.NoError(t, f.db.Create(&domain.Receipt{
		ID:            f.node.Generate(),
		ReceiptNumber: "RCPT-2026-09999",
		Year:          2026,
		SequenceNo:    9999,
		AppointmentID: appointment.ID,
		ClinicID:      f.clinicID,
		PatientName:   "Maria Cruz",
		Service:       "Vaccination",
		Amount:        50000,
		PaymentMethod: "cash",
		PaymentDate:   f.clk.Now(),
		CreatedAt:     f.clk.Now(),
	}).Error)

	_, err := f.svc.Settle(f.ctx(), domain.SettleRequest{
		AppointmentID: appointment.ID.String(), Amount: 50000, Method: "cash",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// the failed settlement rolled back: payment fields untouched
	var stored appointmentdomain.Appointment
	require.NoError(t, f.db.First(&stored, "id = ?", appointment.ID).Error)
	assert.Equal(t, appointmentdomain.PaymentUnpaid, stored.PaymentStatus)
	assert.Nil(t, stored.ReceiptNumber)
}

func TestGetReceiptByAppointment(t *testing.T) {
	f := newFixture(t)
	appointment := f.seedAppointment(t, appointmentdomain.StatusCompleted)

	_, err := f.svc.GetReceiptByAppointment(f.ctx(), domain.GetReceiptRequest{
		AppointmentID: appointment.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrReceiptNotIssued)

	_, err = f.svc.Settle(f.ctx(), domain.SettleRequest{
		AppointmentID: appointment.ID.String(), Amount: 50000, Method: "gcash",
	})
	require.NoError(t, err)

	view, err := f.svc.GetReceiptByAppointment(f.ctx(), domain.GetReceiptRequest{
		AppointmentID: appointment.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "RCPT-2026-00001", view.ReceiptNumber)
	assert.Equal(t, "Purrfect Paw Main", view.ClinicName)
	assert.Equal(t, "PHP 500.00", view.FormattedAmount)
	assert.Equal(t, "GCash", view.FormattedMethod)
}

func TestGetReceiptByAppointment_OwnerScopeIsUserIDOnly(t *testing.T) {
	f := newFixture(t)
	ownerA := f.node.Generate()
	ownerB := f.node.Generate()

	appointment := f.seedAppointment(t, appointmentdomain.StatusCompleted)
	require.NoError(t, f.db.Model(&appointmentdomain.Appointment{}).
		Where("id = ?", appointment.ID).Update("user_id", ownerB).Error)

	_, err := f.svc.Settle(f.ctx(), domain.SettleRequest{
		AppointmentID: appointment.ID.String(), Amount: 50000, Method: "cash",
	})
	require.NoError(t, err)

	ctxA := cliniccontext.WithUserID(context.Background(), ownerA)
	_, err = f.svc.GetReceiptByAppointment(ctxA, domain.GetReceiptRequest{
		AppointmentID: appointment.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ctxB := cliniccontext.WithUserID(context.Background(), ownerB)
	view, err := f.svc.GetReceiptByAppointment(ctxB, domain.GetReceiptRequest{
		AppointmentID: appointment.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "RCPT-2026-00001", view.ReceiptNumber)
}

func TestListReceipts_FiltersByMethod(t *testing.T) {
	f := newFixture(t)
	cashAppt := f.seedAppointment(t, appointmentdomain.StatusCompleted)
	gcashAppt := f.seedAppointment(t, appointmentdomain.StatusCompleted)

	_, err := f.svc.Settle(f.ctx(), domain.SettleRequest{
		AppointmentID: cashAppt.ID.String(), Amount: 50000, Method: "cash",
	})
	require.NoError(t, err)
	_, err = f.svc.Settle(f.ctx(), domain.SettleRequest{
		AppointmentID: gcashAppt.ID.String(), Amount: 80000, Method: "gcash",
	})
	require.NoError(t, err)

	resp, err := f.svc.ListReceipts(f.ctx(), domain.ListReceiptRequest{Method: "gcash"})
	require.NoError(t, err)
	require.Len(t, resp.Receipts, 1)
	assert.Equal(t, gcashAppt.ID, resp.Receipts[0].AppointmentID)

	_, err = f.svc.ListReceipts(f.ctx(), domain.ListReceiptRequest{Method: "barter"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSettle_AuditNamesProcessingStaff(t *testing.T) {
	f := newFixture(t)
	appointment := f.seedAppointment(t, appointmentdomain.StatusCompleted)
	staffID := f.node.Generate()

	ctx := cliniccontext.WithStaffID(f.ctx(), staffID)
	_, err := f.svc.Settle(ctx, domain.SettleRequest{
		AppointmentID: appointment.ID.String(), Amount: 50000, Method: "cash",
	})
	require.NoError(t, err)

	require.Len(t, f.auditSvc.entries, 1)
	entry := f.auditSvc.entries[0]
	assert.Equal(t, "payment.settled", entry.action)
	assert.Equal(t, "staff", entry.actorType)
	require.NotNil(t, entry.actorID)
	assert.Equal(t, staffID.String(), *entry.actorID)
}

func TestMethodLabel(t *testing.T) {
	assert.Equal(t, "Cash", MethodLabel("cash"))
	assert.Equal(t, "GCash", MethodLabel("gcash"))
	assert.Equal(t, "PayMaya", MethodLabel("paymaya"))
	assert.Equal(t, "Credit Card", MethodLabel("credit_card"))
	assert.Equal(t, "wire", MethodLabel("wire"))
}

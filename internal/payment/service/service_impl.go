package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	appointmentdomain "github.com/perly101/purrfectpaw/internal/appointment/domain"
	auditdomain "github.com/perly101/purrfectpaw/internal/audit/domain"
	clinicdomain "github.com/perly101/purrfectpaw/internal/clinic/domain"
	"github.com/perly101/purrfectpaw/internal/clock"
	"github.com/perly101/purrfectpaw/internal/cliniccontext"
	"github.com/perly101/purrfectpaw/internal/config"
	"github.com/perly101/purrfectpaw/internal/money"
	"github.com/perly101/purrfectpaw/internal/payment/domain"
	"github.com/perly101/purrfectpaw/internal/providers/pdf"
	"github.com/perly101/purrfectpaw/pkg/db"
	"github.com/perly101/purrfectpaw/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	ApptRepo     appointmentdomain.Repository
	ClinicRepo   clinicdomain.Repository
	PDF          pdf.Provider
	MessagingCfg *config.MessagingConfigHolder
	AuditSvc     auditdomain.Service `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	apptRepo     appointmentdomain.Repository
	clinicRepo   clinicdomain.Repository
	pdf          pdf.Provider
	messagingCfg *config.MessagingConfigHolder
	auditSvc     auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("payment.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		apptRepo:     p.ApptRepo,
		clinicRepo:   p.ClinicRepo,
		pdf:          p.PDF,
		messagingCfg: p.MessagingCfg,
		auditSvc:     p.AuditSvc,
	}
}

func (s *Service) Settle(ctx context.Context, req domain.SettleRequest) (domain.Receipt, error) {
	clinicID, ok := cliniccontext.ClinicIDFromContext(ctx)
	if !ok || clinicID == 0 {
		return domain.Receipt{}, domain.ErrInvalidClinic
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.AppointmentID))
	if err != nil {
		return domain.Receipt{}, domain.ErrNotFound
	}
	if req.Amount <= 0 {
		return domain.Receipt{}, domain.ErrValidation
	}
	method, ok := appointmentdomain.ParsePaymentMethod(strings.TrimSpace(req.Method))
	if !ok {
		return domain.Receipt{}, domain.ErrValidation
	}

	receipt, err := s.settleOnce(ctx, clinicID, id, req, method)
	if err != nil {
		if !db.IsDuplicateKeyErr(err) {
			return domain.Receipt{}, err
		}
		// Two settlements raced for the same sequence number. The
		// unique index rejected the loser; recompute and retry once.
		s.log.Warn("receipt number collision, retrying",
			zap.String("appointment_id", id.String()),
		)
		receipt, err = s.settleOnce(ctx, clinicID, id, req, method)
		if err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.Receipt{}, domain.ErrConflict
			}
			return domain.Receipt{}, err
		}
	}

	s.audit(ctx, clinicID, receipt)
	return receipt, nil
}

func (s *Service) settleOnce(ctx context.Context, clinicID, id snowflake.ID, req domain.SettleRequest, method string) (domain.Receipt, error) {
	var receipt domain.Receipt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appointment, err := s.apptRepo.FindByIDForUpdate(ctx, tx, clinicID, id)
		if err != nil {
			return err
		}
		if appointment == nil {
			return domain.ErrNotFound
		}
		if appointment.Status != appointmentdomain.StatusCompleted {
			return domain.ErrInvalidPaymentState
		}
		if appointment.PaymentStatus == appointmentdomain.PaymentPaid {
			return domain.ErrInvalidPaymentState
		}

		now := s.clock.Now()
		year := now.Year()
		seq, err := s.repo.NextSequenceNo(ctx, tx, year)
		if err != nil {
			return err
		}
		number := fmt.Sprintf("RCPT-%d-%05d", year, seq)

		doctorName := ""
		if appointment.DoctorID != nil {
			doctor, err := s.clinicRepo.FindDoctorByID(ctx, tx, clinicID, *appointment.DoctorID)
			if err != nil {
				return err
			}
			if doctor != nil {
				doctorName = formatDoctorName(doctor.Name)
			}
		}

		service := strings.TrimSpace(req.Service)
		if service == "" {
			service = appointment.Service
		}

		receipt = domain.Receipt{
			ID:            s.genID.Generate(),
			ReceiptNumber: number,
			Year:          year,
			SequenceNo:    seq,
			AppointmentID: appointment.ID,
			ClinicID:      clinicID,
			DoctorID:      appointment.DoctorID,
			PatientName:   appointment.OwnerName,
			DoctorName:    doctorName,
			Service:       service,
			Amount:        req.Amount,
			PaymentMethod: method,
			PaymentDate:   now,
			ProcessedBy:   strings.TrimSpace(req.ProcessedBy),
			Notes:         strings.TrimSpace(req.Notes),
			CreatedAt:     now,
		}
		if err := s.repo.Insert(ctx, tx, &receipt); err != nil {
			return err
		}

		amount := req.Amount
		appointment.PaymentStatus = appointmentdomain.PaymentPaid
		appointment.Amount = &amount
		appointment.PaymentMethod = &method
		appointment.ReceiptNumber = &number
		appointment.PaymentDate = &now
		appointment.UpdatedAt = now
		return s.apptRepo.Update(ctx, tx, appointment)
	})
	if err != nil {
		return domain.Receipt{}, err
	}
	return receipt, nil
}

func (s *Service) GetReceiptByAppointment(ctx context.Context, req domain.GetReceiptRequest) (domain.ReceiptView, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.AppointmentID))
	if err != nil {
		return domain.ReceiptView{}, domain.ErrNotFound
	}

	appointment, err := s.findScopedAppointment(ctx, id)
	if err != nil {
		return domain.ReceiptView{}, err
	}

	receipt, err := s.repo.FindByAppointment(ctx, s.db, appointment.ID)
	if err != nil {
		return domain.ReceiptView{}, err
	}
	if receipt == nil {
		// the appointment exists but has not been settled
		return domain.ReceiptView{}, domain.ErrReceiptNotIssued
	}

	return s.buildView(ctx, *receipt), nil
}

func (s *Service) ListReceipts(ctx context.Context, req domain.ListReceiptRequest) (domain.ListReceiptResponse, error) {
	clinicID, ok := cliniccontext.ClinicIDFromContext(ctx)
	if !ok || clinicID == 0 {
		return domain.ListReceiptResponse{}, domain.ErrInvalidClinic
	}

	filter := domain.ListReceiptFilter{From: req.From, To: req.To}
	if raw := strings.TrimSpace(req.Method); raw != "" {
		method, ok := appointmentdomain.ParsePaymentMethod(raw)
		if !ok {
			return domain.ListReceiptResponse{}, domain.ErrValidation
		}
		filter.Method = method
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	items, err := s.repo.List(ctx, s.db, clinicID, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListReceiptResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(receipt *domain.Receipt) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        receipt.ID.String(),
			CreatedAt: receipt.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	receipts := make([]domain.Receipt, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		receipts = append(receipts, *item)
	}

	resp := domain.ListReceiptResponse{Receipts: receipts}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) RenderReceiptPDF(ctx context.Context, req domain.GetReceiptRequest) (io.Reader, error) {
	view, err := s.GetReceiptByAppointment(ctx, req)
	if err != nil {
		return nil, err
	}

	petName := ""
	if appointment, err := s.apptRepo.FindByID(ctx, s.db, view.ClinicID, view.AppointmentID); err == nil && appointment != nil {
		petName = appointment.PetName
	}

	return s.pdf.GenerateReceipt(ctx, pdf.ReceiptData{
		ReceiptNumber: view.ReceiptNumber,
		ClinicName:    view.ClinicName,
		ClinicAddress: view.ClinicAddress,
		ClinicPhone:   view.ClinicPhone,
		PatientName:   view.PatientName,
		PetName:       petName,
		DoctorName:    view.DoctorName,
		Service:       view.Service,
		Amount:        view.FormattedAmount,
		PaymentMethod: view.FormattedMethod,
		DatePaid:      view.FormattedDate + " " + view.FormattedTime,
		ProcessedBy:   view.ProcessedBy,
		Notes:         view.Notes,
	})
}

// findScopedAppointment mirrors the appointment scoping rules: owners
// by user_id only, staff by clinic_id.
func (s *Service) findScopedAppointment(ctx context.Context, id snowflake.ID) (*appointmentdomain.Appointment, error) {
	if userID, ok := cliniccontext.UserIDFromContext(ctx); ok {
		appointment, err := s.apptRepo.FindByIDForUser(ctx, s.db, userID, id)
		if err != nil {
			return nil, err
		}
		if appointment == nil {
			return nil, domain.ErrNotFound
		}
		return appointment, nil
	}

	clinicID, ok := cliniccontext.ClinicIDFromContext(ctx)
	if !ok || clinicID == 0 {
		return nil, domain.ErrInvalidClinic
	}
	appointment, err := s.apptRepo.FindByID(ctx, s.db, clinicID, id)
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, domain.ErrNotFound
	}
	return appointment, nil
}

func (s *Service) buildView(ctx context.Context, receipt domain.Receipt) domain.ReceiptView {
	cfg := s.messagingCfg.Get()
	view := domain.ReceiptView{
		Receipt:         receipt,
		FormattedDate:   receipt.PaymentDate.Format("Jan 2, 2006"),
		FormattedTime:   receipt.PaymentDate.Format("3:04 PM"),
		FormattedAmount: money.Format(cfg.CurrencySymbol, receipt.Amount),
		FormattedMethod: MethodLabel(receipt.PaymentMethod),
	}
	if clinic, err := s.clinicRepo.FindByID(ctx, s.db, receipt.ClinicID); err == nil && clinic != nil {
		view.ClinicName = clinic.Name
		view.ClinicAddress = clinic.Address
		view.ClinicPhone = clinic.Phone
	}
	return view
}

func (s *Service) audit(ctx context.Context, clinicID snowflake.ID, receipt domain.Receipt) {
	if s.auditSvc == nil {
		return
	}
	actorType, actorID := actorFromContext(ctx)
	target := receipt.AppointmentID.String()
	_ = s.auditSvc.AuditLog(ctx, &clinicID, actorType, actorID, "payment.settled", "appointment", &target, map[string]any{
		"receipt_number": receipt.ReceiptNumber,
		"amount":         receipt.Amount,
		"method":         receipt.PaymentMethod,
	})
}

func actorFromContext(ctx context.Context) (string, *string) {
	if staffID, ok := cliniccontext.StaffIDFromContext(ctx); ok {
		id := staffID.String()
		return "staff", &id
	}
	if userID, ok := cliniccontext.UserIDFromContext(ctx); ok {
		id := userID.String()
		return "user", &id
	}
	return "system", nil
}

// MethodLabel renders a payment method for humans.
func MethodLabel(method string) string {
	switch method {
	case "cash":
		return "Cash"
	case "credit_card":
		return "Credit Card"
	case "debit_card":
		return "Debit Card"
	case "gcash":
		return "GCash"
	case "paymaya":
		return "PayMaya"
	}
	return method
}

func formatDoctorName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(name), "dr") {
		return name
	}
	return "Dr. " + name
}

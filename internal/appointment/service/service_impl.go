package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/perly101/purrfectpaw/internal/appointment/domain"
	auditdomain "github.com/perly101/purrfectpaw/internal/audit/domain"
	clinicdomain "github.com/perly101/purrfectpaw/internal/clinic/domain"
	"github.com/perly101/purrfectpaw/internal/clock"
	"github.com/perly101/purrfectpaw/internal/cliniccontext"
	"github.com/perly101/purrfectpaw/internal/notification"
	"github.com/perly101/purrfectpaw/internal/phone"
	"github.com/perly101/purrfectpaw/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	ClinicRepo clinicdomain.Repository
	Dispatcher notification.Dispatcher
	AuditSvc   auditdomain.Service `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	clinicRepo clinicdomain.Repository
	dispatcher notification.Dispatcher
	auditSvc   auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("appointment.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		clinicRepo: p.ClinicRepo,
		dispatcher: p.Dispatcher,
		auditSvc:   p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateAppointmentRequest) (domain.Appointment, error) {
	clinicID, ok := cliniccontext.ClinicIDFromContext(ctx)
	if !ok || clinicID == 0 {
		return domain.Appointment{}, domain.ErrInvalidClinic
	}

	ownerName := strings.TrimSpace(req.OwnerName)
	service := strings.TrimSpace(req.Service)
	if ownerName == "" || service == "" {
		return domain.Appointment{}, domain.ErrValidation
	}

	ownerPhone, err := phone.Normalize(req.OwnerPhone)
	if err != nil {
		return domain.Appointment{}, domain.ErrValidation
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(req.AppointmentDate))
	if err != nil {
		return domain.Appointment{}, domain.ErrValidation
	}
	timeOfDay := strings.TrimSpace(req.AppointmentTime)
	if _, err := time.Parse("15:04", timeOfDay); err != nil {
		return domain.Appointment{}, domain.ErrValidation
	}

	// An authenticated owner always books for themselves; staff may
	// pass an explicit user id or leave it empty for walk-ins.
	var userID *snowflake.ID
	if ctxUserID, ok := cliniccontext.UserIDFromContext(ctx); ok {
		userID = &ctxUserID
	} else if raw := strings.TrimSpace(req.UserID); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil {
			return domain.Appointment{}, domain.ErrValidation
		}
		userID = &parsed
	}

	now := s.clock.Now()
	appointment := domain.Appointment{
		ID:              s.genID.Generate(),
		ClinicID:        clinicID,
		UserID:          userID,
		OwnerName:       ownerName,
		OwnerPhone:      ownerPhone,
		PetName:         strings.TrimSpace(req.PetName),
		Service:         service,
		AppointmentDate: date,
		AppointmentTime: timeOfDay,
		Status:          domain.StatusPending,
		PaymentStatus:   domain.PaymentUnpaid,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	responses := make([]domain.FieldResponse, 0, len(req.Answers))
	for _, answer := range req.Answers {
		fieldID, err := snowflake.ParseString(strings.TrimSpace(answer.FieldID))
		if err != nil {
			return domain.Appointment{}, domain.ErrValidation
		}
		responses = append(responses, domain.FieldResponse{
			ID:            s.genID.Generate(),
			ClinicID:      clinicID,
			AppointmentID: appointment.ID,
			FieldID:       fieldID,
			Label:         strings.TrimSpace(answer.Label),
			Value:         answer.Value,
			CreatedAt:     now,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &appointment); err != nil {
			return err
		}
		return s.repo.InsertFieldResponses(ctx, tx, responses)
	})
	if err != nil {
		return domain.Appointment{}, err
	}

	s.audit(ctx, clinicID, "appointment.created", appointment.ID, map[string]any{
		"service": appointment.Service,
		"date":    appointment.AppointmentDate.Format("2006-01-02"),
	})
	return appointment, nil
}

func (s *Service) ApplyStatusChange(ctx context.Context, req domain.StatusChangeRequest) (domain.Appointment, error) {
	// Same scoping rules as reads: an owner only ever touches rows whose
	// user_id is theirs, regardless of what clinic the session carries.
	userID, isOwner := cliniccontext.UserIDFromContext(ctx)
	clinicID, hasClinic := cliniccontext.ClinicIDFromContext(ctx)
	if !isOwner && (!hasClinic || clinicID == 0) {
		return domain.Appointment{}, domain.ErrInvalidClinic
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.AppointmentID))
	if err != nil {
		return domain.Appointment{}, domain.ErrNotFound
	}

	target, valid := domain.ParseStatus(strings.TrimSpace(req.Status))
	if !valid {
		return domain.Appointment{}, domain.ErrValidation
	}

	var (
		updated  domain.Appointment
		previous domain.Status
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var appointment *domain.Appointment
		var err error
		if isOwner {
			appointment, err = s.repo.FindByIDForUserForUpdate(ctx, tx, userID, id)
		} else {
			appointment, err = s.repo.FindByIDForUpdate(ctx, tx, clinicID, id)
		}
		if err != nil {
			return err
		}
		if appointment == nil {
			// scope misses read as absent
			return domain.ErrNotFound
		}

		previous = appointment.Status
		if previous == target {
			// idempotent rewrite, no side effects
			updated = *appointment
			return nil
		}
		if previous.IsTerminal() {
			return domain.ErrInvalidTransition
		}

		rule, _ := domain.RuleFor(target)
		if rule.RequiresDoctor && appointment.DoctorID == nil {
			return domain.ErrInvalidTransition
		}

		appointment.Status = target
		appointment.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, appointment); err != nil {
			return err
		}
		updated = *appointment
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}

	if previous != target {
		s.fireTransition(ctx, updated, target)
		s.audit(ctx, updated.ClinicID, "appointment.status_changed", updated.ID, map[string]any{
			"from": string(previous),
			"to":   string(target),
		})
	}
	return updated, nil
}

func (s *Service) AssignDoctor(ctx context.Context, req domain.AssignDoctorRequest) (domain.Appointment, error) {
	clinicID, ok := cliniccontext.ClinicIDFromContext(ctx)
	if !ok || clinicID == 0 {
		return domain.Appointment{}, domain.ErrInvalidClinic
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.AppointmentID))
	if err != nil {
		return domain.Appointment{}, domain.ErrNotFound
	}
	doctorID, err := snowflake.ParseString(strings.TrimSpace(req.DoctorID))
	if err != nil {
		return domain.Appointment{}, domain.ErrValidation
	}

	doctor, err := s.clinicRepo.FindDoctorByID(ctx, s.db, clinicID, doctorID)
	if err != nil {
		return domain.Appointment{}, err
	}
	if doctor == nil {
		return domain.Appointment{}, domain.ErrDoctorNotFound
	}

	var (
		updated  domain.Appointment
		advanced bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appointment, err := s.repo.FindByIDForUpdate(ctx, tx, clinicID, id)
		if err != nil {
			return err
		}
		if appointment == nil {
			return domain.ErrNotFound
		}
		if appointment.Status.IsTerminal() {
			return domain.ErrInvalidTransition
		}

		appointment.DoctorID = &doctorID
		if appointment.Status == domain.StatusPending {
			appointment.Status = domain.StatusAssigned
			advanced = true
		}
		appointment.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, appointment); err != nil {
			return err
		}
		updated = *appointment
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}

	if advanced {
		event := s.buildEvent(ctx, updated)
		event.DoctorName = doctor.Name
		event.DoctorPhone = doctor.Phone
		s.dispatcher.DoctorAssigned(event)
	}
	s.audit(ctx, clinicID, "appointment.doctor_assigned", updated.ID, map[string]any{
		"doctor_id": doctorID.String(),
	})
	return updated, nil
}

func (s *Service) CloseWithNotes(ctx context.Context, req domain.CloseWithNotesRequest) (domain.Appointment, error) {
	clinicID, ok := cliniccontext.ClinicIDFromContext(ctx)
	if !ok || clinicID == 0 {
		return domain.Appointment{}, domain.ErrInvalidClinic
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.AppointmentID))
	if err != nil {
		return domain.Appointment{}, domain.ErrNotFound
	}
	notes := strings.TrimSpace(req.Notes)
	if notes == "" {
		return domain.Appointment{}, domain.ErrValidation
	}

	var (
		updated domain.Appointment
		closed  bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appointment, err := s.repo.FindByIDForUpdate(ctx, tx, clinicID, id)
		if err != nil {
			return err
		}
		if appointment == nil {
			return domain.ErrNotFound
		}

		appointment.Notes = notes
		if appointment.Status == domain.StatusCompleted {
			appointment.Status = domain.StatusClosed
			closed = true
		}
		appointment.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, appointment); err != nil {
			return err
		}
		updated = *appointment
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}

	metadata := map[string]any{"closed": closed}
	s.audit(ctx, clinicID, "appointment.notes_recorded", updated.ID, metadata)
	return updated, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetAppointmentRequest) (domain.AppointmentDetail, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return domain.AppointmentDetail{}, domain.ErrNotFound
	}

	appointment, err := s.findScoped(ctx, id)
	if err != nil {
		return domain.AppointmentDetail{}, err
	}

	answers, err := s.repo.ListFieldResponses(ctx, s.db, appointment.ID)
	if err != nil {
		return domain.AppointmentDetail{}, err
	}
	return domain.AppointmentDetail{Appointment: *appointment, Answers: answers}, nil
}

// findScoped resolves an appointment in the caller's scope: owners see
// rows whose user_id is theirs, staff see their clinic's rows. Scope
// misses surface as not found so existence is never leaked.
func (s *Service) findScoped(ctx context.Context, id snowflake.ID) (*domain.Appointment, error) {
	if userID, ok := cliniccontext.UserIDFromContext(ctx); ok {
		appointment, err := s.repo.FindByIDForUser(ctx, s.db, userID, id)
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
	appointment, err := s.repo.FindByID(ctx, s.db, clinicID, id)
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, domain.ErrNotFound
	}
	return appointment, nil
}

func (s *Service) ListByClinic(ctx context.Context, req domain.ListAppointmentRequest) (domain.ListAppointmentResponse, error) {
	clinicID, ok := cliniccontext.ClinicIDFromContext(ctx)
	if !ok || clinicID == 0 {
		return domain.ListAppointmentResponse{}, domain.ErrInvalidClinic
	}

	filter, err := buildFilter(req)
	if err != nil {
		return domain.ListAppointmentResponse{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	items, err := s.repo.ListByClinic(ctx, s.db, clinicID, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListAppointmentResponse{}, err
	}
	return buildListResponse(items, pageSize), nil
}

func (s *Service) ListMine(ctx context.Context, req domain.ListAppointmentRequest) (domain.ListAppointmentResponse, error) {
	userID, ok := cliniccontext.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return domain.ListAppointmentResponse{}, domain.ErrInvalidUser
	}

	filter, err := buildFilter(req)
	if err != nil {
		return domain.ListAppointmentResponse{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	items, err := s.repo.ListByUser(ctx, s.db, userID, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListAppointmentResponse{}, err
	}
	return buildListResponse(items, pageSize), nil
}

func (s *Service) fireTransition(ctx context.Context, appointment domain.Appointment, target domain.Status) {
	rule, _ := domain.RuleFor(target)
	switch rule.Notify {
	case domain.NotifyConfirmation:
		s.dispatcher.Confirmed(s.buildEvent(ctx, appointment))
	case domain.NotifyCancellation:
		s.dispatcher.Cancelled(s.buildEvent(ctx, appointment))
	case domain.NotifyInternal:
		// staff-facing only, no owner SMS
		s.dispatcher.ConsultationCompleted(s.buildEvent(ctx, appointment))
	}
}

func (s *Service) buildEvent(ctx context.Context, appointment domain.Appointment) notification.AppointmentEvent {
	event := notification.AppointmentEvent{
		AppointmentID: appointment.ID.String(),
		OwnerName:     appointment.OwnerName,
		OwnerPhone:    appointment.OwnerPhone,
		PetName:       appointment.PetName,
		Service:       appointment.Service,
		Date:          appointment.AppointmentDate.Format("Jan 2, 2006"),
		Time:          appointment.AppointmentTime,
	}

	if clinic, err := s.clinicRepo.FindByID(ctx, s.db, appointment.ClinicID); err == nil && clinic != nil {
		event.ClinicName = clinic.Name
		event.ClinicEmail = clinic.Email
	}
	if appointment.DoctorID != nil {
		if doctor, err := s.clinicRepo.FindDoctorByID(ctx, s.db, appointment.ClinicID, *appointment.DoctorID); err == nil && doctor != nil {
			event.DoctorName = doctor.Name
			event.DoctorPhone = doctor.Phone
		}
	}
	return event
}

func (s *Service) audit(ctx context.Context, clinicID snowflake.ID, action string, targetID snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	actorType, actorID := actorFromContext(ctx)
	target := targetID.String()
	_ = s.auditSvc.AuditLog(ctx, &clinicID, actorType, actorID, action, "appointment", &target, metadata)
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

func buildFilter(req domain.ListAppointmentRequest) (domain.ListAppointmentFilter, error) {
	filter := domain.ListAppointmentFilter{
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status, ok := domain.ParseStatus(raw)
		if !ok {
			return domain.ListAppointmentFilter{}, domain.ErrValidation
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(req.DoctorID); raw != "" {
		doctorID, err := snowflake.ParseString(raw)
		if err != nil {
			return domain.ListAppointmentFilter{}, domain.ErrValidation
		}
		filter.DoctorID = doctorID
	}
	return filter, nil
}

func buildListResponse(items []*domain.Appointment, pageSize int32) domain.ListAppointmentResponse {
	pageInfo, _ := pagination.BuildCursorPageInfo(items, int(pageSize), func(appointment *domain.Appointment) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        appointment.ID.String(),
			CreatedAt: appointment.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	appointments := make([]domain.Appointment, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		appointments = append(appointments, *item)
	}

	resp := domain.ListAppointmentResponse{Appointments: appointments}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/perly101/purrfectpaw/internal/clinic/domain"
	"github.com/perly101/purrfectpaw/internal/cliniccontext"
	"github.com/perly101/purrfectpaw/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("clinic.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateClinicRequest) (domain.Clinic, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Clinic{}, domain.ErrInvalidName
	}

	now := time.Now().UTC()
	clinic := domain.Clinic{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      slug.Make(name),
		Address:   strings.TrimSpace(req.Address),
		Phone:     strings.TrimSpace(req.Phone),
		Email:     strings.TrimSpace(req.Email),
		Metadata:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Slugs are unique; disambiguate with the ID suffix when taken.
	existing, err := s.repo.FindBySlug(ctx, s.db, clinic.Slug)
	if err != nil {
		return domain.Clinic{}, err
	}
	if existing != nil {
		clinic.Slug = clinic.Slug + "-" + clinic.ID.String()
	}

	if err := s.repo.Insert(ctx, s.db, &clinic); err != nil {
		return domain.Clinic{}, err
	}
	return clinic, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateClinicRequest) (domain.Clinic, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return domain.Clinic{}, domain.ErrInvalidID
	}

	clinic, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Clinic{}, err
	}
	if clinic == nil {
		return domain.Clinic{}, domain.ErrNotFound
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		clinic.Name = name
	}
	if addr := strings.TrimSpace(req.Address); addr != "" {
		clinic.Address = addr
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		clinic.Phone = phone
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		clinic.Email = email
	}
	clinic.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, clinic); err != nil {
		return domain.Clinic{}, err
	}
	return *clinic, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetClinicRequest) (domain.Clinic, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return domain.Clinic{}, domain.ErrInvalidID
	}

	clinic, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Clinic{}, err
	}
	if clinic == nil {
		return domain.Clinic{}, domain.ErrNotFound
	}
	return *clinic, nil
}

func (s *Service) List(ctx context.Context, req domain.ListClinicRequest) (domain.ListClinicResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListClinicResponse{}, err
	}

	pageInfo, _ := pagination.BuildCursorPageInfo(items, int(pageSize), func(clinic *domain.Clinic) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        clinic.ID.String(),
			CreatedAt: clinic.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	clinics := make([]domain.Clinic, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		clinics = append(clinics, *item)
	}

	resp := domain.ListClinicResponse{Clinics: clinics}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) CreateDoctor(ctx context.Context, req domain.CreateDoctorRequest) (domain.Doctor, error) {
	clinicID, ok := cliniccontext.ClinicIDFromContext(ctx)
	if !ok || clinicID == 0 {
		return domain.Doctor{}, domain.ErrInvalidClinic
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Doctor{}, domain.ErrInvalidName
	}

	now := time.Now().UTC()
	doctor := domain.Doctor{
		ID:        s.genID.Generate(),
		ClinicID:  clinicID,
		Name:      name,
		Specialty: strings.TrimSpace(req.Specialty),
		Phone:     strings.TrimSpace(req.Phone),
		Email:     strings.TrimSpace(req.Email),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.InsertDoctor(ctx, s.db, &doctor); err != nil {
		return domain.Doctor{}, err
	}
	return doctor, nil
}

func (s *Service) UpdateDoctor(ctx context.Context, req domain.UpdateDoctorRequest) (domain.Doctor, error) {
	clinicID, ok := cliniccontext.ClinicIDFromContext(ctx)
	if !ok || clinicID == 0 {
		return domain.Doctor{}, domain.ErrInvalidClinic
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return domain.Doctor{}, domain.ErrInvalidID
	}

	doctor, err := s.repo.FindDoctorByID(ctx, s.db, clinicID, id)
	if err != nil {
		return domain.Doctor{}, err
	}
	if doctor == nil {
		return domain.Doctor{}, domain.ErrDoctorNotFound
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		doctor.Name = name
	}
	if specialty := strings.TrimSpace(req.Specialty); specialty != "" {
		doctor.Specialty = specialty
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		doctor.Phone = phone
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		doctor.Email = email
	}
	if req.Active != nil {
		doctor.Active = *req.Active
	}
	doctor.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateDoctor(ctx, s.db, doctor); err != nil {
		return domain.Doctor{}, err
	}
	return *doctor, nil
}

func (s *Service) GetDoctor(ctx context.Context, req domain.GetDoctorRequest) (domain.Doctor, error) {
	clinicID, ok := cliniccontext.ClinicIDFromContext(ctx)
	if !ok || clinicID == 0 {
		return domain.Doctor{}, domain.ErrInvalidClinic
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return domain.Doctor{}, domain.ErrInvalidID
	}

	doctor, err := s.repo.FindDoctorByID(ctx, s.db, clinicID, id)
	if err != nil {
		return domain.Doctor{}, err
	}
	if doctor == nil {
		return domain.Doctor{}, domain.ErrDoctorNotFound
	}
	return *doctor, nil
}

func (s *Service) ListDoctors(ctx context.Context, req domain.ListDoctorRequest) (domain.ListDoctorResponse, error) {
	clinicID, ok := cliniccontext.ClinicIDFromContext(ctx)
	if !ok || clinicID == 0 {
		return domain.ListDoctorResponse{}, domain.ErrInvalidClinic
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.ListDoctors(ctx, s.db, clinicID, req.ActiveOnly, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListDoctorResponse{}, err
	}

	pageInfo, _ := pagination.BuildCursorPageInfo(items, int(pageSize), func(doctor *domain.Doctor) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        doctor.ID.String(),
			CreatedAt: doctor.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	doctors := make([]domain.Doctor, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		doctors = append(doctors, *item)
	}

	resp := domain.ListDoctorResponse{Doctors: doctors}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) ListFormFields(ctx context.Context) ([]domain.FormField, error) {
	clinicID, ok := cliniccontext.ClinicIDFromContext(ctx)
	if !ok || clinicID == 0 {
		return nil, domain.ErrInvalidClinic
	}
	return s.repo.ListFormFields(ctx, s.db, clinicID)
}

func (s *Service) ReplaceFormFields(ctx context.Context, req domain.ReplaceFormFieldsRequest) ([]domain.FormField, error) {
	clinicID, ok := cliniccontext.ClinicIDFromContext(ctx)
	if !ok || clinicID == 0 {
		return nil, domain.ErrInvalidClinic
	}

	fields := make([]domain.FormField, 0, len(req.Fields))
	now := time.Now().UTC()
	for i, in := range req.Fields {
		label := strings.TrimSpace(in.Label)
		if label == "" {
			return nil, domain.ErrInvalidLabel
		}
		fieldType := strings.TrimSpace(in.FieldType)
		if fieldType == "" {
			fieldType = "text"
		}
		fields = append(fields, domain.FormField{
			ID:        s.genID.Generate(),
			ClinicID:  clinicID,
			Label:     label,
			FieldType: fieldType,
			Required:  in.Required,
			Position:  i,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.DeleteFormFields(ctx, tx, clinicID); err != nil {
			return err
		}
		for i := range fields {
			if err := s.repo.InsertFormField(ctx, tx, &fields[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fields, nil
}

func (s *Service) GetBySlug(ctx context.Context, slugValue string) (domain.Clinic, error) {
	slugValue = strings.TrimSpace(slugValue)
	if slugValue == "" {
		return domain.Clinic{}, domain.ErrInvalidID
	}

	clinic, err := s.repo.FindBySlug(ctx, s.db, slugValue)
	if err != nil {
		return domain.Clinic{}, err
	}
	if clinic == nil {
		return domain.Clinic{}, domain.ErrNotFound
	}
	return *clinic, nil
}

package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/perly101/purrfectpaw/internal/auth/domain"
	"github.com/perly101/purrfectpaw/internal/auth/password"
	"github.com/perly101/purrfectpaw/internal/clock"
	"github.com/perly101/purrfectpaw/internal/cliniccontext"
	"github.com/perly101/purrfectpaw/internal/phone"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const sessionTTL = 30 * 24 * time.Hour

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("auth.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) StaffLogin(ctx context.Context, req domain.StaffLoginRequest) (domain.LoginResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" {
		return domain.LoginResponse{}, domain.ErrInvalidUsername
	}

	staff, err := s.repo.FindStaffByUsername(ctx, s.db, username)
	if err != nil {
		return domain.LoginResponse{}, err
	}
	if staff == nil || !password.Verify(req.Password, staff.PasswordHash) {
		// same error for unknown account and bad password
		return domain.LoginResponse{}, domain.ErrInvalidCredentials
	}
	if !staff.Active {
		return domain.LoginResponse{}, domain.ErrStaffDisabled
	}

	return s.issueSession(ctx, domain.SubjectStaff, staff.ID, staff.ClinicID, req.UserAgent, req.IPAddress)
}

func (s *Service) IssueUserSession(ctx context.Context, req domain.IssueUserSessionRequest) (domain.LoginResponse, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.UserID))
	if err != nil {
		return domain.LoginResponse{}, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindUserByID(ctx, s.db, id)
	if err != nil {
		return domain.LoginResponse{}, err
	}
	if user == nil {
		return domain.LoginResponse{}, domain.ErrInvalidCredentials
	}

	return s.issueSession(ctx, domain.SubjectUser, user.ID, user.ClinicID, req.UserAgent, req.IPAddress)
}

func (s *Service) issueSession(ctx context.Context, subjectType domain.SubjectType, subjectID, clinicID snowflake.ID, userAgent, ipAddress string) (domain.LoginResponse, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return domain.LoginResponse{}, err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	now := s.clock.Now()
	session := domain.Session{
		ID:               s.genID.Generate(),
		SubjectType:      subjectType,
		SubjectID:        subjectID,
		ClinicID:         clinicID,
		SessionTokenHash: hashToken(token),
		UserAgent:        userAgent,
		IPAddress:        ipAddress,
		ExpiresAt:        now.Add(sessionTTL),
		CreatedAt:        now,
		LastSeenAt:       now,
	}
	if err := s.repo.InsertSession(ctx, s.db, &session); err != nil {
		return domain.LoginResponse{}, err
	}

	return domain.LoginResponse{Token: token, ExpiresAt: session.ExpiresAt}, nil
}

func (s *Service) Authenticate(ctx context.Context, token string) (domain.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Principal{}, domain.ErrSessionNotFound
	}

	session, err := s.repo.FindSessionByTokenHash(ctx, s.db, hashToken(token))
	if err != nil {
		return domain.Principal{}, err
	}
	if session == nil || session.RevokedAt != nil {
		return domain.Principal{}, domain.ErrSessionNotFound
	}
	if s.clock.Now().After(session.ExpiresAt) {
		return domain.Principal{}, domain.ErrSessionExpired
	}

	principal := domain.Principal{
		Type:     session.SubjectType,
		ID:       session.SubjectID,
		ClinicID: session.ClinicID,
	}

	switch session.SubjectType {
	case domain.SubjectStaff:
		staff, err := s.repo.FindStaffByID(ctx, s.db, session.SubjectID)
		if err != nil {
			return domain.Principal{}, err
		}
		if staff == nil || !staff.Active {
			return domain.Principal{}, domain.ErrSessionNotFound
		}
		principal.Role = staff.Role
		principal.Name = staff.Name
	case domain.SubjectUser:
		user, err := s.repo.FindUserByID(ctx, s.db, session.SubjectID)
		if err != nil {
			return domain.Principal{}, err
		}
		if user == nil {
			return domain.Principal{}, domain.ErrSessionNotFound
		}
		principal.Name = user.Name
	default:
		return domain.Principal{}, domain.ErrSessionNotFound
	}

	if err := s.repo.TouchSession(ctx, s.db, session.ID); err != nil {
		s.log.Warn("touch session", zap.Error(err))
	}
	return principal, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	session, err := s.repo.FindSessionByTokenHash(ctx, s.db, hashToken(token))
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	return s.repo.RevokeSession(ctx, s.db, session.ID)
}

func (s *Service) FindOrCreateUser(ctx context.Context, rawPhone, name string) (domain.User, error) {
	clinicID, ok := cliniccontext.ClinicIDFromContext(ctx)
	if !ok || clinicID == 0 {
		return domain.User{}, domain.ErrInvalidClinic
	}

	normalized, err := phone.Normalize(rawPhone)
	if err != nil {
		return domain.User{}, domain.ErrInvalidPhone
	}

	user, err := s.repo.FindUserByPhone(ctx, s.db, clinicID, normalized)
	if err != nil {
		return domain.User{}, err
	}
	if user != nil {
		return *user, nil
	}

	now := s.clock.Now()
	created := domain.User{
		ID:        s.genID.Generate(),
		ClinicID:  clinicID,
		Phone:     normalized,
		Name:      strings.TrimSpace(name),
		Metadata:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertUser(ctx, s.db, &created); err != nil {
		return domain.User{}, err
	}
	return created, nil
}

func (s *Service) CreateStaff(ctx context.Context, req domain.CreateStaffRequest) (domain.Staff, error) {
	clinicID, ok := cliniccontext.ClinicIDFromContext(ctx)
	if !ok || clinicID == 0 {
		return domain.Staff{}, domain.ErrInvalidClinic
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" {
		return domain.Staff{}, domain.ErrInvalidUsername
	}
	if strings.TrimSpace(req.Password) == "" {
		return domain.Staff{}, domain.ErrInvalidCredentials
	}

	role := req.Role
	switch role {
	case domain.RoleOwner, domain.RoleAdmin, domain.RoleStaff:
	default:
		role = domain.RoleStaff
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return domain.Staff{}, err
	}

	now := s.clock.Now()
	staff := domain.Staff{
		ID:           s.genID.Generate(),
		ClinicID:     clinicID,
		Username:     username,
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hashed,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.InsertStaff(ctx, s.db, &staff); err != nil {
		return domain.Staff{}, err
	}
	return staff, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/perly101/purrfectpaw/internal/auth/domain"
	"github.com/perly101/purrfectpaw/internal/clock"
	"github.com/perly101/purrfectpaw/internal/cliniccontext"
	"github.com/perly101/purrfectpaw/internal/otp/domain"
	"github.com/perly101/purrfectpaw/internal/phone"
	"github.com/perly101/purrfectpaw/internal/providers/sms"
	"github.com/perly101/purrfectpaw/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	codeTTL     = 10 * time.Minute
	maxAttempts = 5
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Sender  sms.Provider
	Limiter *ratelimit.OTPLimiter
	AuthSvc authdomain.Service
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	sender  sms.Provider
	limiter *ratelimit.OTPLimiter
	authSvc authdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("otp.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		sender:  p.Sender,
		limiter: p.Limiter,
		authSvc: p.AuthSvc,
	}
}

func (s *Service) Issue(ctx context.Context, req domain.IssueRequest) error {
	clinicID, ok := cliniccontext.ClinicIDFromContext(ctx)
	if !ok || clinicID == 0 {
		return domain.ErrInvalidClinic
	}

	normalized, err := phone.Normalize(req.Phone)
	if err != nil {
		return domain.ErrInvalidPhone
	}

	result, err := s.limiter.AllowIssue(ctx, normalized)
	if err != nil {
		s.log.Warn("otp issue limiter unavailable", zap.Error(err))
	} else if !result.Allowed {
		return domain.ErrRateLimited
	}

	code, err := generateCode()
	if err != nil {
		return err
	}

	now := s.clock.Now()
	record := domain.OTPCode{
		ID:        s.genID.Generate(),
		ClinicID:  clinicID,
		Phone:     normalized,
		CodeHash:  hashCode(code),
		ExpiresAt: now.Add(codeTTL),
		CreatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return err
	}

	message := fmt.Sprintf("Your login code is %s. It expires in 10 minutes. Do not share it.", code)
	if err := s.sender.Send(ctx, normalized, message); err != nil {
		s.log.Warn("otp delivery failed", zap.Error(err))
		return domain.ErrSendFailed
	}
	return nil
}

func (s *Service) Verify(ctx context.Context, req domain.VerifyRequest) (authdomain.LoginResponse, error) {
	clinicID, ok := cliniccontext.ClinicIDFromContext(ctx)
	if !ok || clinicID == 0 {
		return authdomain.LoginResponse{}, domain.ErrInvalidClinic
	}

	normalized, err := phone.Normalize(req.Phone)
	if err != nil {
		return authdomain.LoginResponse{}, domain.ErrInvalidPhone
	}

	code := strings.TrimSpace(req.Code)
	if len(code) != 6 {
		return authdomain.LoginResponse{}, domain.ErrInvalidCode
	}

	result, err := s.limiter.AllowVerify(ctx, normalized)
	if err != nil {
		s.log.Warn("otp verify limiter unavailable", zap.Error(err))
	} else if !result.Allowed {
		return authdomain.LoginResponse{}, domain.ErrRateLimited
	}

	var record domain.OTPCode
	err = s.db.WithContext(ctx).
		Where("clinic_id = ? AND phone = ? AND consumed_at IS NULL", clinicID, normalized).
		Order("created_at desc").
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return authdomain.LoginResponse{}, domain.ErrInvalidCode
		}
		return authdomain.LoginResponse{}, err
	}

	now := s.clock.Now()
	if now.After(record.ExpiresAt) {
		return authdomain.LoginResponse{}, domain.ErrCodeExpired
	}
	if record.Attempts >= maxAttempts {
		return authdomain.LoginResponse{}, domain.ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(hashCode(code)), []byte(record.CodeHash)) != 1 {
		if err := s.db.WithContext(ctx).
			Model(&domain.OTPCode{}).
			Where("id = ?", record.ID).
			Update("attempts", gorm.Expr("attempts + 1")).Error; err != nil {
			s.log.Warn("otp attempt counter update failed", zap.Error(err))
		}
		return authdomain.LoginResponse{}, domain.ErrInvalidCode
	}

	if err := s.db.WithContext(ctx).
		Model(&domain.OTPCode{}).
		Where("id = ? AND consumed_at IS NULL", record.ID).
		Update("consumed_at", now).Error; err != nil {
		return authdomain.LoginResponse{}, err
	}

	user, err := s.authSvc.FindOrCreateUser(ctx, normalized, req.Name)
	if err != nil {
		return authdomain.LoginResponse{}, err
	}

	return s.authSvc.IssueUserSession(ctx, authdomain.IssueUserSessionRequest{
		UserID:    user.ID.String(),
		UserAgent: req.UserAgent,
		IPAddress: req.IPAddress,
	})
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

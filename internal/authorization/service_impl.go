package authorization

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/perly101/purrfectpaw/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectAppointment = "appointment"
	ObjectPayment     = "payment"
	ObjectReceipt     = "receipt"
	ObjectReport      = "report"
	ObjectDoctor      = "doctor"
	ObjectClinic      = "clinic"
	ObjectStaff       = "staff"
	ObjectFormField   = "form_field"
	ObjectAuditLog    = "audit_log"
)

const (
	ActionAppointmentView     = "appointment.view"
	ActionAppointmentCreate   = "appointment.create"
	ActionAppointmentAssign   = "appointment.assign"
	ActionAppointmentConfirm  = "appointment.confirm"
	ActionAppointmentComplete = "appointment.complete"
	ActionAppointmentClose    = "appointment.close"
	ActionAppointmentCancel   = "appointment.cancel"

	ActionPaymentSettle = "payment.settle"

	ActionReceiptView = "receipt.view"

	ActionReportView = "report.view"

	ActionDoctorView   = "doctor.view"
	ActionDoctorCreate = "doctor.create"
	ActionDoctorUpdate = "doctor.update"

	ActionClinicUpdate = "clinic.update"

	ActionStaffCreate = "staff.create"

	ActionFormFieldManage = "form_field.manage"

	ActionAuditLogView = "audit_log.view"
)

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidClinic = errors.New("invalid_clinic")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)

// Service authorizes staff actions against clinic-scoped objects.
type Service interface {
	Authorize(ctx context.Context, actor string, clinicID string, object string, action string) error
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, clinicID string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	clinicID = strings.TrimSpace(clinicID)
	if clinicID == "" {
		return ErrInvalidClinic
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject, roleName, actorType, actorID, err := s.resolveActor(ctx, actor)
	if err != nil {
		s.auditDenied(ctx, actorType, actorID, clinicID, object, action)
		return err
	}

	dom := fmt.Sprintf("clinic:%s", clinicID)
	if err := s.ensureGrouping(subject, roleName, dom); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, dom, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, actorType, actorID, clinicID, object, action)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) resolveActor(ctx context.Context, actor string) (string, string, string, *string, error) {
	if actor == "system" {
		return actor, "role:system", "system", nil, nil
	}
	if strings.HasPrefix(actor, "staff:") {
		staffIDRaw := strings.TrimPrefix(actor, "staff:")
		staffID, err := snowflake.ParseString(staffIDRaw)
		if err != nil || staffID == 0 {
			return "", "", "", nil, ErrInvalidActor
		}
		staffIDStr := staffID.String()
		role, err := s.roleForStaff(ctx, staffID)
		if err != nil {
			return actor, "", "staff", &staffIDStr, err
		}
		return actor, fmt.Sprintf("role:%s", strings.ToLower(role)), "staff", &staffIDStr, nil
	}
	return "", "", "", nil, ErrInvalidActor
}

func (s *ServiceImpl) roleForStaff(ctx context.Context, staffID snowflake.ID) (string, error) {
	var row struct {
		Role string `gorm:"column:role"`
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT role
		 FROM staff
		 WHERE id = ? AND active = ?
		 LIMIT 1`,
		staffID,
		true,
	).Scan(&row).Error; err != nil {
		return "", err
	}

	role := strings.TrimSpace(row.Role)
	if role == "" {
		return "", ErrForbidden
	}
	return role, nil
}

func (s *ServiceImpl) ensureGrouping(subject string, roleName string, dom string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", dom)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, dom)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, dom)
	return err
}

func (s *ServiceImpl) auditDenied(ctx context.Context, actorType string, actorID *string, clinicID string, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	parsedClinicID, err := snowflake.ParseString(clinicID)
	if err != nil || parsedClinicID == 0 {
		return
	}
	targetID := "capability"
	_ = s.auditSvc.AuditLog(ctx, &parsedClinicID, actorType, actorID, "authorization.denied", "authorization", &targetID, map[string]any{
		"object": object,
		"action": action,
		"actor":  actorType,
	})
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Front-desk staff run the appointment book and take payments.
		{"role:staff", ObjectAppointment, ActionAppointmentView},
		{"role:staff", ObjectAppointment, ActionAppointmentCreate},
		{"role:staff", ObjectAppointment, ActionAppointmentAssign},
		{"role:staff", ObjectAppointment, ActionAppointmentConfirm},
		{"role:staff", ObjectAppointment, ActionAppointmentComplete},
		{"role:staff", ObjectAppointment, ActionAppointmentClose},
		{"role:staff", ObjectAppointment, ActionAppointmentCancel},
		{"role:staff", ObjectPayment, ActionPaymentSettle},
		{"role:staff", ObjectReceipt, ActionReceiptView},
		{"role:staff", ObjectDoctor, ActionDoctorView},

		// Admins additionally manage doctors, forms and reports.
		{"role:admin", ObjectAppointment, ActionAppointmentView},
		{"role:admin", ObjectAppointment, ActionAppointmentCreate},
		{"role:admin", ObjectAppointment, ActionAppointmentAssign},
		{"role:admin", ObjectAppointment, ActionAppointmentConfirm},
		{"role:admin", ObjectAppointment, ActionAppointmentComplete},
		{"role:admin", ObjectAppointment, ActionAppointmentClose},
		{"role:admin", ObjectAppointment, ActionAppointmentCancel},
		{"role:admin", ObjectPayment, ActionPaymentSettle},
		{"role:admin", ObjectReceipt, ActionReceiptView},
		{"role:admin", ObjectReport, ActionReportView},
		{"role:admin", ObjectDoctor, ActionDoctorView},
		{"role:admin", ObjectDoctor, ActionDoctorCreate},
		{"role:admin", ObjectDoctor, ActionDoctorUpdate},
		{"role:admin", ObjectFormField, ActionFormFieldManage},
		{"role:admin", ObjectAuditLog, ActionAuditLogView},

		// Clinic owners can also manage the clinic and its staff.
		{"role:owner", ObjectAppointment, ActionAppointmentView},
		{"role:owner", ObjectAppointment, ActionAppointmentCreate},
		{"role:owner", ObjectAppointment, ActionAppointmentAssign},
		{"role:owner", ObjectAppointment, ActionAppointmentConfirm},
		{"role:owner", ObjectAppointment, ActionAppointmentComplete},
		{"role:owner", ObjectAppointment, ActionAppointmentClose},
		{"role:owner", ObjectAppointment, ActionAppointmentCancel},
		{"role:owner", ObjectPayment, ActionPaymentSettle},
		{"role:owner", ObjectReceipt, ActionReceiptView},
		{"role:owner", ObjectReport, ActionReportView},
		{"role:owner", ObjectDoctor, ActionDoctorView},
		{"role:owner", ObjectDoctor, ActionDoctorCreate},
		{"role:owner", ObjectDoctor, ActionDoctorUpdate},
		{"role:owner", ObjectClinic, ActionClinicUpdate},
		{"role:owner", ObjectStaff, ActionStaffCreate},
		{"role:owner", ObjectFormField, ActionFormFieldManage},
		{"role:owner", ObjectAuditLog, ActionAuditLogView},

		// Automated processes.
		{"role:system", ObjectAppointment, ActionAppointmentView},
		{"role:system", ObjectAppointment, ActionAppointmentClose},
		{"role:system", ObjectReceipt, ActionReceiptView},
	}

	for _, policy := range policies {
		if len(policy) != 3 {
			continue
		}
		has, err := enforcer.HasPolicy(policy[0], policy[1], policy[2])
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy[0], policy[1], policy[2]); err != nil {
			return err
		}
	}
	return nil
}

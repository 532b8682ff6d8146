package migration

import (
	appointmentdomain "github.com/perly101/purrfectpaw/internal/appointment/domain"
	auditdomain "github.com/perly101/purrfectpaw/internal/audit/domain"
	authdomain "github.com/perly101/purrfectpaw/internal/auth/domain"
	clinicdomain "github.com/perly101/purrfectpaw/internal/clinic/domain"
	"github.com/perly101/purrfectpaw/internal/config"
	otpdomain "github.com/perly101/purrfectpaw/internal/otp/domain"
	paymentdomain "github.com/perly101/purrfectpaw/internal/payment/domain"
	"github.com/perly101/purrfectpaw/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if conn.Dialector.Name() == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite and other dev dialects skip the versioned SQL
			// and let gorm build the schema directly.
			if err := conn.AutoMigrate(
				&clinicdomain.Clinic{},
				&clinicdomain.Doctor{},
				&clinicdomain.FormField{},
				&authdomain.User{},
				&authdomain.Staff{},
				&authdomain.Session{},
				&appointmentdomain.Appointment{},
				&appointmentdomain.FieldResponse{},
				&paymentdomain.Receipt{},
				&otpdomain.OTPCode{},
				&auditdomain.AuditLog{},
			); err != nil {
				return err
			}
		}

		if cfg.DefaultClinicID != 0 {
			if err := seed.EnsureMainClinicWithID(conn, cfg.DefaultClinicID); err != nil {
				return err
			}
		} else {
			if err := seed.EnsureMainClinic(conn); err != nil {
				return err
			}
		}
		if cfg.BootstrapDefaultAdmin {
			return seed.EnsureMainClinicAndAdmin(conn)
		}
		return nil
	}),
)

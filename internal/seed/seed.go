package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/perly101/purrfectpaw/internal/auth/domain"
	"github.com/perly101/purrfectpaw/internal/auth/password"
	clinicdomain "github.com/perly101/purrfectpaw/internal/clinic/domain"
	"gorm.io/gorm"
)

const (
	defaultClinicName    = "Main"
	defaultClinicSlug    = "main"
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin"
	defaultAdminDisplay  = "Clinic Admin"
)

// EnsureMainClinic seeds the default clinic for startup bootstrap.
func EnsureMainClinic(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clinic, err := ensureMainClinicTx(ctx, tx, node, 0)
		if err != nil {
			return err
		}
		return ensureBookingFormTx(ctx, tx, node, clinic.ID)
	})
}

// EnsureMainClinicWithID seeds the default clinic under a fixed ID so
// existing rows keep resolving after a redeploy.
func EnsureMainClinicWithID(db *gorm.DB, id int64) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clinic, err := ensureMainClinicTx(ctx, tx, node, snowflake.ID(id))
		if err != nil {
			return err
		}
		return ensureBookingFormTx(ctx, tx, node, clinic.ID)
	})
}

// EnsureMainClinicAndAdmin seeds the default clinic and admin staff
// account for self-hosted mode.
func EnsureMainClinicAndAdmin(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clinic, err := ensureMainClinicTx(ctx, tx, node, 0)
		if err != nil {
			return err
		}

		var staff authdomain.Staff
		err = tx.WithContext(ctx).
			Where("username = ?", defaultAdminUsername).
			First(&staff).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			hashed, err := password.Hash(defaultAdminPassword)
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			staff = authdomain.Staff{
				ID:           node.Generate(),
				ClinicID:     clinic.ID,
				Username:     defaultAdminUsername,
				Name:         defaultAdminDisplay,
				PasswordHash: hashed,
				Role:         authdomain.RoleOwner,
				Active:       true,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.WithContext(ctx).Create(&staff).Error; err != nil {
				return err
			}
		}

		return ensureBookingFormTx(ctx, tx, node, clinic.ID)
	})
}

func ensureMainClinicTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, id snowflake.ID) (clinicdomain.Clinic, error) {
	var clinic clinicdomain.Clinic
	err := tx.WithContext(ctx).Where("slug = ?", defaultClinicSlug).First(&clinic).Error
	if err == nil {
		return clinic, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return clinic, err
	}
	if id == 0 {
		id = node.Generate()
	}
	now := time.Now().UTC()
	clinic = clinicdomain.Clinic{
		ID:        id,
		Name:      defaultClinicName,
		Slug:      defaultClinicSlug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&clinic).Error; err != nil {
		return clinic, err
	}
	return clinic, nil
}

func ensureBookingFormTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, clinicID snowflake.ID) error {
	var count int64
	if err := tx.WithContext(ctx).
		Model(&clinicdomain.FormField{}).
		Where("clinic_id = ?", clinicID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	type field struct {
		Label     string
		FieldType string
		Required  bool
	}

	fields := []field{
		{"Pet species", "text", true},
		{"Pet breed", "text", false},
		{"Reason for visit", "textarea", true},
	}

	now := time.Now().UTC()
	for i, f := range fields {
		row := clinicdomain.FormField{
			ID:        node.Generate(),
			ClinicID:  clinicID,
			Label:     f.Label,
			FieldType: f.FieldType,
			Required:  f.Required,
			Position:  i,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

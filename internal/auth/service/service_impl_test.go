package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/perly101/purrfectpaw/internal/auth/domain"
	"github.com/perly101/purrfectpaw/internal/auth/repository"
	"github.com/perly101/purrfectpaw/internal/clock"
	"github.com/perly101/purrfectpaw/internal/cliniccontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	clk      *clock.FakeClock
	svc      domain.Service
	clinicID snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&domain.User{},
		&domain.Staff{},
		&domain.Session{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  repository.Provide(),
	})

	return &fixture{db: conn, node: node, clk: clk, svc: svc, clinicID: node.Generate()}
}

func (f *fixture) ctx() context.Context {
	return cliniccontext.WithClinicID(context.Background(), f.clinicID)
}

func (f *fixture) seedStaff(t *testing.T, username, pass string, role domain.StaffRole) domain.Staff {
	staff, err := f.svc.CreateStaff(f.ctx(), domain.CreateStaffRequest{
		Username: username,
		Name:     "Ana Reyes",
		Password: pass,
		Role:     role,
	})
	require.NoError(t, err)
	return staff
}

func TestStaffLogin_IssuesAuthenticatableSession(t *testing.T) {
	f := newFixture(t)
	staff := f.seedStaff(t, "ana", "s3cret", domain.RoleAdmin)

	resp, err := f.svc.StaffLogin(f.ctx(), domain.StaffLoginRequest{
		Username: " Ana ", // case and whitespace are forgiven
		Password: "s3cret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.True(t, resp.ExpiresAt.After(f.clk.Now()))

	principal, err := f.svc.Authenticate(f.ctx(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.SubjectStaff, principal.Type)
	assert.Equal(t, staff.ID, principal.ID)
	assert.Equal(t, f.clinicID, principal.ClinicID)
	assert.Equal(t, domain.RoleAdmin, principal.Role)
	assert.Equal(t, "Ana Reyes", principal.Name)
}

func TestStaffLogin_RejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	f.seedStaff(t, "ana", "s3cret", domain.RoleStaff)

	_, err := f.svc.StaffLogin(f.ctx(), domain.StaffLoginRequest{
		Username: "ana", Password: "wrong",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	// unknown accounts fail the same way as bad passwords
	_, err = f.svc.StaffLogin(f.ctx(), domain.StaffLoginRequest{
		Username: "nobody", Password: "s3cret",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestStaffLogin_RejectsDisabledAccount(t *testing.T) {
	f := newFixture(t)
	staff := f.seedStaff(t, "ana", "s3cret", domain.RoleStaff)
	require.NoError(t, f.db.Model(&domain.Staff{}).
		Where("id = ?", staff.ID).Update("active", false).Error)

	_, err := f.svc.StaffLogin(f.ctx(), domain.StaffLoginRequest{
		Username: "ana", Password: "s3cret",
	})
	assert.ErrorIs(t, err, domain.ErrStaffDisabled)
}

func TestAuthenticate_ExpiredSession(t *testing.T) {
	f := newFixture(t)
	f.seedStaff(t, "ana", "s3cret", domain.RoleStaff)

	resp, err := f.svc.StaffLogin(f.ctx(), domain.StaffLoginRequest{
		Username: "ana", Password: "s3cret",
	})
	require.NoError(t, err)

	f.clk.Advance(31 * 24 * time.Hour)
	_, err = f.svc.Authenticate(f.ctx(), resp.Token)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestLogout_RevokesSession(t *testing.T) {
	f := newFixture(t)
	f.seedStaff(t, "ana", "s3cret", domain.RoleStaff)

	resp, err := f.svc.StaffLogin(f.ctx(), domain.StaffLoginRequest{
		Username: "ana", Password: "s3cret",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(f.ctx(), resp.Token))
	_, err = f.svc.Authenticate(f.ctx(), resp.Token)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// unknown tokens revoke to nothing without complaint
	assert.NoError(t, f.svc.Logout(f.ctx(), "no-such-token"))
	assert.NoError(t, f.svc.Logout(f.ctx(), ""))
}

func TestFindOrCreateUser_ReusesAccountByNormalizedPhone(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.FindOrCreateUser(f.ctx(), "0917 123 4567", "Maria Cruz")
	require.NoError(t, err)
	assert.Equal(t, "+639171234567", created.Phone)
	assert.Equal(t, f.clinicID, created.ClinicID)

	found, err := f.svc.FindOrCreateUser(f.ctx(), "+639171234567", "Maria C.")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	var count int64
	require.NoError(t, f.db.Model(&domain.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = f.svc.FindOrCreateUser(f.ctx(), "12345", "Maria Cruz")
	assert.ErrorIs(t, err, domain.ErrInvalidPhone)
}

func TestCreateStaff_DefaultsInvalidRole(t *testing.T) {
	f := newFixture(t)

	staff, err := f.svc.CreateStaff(f.ctx(), domain.CreateStaffRequest{
		Username: "Ben",
		Name:     "Ben Ocampo",
		Password: "s3cret",
		Role:     domain.StaffRole("superuser"),
	})
	require.NoError(t, err)
	assert.Equal(t, "ben", staff.Username)
	assert.Equal(t, domain.RoleStaff, staff.Role)
	assert.True(t, staff.Active)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	clinicdomain "github.com/perly101/purrfectpaw/internal/clinic/domain"
	clinicrepository "github.com/perly101/purrfectpaw/internal/clinic/repository"
	"github.com/perly101/purrfectpaw/internal/clock"
	"github.com/perly101/purrfectpaw/internal/cliniccontext"
	"github.com/perly101/purrfectpaw/internal/config"
	paymentdomain "github.com/perly101/purrfectpaw/internal/payment/domain"
	paymentrepository "github.com/perly101/purrfectpaw/internal/payment/repository"
	"github.com/perly101/purrfectpaw/internal/report/domain"
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
		&clinicdomain.Clinic{},
		&paymentdomain.Receipt{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, time.March, 20, 18, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:           conn,
		Log:          zap.NewNop(),
		Clock:        clk,
		ReceiptRepo:  paymentrepository.Provide(),
		ClinicRepo:   clinicrepository.Provide(),
		MessagingCfg: config.NewStaticMessagingConfigHolder(config.DefaultMessagingConfig()),
	})

	clinicID := node.Generate()
	require.NoError(t, conn.Create(&clinicdomain.Clinic{
		ID:   clinicID,
		Name: "Purrfect Paw Main",
		Slug: "main",
	}).Error)

	return &fixture{db: conn, node: node, clk: clk, svc: svc, clinicID: clinicID}
}

func (f *fixture) ctx() context.Context {
	return cliniccontext.WithClinicID(context.Background(), f.clinicID)
}

var seqCounter int

func (f *fixture) seedReceipt(t *testing.T, paidAt time.Time, amount int64, method, service string) paymentdomain.Receipt {
	seqCounter++
	receipt := paymentdomain.Receipt{
		ID:            f.node.Generate(),
		ReceiptNumber: f.node.Generate().String(),
		Year:          paidAt.Year(),
		SequenceNo:    seqCounter,
		AppointmentID: f.node.Generate(),
		ClinicID:      f.clinicID,
		PatientName:   "Maria Cruz",
		DoctorName:    "Dr. Santos",
		Service:       service,
		Amount:        amount,
		PaymentMethod: method,
		PaymentDate:   paidAt,
		CreatedAt:     paidAt,
	}
	require.NoError(t, f.db.Create(&receipt).Error)
	return receipt
}

func TestGenerate_DailySummary(t *testing.T) {
	f := newFixture(t)
	day := time.Date(2026, time.March, 18, 0, 0, 0, 0, time.UTC)

	f.seedReceipt(t, day.Add(9*time.Hour), 50000, "cash", "Vaccination")
	f.seedReceipt(t, day.Add(14*time.Hour), 120000, "gcash", "Surgery")
	// outside the window
	f.seedReceipt(t, day.AddDate(0, 0, 1).Add(2*time.Hour), 99900, "cash", "Checkup")

	report, err := f.svc.Generate(f.ctx(), domain.GenerateReportRequest{
		Type: "daily",
		Date: "2026-03-18",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(170000), report.Summary.TotalRevenue)
	assert.Equal(t, 2, report.Summary.TransactionCount)
	assert.Equal(t, int64(85000), report.Summary.AverageAmount)
	assert.Equal(t, "Purrfect Paw Main", report.ClinicName)
	require.Len(t, report.Receipts, 2)

	// transactions are listed oldest first
	assert.Equal(t, int64(50000), report.Receipts[0].Amount)
	assert.Equal(t, int64(120000), report.Receipts[1].Amount)
}

func TestGenerate_DailyEqualsSingleDayCustom(t *testing.T) {
	f := newFixture(t)
	day := time.Date(2026, time.March, 18, 0, 0, 0, 0, time.UTC)
	f.seedReceipt(t, day.Add(9*time.Hour), 50000, "cash", "Vaccination")
	f.seedReceipt(t, day.Add(16*time.Hour), 30000, "cash", "Grooming")

	daily, err := f.svc.Generate(f.ctx(), domain.GenerateReportRequest{
		Type: "daily", Date: "2026-03-18",
	})
	require.NoError(t, err)

	custom, err := f.svc.Generate(f.ctx(), domain.GenerateReportRequest{
		Type: "custom", Start: "2026-03-18", End: "2026-03-18",
	})
	require.NoError(t, err)

	assert.Equal(t, daily.Summary, custom.Summary)
	assert.Equal(t, len(daily.Receipts), len(custom.Receipts))
}

func TestGenerate_WindowTotalsAreAdditive(t *testing.T) {
	f := newFixture(t)
	for dayOffset := 0; dayOffset < 3; dayOffset++ {
		day := time.Date(2026, time.March, 16+dayOffset, 0, 0, 0, 0, time.UTC)
		f.seedReceipt(t, day.Add(10*time.Hour), int64(10000*(dayOffset+1)), "cash", "Checkup")
	}

	var dailySum int64
	for _, date := range []string{"2026-03-16", "2026-03-17", "2026-03-18"} {
		report, err := f.svc.Generate(f.ctx(), domain.GenerateReportRequest{
			Type: "daily", Date: date,
		})
		require.NoError(t, err)
		dailySum += report.Summary.TotalRevenue
	}

	window, err := f.svc.Generate(f.ctx(), domain.GenerateReportRequest{
		Type: "custom", Start: "2026-03-16", End: "2026-03-18",
	})
	require.NoError(t, err)
	assert.Equal(t, dailySum, window.Summary.TotalRevenue)
	assert.Equal(t, 3, window.Summary.TransactionCount)
}

func TestGenerate_MonthlyWindowExcludesNextMonth(t *testing.T) {
	f := newFixture(t)
	f.seedReceipt(t, time.Date(2026, time.February, 28, 23, 0, 0, 0, time.UTC), 50000, "cash", "Checkup")
	f.seedReceipt(t, time.Date(2026, time.March, 1, 0, 30, 0, 0, time.UTC), 70000, "cash", "Checkup")

	report, err := f.svc.Generate(f.ctx(), domain.GenerateReportRequest{
		Type: "monthly", Month: 2, Year: 2026,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50000), report.Summary.TotalRevenue)
	assert.Equal(t, 1, report.Summary.TransactionCount)
}

func TestGenerate_BucketsByMethodAndService(t *testing.T) {
	f := newFixture(t)
	day := time.Date(2026, time.March, 18, 0, 0, 0, 0, time.UTC)
	f.seedReceipt(t, day.Add(9*time.Hour), 50000, "cash", "Vaccination")
	f.seedReceipt(t, day.Add(10*time.Hour), 30000, "cash", "Grooming")
	f.seedReceipt(t, day.Add(11*time.Hour), 120000, "gcash", "Vaccination")

	report, err := f.svc.Generate(f.ctx(), domain.GenerateReportRequest{
		Type: "daily", Date: "2026-03-18",
	})
	require.NoError(t, err)

	require.Len(t, report.ByMethod, 2)
	assert.Equal(t, domain.Bucket{Label: "Cash", Count: 2, Subtotal: 80000}, report.ByMethod[0])
	assert.Equal(t, domain.Bucket{Label: "GCash", Count: 1, Subtotal: 120000}, report.ByMethod[1])

	require.Len(t, report.ByService, 2)
	assert.Equal(t, domain.Bucket{Label: "Vaccination", Count: 2, Subtotal: 170000}, report.ByService[0])
	assert.Equal(t, domain.Bucket{Label: "Grooming", Count: 1, Subtotal: 30000}, report.ByService[1])

	// bucket subtotals add back up to the grand total
	var methodSum int64
	for _, bucket := range report.ByMethod {
		methodSum += bucket.Subtotal
	}
	assert.Equal(t, report.Summary.TotalRevenue, methodSum)
}

func TestGenerate_ValidatesInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Generate(f.ctx(), domain.GenerateReportRequest{Type: "quarterly"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Generate(f.ctx(), domain.GenerateReportRequest{Type: "daily", Date: "18/03/2026"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Generate(f.ctx(), domain.GenerateReportRequest{Type: "monthly", Month: 13})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Generate(f.ctx(), domain.GenerateReportRequest{
		Type: "custom", Start: "2026-03-18", End: "2026-03-10",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGenerate_RequiresClinicScope(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Generate(context.Background(), domain.GenerateReportRequest{Type: "daily"})
	assert.ErrorIs(t, err, domain.ErrInvalidClinic)
}

func TestRenderText_QuotesDelimiterFields(t *testing.T) {
	f := newFixture(t)
	day := time.Date(2026, time.March, 18, 0, 0, 0, 0, time.UTC)
	receipt := f.seedReceipt(t, day.Add(9*time.Hour), 50000, "cash", `Surgery, "major"`)
	require.NoError(t, f.db.Model(&paymentdomain.Receipt{}).
		Where("id = ?", receipt.ID).
		Update("patient_name", "Cruz, Maria").Error)

	report, err := f.svc.Generate(f.ctx(), domain.GenerateReportRequest{
		Type: "daily", Date: "2026-03-18",
	})
	require.NoError(t, err)

	text := f.svc.RenderText(report)
	assert.Contains(t, text, "DAILY REVENUE REPORT")
	assert.Contains(t, text, `"Cruz, Maria"`)
	assert.Contains(t, text, `"Surgery, ""major"""`)
	assert.Contains(t, text, "Total Revenue,PHP 500.00")
	assert.Contains(t, text, "Transactions,1")
	assert.NotContains(t, text, "Surgery, \"major\"\n")
}

func TestRenderText_SectionsPerType(t *testing.T) {
	f := newFixture(t)
	day := time.Date(2026, time.March, 18, 0, 0, 0, 0, time.UTC)
	f.seedReceipt(t, day.Add(9*time.Hour), 50000, "cash", "Checkup")

	daily, err := f.svc.Generate(f.ctx(), domain.GenerateReportRequest{
		Type: "daily", Date: "2026-03-18",
	})
	require.NoError(t, err)
	text := f.svc.RenderText(daily)
	assert.Contains(t, text, "BREAKDOWN BY HOUR")
	assert.Contains(t, text, "BREAKDOWN BY PAYMENT METHOD")
	assert.Contains(t, text, "BREAKDOWN BY SERVICE")
	assert.Contains(t, text, "DETAILED TRANSACTIONS")

	annual, err := f.svc.Generate(f.ctx(), domain.GenerateReportRequest{
		Type: "annual", Year: 2026,
	})
	require.NoError(t, err)
	assert.Contains(t, f.svc.RenderText(annual), "BREAKDOWN BY QUARTER")
}

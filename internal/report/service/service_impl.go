package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	clinicdomain "github.com/perly101/purrfectpaw/internal/clinic/domain"
	"github.com/perly101/purrfectpaw/internal/clock"
	"github.com/perly101/purrfectpaw/internal/cliniccontext"
	"github.com/perly101/purrfectpaw/internal/config"
	paymentdomain "github.com/perly101/purrfectpaw/internal/payment/domain"
	paymentservice "github.com/perly101/purrfectpaw/internal/payment/service"
	"github.com/perly101/purrfectpaw/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	ReceiptRepo  paymentdomain.Repository
	ClinicRepo   clinicdomain.Repository
	MessagingCfg *config.MessagingConfigHolder
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	receiptRepo  paymentdomain.Repository
	clinicRepo   clinicdomain.Repository
	messagingCfg *config.MessagingConfigHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("report.service"),
		clock:        p.Clock,
		receiptRepo:  p.ReceiptRepo,
		clinicRepo:   p.ClinicRepo,
		messagingCfg: p.MessagingCfg,
	}
}

func (s *Service) Generate(ctx context.Context, req domain.GenerateReportRequest) (domain.Report, error) {
	clinicID, ok := cliniccontext.ClinicIDFromContext(ctx)
	if !ok || clinicID == 0 {
		return domain.Report{}, domain.ErrInvalidClinic
	}

	reportType, valid := domain.ParseReportType(strings.TrimSpace(req.Type))
	if !valid {
		return domain.Report{}, domain.ErrValidation
	}

	start, end, err := s.resolveWindow(reportType, req)
	if err != nil {
		return domain.Report{}, err
	}

	receipts, err := s.receiptRepo.ListInWindow(ctx, s.db, clinicID, start, end)
	if err != nil {
		return domain.Report{}, err
	}

	report := domain.Report{
		Type:        reportType,
		Start:       start,
		End:         end,
		GeneratedAt: s.clock.Now(),
		Receipts:    receipts,
	}
	if clinic, err := s.clinicRepo.FindByID(ctx, s.db, clinicID); err == nil && clinic != nil {
		report.ClinicName = clinic.Name
	}

	var total int64
	for _, receipt := range receipts {
		total += receipt.Amount
	}
	report.Summary = domain.Summary{
		TotalRevenue:     total,
		TransactionCount: len(receipts),
	}
	if len(receipts) > 0 {
		report.Summary.AverageAmount = total / int64(len(receipts))
	}

	report.ByPeriod = groupBy(receipts, periodLabeler(reportType))
	report.ByMethod = groupBy(receipts, func(r paymentdomain.Receipt) string {
		return paymentservice.MethodLabel(r.PaymentMethod)
	})
	report.ByService = groupBy(receipts, func(r paymentdomain.Receipt) string {
		return r.Service
	})

	return report, nil
}

// resolveWindow turns the request into a half-open [start, end) range.
// Inputs name inclusive calendar days; the end day is extended to the
// following midnight.
func (s *Service) resolveWindow(reportType domain.ReportType, req domain.GenerateReportRequest) (time.Time, time.Time, error) {
	now := s.clock.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch reportType {
	case domain.ReportDaily:
		day := today
		if raw := strings.TrimSpace(req.Date); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return time.Time{}, time.Time{}, domain.ErrValidation
			}
			day = parsed
		}
		return day, day.AddDate(0, 0, 1), nil

	case domain.ReportWeekly:
		start := today.AddDate(0, 0, -6)
		end := today.AddDate(0, 0, 1)
		if rawStart, rawEnd := strings.TrimSpace(req.Start), strings.TrimSpace(req.End); rawStart != "" && rawEnd != "" {
			parsedStart, err := time.Parse("2006-01-02", rawStart)
			if err != nil {
				return time.Time{}, time.Time{}, domain.ErrValidation
			}
			parsedEnd, err := time.Parse("2006-01-02", rawEnd)
			if err != nil {
				return time.Time{}, time.Time{}, domain.ErrValidation
			}
			start = parsedStart
			end = parsedEnd.AddDate(0, 0, 1)
		}
		if !start.Before(end) {
			return time.Time{}, time.Time{}, domain.ErrValidation
		}
		return start, end, nil

	case domain.ReportMonthly:
		year, month := now.Year(), now.Month()
		if req.Year != 0 {
			year = req.Year
		}
		if req.Month != 0 {
			if req.Month < 1 || req.Month > 12 {
				return time.Time{}, time.Time{}, domain.ErrValidation
			}
			month = time.Month(req.Month)
		}
		start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0), nil

	case domain.ReportAnnual:
		year := now.Year()
		if req.Year != 0 {
			year = req.Year
		}
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, 0), nil

	case domain.ReportCustom:
		parsedStart, err := time.Parse("2006-01-02", strings.TrimSpace(req.Start))
		if err != nil {
			return time.Time{}, time.Time{}, domain.ErrValidation
		}
		parsedEnd, err := time.Parse("2006-01-02", strings.TrimSpace(req.End))
		if err != nil {
			return time.Time{}, time.Time{}, domain.ErrValidation
		}
		if parsedEnd.Before(parsedStart) {
			return time.Time{}, time.Time{}, domain.ErrValidation
		}
		return parsedStart, parsedEnd.AddDate(0, 0, 1), nil
	}

	return time.Time{}, time.Time{}, domain.ErrValidation
}

// periodLabeler picks the natural sub-period for the report type.
func periodLabeler(reportType domain.ReportType) func(paymentdomain.Receipt) string {
	switch reportType {
	case domain.ReportDaily:
		return func(r paymentdomain.Receipt) string {
			return r.PaymentDate.Format("15:00")
		}
	case domain.ReportWeekly:
		return func(r paymentdomain.Receipt) string {
			return r.PaymentDate.Format("Monday")
		}
	case domain.ReportMonthly:
		return func(r paymentdomain.Receipt) string {
			week := (r.PaymentDate.Day()-1)/7 + 1
			return fmt.Sprintf("Week %d", week)
		}
	case domain.ReportAnnual:
		return func(r paymentdomain.Receipt) string {
			quarter := (int(r.PaymentDate.Month())-1)/3 + 1
			return fmt.Sprintf("Q%d %s", quarter, r.PaymentDate.Format("January"))
		}
	default:
		return func(r paymentdomain.Receipt) string {
			return r.PaymentDate.Format("2006-01-02")
		}
	}
}

// groupBy buckets receipts by label. Receipts arrive ordered by
// payment time, so first-seen order is chronological.
func groupBy(receipts []paymentdomain.Receipt, label func(paymentdomain.Receipt) string) []domain.Bucket {
	index := map[string]int{}
	buckets := make([]domain.Bucket, 0)
	for _, receipt := range receipts {
		key := label(receipt)
		pos, ok := index[key]
		if !ok {
			pos = len(buckets)
			index[key] = pos
			buckets = append(buckets, domain.Bucket{Label: key})
		}
		buckets[pos].Count++
		buckets[pos].Subtotal += receipt.Amount
	}
	return buckets
}

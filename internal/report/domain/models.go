// Package domain contains core types for revenue reports.
package domain

import (
	"context"
	"errors"
	"time"

	paymentdomain "github.com/perly101/purrfectpaw/internal/payment/domain"
)

// ReportType selects how the date window and sub-period grouping are
// derived.
type ReportType string

const (
	ReportDaily   ReportType = "daily"
	ReportWeekly  ReportType = "weekly"
	ReportMonthly ReportType = "monthly"
	ReportAnnual  ReportType = "annual"
	ReportCustom  ReportType = "custom"
)

func ParseReportType(raw string) (ReportType, bool) {
	switch ReportType(raw) {
	case ReportDaily, ReportWeekly, ReportMonthly, ReportAnnual, ReportCustom:
		return ReportType(raw), true
	}
	return "", false
}

type GenerateReportRequest struct {
	Type  string
	Date  string // YYYY-MM-DD, daily
	Month int    // 1-12, monthly
	Year  int    // monthly and annual
	Start string // YYYY-MM-DD, weekly/custom
	End   string // YYYY-MM-DD, weekly/custom
}

type Summary struct {
	TotalRevenue     int64 `json:"total_revenue"`
	TransactionCount int   `json:"transaction_count"`
	AverageAmount    int64 `json:"average_amount"`
}

type Bucket struct {
	Label    string `json:"label"`
	Count    int    `json:"count"`
	Subtotal int64  `json:"subtotal"`
}

// Report is the aggregation result. Start is inclusive, End exclusive.
type Report struct {
	Type        ReportType              `json:"type"`
	ClinicName  string                  `json:"clinic_name"`
	Start       time.Time               `json:"start"`
	End         time.Time               `json:"end"`
	GeneratedAt time.Time               `json:"generated_at"`
	Summary     Summary                 `json:"summary"`
	ByPeriod    []Bucket                `json:"by_period"`
	ByMethod    []Bucket                `json:"by_method"`
	ByService   []Bucket                `json:"by_service"`
	Receipts    []paymentdomain.Receipt `json:"receipts"`
}

type Service interface {
	// Generate aggregates the active clinic's settled receipts over the
	// resolved window. Read-only and safe to repeat.
	Generate(context.Context, GenerateReportRequest) (Report, error)

	// RenderText flattens a report into the spreadsheet-importable
	// text layout.
	RenderText(Report) string
}

var (
	ErrInvalidClinic = errors.New("invalid_clinic")
	ErrValidation    = errors.New("validation_error")
)

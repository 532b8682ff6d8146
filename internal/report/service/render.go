package service

import (
	"fmt"
	"strings"

	"github.com/perly101/purrfectpaw/internal/money"
	paymentservice "github.com/perly101/purrfectpaw/internal/payment/service"
	"github.com/perly101/purrfectpaw/internal/report/domain"
)

var periodSectionTitles = map[domain.ReportType]string{
	domain.ReportDaily:   "BREAKDOWN BY HOUR",
	domain.ReportWeekly:  "BREAKDOWN BY DAY",
	domain.ReportMonthly: "BREAKDOWN BY WEEK",
	domain.ReportAnnual:  "BREAKDOWN BY QUARTER",
	domain.ReportCustom:  "BREAKDOWN BY DAY",
}

// RenderText flattens a report into comma-delimited rows with a header
// block, suitable for spreadsheet import.
func (s *Service) RenderText(report domain.Report) string {
	symbol := s.messagingCfg.Get().CurrencySymbol
	var b strings.Builder

	title := strings.ToUpper(string(report.Type)) + " REVENUE REPORT"
	b.WriteString(title + "\n")
	writeRow(&b, "Clinic", report.ClinicName)
	// the window is stored half-open; show the inclusive last day
	writeRow(&b, "Period",
		report.Start.Format("Jan 2, 2006")+" - "+report.End.AddDate(0, 0, -1).Format("Jan 2, 2006"))
	writeRow(&b, "Generated", report.GeneratedAt.Format("Jan 2, 2006 3:04 PM"))
	b.WriteString("\n")

	b.WriteString("SUMMARY\n")
	writeRow(&b, "Total Revenue", money.Format(symbol, report.Summary.TotalRevenue))
	writeRow(&b, "Transactions", fmt.Sprintf("%d", report.Summary.TransactionCount))
	writeRow(&b, "Average Per Transaction", money.Format(symbol, report.Summary.AverageAmount))
	b.WriteString("\n")

	writeBucketSection(&b, periodSectionTitles[report.Type], report.ByPeriod, symbol)
	writeBucketSection(&b, "BREAKDOWN BY PAYMENT METHOD", report.ByMethod, symbol)
	writeBucketSection(&b, "BREAKDOWN BY SERVICE", report.ByService, symbol)

	b.WriteString("DETAILED TRANSACTIONS\n")
	writeRow(&b, "Receipt No", "Date", "Time", "Patient", "Service", "Doctor", "Method", "Amount")
	for _, receipt := range report.Receipts {
		writeRow(&b,
			receipt.ReceiptNumber,
			receipt.PaymentDate.Format("2006-01-02"),
			receipt.PaymentDate.Format("3:04 PM"),
			receipt.PatientName,
			receipt.Service,
			receipt.DoctorName,
			paymentservice.MethodLabel(receipt.PaymentMethod),
			money.Format(symbol, receipt.Amount),
		)
	}

	return b.String()
}

func writeBucketSection(b *strings.Builder, title string, buckets []domain.Bucket, symbol string) {
	b.WriteString(title + "\n")
	writeRow(b, "Label", "Transactions", "Subtotal")
	for _, bucket := range buckets {
		writeRow(b, bucket.Label, fmt.Sprintf("%d", bucket.Count), money.Format(symbol, bucket.Subtotal))
	}
	b.WriteString("\n")
}

func writeRow(b *strings.Builder, fields ...string) {
	for i, field := range fields {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(quoteField(field))
	}
	b.WriteString("\n")
}

// quoteField wraps a value in double quotes when it contains the
// delimiter, a quote, or a line break; embedded quotes are doubled.
func quoteField(field string) string {
	if !strings.ContainsAny(field, ",\"\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

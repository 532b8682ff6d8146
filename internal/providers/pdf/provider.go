package pdf

import (
	"context"
	"io"
)

// ReceiptData carries everything rendered on a printed receipt.
type ReceiptData struct {
	ReceiptNumber string
	ClinicName    string
	ClinicAddress string
	ClinicPhone   string
	PatientName   string
	PetName       string
	DoctorName    string
	Service       string
	Amount        string
	PaymentMethod string
	DatePaid      string
	ProcessedBy   string
	Notes         string
}

type Provider interface {
	GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error) {
	return nil, nil
}

package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/perly101/purrfectpaw/pkg/db/pagination"
)

type SettleRequest struct {
	AppointmentID string
	Amount        int64 // centavos
	Method        string
	Service       string // overrides the appointment's service text when set
	Notes         string
	ProcessedBy   string
}

type GetReceiptRequest struct {
	AppointmentID string
}

type ListReceiptRequest struct {
	PageToken string
	PageSize  int32
	From      *time.Time
	To        *time.Time
	Method    string
}

type ListReceiptResponse struct {
	pagination.PageInfo
	Receipts []Receipt `json:"receipts"`
}

type Service interface {
	// Settle records payment against a completed appointment and issues
	// its receipt in one atomic step.
	Settle(context.Context, SettleRequest) (Receipt, error)

	// GetReceiptByAppointment returns the receipt for an appointment in
	// the caller's scope. An unpaid appointment yields
	// ErrReceiptNotIssued, distinct from ErrNotFound.
	GetReceiptByAppointment(context.Context, GetReceiptRequest) (ReceiptView, error)

	// ListReceipts lists the active clinic's receipts.
	ListReceipts(context.Context, ListReceiptRequest) (ListReceiptResponse, error)

	// RenderReceiptPDF renders the printable receipt document.
	RenderReceiptPDF(context.Context, GetReceiptRequest) (io.Reader, error)
}

var (
	ErrNotFound            = errors.New("not_found")
	ErrInvalidClinic       = errors.New("invalid_clinic")
	ErrValidation          = errors.New("validation_error")
	ErrInvalidPaymentState = errors.New("invalid_payment_state")
	ErrConflict            = errors.New("conflict")
	ErrReceiptNotIssued    = errors.New("receipt_not_issued")
)

package domain

import (
	"context"
	"errors"
	"time"

	"github.com/perly101/purrfectpaw/pkg/db/pagination"
	"gorm.io/datatypes"
)

type FieldAnswer struct {
	FieldID string
	Label   string
	Value   datatypes.JSON
}

type CreateAppointmentRequest struct {
	UserID          string // empty for walk-ins booked by staff
	OwnerName       string
	OwnerPhone      string
	PetName         string
	Service         string
	AppointmentDate string // YYYY-MM-DD
	AppointmentTime string // HH:MM
	Answers         []FieldAnswer
}

type StatusChangeRequest struct {
	AppointmentID string
	Status        string
}

type AssignDoctorRequest struct {
	AppointmentID string
	DoctorID      string
}

type CloseWithNotesRequest struct {
	AppointmentID string
	Notes         string
}

type GetAppointmentRequest struct {
	ID string
}

type ListAppointmentRequest struct {
	PageToken string
	PageSize  int32
	Status    string
	DateFrom  *time.Time
	DateTo    *time.Time
	DoctorID  string
}

type ListAppointmentResponse struct {
	pagination.PageInfo
	Appointments []Appointment `json:"appointments"`
}

type AppointmentDetail struct {
	Appointment
	Answers []FieldResponse `json:"answers,omitempty"`
}

type Service interface {
	// Create books an appointment for the active clinic.
	Create(context.Context, CreateAppointmentRequest) (Appointment, error)

	// ApplyStatusChange moves an appointment to the requested status,
	// enforcing the doctor precondition for completion and firing the
	// transition's notification after commit.
	ApplyStatusChange(context.Context, StatusChangeRequest) (Appointment, error)

	// AssignDoctor attaches a doctor; a pending appointment advances to
	// assigned and the doctor is notified.
	AssignDoctor(context.Context, AssignDoctorRequest) (Appointment, error)

	// CloseWithNotes records consultation notes; a completed
	// appointment advances to closed.
	CloseWithNotes(context.Context, CloseWithNotesRequest) (Appointment, error)

	// GetByID returns an appointment in the caller's scope.
	GetByID(context.Context, GetAppointmentRequest) (AppointmentDetail, error)

	// ListByClinic lists the active clinic's appointments.
	ListByClinic(context.Context, ListAppointmentRequest) (ListAppointmentResponse, error)

	// ListMine lists appointments whose user_id equals the
	// authenticated owner. No phone or name matching, ever.
	ListMine(context.Context, ListAppointmentRequest) (ListAppointmentResponse, error)
}

var (
	ErrNotFound          = errors.New("not_found")
	ErrInvalidClinic     = errors.New("invalid_clinic")
	ErrInvalidUser       = errors.New("invalid_user")
	ErrValidation        = errors.New("validation_error")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrDoctorNotFound    = errors.New("doctor_not_found")
)

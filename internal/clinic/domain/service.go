package domain

import (
	"context"
	"errors"

	"github.com/perly101/purrfectpaw/pkg/db/pagination"
)

type CreateClinicRequest struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

type UpdateClinicRequest struct {
	ID      string
	Name    string
	Address string
	Phone   string
	Email   string
}

type GetClinicRequest struct {
	ID string
}

type ListClinicRequest struct {
	PageToken string
	PageSize  int32
}

type ListClinicResponse struct {
	pagination.PageInfo
	Clinics []Clinic `json:"clinics"`
}

type CreateDoctorRequest struct {
	Name      string
	Specialty string
	Phone     string
	Email     string
}

type UpdateDoctorRequest struct {
	ID        string
	Name      string
	Specialty string
	Phone     string
	Email     string
	Active    *bool
}

type ListDoctorRequest struct {
	PageToken  string
	PageSize   int32
	ActiveOnly bool
}

type ListDoctorResponse struct {
	pagination.PageInfo
	Doctors []Doctor `json:"doctors"`
}

type GetDoctorRequest struct {
	ID string
}

type FormFieldInput struct {
	Label     string
	FieldType string
	Required  bool
}

// ReplaceFormFieldsRequest swaps the clinic's booking form in one step.
// Field order follows slice order.
type ReplaceFormFieldsRequest struct {
	Fields []FormFieldInput
}

type Service interface {
	Create(context.Context, CreateClinicRequest) (Clinic, error)
	Update(context.Context, UpdateClinicRequest) (Clinic, error)
	GetByID(context.Context, GetClinicRequest) (Clinic, error)
	GetBySlug(ctx context.Context, slug string) (Clinic, error)
	List(context.Context, ListClinicRequest) (ListClinicResponse, error)

	CreateDoctor(context.Context, CreateDoctorRequest) (Doctor, error)
	UpdateDoctor(context.Context, UpdateDoctorRequest) (Doctor, error)
	GetDoctor(context.Context, GetDoctorRequest) (Doctor, error)
	ListDoctors(context.Context, ListDoctorRequest) (ListDoctorResponse, error)

	ListFormFields(context.Context) ([]FormField, error)
	ReplaceFormFields(context.Context, ReplaceFormFieldsRequest) ([]FormField, error)
}

var (
	ErrInvalidClinic  = errors.New("invalid_clinic")
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidID      = errors.New("invalid_id")
	ErrInvalidLabel   = errors.New("invalid_label")
	ErrNotFound       = errors.New("not_found")
	ErrDoctorNotFound = errors.New("doctor_not_found")
)

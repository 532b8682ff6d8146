package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	appointmentdomain "github.com/perly101/purrfectpaw/internal/appointment/domain"
	"github.com/perly101/purrfectpaw/pkg/db/pagination"
	"gorm.io/datatypes"
)

type fieldAnswerRequest struct {
	FieldID string          `json:"field_id"`
	Label   string          `json:"label"`
	Value   json.RawMessage `json:"value"`
}

type createAppointmentRequest struct {
	OwnerName       string               `json:"owner_name"`
	OwnerPhone      string               `json:"owner_phone"`
	PetName         string               `json:"pet_name"`
	Service         string               `json:"service"`
	AppointmentDate string               `json:"appointment_date"`
	AppointmentTime string               `json:"appointment_time"`
	Answers         []fieldAnswerRequest `json:"answers"`
}

func (s *Server) CreateAppointment(c *gin.Context) {
	var req createAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	answers := make([]appointmentdomain.FieldAnswer, 0, len(req.Answers))
	for _, answer := range req.Answers {
		answers = append(answers, appointmentdomain.FieldAnswer{
			FieldID: strings.TrimSpace(answer.FieldID),
			Label:   strings.TrimSpace(answer.Label),
			Value:   datatypes.JSON(answer.Value),
		})
	}

	resp, err := s.appointmentSvc.Create(c.Request.Context(), appointmentdomain.CreateAppointmentRequest{
		OwnerName:       strings.TrimSpace(req.OwnerName),
		OwnerPhone:      strings.TrimSpace(req.OwnerPhone),
		PetName:         strings.TrimSpace(req.PetName),
		Service:         strings.TrimSpace(req.Service),
		AppointmentDate: strings.TrimSpace(req.AppointmentDate),
		AppointmentTime: strings.TrimSpace(req.AppointmentTime),
		Answers:         answers,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type listAppointmentsQuery struct {
	pagination.Pagination
	Status   string `form:"status"`
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
	DoctorID string `form:"doctor_id"`
}

func (s *Server) buildListAppointmentRequest(c *gin.Context) (appointmentdomain.ListAppointmentRequest, bool) {
	var query listAppointmentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return appointmentdomain.ListAppointmentRequest{}, false
	}

	dateFrom, err := parseOptionalTime(query.DateFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("date_from", "invalid_date_from", "invalid date_from"))
		return appointmentdomain.ListAppointmentRequest{}, false
	}

	dateTo, err := parseOptionalTime(query.DateTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("date_to", "invalid_date_to", "invalid date_to"))
		return appointmentdomain.ListAppointmentRequest{}, false
	}

	return appointmentdomain.ListAppointmentRequest{
		PageToken: strings.TrimSpace(query.PageToken),
		PageSize:  int32(query.PageSize),
		Status:    strings.TrimSpace(query.Status),
		DateFrom:  dateFrom,
		DateTo:    dateTo,
		DoctorID:  strings.TrimSpace(query.DoctorID),
	}, true
}

func (s *Server) ListAppointments(c *gin.Context) {
	req, ok := s.buildListAppointmentRequest(c)
	if !ok {
		return
	}

	resp, err := s.appointmentSvc.ListByClinic(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Appointments, "page_info": resp.PageInfo})
}

func (s *Server) ListMyAppointments(c *gin.Context) {
	req, ok := s.buildListAppointmentRequest(c)
	if !ok {
		return
	}

	resp, err := s.appointmentSvc.ListMine(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Appointments, "page_info": resp.PageInfo})
}

func (s *Server) GetAppointment(c *gin.Context) {
	resp, err := s.appointmentSvc.GetByID(c.Request.Context(), appointmentdomain.GetAppointmentRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) ChangeAppointmentStatus(c *gin.Context) {
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.appointmentSvc.ApplyStatusChange(c.Request.Context(), appointmentdomain.StatusChangeRequest{
		AppointmentID: strings.TrimSpace(c.Param("id")),
		Status:        strings.TrimSpace(req.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// CancelMyAppointment lets an owner withdraw their own booking; it is
// the only status change exposed outside the admin surface.
func (s *Server) CancelMyAppointment(c *gin.Context) {
	resp, err := s.appointmentSvc.ApplyStatusChange(c.Request.Context(), appointmentdomain.StatusChangeRequest{
		AppointmentID: strings.TrimSpace(c.Param("id")),
		Status:        string(appointmentdomain.StatusCancelled),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type assignDoctorRequest struct {
	DoctorID string `json:"doctor_id"`
}

func (s *Server) AssignDoctor(c *gin.Context) {
	var req assignDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.appointmentSvc.AssignDoctor(c.Request.Context(), appointmentdomain.AssignDoctorRequest{
		AppointmentID: strings.TrimSpace(c.Param("id")),
		DoctorID:      strings.TrimSpace(req.DoctorID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type closeWithNotesRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) CloseWithNotes(c *gin.Context) {
	var req closeWithNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.appointmentSvc.CloseWithNotes(c.Request.Context(), appointmentdomain.CloseWithNotesRequest{
		AppointmentID: strings.TrimSpace(c.Param("id")),
		Notes:         req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

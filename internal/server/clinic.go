package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/perly101/purrfectpaw/internal/cliniccontext"
	clinicdomain "github.com/perly101/purrfectpaw/internal/clinic/domain"
	"github.com/perly101/purrfectpaw/pkg/db/pagination"
)

func (s *Server) GetPublicClinic(c *gin.Context) {
	clinicID, ok := cliniccontext.ClinicIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrNotFound)
		return
	}

	resp, err := s.clinicSvc.GetByID(c.Request.Context(), clinicdomain.GetClinicRequest{
		ID: clinicID.String(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPublicDoctors(c *gin.Context) {
	var query struct {
		pagination.Pagination
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.clinicSvc.ListDoctors(c.Request.Context(), clinicdomain.ListDoctorRequest{
		PageToken:  strings.TrimSpace(query.PageToken),
		PageSize:   int32(query.PageSize),
		ActiveOnly: true,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Doctors, "page_info": resp.PageInfo})
}

func (s *Server) ListPublicFormFields(c *gin.Context) {
	fields, err := s.clinicSvc.ListFormFields(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": fields})
}

type updateClinicRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

func (s *Server) UpdateClinic(c *gin.Context) {
	var req updateClinicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	clinicID, ok := cliniccontext.ClinicIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.clinicSvc.Update(c.Request.Context(), clinicdomain.UpdateClinicRequest{
		ID:      clinicID.String(),
		Name:    strings.TrimSpace(req.Name),
		Address: strings.TrimSpace(req.Address),
		Phone:   strings.TrimSpace(req.Phone),
		Email:   strings.TrimSpace(req.Email),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type listDoctorsQuery struct {
	pagination.Pagination
	ActiveOnly bool `form:"active_only"`
}

func (s *Server) ListDoctors(c *gin.Context) {
	var query listDoctorsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.clinicSvc.ListDoctors(c.Request.Context(), clinicdomain.ListDoctorRequest{
		PageToken:  strings.TrimSpace(query.PageToken),
		PageSize:   int32(query.PageSize),
		ActiveOnly: query.ActiveOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Doctors, "page_info": resp.PageInfo})
}

type createDoctorRequest struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

func (s *Server) CreateDoctor(c *gin.Context) {
	var req createDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.clinicSvc.CreateDoctor(c.Request.Context(), clinicdomain.CreateDoctorRequest{
		Name:      strings.TrimSpace(req.Name),
		Specialty: strings.TrimSpace(req.Specialty),
		Phone:     strings.TrimSpace(req.Phone),
		Email:     strings.TrimSpace(req.Email),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDoctor(c *gin.Context) {
	resp, err := s.clinicSvc.GetDoctor(c.Request.Context(), clinicdomain.GetDoctorRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateDoctorRequest struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Active    *bool  `json:"active"`
}

func (s *Server) UpdateDoctor(c *gin.Context) {
	var req updateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.clinicSvc.UpdateDoctor(c.Request.Context(), clinicdomain.UpdateDoctorRequest{
		ID:        strings.TrimSpace(c.Param("id")),
		Name:      strings.TrimSpace(req.Name),
		Specialty: strings.TrimSpace(req.Specialty),
		Phone:     strings.TrimSpace(req.Phone),
		Email:     strings.TrimSpace(req.Email),
		Active:    req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListFormFields(c *gin.Context) {
	fields, err := s.clinicSvc.ListFormFields(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": fields})
}

type replaceFormFieldsRequest struct {
	Fields []struct {
		Label     string `json:"label"`
		FieldType string `json:"field_type"`
		Required  bool   `json:"required"`
	} `json:"fields"`
}

func (s *Server) ReplaceFormFields(c *gin.Context) {
	var req replaceFormFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	fields := make([]clinicdomain.FormFieldInput, 0, len(req.Fields))
	for _, field := range req.Fields {
		fields = append(fields, clinicdomain.FormFieldInput{
			Label:     field.Label,
			FieldType: field.FieldType,
			Required:  field.Required,
		})
	}

	resp, err := s.clinicSvc.ReplaceFormFields(c.Request.Context(), clinicdomain.ReplaceFormFieldsRequest{
		Fields: fields,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	otpdomain "github.com/perly101/purrfectpaw/internal/otp/domain"
)

type requestOTPRequest struct {
	Phone string `json:"phone"`
	Name  string `json:"name"`
}

func (s *Server) RequestOTP(c *gin.Context) {
	var req requestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err := s.otpSvc.Issue(c.Request.Context(), otpdomain.IssueRequest{
		Phone: strings.TrimSpace(req.Phone),
		Name:  strings.TrimSpace(req.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"sent": true}})
}

type verifyOTPRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
	Name  string `json:"name"`
}

func (s *Server) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.otpSvc.Verify(c.Request.Context(), otpdomain.VerifyRequest{
		Phone:     strings.TrimSpace(req.Phone),
		Code:      strings.TrimSpace(req.Code),
		Name:      strings.TrimSpace(req.Name),
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

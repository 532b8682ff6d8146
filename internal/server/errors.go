package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	appointmentdomain "github.com/perly101/purrfectpaw/internal/appointment/domain"
	auditdomain "github.com/perly101/purrfectpaw/internal/audit/domain"
	authdomain "github.com/perly101/purrfectpaw/internal/auth/domain"
	"github.com/perly101/purrfectpaw/internal/authorization"
	clinicdomain "github.com/perly101/purrfectpaw/internal/clinic/domain"
	otpdomain "github.com/perly101/purrfectpaw/internal/otp/domain"
	paymentdomain "github.com/perly101/purrfectpaw/internal/payment/domain"
	reportdomain "github.com/perly101/purrfectpaw/internal/report/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrSessionNotFound),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrStaffDisabled):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, appointmentdomain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "invalid_transition",
			Message: "status change is not allowed from the current state",
		}
	case errors.Is(err, paymentdomain.ErrInvalidPaymentState):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "invalid_payment_state",
			Message: "appointment is not payable in its current state",
		}
	case errors.Is(err, paymentdomain.ErrReceiptNotIssued):
		return http.StatusNotFound, errorPayload{
			Type:    "receipt_not_issued",
			Message: "no receipt has been issued for this appointment",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, paymentdomain.ErrConflict):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case errors.Is(err, otpdomain.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests, try again later",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, otpdomain.ErrSendFailed):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	case errors.Is(err, ErrInternal):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds the request logger; it mirrors mapError
// but stays allocation-light.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	return payload.Type, payload.Message
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isAppointmentValidationError(err),
		isPaymentValidationError(err),
		isClinicValidationError(err),
		isReportValidationError(err),
		isAuditValidationError(err),
		isOTPValidationError(err):
		return true
	default:
		return false
	}
}

func isAppointmentValidationError(err error) bool {
	switch {
	case errors.Is(err, appointmentdomain.ErrValidation),
		errors.Is(err, appointmentdomain.ErrInvalidClinic),
		errors.Is(err, appointmentdomain.ErrInvalidUser):
		return true
	default:
		return false
	}
}

func isPaymentValidationError(err error) bool {
	switch {
	case errors.Is(err, paymentdomain.ErrValidation),
		errors.Is(err, paymentdomain.ErrInvalidClinic):
		return true
	default:
		return false
	}
}

func isClinicValidationError(err error) bool {
	switch {
	case errors.Is(err, clinicdomain.ErrInvalidClinic),
		errors.Is(err, clinicdomain.ErrInvalidName),
		errors.Is(err, clinicdomain.ErrInvalidLabel),
		errors.Is(err, clinicdomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isReportValidationError(err error) bool {
	switch {
	case errors.Is(err, reportdomain.ErrValidation),
		errors.Is(err, reportdomain.ErrInvalidClinic):
		return true
	default:
		return false
	}
}

func isAuditValidationError(err error) bool {
	switch {
	case errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidTimeRange),
		errors.Is(err, auditdomain.ErrInvalidAction):
		return true
	default:
		return false
	}
}

func isOTPValidationError(err error) bool {
	switch {
	case errors.Is(err, otpdomain.ErrInvalidPhone),
		errors.Is(err, otpdomain.ErrInvalidCode),
		errors.Is(err, otpdomain.ErrCodeExpired),
		errors.Is(err, otpdomain.ErrTooManyAttempts):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, appointmentdomain.ErrNotFound),
		errors.Is(err, appointmentdomain.ErrDoctorNotFound),
		errors.Is(err, paymentdomain.ErrNotFound),
		errors.Is(err, clinicdomain.ErrNotFound),
		errors.Is(err, clinicdomain.ErrDoctorNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}

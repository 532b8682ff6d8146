package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/perly101/purrfectpaw/internal/auth/domain"
	"github.com/perly101/purrfectpaw/internal/auditcontext"
	"github.com/perly101/purrfectpaw/internal/cliniccontext"
	obscontext "github.com/perly101/purrfectpaw/internal/observability/context"
)

const contextPrincipalKey = "principal"

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := c.Cookie("session"); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

func principalFromGin(c *gin.Context) (authdomain.Principal, bool) {
	value, ok := c.Get(contextPrincipalKey)
	if !ok {
		return authdomain.Principal{}, false
	}
	principal, ok := value.(authdomain.Principal)
	return principal, ok
}

// RequestContext copies the transport-level facts the audit trail
// wants onto the request context.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ctx = auditcontext.WithIPAddress(ctx, c.ClientIP())
		ctx = auditcontext.WithUserAgent(ctx, c.Request.UserAgent())
		if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
			ctx = auditcontext.WithRequestID(ctx, requestID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AuthRequired resolves the bearer token to a principal and scopes the
// request to the principal's clinic.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		principal, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := cliniccontext.WithClinicID(c.Request.Context(), principal.ClinicID)
		switch principal.Type {
		case authdomain.SubjectStaff:
			ctx = cliniccontext.WithStaffID(ctx, principal.ID)
			ctx = obscontext.WithActor(ctx, "staff", principal.ID.String())
		case authdomain.SubjectUser:
			ctx = cliniccontext.WithUserID(ctx, principal.ID)
			ctx = obscontext.WithActor(ctx, "user", principal.ID.String())
		}
		ctx = obscontext.WithClinicID(ctx, principal.ClinicID.String())

		c.Request = c.Request.WithContext(ctx)
		c.Set(contextPrincipalKey, principal)
		c.Next()
	}
}

// StaffRequired gates routes to authenticated staff accounts.
func (s *Server) StaffRequired() gin.HandlerFunc {
	authRequired := s.AuthRequired()
	return func(c *gin.Context) {
		authRequired(c)
		if c.IsAborted() {
			return
		}
		principal, ok := principalFromGin(c)
		if !ok || principal.Type != authdomain.SubjectStaff {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// OwnerRequired gates routes to authenticated pet owners.
func (s *Server) OwnerRequired() gin.HandlerFunc {
	authRequired := s.AuthRequired()
	return func(c *gin.Context) {
		authRequired(c)
		if c.IsAborted() {
			return
		}
		principal, ok := principalFromGin(c)
		if !ok || principal.Type != authdomain.SubjectUser {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// authorizeClinicAction checks the staff principal against the
// clinic-scoped policy before the handler runs.
func (s *Server) authorizeClinicAction(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := principalFromGin(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		actor := "staff:" + principal.ID.String()
		err := s.authzSvc.Authorize(c.Request.Context(), actor, principal.ClinicID.String(), object, action)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// ClinicBySlug resolves the clinic named in the URL for public
// endpoints that run without a session.
func (s *Server) ClinicBySlug() gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := strings.TrimSpace(c.Param("slug"))
		clinic, err := s.clinicSvc.GetBySlug(c.Request.Context(), slug)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := cliniccontext.WithClinicID(c.Request.Context(), clinic.ID)
		ctx = obscontext.WithClinicID(ctx, clinic.ID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

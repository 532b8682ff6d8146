package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/perly101/purrfectpaw/internal/appointment"
	appointmentdomain "github.com/perly101/purrfectpaw/internal/appointment/domain"
	"github.com/perly101/purrfectpaw/internal/audit"
	auditdomain "github.com/perly101/purrfectpaw/internal/audit/domain"
	"github.com/perly101/purrfectpaw/internal/auth"
	authdomain "github.com/perly101/purrfectpaw/internal/auth/domain"
	"github.com/perly101/purrfectpaw/internal/authorization"
	"github.com/perly101/purrfectpaw/internal/clinic"
	clinicdomain "github.com/perly101/purrfectpaw/internal/clinic/domain"
	"github.com/perly101/purrfectpaw/internal/config"
	"github.com/perly101/purrfectpaw/internal/notification"
	"github.com/perly101/purrfectpaw/internal/observability"
	obsmiddleware "github.com/perly101/purrfectpaw/internal/observability/logger"
	obsmetrics "github.com/perly101/purrfectpaw/internal/observability/metrics"
	obstracing "github.com/perly101/purrfectpaw/internal/observability/tracing"
	"github.com/perly101/purrfectpaw/internal/otp"
	otpdomain "github.com/perly101/purrfectpaw/internal/otp/domain"
	"github.com/perly101/purrfectpaw/internal/payment"
	paymentdomain "github.com/perly101/purrfectpaw/internal/payment/domain"
	"github.com/perly101/purrfectpaw/internal/providers"
	"github.com/perly101/purrfectpaw/internal/ratelimit"
	"github.com/perly101/purrfectpaw/internal/report"
	reportdomain "github.com/perly101/purrfectpaw/internal/report/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	auth.Module,
	clinic.Module,
	providers.Module,
	notification.Module,
	ratelimit.Module,
	otp.Module,
	appointment.Module,
	payment.Module,
	report.Module,
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(RequestContext())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	authsvc        authdomain.Service
	authzSvc       authorization.Service
	auditSvc       auditdomain.Service
	otpSvc         otpdomain.Service
	clinicSvc      clinicdomain.Service
	appointmentSvc appointmentdomain.Service
	paymentSvc     paymentdomain.Service
	reportSvc      reportdomain.Service
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	Authsvc        authdomain.Service
	AuthzSvc       authorization.Service
	AuditSvc       auditdomain.Service
	OTPSvc         otpdomain.Service
	ClinicSvc      clinicdomain.Service
	AppointmentSvc appointmentdomain.Service
	PaymentSvc     paymentdomain.Service
	ReportSvc      reportdomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		authsvc:        p.Authsvc,
		authzSvc:       p.AuthzSvc,
		auditSvc:       p.AuditSvc,
		otpSvc:         p.OTPSvc,
		clinicSvc:      p.ClinicSvc,
		appointmentSvc: p.AppointmentSvc,
		paymentSvc:     p.PaymentSvc,
		reportSvc:      p.ReportSvc,
	}
}

func registerRoutes(s *Server) {
	s.registerAuthRoutes()
	s.registerPublicRoutes()
	s.registerOwnerRoutes()
	s.registerAdminRoutes()
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	authGroup := s.engine.Group("/auth")

	authGroup.POST("/staff/login", s.StaffLogin)
	authGroup.POST("/logout", s.Logout)
	authGroup.GET("/me", s.AuthRequired(), s.Me)
}

// Public endpoints back the booking form; no session needed to read a
// clinic's doctors or intake questions.
func (s *Server) registerPublicRoutes() {
	public := s.engine.Group("/api/clinics/:slug", s.ClinicBySlug())

	public.GET("", s.GetPublicClinic)
	public.GET("/doctors", s.ListPublicDoctors)
	public.GET("/form-fields", s.ListPublicFormFields)

	// Pet owners sign in with a texted one-time code.
	public.POST("/otp/request", s.RequestOTP)
	public.POST("/otp/verify", s.VerifyOTP)
}

func (s *Server) registerOwnerRoutes() {
	api := s.engine.Group("/api", s.OwnerRequired())

	api.POST("/appointments", s.CreateAppointment)
	api.GET("/appointments", s.ListMyAppointments)
	api.GET("/appointments/:id", s.GetAppointment)
	api.POST("/appointments/:id/cancel", s.CancelMyAppointment)
	api.GET("/appointments/:id/receipt", s.GetReceipt)
	api.GET("/appointments/:id/receipt/pdf", s.RenderReceiptPDF)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")

	admin.Use(s.StaffRequired())

	// -------- Appointments --------
	admin.GET("/appointments", s.authorizeClinicAction(authorization.ObjectAppointment, authorization.ActionAppointmentView), s.ListAppointments)
	admin.POST("/appointments", s.authorizeClinicAction(authorization.ObjectAppointment, authorization.ActionAppointmentCreate), s.CreateAppointment)
	admin.GET("/appointments/:id", s.authorizeClinicAction(authorization.ObjectAppointment, authorization.ActionAppointmentView), s.GetAppointment)
	admin.POST("/appointments/:id/status", s.authorizeClinicAction(authorization.ObjectAppointment, authorization.ActionAppointmentConfirm), s.ChangeAppointmentStatus)
	admin.POST("/appointments/:id/assign", s.authorizeClinicAction(authorization.ObjectAppointment, authorization.ActionAppointmentAssign), s.AssignDoctor)
	admin.POST("/appointments/:id/notes", s.authorizeClinicAction(authorization.ObjectAppointment, authorization.ActionAppointmentClose), s.CloseWithNotes)

	// -------- Payments --------
	admin.POST("/appointments/:id/payment", s.authorizeClinicAction(authorization.ObjectPayment, authorization.ActionPaymentSettle), s.SettlePayment)
	admin.GET("/appointments/:id/receipt", s.authorizeClinicAction(authorization.ObjectReceipt, authorization.ActionReceiptView), s.GetReceipt)
	admin.GET("/appointments/:id/receipt/pdf", s.authorizeClinicAction(authorization.ObjectReceipt, authorization.ActionReceiptView), s.RenderReceiptPDF)
	admin.GET("/receipts", s.authorizeClinicAction(authorization.ObjectReceipt, authorization.ActionReceiptView), s.ListReceipts)

	// -------- Reports --------
	admin.GET("/reports/revenue", s.authorizeClinicAction(authorization.ObjectReport, authorization.ActionReportView), s.GenerateRevenueReport)
	admin.GET("/reports/revenue/export", s.authorizeClinicAction(authorization.ObjectReport, authorization.ActionReportView), s.ExportRevenueReport)

	// -------- Doctors --------
	admin.GET("/doctors", s.authorizeClinicAction(authorization.ObjectDoctor, authorization.ActionDoctorView), s.ListDoctors)
	admin.POST("/doctors", s.authorizeClinicAction(authorization.ObjectDoctor, authorization.ActionDoctorCreate), s.CreateDoctor)
	admin.GET("/doctors/:id", s.authorizeClinicAction(authorization.ObjectDoctor, authorization.ActionDoctorView), s.GetDoctor)
	admin.PATCH("/doctors/:id", s.authorizeClinicAction(authorization.ObjectDoctor, authorization.ActionDoctorUpdate), s.UpdateDoctor)

	// -------- Booking form --------
	admin.GET("/form-fields", s.ListFormFields)
	admin.PUT("/form-fields", s.authorizeClinicAction(authorization.ObjectFormField, authorization.ActionFormFieldManage), s.ReplaceFormFields)

	// -------- Clinic and staff --------
	admin.PATCH("/clinic", s.authorizeClinicAction(authorization.ObjectClinic, authorization.ActionClinicUpdate), s.UpdateClinic)
	admin.POST("/staff", s.authorizeClinicAction(authorization.ObjectStaff, authorization.ActionStaffCreate), s.CreateStaff)

	admin.GET("/audit-logs", s.authorizeClinicAction(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)
}

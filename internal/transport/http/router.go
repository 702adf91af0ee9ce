package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shefaa-icu/internal/application/account"
	"github.com/shefaa-icu/internal/application/attendance"
	"github.com/shefaa-icu/internal/application/clinical"
	"github.com/shefaa-icu/internal/application/dashboard"
	"github.com/shefaa-icu/internal/application/notification"
	"github.com/shefaa-icu/internal/application/otp"
	"github.com/shefaa-icu/internal/application/patient"
	"github.com/shefaa-icu/internal/application/report"
	"github.com/shefaa-icu/internal/application/role"
	"github.com/shefaa-icu/internal/application/room"
	"github.com/shefaa-icu/internal/application/schedule"
	"github.com/shefaa-icu/internal/application/staff"
	"github.com/shefaa-icu/internal/config"
	"github.com/shefaa-icu/internal/domain"
	"github.com/shefaa-icu/internal/infrastructure/websocket"
	"github.com/shefaa-icu/internal/transport/http/handler"
	appmiddleware "github.com/shefaa-icu/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)
	adminOnly := appmiddleware.RequireRole(domain.RoleAdmin)

	trusted, err := appmiddleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		slog.Error("ignoring TRUSTED_PROXIES", "err", err)
		trusted = nil
	}
	// 5 requests/second, burst of 10, applied to OTP and sign-in endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10, trusted...)

	notifSvc := notification.NewService(notification.ServiceDeps{
		NotificationRepo: deps.NotificationRepo,
		StaffRepo:        deps.StaffRepo,
		Hub:              deps.Hub,
		SMSSender:        deps.SMSSender,
		Publisher:        deps.Publisher,
		SMSEnabled:       cfg.SMSEnabled,
	})
	otpSvc := otp.NewService(otp.ServiceDeps{
		Store:          deps.OTPStore,
		Mailer:         deps.Mailer,
		TTL:            cfg.OTPTTL,
		VerifiedTTL:    cfg.OTPVerifiedTTL,
		ResendCooldown: cfg.OTPResendCooldown,
		MaxAttempts:    cfg.OTPMaxAttempts,
	})
	accountDeps := account.ServiceDeps{
		StaffRepo: deps.StaffRepo,
		OTP:       otpSvc,
		Signer:    deps.JWTProvider,
		Notifier:  notifSvc,
		Publisher: deps.Publisher,
	}
	if deps.GoogleVerifier != nil {
		accountDeps.GoogleVerifier = deps.GoogleVerifier
	}
	accountSvc := account.NewService(accountDeps)
	roomSvc := room.NewService(room.ServiceDeps{
		RoomRepo:    deps.RoomRepo,
		PatientRepo: deps.PatientRepo,
		Publisher:   deps.Publisher,
	})
	patientSvc := patient.NewService(patient.ServiceDeps{
		PatientRepo: deps.PatientRepo,
		Rooms:       roomSvc,
		StaffRepo:   deps.StaffRepo,
		Notifier:    notifSvc,
		Publisher:   deps.Publisher,
	})
	clinicalSvc := clinical.NewService(clinical.ServiceDeps{
		PatientRepo:    deps.PatientRepo,
		VitalRepo:      deps.VitalRepo,
		MedicationRepo: deps.MedicationRepo,
		NoteRepo:       deps.NoteRepo,
		StaffRepo:      deps.StaffRepo,
		Notifier:       notifSvc,
		Publisher:      deps.Publisher,
	})
	staffSvc := staff.NewService(staff.ServiceDeps{StaffRepo: deps.StaffRepo})
	scheduleSvc := schedule.NewService(schedule.ServiceDeps{
		ScheduleRepo: deps.ScheduleRepo,
		StaffRepo:    deps.StaffRepo,
		Notifier:     notifSvc,
		Publisher:    deps.Publisher,
	})
	reportDeps := report.ServiceDeps{Schedules: scheduleSvc, URLTTL: cfg.ReportURLTTL}
	if deps.PDFRenderer != nil {
		reportDeps.Renderer = deps.PDFRenderer
	}
	if deps.S3Store != nil {
		reportDeps.Store = deps.S3Store
	}
	reportSvc := report.NewService(reportDeps)
	attendanceSvc := attendance.NewService(attendance.ServiceDeps{
		AttendanceRepo: deps.AttendanceRepo,
		StaffRepo:      deps.StaffRepo,
	})
	dashboardSvc := dashboard.NewService(dashboard.ServiceDeps{
		PatientRepo:      deps.PatientRepo,
		RoomRepo:         deps.RoomRepo,
		StaffRepo:        deps.StaffRepo,
		Schedules:        scheduleSvc,
		AttendanceRepo:   deps.AttendanceRepo,
		NotificationRepo: deps.NotificationRepo,
	})

	healthH := handler.NewHealthHandler()
	accountH := handler.NewAccountHandler(accountSvc)
	roleH := handler.NewRoleHandler(role.NewService())
	dashboardH := handler.NewDashboardHandler(dashboardSvc)
	patientH := handler.NewPatientHandler(patientSvc, clinicalSvc)
	roomH := handler.NewRoomHandler(roomSvc)
	staffH := handler.NewStaffHandler(staffSvc)
	scheduleH := handler.NewScheduleHandler(scheduleSvc, reportSvc)
	attendanceH := handler.NewAttendanceHandler(attendanceSvc)
	notifH := handler.NewNotificationHandler(notifSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Group(func(r chi.Router) {
			r.Use(sensitiveRL.Limit)
			r.Post("/account/login", accountH.Login)
			r.Post("/account/google-login", accountH.GoogleLogin)
			r.Post("/account/register/send-otp", accountH.SendRegisterOtp)
			r.Post("/account/register/verify-otp", accountH.VerifyRegisterOtp)
			r.Post("/account/register", accountH.Register)
			r.Post("/account/password-reset/send-otp", accountH.SendResetOtp)
			r.Post("/account/password-reset/verify-otp", accountH.VerifyResetOtp)
			r.Post("/account/password-reset", accountH.ResetPassword)
		})

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/account/me", accountH.Me)
			r.Post("/account/change-password", accountH.ChangePassword)
			r.Get("/roles", roleH.List)
			r.Get("/dashboard", dashboardH.Summary)

			r.Get("/patients", patientH.List)
			r.Post("/patients", patientH.Admit)
			r.Get("/patients/{id}", patientH.Get)
			r.Put("/patients/{id}", patientH.Update)
			r.Post("/patients/{id}/discharge", patientH.Discharge)
			r.Get("/patients/{id}/vitals", patientH.ListVitals)
			r.Post("/patients/{id}/vitals", patientH.RecordVitals)
			r.Get("/patients/{id}/medications", patientH.ListMedications)
			r.Post("/patients/{id}/medications", patientH.Prescribe)
			r.Get("/patients/{id}/notes", patientH.ListNotes)
			r.Post("/patients/{id}/notes", patientH.AddNote)
			r.Post("/medications/{id}/administer", patientH.Administer)
			r.Post("/medications/{id}/stop", patientH.StopMedication)

			r.Get("/rooms", roomH.List)
			r.Get("/rooms/{id}", roomH.Get)
			r.Post("/rooms/{id}/assign", roomH.Assign)
			r.Post("/rooms/{id}/release", roomH.Release)

			r.Get("/staff", staffH.List)
			r.Get("/staff/{id}", staffH.Get)

			r.Get("/schedules", scheduleH.Week)
			r.Get("/schedules/day", scheduleH.Day)
			r.Post("/schedules/check-conflicts", scheduleH.CheckConflicts)
			r.Get("/schedules/export", scheduleH.Export)

			r.Post("/attendance/check-in", attendanceH.CheckIn)
			r.Post("/attendance/check-out", attendanceH.CheckOut)
			r.Get("/attendance", attendanceH.ListByDate)

			r.Get("/notifications", notifH.List)
			r.Get("/notifications/unread-count", notifH.UnreadCount)
			r.Put("/notifications/{id}", notifH.MarkAsRead)
			r.Post("/notifications/read-all", notifH.MarkAllRead)

			r.Get("/ws", websocket.HandleWebSocket(deps.Hub, cfg.AllowedOrigins, appmiddleware.StaffID))

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(adminOnly)

				r.Post("/rooms", roomH.Create)
				r.Put("/rooms/{id}", roomH.Update)
				r.Delete("/rooms/{id}", roomH.Delete)

				r.Post("/staff", staffH.Create)
				r.Put("/staff/{id}", staffH.Update)
				r.Delete("/staff/{id}", staffH.Deactivate)
				r.Post("/staff/{id}/reactivate", staffH.Reactivate)

				r.Post("/schedules", scheduleH.Save)
				r.Put("/schedules/{id}", scheduleH.Update)
				r.Delete("/schedules/{id}", scheduleH.Delete)
				r.Post("/schedules/export/archive", scheduleH.Archive)

				r.Post("/notifications/broadcast", notifH.Broadcast)
				r.Get("/attendance/staff/{id}", attendanceH.ListByStaff)
			})
		})
	})

	return r
}

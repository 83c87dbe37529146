package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NikolajSankovDev/zyron/internal/audit"
	"github.com/NikolajSankovDev/zyron/internal/config"
	"github.com/NikolajSankovDev/zyron/internal/domain/account"
	domain "github.com/NikolajSankovDev/zyron/internal/domain/appointment"
	"github.com/NikolajSankovDev/zyron/internal/handlers"
	"github.com/NikolajSankovDev/zyron/internal/infra/cache"
	"github.com/NikolajSankovDev/zyron/internal/infra/objectstore"
	"github.com/NikolajSankovDev/zyron/internal/infra/otel"
	"github.com/NikolajSankovDev/zyron/internal/middleware"
	"github.com/NikolajSankovDev/zyron/internal/models"
	"github.com/NikolajSankovDev/zyron/internal/notify"
	"github.com/NikolajSankovDev/zyron/internal/usecase/appointment"
	"github.com/NikolajSankovDev/zyron/internal/usecase/availability"
	"github.com/NikolajSankovDev/zyron/internal/usecase/barber"
	"github.com/NikolajSankovDev/zyron/internal/usecase/catalog"
	"github.com/NikolajSankovDev/zyron/internal/validators"
)

// Deps are the process singletons the routes are built from.
type Deps struct {
	Repo     domain.Repository
	Accounts account.Repository
	Audit    *audit.Dispatcher
	AuditLog *audit.Logger
	Notifier notify.Notifier
	Cache    cache.Cache
	Otel     otel.Otel
	Objects  objectstore.Store
	Location *time.Location
	Resolver validators.Resolver
	Health   map[string]handlers.Pinger
}

func RegisterRoutes(r *gin.Engine, deps Deps, cfg *config.Config) {

	// ======================================================
	// 🌍 MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins))

	// ======================================================
	// 🧠 USE CASES
	// ======================================================
	calc := availability.NewCalculator(
		deps.Repo,
		deps.Cache,
		deps.Otel,
		deps.Location,
		availability.Options{
			IntervalMinutes: cfg.Booking.SlotIntervalMinutes,
			MinAdvance:      time.Duration(cfg.Booking.MinAdvanceMinutes) * time.Minute,
			MaxRangeDays:    cfg.Booking.MaxRangeDays,
			Concurrency:     cfg.Booking.SlotWorkerConcurrency,
			CacheTTL:        time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		},
	)

	createAppointmentUC := appointment.NewCreateAppointment(
		deps.Repo,
		deps.Audit,
		deps.Notifier,
		calc,
		deps.Otel,
		deps.Location,
		appointment.BookingOptions{
			Timeout:             cfg.Booking.Timeout,
			MinAdvance:          time.Duration(cfg.Booking.MinAdvanceMinutes) * time.Minute,
			EnforceWorkingHours: cfg.Booking.EnforceWorkingHours,
		},
	)

	updateStatusUC := appointment.NewUpdateStatus(deps.Repo, deps.Audit, deps.Notifier, calc).WithTimeout(cfg.Booking.Timeout)
	cancelRangeUC := appointment.NewCancelByBarberAndDateRange(deps.Repo, deps.Audit, calc)
	timeOffUC := appointment.NewCreateTimeOff(deps.Repo, deps.Audit, calc)
	workingHoursUC := appointment.NewReplaceWorkingHours(deps.Repo, deps.Audit, calc)
	listByDateUC := appointment.NewListAppointmentsByDate(deps.Repo, deps.Location)
	listByMonthUC := appointment.NewListAppointmentsByMonth(deps.Repo, deps.Location)

	listServicesUC := catalog.NewListServices(deps.Repo, cfg.Studio.DefaultLocale)
	updateAvatarUC := barber.NewUpdateAvatar(deps.Repo, deps.Objects, deps.Audit)

	// ======================================================
	// 🧩 HANDLERS
	// ======================================================
	healthHandler := handlers.NewHealthHandler(deps.Health)
	authHandler := handlers.NewAuthHandler(deps.Accounts, cfg, deps.Resolver)
	meHandler := handlers.NewMeHandler(deps.Accounts)
	publicHandler := handlers.NewPublicHandler(deps.Repo, listServicesUC, calc, deps.Location)
	workingHoursHandler := handlers.NewWorkingHoursHandler(deps.Repo, workingHoursUC)
	barberHandler := handlers.NewBarberHandler(updateAvatarUC)
	auditLogsHandler := handlers.NewAuditLogsHandler(deps.AuditLog, deps.Location)

	appointmentHandler := handlers.NewAppointmentHandler(
		createAppointmentUC,
		updateStatusUC,
		cancelRangeUC,
		timeOffUC,
		listByDateUC,
		listByMonthUC,
		calc,
		deps.Notifier,
		deps.Location,
	)

	r.GET("/health", healthHandler.Health)

	// ======================================================
	// 🌐 API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// 🌐 PUBLIC
		// ------------------------------
		public := api.Group("/public")
		{
			public.GET("/services", publicHandler.ListServices)
			public.GET("/barbers", publicHandler.ListBarbers)
			public.GET("/availability/month", publicHandler.MonthAvailability)
			public.GET("/slots", publicHandler.Slots)
		}

		// ------------------------------
		// 🔐 AUTH
		// ------------------------------
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			secured.GET("/me", meHandler.GetMe)
			secured.POST("/appointments", appointmentHandler.Create)
		}

		// ------------------------------
		// 🔐 ADMIN
		// ------------------------------
		admin := api.Group("/admin")
		admin.Use(
			middleware.AuthMiddleware(cfg),
			middleware.RequireRole(models.RoleAdmin, models.RoleBarber),
		)
		{
			admin.GET("/barbers/:id/appointments", appointmentHandler.ListByDate)
			admin.GET("/barbers/:id/appointments/month", appointmentHandler.ListByMonth)
			admin.GET("/barbers/:id/calendar", appointmentHandler.Calendar)

			admin.PATCH("/appointments/:id/status", appointmentHandler.UpdateStatus)

			admin.GET("/barbers/:id/working-hours", workingHoursHandler.Get)
			admin.PUT("/barbers/:id/working-hours", workingHoursHandler.Update)
			admin.PUT("/barbers/:id/avatar", barberHandler.UploadAvatar)
		}

		owner := api.Group("/admin")
		owner.Use(
			middleware.AuthMiddleware(cfg),
			middleware.RequireRole(models.RoleAdmin),
		)
		{
			owner.POST("/barbers/:id/cancel-range", appointmentHandler.CancelRange)
			owner.POST("/barbers/:id/time-off", appointmentHandler.CreateTimeOff)
			owner.GET("/audit-logs", auditLogsHandler.List)
		}
	}
}

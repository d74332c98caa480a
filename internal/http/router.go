package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/collegeevents/internal/auth"
	"github.com/geocoder89/collegeevents/internal/domain/user"
	"github.com/geocoder89/collegeevents/internal/http/handlers"
	"github.com/geocoder89/collegeevents/internal/http/middlewares"
	"github.com/geocoder89/collegeevents/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20

// UserStore covers auth lookups, profile changes and admin user management.
type UserStore interface {
	handlers.UserReader
	handlers.UserWriter
	handlers.UserAccount
	handlers.UserAdmin
}

type RouterDeps struct {
	Env                string
	ServiceName        string
	Log                *slog.Logger
	Prom               *observability.Prom
	Events             handlers.EventsService
	Registrations      handlers.RegistrationsService
	Users              UserStore
	JWT                *auth.Manager
	ReadyChecks        map[string]handlers.Pinger
	CORSOrigins        []string
	RateLimitPerMinute int
}

func NewRouter(d RouterDeps) *gin.Engine {
	if d.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(gin.Recovery())
	if d.ServiceName != "" {
		r.Use(otelgin.Middleware(d.ServiceName))
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(d.Prom.GinHandleMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())

	health := handlers.NewHealthHandler(d.ReadyChecks)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	r.GET("/metrics", d.Prom.MetricsHandler())

	authMw := middlewares.NewAuthMiddleware(d.JWT)
	authH := handlers.NewAuthHandler(d.Users, d.Users, d.JWT)
	eventsH := handlers.NewEventsHandler(d.Events)
	regsH := handlers.NewRegistrationHandler(d.Registrations)
	usersH := handlers.NewUsersHandler(d.Users)
	profileH := handlers.NewProfileHandler(d.Users)

	limiter := middlewares.NewRateLimiter(d.RateLimitPerMinute, time.Minute)
	credentialLimiter := middlewares.NewRateLimiter(d.RateLimitPerMinute, time.Minute)

	api := r.Group("/api")

	authGroup := api.Group("/auth", limiter.Middleware(middlewares.KeyByIP))
	authGroup.POST("/register", authH.SignUp)
	authGroup.POST("/login", authH.Login)

	secured := api.Group("", authMw.RequireAuth())
	secured.GET("/users/me", authH.Me)
	secured.PUT("/users/me", profileH.UpdateProfile)
	secured.PUT("/users/me/email", credentialLimiter.Middleware(middlewares.KeyByUserOrIP), profileH.UpdateEmail)
	secured.PUT("/users/me/password", credentialLimiter.Middleware(middlewares.KeyByUserOrIP), profileH.UpdatePassword)
	secured.GET("/events", eventsH.ListAllEvents)
	secured.GET("/events/approved", eventsH.ListApprovedEvents)
	secured.GET("/events/:id", eventsH.GetEventByID)
	secured.PUT("/events/:id/approve", middlewares.RequireAnyRole(user.RoleAdmin), eventsH.ApproveEvent)

	faculty := secured.Group("/faculty", middlewares.RequireAnyRole(user.RoleFaculty, user.RoleAdmin))
	faculty.GET("/hello", eventsH.FacultyHello)
	faculty.POST("/events", eventsH.CreateEvent)
	faculty.GET("/events", eventsH.ListAllEvents)
	faculty.GET("/events/:id/registrations", regsH.ListForEvent)
	faculty.PUT("/registrations/:id/attendance", regsH.RecordAttendance)
	faculty.PUT("/registrations/:id/certificate", regsH.IssueCertificate)

	participation := secured.Group("/participation", middlewares.RequireAnyRole(user.RoleStudent, user.RoleFaculty))
	participation.POST("/events/:id/register", regsH.Register)
	participation.POST("/events/:id/feedback", regsH.SubmitFeedbackForEvent)
	participation.PUT("/registrations/:id/feedback", regsH.SubmitFeedback)
	participation.GET("/events/registered", regsH.ListMine)

	admin := secured.Group("/admin", middlewares.RequireAnyRole(user.RoleAdmin))
	admin.POST("/events", eventsH.CreateEvent)
	admin.PUT("/events/:id", eventsH.UpdateEvent)
	admin.DELETE("/events/:id", eventsH.DeleteEvent)
	admin.GET("/events/:id/registrations", regsH.ListForEvent)
	admin.GET("/events/:id/participants/csv", regsH.ExportParticipants)
	admin.GET("/users", usersH.ListUsers)
	admin.GET("/users/:id", usersH.GetUser)
	admin.PUT("/users/:id", usersH.UpdateUser)
	admin.DELETE("/users/:id", usersH.DeleteUser)
	admin.PUT("/users/:id/role", usersH.UpdateRole)

	return r
}

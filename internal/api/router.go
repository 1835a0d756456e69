package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/hackbox-events/server/internal/api/handlers"
	"github.com/hackbox-events/server/internal/api/middleware"
	"github.com/hackbox-events/server/internal/audit"
	"github.com/hackbox-events/server/internal/auth"
	"github.com/hackbox-events/server/internal/config"
	"github.com/hackbox-events/server/internal/domain/accounts"
	"github.com/hackbox-events/server/internal/domain/events"
	"github.com/hackbox-events/server/internal/domain/registrations"
	"github.com/hackbox-events/server/internal/metrics"
)

// Deps are the services the HTTP surface is built on. Health may be nil.
type Deps struct {
	Config        config.Config
	Logger        zerolog.Logger
	Tokens        *auth.JWTManager
	Accounts      *accounts.Service
	Events        *events.Service
	Registrations *registrations.Service
	Health        *handlers.HealthChecker

	Version   string
	GitCommit string
	BuildDate string
}

// Router is the root handler. Close stops the rate limiter's background sweep.
type Router struct {
	handler http.Handler
	limiter *middleware.RateLimiter
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.handler.ServeHTTP(w, r)
}

func (rt *Router) Close() {
	rt.limiter.Stop()
}

func NewRouter(deps Deps) *Router {
	cfg := deps.Config
	env := cfg.Environment

	authHandler := handlers.NewAuthHandler(deps.Accounts, env)
	eventsHandler := handlers.NewEventsHandler(deps.Events, env)
	registrationsHandler := handlers.NewRegistrationsHandler(deps.Registrations, env)
	limiter := middleware.NewRateLimiter(cfg.RateLimit)

	jsonBody := middleware.RequestSize(middleware.DefaultMaxBodySize)
	largest := max(cfg.Storage.MaxUploadBytes, cfg.Storage.MaxPhotoBytes)
	eventForm := middleware.UploadRequestSize(largest, 2)
	documentForm := middleware.UploadRequestSize(cfg.Storage.MaxUploadBytes, 1)
	photoForm := middleware.UploadRequestSize(cfg.Storage.MaxPhotoBytes, events.MaxPhotosPerUpload)

	roles := func(h http.HandlerFunc, allowed ...auth.Role) http.Handler {
		return middleware.RequireRoles(env, allowed...)(h)
	}
	admin := []auth.Role{auth.RoleAdmin}
	committee := []auth.Role{auth.RoleConvenor, auth.RoleMember}
	everyone := []auth.Role{auth.RoleAdmin, auth.RoleConvenor, auth.RoleMember}

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", handlers.Healthz())
	if deps.Health != nil {
		mux.Handle("GET /health", deps.Health.Health())
	}
	mux.Handle("GET /version", VersionHandler(deps.Version, deps.GitCommit, deps.BuildDate))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.Handle("POST /api/v1/auth/login", limiter.Limit(middleware.TierLogin)(jsonBody(http.HandlerFunc(authHandler.Login))))

	mux.Handle("POST /api/v1/events", eventForm(roles(eventsHandler.Create, committee...)))
	mux.Handle("GET /api/v1/events/published", http.HandlerFunc(eventsHandler.ListPublished))
	mux.Handle("GET /api/v1/events/unapproved", roles(eventsHandler.ListUnapproved, admin...))
	mux.Handle("GET /api/v1/events/approved", roles(eventsHandler.ListApproved, everyone...))
	mux.Handle("GET /api/v1/committees/{committeeId}/events", roles(eventsHandler.ListCommittee, committee...))
	mux.Handle("GET /api/v1/events/{id}", http.HandlerFunc(eventsHandler.Get))
	mux.Handle("POST /api/v1/events/{id}/approve", roles(eventsHandler.Approve, admin...))
	mux.Handle("POST /api/v1/events/{id}/toggle-publish", jsonBody(roles(eventsHandler.TogglePublish, admin...)))
	mux.Handle("DELETE /api/v1/events/{id}", roles(eventsHandler.Delete, admin...))
	mux.Handle("POST /api/v1/events/{id}/report", documentForm(roles(eventsHandler.UploadReport, committee...)))
	mux.Handle("POST /api/v1/events/{id}/photos", photoForm(roles(eventsHandler.UploadPhotos, committee...)))
	mux.Handle("POST /api/v1/events/{id}/certificates", jsonBody(roles(eventsHandler.SendCertificates, everyone...)))

	mux.Handle("POST /api/v1/events/{id}/problem-statements", jsonBody(roles(eventsHandler.AddProblemStatement, auth.RoleConvenor)))
	mux.Handle("GET /api/v1/events/{id}/problem-statements", roles(eventsHandler.ListProblemStatements, committee...))
	mux.Handle("GET /api/v1/problem-statements/{id}", roles(eventsHandler.GetProblemStatement, committee...))
	mux.Handle("POST /api/v1/events/{id}/submissions", documentForm(roles(eventsHandler.AddSubmission, auth.RoleMember)))
	mux.Handle("GET /api/v1/events/{id}/problem-statements/{problemStatementId}/submissions", roles(eventsHandler.ViewSubmissions, auth.RoleConvenor))
	mux.Handle("POST /api/v1/events/{id}/submissions/{submissionId}/evaluate", jsonBody(roles(eventsHandler.EvaluateSubmission, auth.RoleConvenor)))
	mux.Handle("PUT /api/v1/submissions/{id}", documentForm(roles(eventsHandler.UpdateSubmission, everyone...)))
	mux.Handle("GET /api/v1/submissions", roles(eventsHandler.AllSubmissions, everyone...))

	mux.Handle("POST /api/v1/registrations/students", jsonBody(http.HandlerFunc(registrationsHandler.RegisterStudent)))
	mux.Handle("POST /api/v1/registrations/faculty", jsonBody(http.HandlerFunc(registrationsHandler.RegisterFaculty)))
	mux.Handle("GET /api/v1/registrations", roles(registrationsHandler.List, everyone...))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	auditLogger := audit.NewLogger(deps.Logger)

	var handler http.Handler = mux
	handler = limiter.Middleware(handler)
	handler = middleware.Authenticate(deps.Tokens, env)(handler)
	handler = withAudit(auditLogger)(handler)
	handler = corsHandler.Handler(handler)
	handler = middleware.SecurityHeaders(env == "production")(handler)
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.Tracing(handler)
	handler = middleware.RequestLogging(handler)
	handler = middleware.Recoverer(env)(handler)
	handler = middleware.CorrelationID(deps.Logger)(handler)

	return &Router{handler: handler, limiter: limiter}
}

func withAudit(logger *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(audit.WithLogger(r.Context(), logger)))
		})
	}
}

package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/udnboss/workflow/internal/config"
	"github.com/udnboss/workflow/internal/observability"
	"github.com/udnboss/workflow/internal/workflow"
)

// Dependencies holds all injected dependencies for the HTTP transport layer.
type Dependencies struct {
	Config       *config.Config
	Logger       *zap.Logger
	Service      *workflow.Service
	Authenticate func(http.Handler) http.Handler
	Metrics      *observability.Metrics
	Readiness    observability.ReadinessChecks
}

// NewRouter creates a chi.Router with the full middleware pipeline and all
// route registrations. Health, readiness, and metrics endpoints bypass the
// authentication middleware.
func NewRouter(deps Dependencies) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Global middleware: applied to all routes including health.
	r.Use(Recovery(logger))
	r.Use(CORS(deps.Config.Server.CORS))
	r.Use(RequestID)
	r.Use(SecurityHeaders)

	// Public routes, bypass authentication.
	r.Get("/healthz", observability.HandleHealth())
	r.Get("/readyz", observability.HandleReady(deps.Readiness))
	if deps.Config.Observability.Metrics.Enabled {
		path := deps.Config.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, observability.Handler())
	}

	// Authenticated routes, full middleware chain.
	auth := deps.Authenticate
	if auth == nil {
		auth = func(next http.Handler) http.Handler { return next }
	}

	r.Group(func(r chi.Router) {
		r.Use(observability.TracingMiddleware)
		r.Use(auth)
		r.Use(HandlerTimeout(deps.Config.Server.HandlerTimeout))
		r.Use(RequestLogging(logger))
		if deps.Metrics != nil {
			r.Use(deps.Metrics.Middleware)
		}

		r.Route("/api", func(r chi.Router) {
			r.Get("/definitions", handleDefinitionList(deps.Service))
			r.Get("/definitions/{definitionId}", handleDefinitionGet(deps.Service))

			r.Post("/documents", handleDocumentCreate(deps.Service))
			r.Get("/documents", handleDocumentList(deps.Service))
			r.Get("/documents/{documentId}", handleDocumentGet(deps.Service))
			r.Get("/documents/{documentId}/actions", handlePossibleActions(deps.Service))
			r.Post("/documents/{documentId}/actions/{actionId}", handleActionPerform(deps.Service))
			r.Get("/documents/{documentId}/events", handleDocumentEvents(deps.Service))
		})
	})

	return r
}

package v1

import (
	"encoding/json"
	"net/http"

	"mailauth/internal/api/errors"
	"mailauth/internal/api/handlers"
	"mailauth/internal/api/middleware"
)

// Router manages API v1 routing.
type Router struct {
	mux              *http.ServeMux
	emailAuthHandler *handlers.EmailAuthHandler
	docsHandler      *handlers.DocsHandler
	logger           *middleware.Logger
	rateLimiter      *middleware.RateLimiter
	validator        *middleware.Validator
	errorHandler     *errors.ErrorHandler
}

// NewRouter creates a new v1 Router with all dependencies.
func NewRouter(
	emailAuthHandler *handlers.EmailAuthHandler,
	docsHandler *handlers.DocsHandler,
	logger *middleware.Logger,
	rateLimiter *middleware.RateLimiter,
	validator *middleware.Validator,
	errorHandler *errors.ErrorHandler,
) *Router {
	r := &Router{
		mux:              http.NewServeMux(),
		emailAuthHandler: emailAuthHandler,
		docsHandler:      docsHandler,
		logger:           logger,
		rateLimiter:      rateLimiter,
		validator:        validator,
		errorHandler:     errorHandler,
	}
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	r.mux.HandleFunc("GET /docs/", r.docsHandler.HandleDocs)

	checkHandler := r.validator.ValidateJSON(r.emailAuthHandler.HandleCheck, handlers.ValidateCheckRequestJSON)
	r.mux.HandleFunc("POST /check", r.logger.Log(r.rateLimiter.Limit(checkHandler)))

	r.mux.HandleFunc("GET /healthz", r.handleHealth)

	r.mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		r.errorHandler.HandleNotFound(w, "Endpoint not found: "+req.URL.Path)
	})
}

// Handler returns an http.HandlerFunc that routes API v1 requests.
func (r *Router) Handler() http.HandlerFunc {
	return r.mux.ServeHTTP
}

// handleHealth reports liveness for orchestrators and load balancers.
func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": "v1"})
}

// Command api runs the mail authentication HTTP service.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	apierrors "mailauth/internal/api/errors"
	"mailauth/internal/api/handlers"
	"mailauth/internal/api/middleware"
	v1 "mailauth/internal/api/v1"
	"mailauth/internal/api/version"
	"mailauth/internal/config"
	"mailauth/internal/di"
)

func main() {
	configFile := flag.String("config", "", "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("[api] Failed to load configuration: %v", err)
	}

	container := di.NewContainer("mailauth-api", cfg)
	logger := container.GetLogger()

	apiCfg := config.NewAPIConfig()

	errorHandler := apierrors.NewErrorHandler(logger)
	logMiddleware := middleware.NewLogger(logger)
	rateLimiter := middleware.NewRateLimiter(logger).WithErrorHandler(errorHandler)
	validator := middleware.NewValidator(logger)

	emailAuthHandler := handlers.NewEmailAuthHandler(container.GetEmailAuthService())
	docsHandler := handlers.NewDocsHandler(logger)

	router := v1.NewRouter(emailAuthHandler, docsHandler, logMiddleware, rateLimiter, validator, errorHandler)

	versioned := version.NewVersionedHandler()
	versioned.RegisterHandler(version.V1, router.Handler())

	mux := http.NewServeMux()
	mux.Handle("/api/", versioned)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	addr := fmt.Sprintf("%s:%d", apiCfg.Host, apiCfg.Port)
	logger.Info("Starting mail authentication API on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("[api] Server failed: %v", err)
	}
}

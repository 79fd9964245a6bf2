package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"mailauth/internal/api/errors"
	"mailauth/pkg/logging"
	"mailauth/pkg/ratelimit"
)

// RateLimiter is a per-client-IP HTTP middleware built on pkg/ratelimit's
// token bucket, keyed per remote address under the "emailauth" service
// budget (pkg/ratelimit/config.go).
type RateLimiter struct {
	limiter      *ratelimit.ServiceLimiter
	config       ratelimit.ServiceConfig
	logger       *logging.Logger
	errorHandler *errors.ErrorHandler
}

// NewRateLimiter creates a new rate limiting middleware using the
// "emailauth" service budget.
func NewRateLimiter(logger *logging.Logger) *RateLimiter {
	return &RateLimiter{
		limiter: ratelimit.NewServiceLimiter(),
		config:  ratelimit.GetConfig("emailauth"),
		logger:  logger,
	}
}

// WithErrorHandler sets the error handler for the rate limiter
func (rl *RateLimiter) WithErrorHandler(errorHandler *errors.ErrorHandler) *RateLimiter {
	rl.errorHandler = errorHandler
	return rl
}

func (rl *RateLimiter) getClientIP(r *http.Request) string {
	if xForwardedFor := r.Header.Get("X-Forwarded-For"); xForwardedFor != "" {
		ips := strings.Split(xForwardedFor, ",")
		if clientIP := strings.TrimSpace(ips[0]); clientIP != "" {
			return clientIP
		}
	}
	if xRealIP := r.Header.Get("X-Real-IP"); xRealIP != "" {
		return xRealIP
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// Limit is a middleware that limits requests per client IP.
func (rl *RateLimiter) Limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := rl.getClientIP(r)
		if !rl.limiter.Allow(ip, rl.config.Rate, rl.config.BucketSize) {
			rl.logger.Info("Rate limit exceeded for IP: %s", ip)
			if rl.errorHandler != nil {
				rl.errorHandler.HandleRateLimitError(w)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
			return
		}
		next(w, r)
	}
}

// Logger represents a middleware adapter for logging
type Logger struct {
	logger *logging.Logger
}

// NewLogger creates a new logging middleware
func NewLogger(logger *logging.Logger) *Logger {
	return &Logger{
		logger: logger,
	}
}

// Log is a middleware that logs HTTP requests
func (l *Logger) Log(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next(rw, r)

		duration := time.Since(start)
		l.logger.Info("%s %s %s %d %s", r.RemoteAddr, r.Method, r.URL.Path, rw.statusCode, duration)
	}
}

// responseWriter is a wrapper around http.ResponseWriter that captures the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code and calls the underlying ResponseWriter's WriteHeader
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Validator represents a middleware adapter for request validation
type Validator struct {
	logger *logging.Logger
}

// NewValidator creates a new validation middleware
func NewValidator(logger *logging.Logger) *Validator {
	return &Validator{
		logger: logger,
	}
}

// ValidateJSON is a middleware that validates JSON request bodies
func (v *Validator) ValidateJSON(next http.HandlerFunc, validate func([]byte) (bool, map[string]interface{})) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			v.logger.Error("Error reading request body: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid request body"})
			return
		}
		r.Body = io.NopCloser(bytes.NewBuffer(body))

		valid, validationErrs := validate(body)
		if !valid {
			v.logger.Info("Request validation failed: %v", validationErrs)
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":       "Validation failed",
				"validations": validationErrs,
			})
			return
		}

		ctx := context.WithValue(r.Context(), validatedBodyKey{}, body)
		r = r.WithContext(ctx)

		w.Header().Set("Content-Type", "application/json")
		next(w, r)
	}
}

type validatedBodyKey struct{}

package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"mailauth/pkg/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger("test", logging.LevelDebug, io.Discard)
}

func TestRateLimiterAllowsUnderBudgetAndBlocksOverBudget(t *testing.T) {
	rl := NewRateLimiter(testLogger())
	rl.config.Rate = 0
	rl.config.BucketSize = 1

	called := 0
	handler := rl.Limit(func(w http.ResponseWriter, r *http.Request) {
		called++
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/check", nil)
	req.RemoteAddr = "192.0.2.1:5555"

	rw1 := httptest.NewRecorder()
	handler(rw1, req)
	if rw1.Code != http.StatusOK {
		t.Fatalf("first request: got %d, want 200", rw1.Code)
	}

	rw2 := httptest.NewRecorder()
	handler(rw2, req)
	if rw2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d, want 429", rw2.Code)
	}
	if called != 1 {
		t.Fatalf("handler called %d times, want 1", called)
	}
}

func TestRateLimiterKeysByXForwardedFor(t *testing.T) {
	rl := NewRateLimiter(testLogger())
	rl.config.Rate = 0
	rl.config.BucketSize = 1

	handler := rl.Limit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req1 := httptest.NewRequest(http.MethodPost, "/check", nil)
	req1.RemoteAddr = "203.0.113.1:1"
	req1.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")

	req2 := httptest.NewRequest(http.MethodPost, "/check", nil)
	req2.RemoteAddr = "203.0.113.1:1"
	req2.Header.Set("X-Forwarded-For", "198.51.100.2")

	rw1 := httptest.NewRecorder()
	handler(rw1, req1)
	if rw1.Code != http.StatusOK {
		t.Fatalf("got %d, want 200 for first client IP", rw1.Code)
	}

	rw2 := httptest.NewRecorder()
	handler(rw2, req2)
	if rw2.Code != http.StatusOK {
		t.Fatalf("got %d, want 200 for distinct client IP", rw2.Code)
	}
}

func TestLoggerCapturesStatusCode(t *testing.T) {
	l := NewLogger(testLogger())
	handler := l.Log(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	rw := httptest.NewRecorder()
	handler(rw, req)

	if rw.Code != http.StatusTeapot {
		t.Fatalf("got %d, want 418", rw.Code)
	}
}

func TestValidateJSONRunsValidateFuncAndRejectsOnFailure(t *testing.T) {
	v := NewValidator(testLogger())
	called := false
	handler := v.ValidateJSON(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}, func(body []byte) (bool, map[string]interface{}) {
		return false, map[string]interface{}{"domain": "required"}
	})

	req := httptest.NewRequest(http.MethodPost, "/check", bytes.NewReader([]byte(`{}`)))
	rw := httptest.NewRecorder()
	handler(rw, req)

	if rw.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rw.Code)
	}
	if called {
		t.Fatal("next handler must not run when validation fails")
	}
}

func TestValidateJSONPassesThroughOnSuccess(t *testing.T) {
	v := NewValidator(testLogger())
	var gotBody []byte
	handler := v.ValidateJSON(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}, func(body []byte) (bool, map[string]interface{}) {
		return true, nil
	})

	payload := []byte(`{"domain":"example.com","sender_ip":"192.0.2.10"}`)
	req := httptest.NewRequest(http.MethodPost, "/check", bytes.NewReader(payload))
	rw := httptest.NewRecorder()
	handler(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rw.Code)
	}
	if !bytes.Equal(gotBody, payload) {
		t.Fatalf("next handler saw body %q, want %q", gotBody, payload)
	}
}

func TestValidateJSONRejectsDisallowedMethod(t *testing.T) {
	v := NewValidator(testLogger())
	handler := v.ValidateJSON(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run for a disallowed method")
	}, func(body []byte) (bool, map[string]interface{}) {
		return true, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/check", nil)
	rw := httptest.NewRecorder()
	handler(rw, req)

	if rw.Code != http.StatusMethodNotAllowed {
		t.Fatalf("got %d, want 405", rw.Code)
	}
}

package handlers

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"mailauth/domain/emailauth"
	"mailauth/internal/api/models"
	"mailauth/pkg/validation"
	"mailauth/ports/input"
)

// EmailAuthHandler encapsulates the handler for the /check endpoint.
type EmailAuthHandler struct {
	emailAuthService input.EmailAuthPort
}

// NewEmailAuthHandler creates a new email authentication handler with the given service
func NewEmailAuthHandler(emailAuthService input.EmailAuthPort) *EmailAuthHandler {
	return &EmailAuthHandler{
		emailAuthService: emailAuthService,
	}
}

// HandleCheck serves POST /check: one SPF/DKIM/DMARC evaluation per request.
func (h *EmailAuthHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var req models.CheckRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Domain = validation.SanitizeDomain(req.Domain)
	if err := validation.ValidateDomain(req.Domain); err != nil {
		writeAPIError(w, http.StatusBadRequest, "Invalid domain: "+err.Error())
		return
	}
	// sender_ip is NOT validated here: an unparsable IP is not a client
	// error, it's evaluated by SPF and surfaced as PERMERROR (spf.go's
	// evaluate checks net.ParseIP itself), matching the CLI's behavior.

	var rawMessage []byte
	if req.RawEmailB64 != nil && *req.RawEmailB64 != "" {
		rawMessage, err = base64.StdEncoding.DecodeString(*req.RawEmailB64)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, "Invalid base64-encoded raw_email")
			return
		}
	}

	checkReq := emailauth.CheckRequest{
		Domain:     req.Domain,
		SenderIP:   req.SenderIP,
		RawMessage: rawMessage,
	}
	if req.MailFrom != nil {
		checkReq.MailFrom = *req.MailFrom
	}
	if req.Helo != nil {
		checkReq.Helo = *req.Helo
	}

	verdict, err := h.emailAuthService.Check(r.Context(), checkReq)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, "Mail authentication processing failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.FromVerdict(verdict))
}

func writeAPIError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.APIError{Detail: detail})
}

// ValidateCheckRequestJSON is the middleware.Validator.ValidateJSON callback
// for POST /check: it only checks that the body is well-formed JSON carrying
// the required fields, leaving domain/IP content validation to HandleCheck
// and the SPF evaluator itself.
func ValidateCheckRequestJSON(body []byte) (bool, map[string]interface{}) {
	var req models.CheckRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return false, map[string]interface{}{"body": "invalid JSON: " + err.Error()}
	}

	failures := map[string]interface{}{}
	if req.Domain == "" {
		failures["domain"] = "required"
	}
	if req.SenderIP == "" {
		failures["sender_ip"] = "required"
	}
	if len(failures) > 0 {
		return false, failures
	}
	return true, nil
}

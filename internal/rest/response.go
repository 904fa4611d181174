package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/pennywise/pennywise/internal/errs"
	log "github.com/sirupsen/logrus"
)

const (
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeNotFound                = "NOT_FOUND"
	CodeValidationFailed        = "VALIDATION_FAILED"
	CodeRateLimited             = "RATE_LIMITED"
	CodeInvalidExternalResponse = "INVALID_EXTERNAL_RESPONSE"
	CodeInternal                = "INTERNAL"
)

// ErrorResponse is the error half of the response envelope.
type ErrorResponse struct {
	Code              string            `json:"code"`
	Message           string            `json:"message"`
	Fields            map[string]string `json:"fields,omitempty"`
	RetryAfterSeconds int               `json:"retryAfterSeconds,omitempty"`
}

type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorEnvelope struct {
	Success bool          `json:"success"`
	Error   ErrorResponse `json:"error"`
}

// WriteJSON writes {"success": true, "data": data} with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(successEnvelope{Success: true, Data: data}); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

// WriteError maps err onto its error class and writes {"success": false, "error": {...}}.
func WriteError(w http.ResponseWriter, err error) {
	status, body := toErrorResponse(err)
	if body.Code == CodeRateLimited && body.RetryAfterSeconds > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(body.RetryAfterSeconds))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encodeErr := json.NewEncoder(w).Encode(errorEnvelope{Success: false, Error: body}); encodeErr != nil {
		log.Errorf("failed to encode error response: %v", encodeErr)
	}
}

func toErrorResponse(err error) (int, ErrorResponse) {
	var validationErr *errs.ValidationError
	var rateLimitErr *errs.RateLimitError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, ErrorResponse{
			Code:    CodeValidationFailed,
			Message: "Request validation failed",
			Fields:  validationErr.Fields,
		}
	case errors.As(err, &rateLimitErr):
		return http.StatusTooManyRequests, ErrorResponse{
			Code:              CodeRateLimited,
			Message:           "Too many requests, please try again later",
			RetryAfterSeconds: rateLimitErr.RetryAfterSeconds(),
		}
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest, ErrorResponse{Code: CodeValidationFailed, Message: err.Error()}
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized, ErrorResponse{Code: CodeUnauthorized, Message: "Unauthorized"}
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Code: CodeNotFound, Message: err.Error()}
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests, ErrorResponse{Code: CodeRateLimited, Message: "Too many requests, please try again later"}
	case errors.Is(err, errs.ErrInvalidExternalResponse):
		log.Warnf("external service returned an invalid response: %v", err)
		return http.StatusBadGateway, ErrorResponse{Code: CodeInvalidExternalResponse, Message: err.Error()}
	default:
		log.Errorf("internal error: %v", err)
		return http.StatusInternalServerError, ErrorResponse{Code: CodeInternal, Message: "Internal server error"}
	}
}

// DecodeJSON decodes the request body into v. A malformed body is reported as a validation error on "body".
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Debugf("invalid request body: %v", err)
		return errs.NewValidationError().Add("body", "Invalid request body format")
	}
	return nil
}

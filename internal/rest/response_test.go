package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pennywise/pennywise/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorResponse  `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteJSON(rec, http.StatusCreated, map[string]int{"count": 2})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"count":2}`, string(env.Data))
	assert.Nil(t, env.Error)
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unauthorized", fmt.Errorf("no owner: %w", errs.ErrUnauthorized), http.StatusUnauthorized, CodeUnauthorized},
		{"not found", fmt.Errorf("transaction not found: %w", errs.ErrNotFound), http.StatusNotFound, CodeNotFound},
		{"validation", errs.NewValidationError().Add("amount", "must be positive"), http.StatusBadRequest, CodeValidationFailed},
		{"rate limited", &errs.RateLimitError{RetryAfter: 30 * time.Minute}, http.StatusTooManyRequests, CodeRateLimited},
		{"external", fmt.Errorf("bad json: %w", errs.ErrInvalidExternalResponse), http.StatusBadGateway, CodeInvalidExternalResponse},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			WriteError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			env := decode(t, rec)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}

	t.Run("should expose field errors and retry hints", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, errs.NewValidationError().Add("recurringInterval", "is required"))
		env := decode(t, rec)
		assert.Equal(t, "is required", env.Error.Fields["recurringInterval"])

		rec = httptest.NewRecorder()
		WriteError(rec, &errs.RateLimitError{RetryAfter: 30 * time.Minute})
		env = decode(t, rec)
		assert.Equal(t, 1800, env.Error.RetryAfterSeconds)
		assert.Equal(t, "1800", rec.Header().Get("Retry-After"))
	})

	t.Run("should not leak internal error messages", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, errors.New("pq: password authentication failed"))
		assert.False(t, strings.Contains(rec.Body.String(), "password"))
	})
}

func TestDecodeJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	var v map[string]any

	err := DecodeJSON(req, &v)

	assert.ErrorIs(t, err, errs.ErrValidation)
}

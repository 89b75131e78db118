package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskpulse/internal/breaker"
	"riskpulse/internal/risk"
	"riskpulse/internal/signals"
)

func newTestHandler() *ErrorHandler {
	return NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)
}

func doHandle(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	h := newTestHandler()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/risk/alpha/status", nil)

	h.HandleError(w, r, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestErrorToProblem_DomainMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "validation error maps to 400",
			err:        &risk.ValidationError{Field: "planned_budget", Reason: "signal absent"},
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "unknown scope maps to 404",
			err:        fmt.Errorf("fetch signals: %w", signals.ErrUnknownScope),
			wantStatus: http.StatusNotFound,
			wantType:   TypeScopeNotFound,
		},
		{
			name:       "open circuit maps to 503",
			err:        fmt.Errorf("compute: %w", breaker.ErrOpen),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeCircuitOpen,
		},
		{
			name:       "computation error maps to 500",
			err:        &risk.ComputationError{Op: "posterior", Err: fmt.Errorf("non-finite")},
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeComputation,
		},
		{
			name:       "context timeout maps to 504",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "unknown error maps to 500",
			err:        fmt.Errorf("something odd"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := doHandle(t, tt.err)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
		})
	}
}

func TestErrorToProblem_APIError(t *testing.T) {
	w, body := doHandle(t, ScopeNotFoundError("ghost"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, TypeScopeNotFound, body["type"])
	assert.Equal(t, "SCOPE_NOT_FOUND", body["error_code"])
	assert.Equal(t, "ghost", body["details"])
}

func TestProblemDetails_MarshalIncludesExtensions(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed", "bad rating", "/api/risk/alpha/feedback").
		WithExtension("field", "rating")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "rating", body["field"])
	assert.Equal(t, "bad rating", body["detail"])
}

func TestMiddleware_RecoversPanic(t *testing.T) {
	h := newTestHandler()
	mux := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandleError_NilIsNoop(t *testing.T) {
	h := newTestHandler()
	w := httptest.NewRecorder()
	h.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Empty(t, w.Body.String())
}

package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "riskpulse/internal/errors"
	"riskpulse/internal/middleware"
)

// RiskHandler handles scope assessment HTTP requests
type RiskHandler struct {
	service      RiskService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validation   *middleware.ValidationMiddleware
}

// NewRiskHandler creates a new risk handler
func NewRiskHandler(service RiskService, logger *slog.Logger) *RiskHandler {
	errorHandler := apierrors.NewErrorHandler(logger, false)
	return &RiskHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "risk")),
		errorHandler: errorHandler,
		validation:   middleware.NewValidationMiddleware(logger, errorHandler),
	}
}

// RegisterRoutes registers the risk routes
func (h *RiskHandler) RegisterRoutes(r chi.Router) {
	r.Route("/risk/{scope}", func(r chi.Router) {
		r.Get("/status", h.GetStatus)
		r.Get("/window", h.GetWindow)
		r.Post("/feedback", h.SubmitFeedback)
		r.Post("/acknowledge", h.Acknowledge)
	})
}

// FeedbackRequest is the body of POST /risk/{scope}/feedback.
type FeedbackRequest struct {
	DecisionID            string  `json:"decision_id" validate:"required,max=128"`
	Rating                *int    `json:"rating" validate:"required,oneof=0 1"`
	UncertaintyAtDecision float64 `json:"uncertainty_at_decision" validate:"unitinterval"`
}

// AcknowledgeRequest is the body of POST /risk/{scope}/acknowledge.
type AcknowledgeRequest struct {
	SuggestionID string `json:"suggestion_id" validate:"required,max=128"`
}

// scopeParam extracts and validates the scope path parameter.
func (h *RiskHandler) scopeParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	scope := chi.URLParam(r, "scope")
	if scope == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("scope", "scope is required"))
		return "", false
	}
	if len(scope) > 64 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("scope", "scope must be at most 64 characters"))
		return "", false
	}
	return scope, true
}

// GetStatus handles GET /risk/{scope}/status
func (h *RiskHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, ok := h.scopeParam(w, r)
	if !ok {
		return
	}

	assessment, err := h.service.GetStatus(ctx, scope)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if assessment.Stale {
		w.Header().Set("X-Risk-Stale", "true")
	}
	render.JSON(w, r, assessment)
}

// GetWindow handles GET /risk/{scope}/window. Optional horizon_hours and
// interval_hours query parameters override the configured projection.
func (h *RiskHandler) GetWindow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, ok := h.scopeParam(w, r)
	if !ok {
		return
	}

	horizon, ok := h.hoursParam(w, r, "horizon_hours", 168)
	if !ok {
		return
	}
	interval, ok := h.hoursParam(w, r, "interval_hours", 72)
	if !ok {
		return
	}

	points, err := h.service.Window(ctx, scope, horizon, interval)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"scope":  scope,
		"points": points,
	})
}

// hoursParam parses an optional positive integer hour parameter.
func (h *RiskHandler) hoursParam(w http.ResponseWriter, r *http.Request, param string, max int) (time.Duration, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return 0, true
	}

	hours, err := strconv.Atoi(value)
	if err != nil || hours < 1 || hours > max {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(param,
			param+" must be an integer between 1 and "+strconv.Itoa(max)))
		return 0, false
	}
	return time.Duration(hours) * time.Hour, true
}

// SubmitFeedback handles POST /risk/{scope}/feedback
func (h *RiskHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, ok := h.scopeParam(w, r)
	if !ok {
		return
	}

	var req FeedbackRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validation.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if err := h.service.SubmitFeedback(ctx, scope, req.DecisionID, *req.Rating, req.UncertaintyAtDecision); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "feedback accepted",
		slog.String("scope", scope),
		slog.String("decision_id", req.DecisionID))

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]interface{}{
		"status":      "accepted",
		"scope":       scope,
		"decision_id": req.DecisionID,
	})
}

// Acknowledge handles POST /risk/{scope}/acknowledge
func (h *RiskHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, ok := h.scopeParam(w, r)
	if !ok {
		return
	}

	var req AcknowledgeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validation.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if err := h.service.Acknowledge(ctx, scope, req.SuggestionID); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":        "acknowledged",
		"scope":         scope,
		"suggestion_id": req.SuggestionID,
	})
}

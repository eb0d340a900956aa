package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/plate-calculator/internal/calculator"
	"github.com/eugenenazirov/plate-calculator/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler wires calculator and storage dependencies into HTTP handlers.
type Handler struct {
	calculator calculator.Calculator
	storage    storage.Storage
	logger     *zap.Logger
	pages      *pageRenderer

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithHandlerLogger sets the logger used for non-fatal handler failures.
func WithHandlerLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(calc calculator.Calculator, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		calculator: calc,
		storage:    store,
		logger:     zap.NewNop(),
		pages:      newPageRenderer(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePlates(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := platesResponse{
		Plates:    calculator.Plates(),
		BarWeight: calculator.StandardBarWeight,
		Modes:     calculator.Modes(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if req.Weight == nil {
		writeError(w, http.StatusBadRequest, "Invalid weight", "weight is required")
		return
	}

	mode := calculator.ModeBarbell
	if req.Mode != "" {
		parsed, err := calculator.ParseMode(req.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid mode", err.Error())
			return
		}
		mode = parsed
	}

	sessionID := ensureSession(w, r)
	result, err := h.calculate(r.Context(), sessionID, *req.Weight, mode)
	if err != nil {
		var inputErr *calculator.InputError
		switch {
		case errors.As(err, &inputErr):
			writeError(w, http.StatusBadRequest, "Invalid weight", inputErr.Reason, "Enter a positive weight such as 135 or 47.5")
		case errors.Is(err, calculator.ErrInvalidMode):
			writeError(w, http.StatusBadRequest, "Invalid mode", err.Error())
		default:
			writeInternalError(w, err)
		}
		return
	}

	resp := calculateResponse{
		Mode:       mode,
		Result:     result,
		Difference: result.Difference(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := ensureSession(w, r)

	entries, err := h.storage.List(sessionID)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{History: entries})
}

func (h *Handler) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := ensureSession(w, r)

	if err := h.storage.Clear(sessionID); err != nil {
		writeInternalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// calculate runs the calculator and records a successful result in the
// caller's session history. History failures are logged, not returned.
func (h *Handler) calculate(ctx context.Context, sessionID string, weight float64, mode calculator.Mode) (calculator.Result, error) {
	start := time.Now()
	result, err := h.calculator.Calculate(weight, mode)
	if err != nil {
		return calculator.Result{}, err
	}

	h.logger.Debug("plates calculated",
		zap.String("mode", string(mode)),
		zap.Float64("target", result.TargetWeight),
		zap.Float64("achieved", result.AchievedWeight),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("request_id", requestIDFromContext(ctx)),
	)

	entry := storage.Entry{
		Mode:      mode,
		Result:    result,
		CreatedAt: h.clock(),
	}
	if err := h.storage.Append(sessionID, entry); err != nil {
		h.logger.Warn("failed to record history", zap.Error(err))
	}

	return result, nil
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type calculateRequest struct {
	Weight *float64 `json:"weight"`
	Mode   string   `json:"mode"`
}

type calculateResponse struct {
	Mode calculator.Mode `json:"mode"`
	calculator.Result
	Difference float64 `json:"difference"`
}

type platesResponse struct {
	Plates    []float64         `json:"plates"`
	BarWeight float64           `json:"barWeight"`
	Modes     []calculator.Mode `json:"modes"`
}

type historyResponse struct {
	History []storage.Entry `json:"history"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}

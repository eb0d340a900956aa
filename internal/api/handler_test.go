package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/plate-calculator/internal/calculator"
	"github.com/eugenenazirov/plate-calculator/internal/storage"
)

type controllableClock struct {
	mu  sync.RWMutex
	now time.Time
}

func newControllableClock(initial time.Time) *controllableClock {
	return &controllableClock{now: initial}
}

func (c *controllableClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *controllableClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func setupTestRouter(t *testing.T) (http.Handler, *controllableClock) {
	t.Helper()

	store := storage.NewMemoryStorage()
	calc := calculator.New()
	clock := newControllableClock(time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC))

	logger := zaptest.NewLogger(t)
	handler := NewHandler(calc, store, WithClock(clock.Now), WithHandlerLogger(logger))
	router := NewRouter(handler, logger, WithLogging(false))

	return router, clock
}

func doJSON(t *testing.T, router http.Handler, method, target string, payload any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatalf("expected %s cookie to be issued", sessionCookieName)
	return nil
}

type calculateBody struct {
	Mode           string                  `json:"mode"`
	Plates         []calculator.PlateCount `json:"plates"`
	BarWeight      float64                 `json:"barWeight"`
	TargetWeight   float64                 `json:"targetWeight"`
	AchievedWeight float64                 `json:"achievedWeight"`
	ExactMatch     bool                    `json:"exactMatch"`
	TotalPlates    int                     `json:"totalPlates"`
	Difference     float64                 `json:"difference"`
}

func (b calculateBody) count(weight float64) int {
	for _, p := range b.Plates {
		if p.Weight == weight {
			return p.Count
		}
	}
	return 0
}

func TestRequestIDHelpers(t *testing.T) {
	ctx := contextWithRequestID(context.Background(), "abc")
	if got := requestIDFromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
	resp := httptest.NewRecorder()
	writeInternalError(resp, assertError("boom"))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 status, got %d", resp.Code)
	}
}

type assertError string

func (a assertError) Error() string { return string(a) }

func TestHealthEndpoint(t *testing.T) {
	router, clock := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %s", body.Status)
	}
	if !body.Timestamp.Equal(clock.Now()) {
		t.Fatalf("expected timestamp %s, got %s", clock.Now(), body.Timestamp)
	}
}

func TestPlatesEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/plates", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Plates    []float64 `json:"plates"`
		BarWeight float64   `json:"barWeight"`
		Modes     []string  `json:"modes"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	want := calculator.Plates()
	if len(body.Plates) != len(want) {
		t.Fatalf("expected %d plates, got %d", len(want), len(body.Plates))
	}
	for i, p := range want {
		if body.Plates[i] != p {
			t.Fatalf("expected plate %v at position %d, got %v", p, i, body.Plates[i])
		}
	}
	if body.BarWeight != 45 {
		t.Fatalf("expected bar weight 45, got %v", body.BarWeight)
	}
	if len(body.Modes) != 2 {
		t.Fatalf("expected two modes, got %v", body.Modes)
	}
}

func TestCalculateEndpointDefaultsToBarbell(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/calculate", map[string]any{"weight": 135})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	sessionCookie(t, rec)

	var body calculateBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Mode != "barbell" {
		t.Fatalf("expected barbell mode, got %s", body.Mode)
	}
	if body.count(45) != 1 || body.TotalPlates != 1 {
		t.Fatalf("expected one 45 per side, got %+v", body.Plates)
	}
	if body.AchievedWeight != 135 || !body.ExactMatch || body.Difference != 0 {
		t.Fatalf("expected exact 135, got %+v", body)
	}
}

func TestCalculateEndpointTotalMode(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/calculate", map[string]any{"weight": 101, "mode": "total"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body calculateBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.BarWeight != 0 {
		t.Fatalf("expected no bar, got %v", body.BarWeight)
	}
	if body.count(45) != 2 || body.count(10) != 1 || body.TotalPlates != 3 {
		t.Fatalf("unexpected plates: %+v", body.Plates)
	}
	if body.ExactMatch || body.Difference != -1 {
		t.Fatalf("expected a 1 lb shortfall, got %+v", body)
	}
}

func TestCalculateEndpointRejectsInvalidInput(t *testing.T) {
	router, _ := setupTestRouter(t)

	cases := map[string]any{
		"zero weight":     map[string]any{"weight": 0},
		"negative weight": map[string]any{"weight": -45},
		"missing weight":  map[string]any{"mode": "total"},
		"unknown mode":    map[string]any{"weight": 135, "mode": "dumbbell"},
		"string weight":   map[string]any{"weight": "heavy"},
		"huge weight":     map[string]any{"weight": 1e21},
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/calculate", payload)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}

			var body errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body.Error == "" || body.Details == "" {
				t.Fatalf("expected a descriptive error, got %+v", body)
			}
		})
	}
}

func TestCalculateEndpointRejectsMalformedJSON(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/calculate", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHistoryFollowsSession(t *testing.T) {
	router, clock := setupTestRouter(t)

	first := doJSON(t, router, http.MethodPost, "/api/calculate", map[string]any{"weight": 135})
	cookie := sessionCookie(t, first)

	clock.Advance(time.Minute)
	for _, weight := range []float64{185, 225} {
		rec := doJSON(t, router, http.MethodPost, "/api/calculate", map[string]any{"weight": weight}, cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
	}

	rec := doJSON(t, router, http.MethodGet, "/api/history", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		History []storage.Entry `json:"history"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.History) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(body.History))
	}
	if body.History[0].Result.TargetWeight != 225 || body.History[2].Result.TargetWeight != 135 {
		t.Fatalf("expected newest first, got %+v", body.History)
	}
	if !body.History[0].CreatedAt.Equal(clock.Now()) {
		t.Fatalf("expected entry timestamp %s, got %s", clock.Now(), body.History[0].CreatedAt)
	}

	other := doJSON(t, router, http.MethodGet, "/api/history", nil)
	var otherBody struct {
		History []storage.Entry `json:"history"`
	}
	if err := json.NewDecoder(other.Body).Decode(&otherBody); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(otherBody.History) != 0 {
		t.Fatalf("expected a fresh session to have no history, got %d entries", len(otherBody.History))
	}

	del := doJSON(t, router, http.MethodDelete, "/api/history", nil, cookie)
	if del.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", del.Code)
	}
	after := doJSON(t, router, http.MethodGet, "/api/history", nil, cookie)
	if err := json.NewDecoder(after.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.History) != 0 {
		t.Fatalf("expected cleared history, got %d entries", len(body.History))
	}
}

func TestFailedCalculationIsNotRecorded(t *testing.T) {
	router, _ := setupTestRouter(t)

	first := doJSON(t, router, http.MethodPost, "/api/calculate", map[string]any{"weight": -1})
	cookie := sessionCookie(t, first)

	rec := doJSON(t, router, http.MethodGet, "/api/history", nil, cookie)
	var body struct {
		History []storage.Entry `json:"history"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.History) != 0 {
		t.Fatalf("expected no history after a rejected weight, got %d entries", len(body.History))
	}
}

func TestCorsPreflight(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/calculate", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("expected Access-Control-Allow-Origin header to be set")
	}
}

func TestRequestIDPropagation(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "test-request-id")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "test-request-id" {
		t.Fatalf("expected X-Request-ID header to be echoed, got %s", got)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected a request id to be generated")
	}
}

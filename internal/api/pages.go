package api

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/eugenenazirov/plate-calculator/internal/calculator"
	"github.com/eugenenazirov/plate-calculator/internal/storage"
	"github.com/eugenenazirov/plate-calculator/web"
)

const invalidWeightMessage = "Please enter a valid weight"

type pageRenderer struct {
	index *template.Template
}

func newPageRenderer() *pageRenderer {
	funcs := template.FuncMap{
		"weight": formatWeight,
		"plates": formatPlates,
		"diff":   formatDifference,
	}
	index := template.Must(template.New("index.html").Funcs(funcs).ParseFS(web.Assets, "templates/index.html"))
	return &pageRenderer{index: index}
}

type pageData struct {
	Weight    string
	Mode      string
	Modes     []calculator.Mode
	Plates    []float64
	BarWeight float64
	Result    *calculator.Result
	Error     string
	History   []storage.Entry
}

func (p *pageRenderer) render(w http.ResponseWriter, status int, data pageData) error {
	var buf bytes.Buffer
	if err := p.index.Execute(&buf, data); err != nil {
		return fmt.Errorf("render index: %w", err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return nil
}

func (h *Handler) newPageData(mode calculator.Mode) pageData {
	return pageData{
		Mode:      string(mode),
		Modes:     calculator.Modes(),
		Plates:    calculator.Plates(),
		BarWeight: calculator.StandardBarWeight,
	}
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	sessionID := ensureSession(w, r)
	data := h.newPageData(calculator.ModeBarbell)

	history, err := h.storage.List(sessionID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	data.History = history

	h.renderPage(w, http.StatusOK, data)
}

func (h *Handler) handleIndexSubmit(w http.ResponseWriter, r *http.Request) {
	sessionID := ensureSession(w, r)

	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse form")
		return
	}

	mode := calculator.ModeBarbell
	if raw := r.PostFormValue("mode"); raw != "" {
		if parsed, err := calculator.ParseMode(raw); err == nil {
			mode = parsed
		}
	}

	data := h.newPageData(mode)
	data.Weight = strings.TrimSpace(r.PostFormValue("weight"))
	status := http.StatusOK

	weight, err := parseFormWeight(data.Weight)
	if err == nil {
		var result calculator.Result
		result, err = h.calculate(r.Context(), sessionID, weight, mode)
		if err == nil {
			data.Result = &result
		}
	}
	if err != nil {
		status = http.StatusBadRequest
		data.Error = invalidWeightMessage
		var inputErr *calculator.InputError
		if errors.As(err, &inputErr) {
			data.Error = fmt.Sprintf("%s: %s", invalidWeightMessage, inputErr.Reason)
		}
	}

	history, err := h.storage.List(sessionID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	data.History = history

	h.renderPage(w, status, data)
}

func (h *Handler) renderPage(w http.ResponseWriter, status int, data pageData) {
	if err := h.pages.render(w, status, data); err != nil {
		h.logger.Error("failed to render page", zap.Error(err))
		writeInternalError(w, err)
	}
}

// parseFormWeight accepts any decimal number; range checks are left to the
// calculator.
func parseFormWeight(raw string) (float64, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, calculator.ErrInvalidWeight
	}
	weight, _ := value.Float64()
	return weight, nil
}

func formatWeight(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatDifference(r calculator.Result) string {
	return fmt.Sprintf("%+.1f", r.Difference())
}

// formatPlates renders the non-empty denominations as "(2x45, 1x2.5)".
func formatPlates(r calculator.Result) string {
	parts := make([]string, 0, len(r.Plates))
	for _, p := range r.Plates {
		if p.Count == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%dx%s", p.Count, formatWeight(p.Weight)))
	}
	if len(parts) == 0 {
		return "(no plates)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

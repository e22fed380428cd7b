package report

import (
	"bytes"
	"encoding/json"
	"net/http"

	"SafeStruct/internal/calc/assess"
	"SafeStruct/internal/respond"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type Request struct {
	Meta
	Input assess.Input `json:"input"`
}

type Handler struct {
	Evaluator *assess.Evaluator
	Clock     clockwork.Clock
	Logger    *zap.Logger
}

// Generate evaluates the request input and answers with the PDF.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	a, err := h.Evaluator.Evaluate(req.Input)
	if err != nil {
		assess.WriteError(w, err)
		return
	}
	h.Write(w, req.Meta, a)
}

// Write renders a into a buffer first so a failure can still become a 500.
func (h *Handler) Write(w http.ResponseWriter, meta Meta, a assess.Assessment) {
	clock := h.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	var buf bytes.Buffer
	if err := Render(&buf, meta, a, clock.Now()); err != nil {
		if h.Logger != nil {
			h.Logger.Error("render report", zap.Error(err))
		}
		respond.Error(w, http.StatusInternalServerError, "Report generation error")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\"informe-irs.pdf\"")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

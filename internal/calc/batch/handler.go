package batch

import (
	"encoding/json"
	"errors"
	"net/http"

	"SafeStruct/internal/calc/assess"
	"SafeStruct/internal/observability"
	"SafeStruct/internal/respond"

	"go.uber.org/zap"
)

const MaxUploadSize = 10 << 20

type Handler struct {
	Evaluator *assess.Evaluator
	MaxItems  int
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxUploadSize)).Decode(&input); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	res, err := Evaluate(h.Evaluator, input.Items, h.MaxItems)
	if err != nil {
		writeError(w, err)
		return
	}
	h.observe(res.Count)
	respond.JSON(w, http.StatusOK, res)
}

// Import evaluates the rows of the multipart "file" upload.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "File required")
		return
	}
	defer file.Close()

	res, err := Import(h.Evaluator, file, h.MaxItems)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.Logger != nil && len(res.Skipped) > 0 {
		h.Logger.Info("import skipped rows", zap.Int("evaluated", res.Count), zap.Int("skipped", len(res.Skipped)))
	}
	h.observe(res.Count)
	respond.JSON(w, http.StatusOK, res)
}

func (h *Handler) observe(n int) {
	if h.Metrics != nil {
		h.Metrics.BatchSize.Observe(float64(n))
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyBatch), errors.Is(err, ErrTooManyItems),
		errors.Is(err, ErrBadSheet), errors.Is(err, assess.ErrInvalidInput):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		respond.Error(w, http.StatusInternalServerError, "Calculation error")
	}
}

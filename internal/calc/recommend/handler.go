package recommend

import (
	"encoding/json"
	"net/http"

	"SafeStruct/internal/calc/assess"
	"SafeStruct/internal/respond"
)

type Handler struct {
	Evaluator *assess.Evaluator
}

func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	var input assess.Input
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&input); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	a, err := h.Evaluator.Evaluate(input)
	if err != nil {
		assess.WriteError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, Recommend(a))
}

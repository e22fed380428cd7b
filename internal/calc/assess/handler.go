package assess

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"SafeStruct/internal/auth"
	"SafeStruct/internal/respond"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Recorder stores evaluations made by logged-in users.
type Recorder interface {
	SaveAssessment(ctx context.Context, userID int, a Assessment) (int64, error)
}

type Handler struct {
	Evaluator *Evaluator
	Recorder  Recorder // nil disables saving
	Logger    *zap.Logger
}

type CalcResponse struct {
	ID int64 `json:"id,omitempty"`
	Assessment
}

type LookupResponse struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Zone
}

func (h *Handler) log() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// Calc evaluates one structure and saves it when the caller is logged in.
func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&input); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	a, err := h.Evaluator.Evaluate(input)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := CalcResponse{Assessment: a}
	if userID, ok := auth.UserIDFromContext(r.Context()); ok && h.Recorder != nil {
		id, err := h.Recorder.SaveAssessment(r.Context(), userID, a)
		if err != nil {
			// The evaluation itself succeeded; report it unsaved.
			h.log().Error("save assessment", zap.Int("user_id", userID), zap.Error(err))
		} else {
			resp.ID = id
		}
	}

	h.log().Debug("assessment",
		zap.Float64("lat", a.Input.Lat),
		zap.Float64("lon", a.Input.Lon),
		zap.Float64("irs", a.Result.Index),
		zap.String("category", string(a.Result.Category)),
	)
	respond.JSON(w, http.StatusOK, resp)
}

// Lookup resolves ?lat=&lon= to a seismic zone.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil || math.IsNaN(lat) || lat < -90 || lat > 90 {
		respond.Error(w, http.StatusBadRequest, "invalid latitude")
		return
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil || math.IsNaN(lon) || lon < -180 || lon > 180 {
		respond.Error(w, http.StatusBadRequest, "invalid longitude")
		return
	}
	respond.JSON(w, http.StatusOK, LookupResponse{Lat: lat, Lon: lon, Zone: h.Evaluator.Lookup(lat, lon)})
}

// Zones lists the zone table in lookup order.
func (h *Handler) Zones(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, h.Evaluator.Zones().Zones())
}

// WriteError maps evaluation errors to HTTP responses.
func WriteError(w http.ResponseWriter, err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		respond.Error(w, http.StatusBadRequest, ve.Error())
		return
	}
	if errors.Is(err, ErrInvalidInput) {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	respond.Error(w, http.StatusInternalServerError, "Calculation error")
}

// Package history serves the saved assessments of the logged-in user.
package history

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"SafeStruct/internal/auth"
	"SafeStruct/internal/calc/report"
	"SafeStruct/internal/repo"
	"SafeStruct/internal/respond"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Store interface {
	ListAssessments(ctx context.Context, userID, limit int) ([]repo.StoredAssessment, error)
	GetAssessment(ctx context.Context, userID int, id int64) (repo.StoredAssessment, error)
}

type Handler struct {
	Store   Store
	Reports *report.Handler
	Logger  *zap.Logger
}

type listResponse struct {
	Count       int                     `json:"count"`
	Assessments []repo.StoredAssessment `json:"assessments"`
}

// List handles GET /api/user/assessments?limit=N.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit := repo.DefaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			respond.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = repo.ClampLimit(n)
	}

	items, err := h.Store.ListAssessments(r.Context(), userID, limit)
	if err != nil {
		h.storageError(w, "list assessments", userID, err)
		return
	}
	respond.JSON(w, http.StatusOK, listResponse{Count: len(items), Assessments: items})
}

// Get handles GET /api/user/assessments/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.load(w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, s)
}

// Report renders a saved assessment as PDF.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	s, ok := h.load(w, r)
	if !ok {
		return
	}
	meta := report.Meta{
		Project: fmt.Sprintf("Evaluación #%d", s.ID),
		Author:  auth.LoginFromContext(r.Context()),
	}
	h.Reports.Write(w, meta, s.Assessment)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (repo.StoredAssessment, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return repo.StoredAssessment{}, false
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return repo.StoredAssessment{}, false
	}

	s, err := h.Store.GetAssessment(r.Context(), userID, id)
	if errors.Is(err, repo.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, "assessment not found")
		return repo.StoredAssessment{}, false
	}
	if err != nil {
		h.storageError(w, "get assessment", userID, err)
		return repo.StoredAssessment{}, false
	}
	return s, true
}

func (h *Handler) storageError(w http.ResponseWriter, op string, userID int, err error) {
	if h.Logger != nil {
		h.Logger.Error(op, zap.Int("user_id", userID), zap.Error(err))
	}
	respond.Error(w, http.StatusInternalServerError, "DB error")
}

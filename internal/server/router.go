// Package server wires the HTTP API: routing, middleware and the listener.
package server

import (
	"context"
	"net/http"
	"time"

	"SafeStruct/internal/auth"
	"SafeStruct/internal/calc/assess"
	"SafeStruct/internal/calc/batch"
	"SafeStruct/internal/calc/recommend"
	"SafeStruct/internal/calc/report"
	"SafeStruct/internal/history"
	"SafeStruct/internal/observability"
	"SafeStruct/internal/respond"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ReadinessChecker reports whether a backing service is reachable.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Store persists and lists user assessments.
type Store interface {
	assess.Recorder
	history.Store
}

type Deps struct {
	Evaluator *assess.Evaluator
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	Gatherer  prometheus.Gatherer
	Clock     clockwork.Clock

	// Auth and Store are both set when accounts are enabled.
	Auth  *auth.Authenv
	Store Store
	Ready ReadinessChecker

	Limiter       *auth.IPRateLimiter
	CORSOrigin    string
	MaxBatchItems int
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	if d.CORSOrigin == "" {
		d.CORSOrigin = "*"
	}
	accounts := d.Auth != nil && d.Store != nil

	r := mux.NewRouter()
	r.Use(RequestID, Recover(d.Logger), AccessLog(d.Logger))
	if d.Metrics != nil {
		r.Use(Instrument(d.Metrics))
	}
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, "not found")
	})

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/readyz", handleReady(d.Ready)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	if d.Limiter != nil {
		api.Use(d.Limiter.LimitMiddleware)
	}

	assessH := &assess.Handler{Evaluator: d.Evaluator, Logger: d.Logger}
	if accounts {
		assessH.Recorder = d.Store
	}
	reportH := &report.Handler{Evaluator: d.Evaluator, Clock: d.Clock, Logger: d.Logger}
	recommendH := &recommend.Handler{Evaluator: d.Evaluator}
	batchH := &batch.Handler{Evaluator: d.Evaluator, MaxItems: d.MaxBatchItems, Metrics: d.Metrics, Logger: d.Logger}

	api.HandleFunc("/zones", assessH.Zones).Methods(http.MethodGet)
	api.HandleFunc("/zones/lookup", assessH.Lookup).Methods(http.MethodGet)

	tools := api.PathPrefix("/tools/irs").Subrouter()
	if accounts {
		tools.Use(d.Auth.OptionalAuth)
	}
	tools.HandleFunc("/calc", assessH.Calc).Methods(http.MethodPost)
	tools.HandleFunc("/batch", batchH.Batch).Methods(http.MethodPost)
	tools.HandleFunc("/import", batchH.Import).Methods(http.MethodPost)
	tools.HandleFunc("/report/pdf", reportH.Generate).Methods(http.MethodPost)
	tools.HandleFunc("/recommend", recommendH.Calc).Methods(http.MethodPost)

	if accounts {
		api.HandleFunc("/login", d.Auth.AuthHandler).Methods(http.MethodPost)
		api.HandleFunc("/register", d.Auth.RegisterHandler).Methods(http.MethodPost)
		api.HandleFunc("/logout", d.Auth.LogoutHandler).Methods(http.MethodPost)

		historyH := &history.Handler{Store: d.Store, Reports: reportH, Logger: d.Logger}
		user := api.PathPrefix("/user").Subrouter()
		user.Use(d.Auth.AuthMiddleware)
		user.HandleFunc("/assessments", historyH.List).Methods(http.MethodGet)
		user.HandleFunc("/assessments/{id:[0-9]+}", historyH.Get).Methods(http.MethodGet)
		user.HandleFunc("/assessments/{id:[0-9]+}/report", historyH.Report).Methods(http.MethodGet)
	}

	return CORS(d.CORSOrigin)(r)
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker == nil {
			respond.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			respond.JSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

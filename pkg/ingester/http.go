package ingester

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/kube-reporting/billing-ingest/pkg/presto"
)

type requestLogger struct {
	log.FieldLogger
}

func (l *requestLogger) Print(v ...interface{}) {
	l.FieldLogger.Info(v...)
}

type statusResponse struct {
	Status  string      `json:"status"`
	Details interface{} `json:"details,omitempty"`
}

// healthChecker answers /healthy and /ready. Concurrent readiness probes
// share a single Presto query.
type healthChecker struct {
	logger       log.FieldLogger
	queryer      presto.Queryer
	initialized  int32
	singleFlight singleflight.Group
}

func newHealthChecker(logger log.FieldLogger, queryer presto.Queryer) *healthChecker {
	return &healthChecker{logger: logger, queryer: queryer}
}

func (h *healthChecker) setInitialized() {
	atomic.StoreInt32(&h.initialized, 1)
}

func (h *healthChecker) isInitialized() bool {
	return atomic.LoadInt32(&h.initialized) == 1
}

func newRouter(logger log.FieldLogger, health *healthChecker) chi.Router {
	router := chi.NewRouter()
	logger = logger.WithField("component", "api")
	router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: &requestLogger{logger}}))

	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/healthy", health.healthinessHandler)
	router.HandleFunc("/ready", health.readinessHandler)
	return router
}

// healthinessHandler reports the process as alive once it has started.
func (h *healthChecker) healthinessHandler(w http.ResponseWriter, r *http.Request) {
	logger := newRequestLogger(h.logger, r)
	writeResponseAsJSON(logger, w, http.StatusOK, statusResponse{Status: "ok"})
}

// readinessHandler fails until startup completed and while Presto cannot
// be read from.
func (h *healthChecker) readinessHandler(w http.ResponseWriter, r *http.Request) {
	logger := newRequestLogger(h.logger, r)
	if !h.isInitialized() {
		writeResponseAsJSON(logger, w, http.StatusInternalServerError, statusResponse{
			Status:  "not ready",
			Details: "not initialized",
		})
		return
	}
	if !h.testReadFromPrestoSingleFlight(r.Context(), logger) {
		writeResponseAsJSON(logger, w, http.StatusInternalServerError, statusResponse{
			Status:  "not ready",
			Details: "cannot read from PrestoDB",
		})
		return
	}
	writeResponseAsJSON(logger, w, http.StatusOK, statusResponse{Status: "ok"})
}

func (h *healthChecker) testReadFromPrestoSingleFlight(ctx context.Context, logger log.FieldLogger) bool {
	const key = "presto-read"
	v, _, _ := h.singleFlight.Do(key, func() (interface{}, error) {
		defer h.singleFlight.Forget(key)
		return h.testReadFromPresto(ctx, logger), nil
	})
	return v.(bool)
}

func (h *healthChecker) testReadFromPresto(ctx context.Context, logger log.FieldLogger) bool {
	if _, err := h.queryer.Query(ctx, "SELECT * FROM system.runtime.nodes"); err != nil {
		logger.WithError(err).Debugf("cannot query Presto system.runtime.nodes table")
		return false
	}
	return true
}

func newRequestLogger(logger log.FieldLogger, r *http.Request) log.FieldLogger {
	return logger.WithFields(log.Fields{
		"method":    r.Method,
		"url":       r.URL.String(),
		"requestId": uuid.New().String(),
	})
}

func writeResponseAsJSON(logger log.FieldLogger, w http.ResponseWriter, code int, resp interface{}) {
	enc, err := json.Marshal(resp)
	if err != nil {
		logger.WithError(err).Error("failed JSON-encoding HTTP response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(enc); err != nil {
		logger.WithError(err).Error("failed writing HTTP response")
	}
}

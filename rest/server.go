package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sentinelops/autopilot/alerting"
	api "github.com/sentinelops/autopilot/api/v1"
	"github.com/sentinelops/autopilot/flow"
	"github.com/sentinelops/autopilot/healing"
	"github.com/sentinelops/autopilot/logger"
	"github.com/sentinelops/autopilot/maintenance"
	"github.com/sentinelops/autopilot/metadata"
	"github.com/sentinelops/autopilot/metrics"
	"github.com/sentinelops/autopilot/optimize"
	"github.com/sentinelops/autopilot/policy"
	"github.com/sentinelops/autopilot/scaling"
	"github.com/sentinelops/autopilot/scheduler"
	"go.uber.org/zap"
)

type Server struct {
	http.Server
	Port int

	registry    metadata.WorkflowRegistry
	coordinator *flow.RunCoordinator
	scheduler   *scheduler.Scheduler
	healer      *healing.RuleEngine
	analyzer    *maintenance.Analyzer
	advisor     *scaling.Advisor
	triage      *alerting.TriageProcessor
	optimizer   *optimize.Optimizer
	policies    *policy.Store
	metrics     *metrics.Aggregator
}

type Services struct {
	Registry    metadata.WorkflowRegistry
	Coordinator *flow.RunCoordinator
	Scheduler   *scheduler.Scheduler
	Healer      *healing.RuleEngine
	Analyzer    *maintenance.Analyzer
	Advisor     *scaling.Advisor
	Triage      *alerting.TriageProcessor
	Optimizer   *optimize.Optimizer
	Policies    *policy.Store
	Metrics     *metrics.Aggregator
}

func NewServer(httpPort int, svc Services) (*Server, error) {
	s := &Server{
		Server: http.Server{
			Addr:        fmt.Sprintf(":%d", httpPort),
			IdleTimeout: 2 * time.Second,
		},
		Port:        httpPort,
		registry:    svc.Registry,
		coordinator: svc.Coordinator,
		scheduler:   svc.Scheduler,
		healer:      svc.Healer,
		analyzer:    svc.Analyzer,
		advisor:     svc.Advisor,
		triage:      svc.Triage,
		optimizer:   svc.Optimizer,
		policies:    svc.Policies,
		metrics:     svc.Metrics,
	}

	router := mux.NewRouter()
	router.HandleFunc("/workflow", s.HandleCreateWorkflow).Methods(http.MethodPost)
	router.HandleFunc("/workflow/{id}", s.HandleGetWorkflow).Methods(http.MethodGet)
	router.HandleFunc("/workflows", s.HandleListWorkflows).Methods(http.MethodGet)
	router.HandleFunc("/workflow/{id}/execute", s.HandleExecuteWorkflow).Methods(http.MethodPost)

	router.HandleFunc("/execution/{id}", s.HandleGetExecution).Methods(http.MethodGet)
	router.HandleFunc("/executions", s.HandleListExecutions).Methods(http.MethodGet)
	router.HandleFunc("/execution/{id}/cancel", s.HandleCancelExecution).Methods(http.MethodPost)

	router.HandleFunc("/schedule", s.HandleCreateSchedule).Methods(http.MethodPost)
	router.HandleFunc("/schedules", s.HandleListSchedules).Methods(http.MethodGet)
	router.HandleFunc("/schedule/{id}/enable", s.HandleEnableSchedule).Methods(http.MethodPost)
	router.HandleFunc("/schedule/{id}/disable", s.HandleDisableSchedule).Methods(http.MethodPost)

	router.HandleFunc("/rule", s.HandleCreateRule).Methods(http.MethodPost)
	router.HandleFunc("/rules", s.HandleListRules).Methods(http.MethodGet)
	router.HandleFunc("/issue", s.HandleReportIssue).Methods(http.MethodPost)

	router.HandleFunc("/assessment", s.HandleAssessSystem).Methods(http.MethodPost)
	router.HandleFunc("/scaling", s.HandleScalingMetrics).Methods(http.MethodPost)
	router.HandleFunc("/alert", s.HandleSubmitAlert).Methods(http.MethodPost)
	router.HandleFunc("/alert/{id}", s.HandleGetAlert).Methods(http.MethodGet)
	router.HandleFunc("/optimization", s.HandleRequestOptimization).Methods(http.MethodPost)

	router.HandleFunc("/policy", s.HandleCreatePolicy).Methods(http.MethodPost)
	router.HandleFunc("/policies", s.HandleListPolicies).Methods(http.MethodGet)
	router.HandleFunc("/policy/{id}/enable", s.HandleEnablePolicy).Methods(http.MethodPost)
	router.HandleFunc("/policy/{id}/disable", s.HandleDisablePolicy).Methods(http.MethodPost)

	router.HandleFunc("/metrics/automation", s.HandleGetMetrics).Methods(http.MethodGet)
	router.HandleFunc("/health", s.HandleHealthCheck).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(svc.Metrics.Registry(), promhttp.HandlerOpts{})).Methods(http.MethodGet)

	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.Shutdown(ctx)
	if err != nil {
		logger.Error("error shutting down http server")
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.RequestURI)
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondOK(w http.ResponseWriter, message map[string]any) {
	respondWithJSON(w, http.StatusOK, message)
}

func respondOKWithoutBody(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
}

func respondWithError(w http.ResponseWriter, err error) {
	var ve api.ValidationError
	var nf api.NotFoundError
	switch {
	case errors.As(err, &ve):
		respondWithJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &nf):
		respondWithJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		respondWithJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

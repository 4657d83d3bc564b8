package rest

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	api "github.com/sentinelops/autopilot/api/v1"
	"github.com/sentinelops/autopilot/logger"
	"github.com/sentinelops/autopilot/model"
	"go.uber.org/zap"
)

func (s *Server) HandleCreateRule(w http.ResponseWriter, r *http.Request) {
	var rule model.SelfHealingRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		respondWithError(w, api.ValidationError{Message: "malformed rule"})
		return
	}
	defer r.Body.Close()
	created, err := s.healer.RegisterRule(rule)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, created)
}

func (s *Server) HandleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.healer.ListRules()
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, rules)
}

func (s *Server) HandleReportIssue(w http.ResponseWriter, r *http.Request) {
	var issue model.IssueContext
	if err := json.NewDecoder(r.Body).Decode(&issue); err != nil {
		respondWithError(w, api.ValidationError{Message: "malformed issue report"})
		return
	}
	defer r.Body.Close()
	report, err := s.healer.React(r.Context(), issue)
	if err != nil {
		logger.Error("error reacting to issue", zap.String("issue", issue.Id), zap.Error(err))
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

func (s *Server) HandleAssessSystem(w http.ResponseWriter, r *http.Request) {
	var snapshot model.SystemSnapshot
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		respondWithError(w, api.ValidationError{Message: "malformed system snapshot"})
		return
	}
	defer r.Body.Close()
	respondWithJSON(w, http.StatusOK, s.analyzer.Assess(snapshot))
}

func (s *Server) HandleScalingMetrics(w http.ResponseWriter, r *http.Request) {
	var m model.ScalingMetrics
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		respondWithError(w, api.ValidationError{Message: "malformed scaling metrics"})
		return
	}
	defer r.Body.Close()
	decision := s.advisor.Decide(m)
	result := s.advisor.Execute(r.Context(), decision)
	respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) HandleSubmitAlert(w http.ResponseWriter, r *http.Request) {
	var raw model.RawAlert
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		respondWithError(w, api.ValidationError{Message: "malformed alert"})
		return
	}
	defer r.Body.Close()
	alert, err := s.triage.Process(r.Context(), raw)
	if err != nil {
		logger.Error("error processing alert", zap.String("source", raw.Source), zap.Error(err))
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, alert)
}

func (s *Server) HandleGetAlert(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	alert, err := s.triage.Get(id)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, alert)
}

func (s *Server) HandleRequestOptimization(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scope string `json:"scope"`
	}
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			respondWithError(w, api.ValidationError{Message: "malformed optimization request"})
			return
		}
		defer r.Body.Close()
	}
	plan := s.optimizer.Plan(req.Scope)
	result := s.optimizer.Execute(r.Context(), plan)
	respondWithJSON(w, http.StatusOK, result)
}

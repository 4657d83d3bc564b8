package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	api "github.com/sentinelops/autopilot/api/v1"
	"github.com/sentinelops/autopilot/model"
)

func (s *Server) HandleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	var p model.AutomationPolicy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondWithError(w, api.ValidationError{Message: "malformed policy"})
		return
	}
	defer r.Body.Close()
	result, err := s.policies.Register(p)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) HandleListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := s.policies.List()
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, policies)
}

func (s *Server) HandleEnablePolicy(w http.ResponseWriter, r *http.Request) {
	s.handleSetPolicyEnabled(w, r, true)
}

func (s *Server) HandleDisablePolicy(w http.ResponseWriter, r *http.Request) {
	s.handleSetPolicyEnabled(w, r, false)
}

func (s *Server) handleSetPolicyEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	id := mux.Vars(r)["id"]
	if err := s.policies.SetEnabled(id, enabled); err != nil {
		respondWithError(w, err)
		return
	}
	respondOKWithoutBody(w)
}

func (s *Server) HandleGetMetrics(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"registry":  componentCheck(func() error { _, err := s.registry.List(); return err }),
		"runs":      componentCheck(func() error { _, err := s.coordinator.ListRuns(); return err }),
		"scheduler": componentCheck(func() error { _, err := s.scheduler.List(); return err }),
		"rules":     componentCheck(func() error { _, err := s.healer.ListRules(); return err }),
		"policies":  componentCheck(func() error { _, err := s.policies.List(); return err }),
	}
	status := "healthy"
	for _, v := range checks {
		if v != "ok" {
			status = "degraded"
			break
		}
	}
	respondOK(w, map[string]any{"status": status, "checks": checks})
}

func componentCheck(fn func() error) string {
	if err := fn(); err != nil {
		return err.Error()
	}
	return "ok"
}

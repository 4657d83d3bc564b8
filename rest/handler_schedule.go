package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	api "github.com/sentinelops/autopilot/api/v1"
	"github.com/sentinelops/autopilot/logger"
	"github.com/sentinelops/autopilot/scheduler"
	"go.uber.org/zap"
)

func (s *Server) HandleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduler.ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, api.ValidationError{Message: "malformed schedule request"})
		return
	}
	defer r.Body.Close()
	result, err := s.scheduler.Schedule(req)
	if err != nil {
		logger.Error("error registering schedule", zap.String("workflowId", req.WorkflowId), zap.Error(err))
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) HandleListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := s.scheduler.List()
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, schedules)
}

func (s *Server) HandleEnableSchedule(w http.ResponseWriter, r *http.Request) {
	s.handleSetScheduleEnabled(w, r, true)
}

func (s *Server) HandleDisableSchedule(w http.ResponseWriter, r *http.Request) {
	s.handleSetScheduleEnabled(w, r, false)
}

func (s *Server) handleSetScheduleEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	id := mux.Vars(r)["id"]
	if err := s.scheduler.SetEnabled(id, enabled); err != nil {
		respondWithError(w, err)
		return
	}
	respondOKWithoutBody(w)
}

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

func (s *Server) HandleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var def model.WorkflowDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		respondWithError(w, api.ValidationError{Message: "malformed workflow definition"})
		return
	}
	defer r.Body.Close()
	result, err := s.registry.Register(def)
	if err != nil {
		logger.Error("error registering workflow", zap.String("name", def.Name), zap.Error(err))
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) HandleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	def, err := s.registry.Get(id)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, def)
}

func (s *Server) HandleListWorkflows(w http.ResponseWriter, r *http.Request) {
	defs, err := s.registry.List()
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, defs)
}

func (s *Server) HandleExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var input map[string]any
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil && err != io.EOF {
			respondWithError(w, api.ValidationError{Message: "malformed input payload"})
			return
		}
		defer r.Body.Close()
	}
	result, err := s.coordinator.Execute(r.Context(), id, input)
	if err != nil {
		logger.Error("error executing workflow", zap.String("id", id), zap.Error(err))
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) HandleGetExecution(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	run, err := s.coordinator.GetRun(id)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, run)
}

func (s *Server) HandleListExecutions(w http.ResponseWriter, r *http.Request) {
	runs, err := s.coordinator.ListRuns()
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, runs)
}

func (s *Server) HandleCancelExecution(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.coordinator.Cancel(id); err != nil {
		respondWithError(w, err)
		return
	}
	respondOKWithoutBody(w)
}

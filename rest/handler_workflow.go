package rest

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sreenadh34/biznavigate-backend-sub002/logger"
	"github.com/sreenadh34/biznavigate-backend-sub002/model"
	"go.uber.org/zap"
)

func (s *Server) HandleSaveWorkflow(w http.ResponseWriter, r *http.Request) {
	var rec model.WorkflowRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	if rec.WorkflowID == "" {
		rec.WorkflowID = uuid.New().String()
	}
	if err := s.metadataService.SaveWorkflow(r.Context(), &rec); err != nil {
		logger.Error("error saving workflow", zap.String("key", rec.Key), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondOK(w, map[string]any{"workflowId": rec.WorkflowID})
}

func (s *Server) HandleResolveWorkflow(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	businessID, ok := vars["business"]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	intent, ok := vars["intent"]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	resolved, err := s.metadataService.Resolve(r.Context(), businessID, intent)
	if err != nil {
		logger.Error("error resolving workflow",
			zap.String("businessId", businessID), zap.String("intent", intent), zap.Error(err))
		respondWithError(w, http.StatusNotFound, "workflow not found")
		return
	}
	respondWithJSON(w, http.StatusOK, resolved)
}

func (s *Server) HandleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	workflowID, ok := vars["id"]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := s.metadataService.DeleteWorkflow(r.Context(), workflowID); err != nil {
		logger.Error("error deleting workflow", zap.String("workflowId", workflowID), zap.Error(err))
		respondWithError(w, http.StatusNotFound, "workflow not found")
		return
	}
	respondOKWithoutBody(w)
}

func (s *Server) HandleSaveBusiness(w http.ResponseWriter, r *http.Request) {
	var business model.Business
	if err := json.NewDecoder(r.Body).Decode(&business); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	if business.BusinessID == "" || business.Type == "" {
		respondWithError(w, http.StatusBadRequest, "businessId and type are required")
		return
	}
	if err := s.metadataService.GetStorage().SaveBusiness(r.Context(), &business); err != nil {
		logger.Error("error saving business", zap.String("businessId", business.BusinessID), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error saving business")
		return
	}
	respondOKWithoutBody(w)
}

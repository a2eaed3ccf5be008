package rest

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sreenadh34/biznavigate-backend-sub002/logger"
	"go.uber.org/zap"
)

func (s *Server) HandleListDeadLetters(w http.ResponseWriter, r *http.Request) {
	limit := int64(100)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			limit = parsed
		}
	}
	messages, err := s.deadLetter.ListFailed(r.Context(), limit)
	if err != nil {
		logger.Error("error listing dead letters", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error listing dead letters")
		return
	}
	respondWithJSON(w, http.StatusOK, messages)
}

func (s *Server) HandleRetryDeadLetter(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	messageID, ok := vars["id"]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	payload, err := s.deadLetter.RetryMessage(r.Context(), messageID)
	if err != nil {
		logger.Error("error retrying dead letter", zap.String("messageId", messageID), zap.Error(err))
		respondWithError(w, http.StatusNotFound, "dead letter not found")
		return
	}
	result, err := s.orchestrator.Process(r.Context(), payload)
	if err != nil {
		logger.Error("dead letter replay failed", zap.String("messageId", messageID), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, "replay failed")
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) HandleResolveDeadLetter(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	messageID, ok := vars["id"]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := s.deadLetter.MarkResolved(r.Context(), messageID); err != nil {
		logger.Error("error resolving dead letter", zap.String("messageId", messageID), zap.Error(err))
		respondWithError(w, http.StatusNotFound, "dead letter not found")
		return
	}
	respondOKWithoutBody(w)
}

func (s *Server) HandleListCircuits(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.breakers.Snapshots())
}

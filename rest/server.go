package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sreenadh34/biznavigate-backend-sub002/breaker"
	"github.com/sreenadh34/biznavigate-backend-sub002/dlq"
	"github.com/sreenadh34/biznavigate-backend-sub002/engine"
	"github.com/sreenadh34/biznavigate-backend-sub002/logger"
	"github.com/sreenadh34/biznavigate-backend-sub002/metadata"
	"go.uber.org/zap"
)

// Server is the operator surface: dead letter inspection and replay,
// circuit state, and workflow configuration.
type Server struct {
	http.Server
	Port            int
	metadataService metadata.Service
	deadLetter      *dlq.Service
	breakers        *breaker.Registry
	orchestrator    *engine.Orchestrator
}

func NewServer(httpPort int, metadataService metadata.Service, deadLetter *dlq.Service, breakers *breaker.Registry, orchestrator *engine.Orchestrator) (*Server, error) {
	s := &Server{
		Server: http.Server{
			Addr:        fmt.Sprintf(":%d", httpPort),
			IdleTimeout: 2 * time.Second,
		},
		metadataService: metadataService,
		deadLetter:      deadLetter,
		breakers:        breakers,
		orchestrator:    orchestrator,
		Port:            httpPort,
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", s.HandleHealth).Methods(http.MethodGet)

	router.HandleFunc("/deadletters", s.HandleListDeadLetters).Methods(http.MethodGet)
	router.HandleFunc("/deadletters/{id}/retry", s.HandleRetryDeadLetter).Methods(http.MethodPost)
	router.HandleFunc("/deadletters/{id}/resolve", s.HandleResolveDeadLetter).Methods(http.MethodPost)

	router.HandleFunc("/circuits", s.HandleListCircuits).Methods(http.MethodGet)

	router.HandleFunc("/workflow", s.HandleSaveWorkflow).Methods(http.MethodPost)
	router.HandleFunc("/workflow/{business}/{intent}", s.HandleResolveWorkflow).Methods(http.MethodGet)
	router.HandleFunc("/workflow/{id}", s.HandleDeleteWorkflow).Methods(http.MethodDelete)
	router.HandleFunc("/business", s.HandleSaveBusiness).Methods(http.MethodPost)

	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server on", zap.Int("port", s.Port))
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

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, map[string]any{"status": "ok"})
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
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	res, _ := json.Marshal(message)
	w.Write(res)
}

func respondOKWithoutBody(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

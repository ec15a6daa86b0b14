package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cbodonnell/solongsucker/pkg/api/handlers"
	"github.com/cbodonnell/solongsucker/pkg/api/middleware"
	"github.com/cbodonnell/solongsucker/pkg/log"
	"github.com/cbodonnell/solongsucker/pkg/repositories"
	"github.com/gorilla/mux"
)

type APIServer struct {
	server *http.Server
}

type NewAPIServerOptions struct {
	Port   int
	Client handlers.GameClient
	// Repository enables the archive routes when set.
	Repository repositories.Repository
}

// NewRouter builds the API routes.
func NewRouter(opts NewAPIServerOptions) http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.NewLoggingMiddleware())

	router.HandleFunc("/healthz", handlers.HandleHealthz()).Methods(http.MethodGet)
	router.HandleFunc("/state", handlers.HandleGetState(opts.Client)).Methods(http.MethodGet)
	router.HandleFunc("/status", handlers.HandleGetStatus(opts.Client)).Methods(http.MethodGet)
	router.HandleFunc("/start", handlers.HandleStartGame(opts.Client)).Methods(http.MethodPost)
	router.HandleFunc("/refresh", handlers.HandleRefreshState(opts.Client)).Methods(http.MethodPost)

	if opts.Repository != nil {
		router.HandleFunc("/snapshots/latest", handlers.HandleLatestSnapshot(opts.Repository)).Methods(http.MethodGet)
		router.HandleFunc("/sessions/{session}/snapshots", handlers.HandleListSnapshots(opts.Repository)).Methods(http.MethodGet)
	}

	return middleware.NewCORSMiddleware()(router)
}

// NewAPIServer creates a new http.Server for the local API.
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: NewRouter(opts),
	}
	return &APIServer{
		server: server,
	}
}

// Start starts the APIServer
func (s *APIServer) Start() {
	log.Info("API server listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Package server serves the election data API from a local database.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/boothdesk/internal/model"
)

const (
	requestIDHeader = "X-Request-ID"
	shutdownTimeout = 5 * time.Second
)

// Backend is the data source behind the API.
type Backend interface {
	Districts(ctx context.Context) ([]model.Option, error)
	Assemblies(ctx context.Context, districtID int64) ([]model.Option, error)
	Localbodies(ctx context.Context, districtID int64) ([]model.Option, error)
	Entities(ctx context.Context, kind model.Kind, scopeID int64) ([]model.Entity, error)
	VoteRows(ctx context.Context, kind model.Kind, scopeID int64) ([]model.VoteRow, error)
	Assign(ctx context.Context, kind model.Kind, ids []int64, target *int64) (int64, error)
}

// Server routes API requests to a Backend.
type Server struct {
	backend  Backend
	log      logrus.FieldLogger
	validate *validator.Validate
	origins  []string
}

// New constructs a Server. origins lists the allowed CORS origins; empty
// allows any.
func New(backend Backend, log logrus.FieldLogger, origins []string) *Server {
	return &Server{
		backend:  backend,
		log:      log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		origins:  origins,
	}
}

// Handler builds the routed, logged and CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/districts", s.districts).Methods(http.MethodGet)
	api.HandleFunc("/districts/{id:[0-9]+}/assemblies", s.assemblies).Methods(http.MethodGet)
	api.HandleFunc("/districts/{id:[0-9]+}/localbodies", s.localbodies).Methods(http.MethodGet)
	api.HandleFunc("/assemblies/{id:[0-9]+}/booths", s.entities(model.KindBooth)).Methods(http.MethodGet)
	api.HandleFunc("/localbodies/{id:[0-9]+}/wards", s.entities(model.KindWard)).Methods(http.MethodGet)
	api.HandleFunc("/assemblies/{id:[0-9]+}/booth-votes", s.votes(model.KindBooth)).Methods(http.MethodGet)
	api.HandleFunc("/localbodies/{id:[0-9]+}/ward-votes", s.votes(model.KindWard)).Methods(http.MethodGet)
	api.HandleFunc("/booths/localbody", s.mutate(model.KindBooth)).Methods(http.MethodPost)
	api.HandleFunc("/wards/assembly", s.mutate(model.KindWard)).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
	})
	return withRequestID(withLogging(s.log, withRecover(s.log, c.Handler(r))))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	}
}

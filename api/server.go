// Package api provides the HTTP server for the quote boundary: the
// two-step quote contract, signed-quote retrieval and health endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"movequote/internal/history"
	"movequote/internal/service"
	"movequote/internal/store"
	boundary "movequote/pkg/api"
	perrors "movequote/pkg/errors"
)

// Config holds server configuration.
type Config struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestSize int64
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		MaxRequestSize: 1 << 20,
	}
}

// Server is the HTTP quote server.
type Server struct {
	httpServer *http.Server
	quoter     *service.Quoter
	quotes     store.QuoteStore
	recorder   history.Recorder
	config     *Config
	log        zerolog.Logger
}

// NewServer wires the quoter with optional persistence and history.
func NewServer(quoter *service.Quoter, config *Config, log zerolog.Logger) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	return &Server{
		quoter:   quoter,
		config:   config,
		recorder: history.Nop{},
		log:      log,
	}
}

// WithQuoteStore enables signed-quote persistence.
func (s *Server) WithQuoteStore(qs store.QuoteStore) *Server {
	s.quotes = qs
	return s
}

// WithRecorder enables calculation history.
func (s *Server) WithRecorder(r history.Recorder) *Server {
	s.recorder = r
	return s
}

// Router builds the HTTP route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/quote/base", s.handleBaseQuote)
		r.Post("/quote/scenarios", s.handleScenarioQuote)
		r.Get("/quote/{id}", s.handleGetQuote)
	})
	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.log.Info().Int("port", s.config.Port).Msg("quote server starting")
	return s.httpServer.ListenAndServe()
}

// StartWithGracefulShutdown starts the server and drains on SIGINT or
// SIGTERM.
func (s *Server) StartWithGracefulShutdown() error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.log.Info().Msg("shutting down")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleBaseQuote is Step A.
func (s *Server) handleBaseQuote(w http.ResponseWriter, r *http.Request) {
	var req boundary.BaseQuoteRequest
	if err := s.decode(w, r, &req); err != nil {
		return
	}
	in, err := boundary.BuildInput(req.Input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp, err := s.quoter.BaseQuote(in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleScenarioQuote is Step B.
func (s *Server) handleScenarioQuote(w http.ResponseWriter, r *http.Request) {
	var req boundary.ScenarioQuoteRequest
	if err := s.decode(w, r, &req); err != nil {
		return
	}
	resp, err := s.quoter.ScenarioQuote(req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.persist(r.Context(), req, resp)
	writeJSON(w, http.StatusOK, resp)
}

// persist saves the signed quote and the history rows. Failures here
// never fail the request.
func (s *Server) persist(ctx context.Context, req boundary.ScenarioQuoteRequest, resp *boundary.ScenarioQuoteResponse) {
	sp := resp.SecuredPrice
	if sp == nil {
		return
	}
	in := req.Context.Input

	if s.quotes != nil {
		baseCost := 0.0
		if req.BaseCost != nil {
			baseCost = *req.BaseCost
		}
		rec := store.QuoteRecord{
			ID:           sp.CalculationID,
			ServiceType:  in.ServiceType,
			Region:       in.Region,
			BaseCost:     baseCost,
			SecuredPrice: *sp,
			CreatedAt:    sp.Timestamp,
		}
		if err := s.quotes.Save(ctx, rec); err != nil {
			s.log.Error().Err(err).Msg("failed to persist quote")
		}
	}

	entries := make([]history.Entry, 0, len(resp.Scenarios))
	for _, sc := range resp.Scenarios {
		entries = append(entries, history.Entry{
			CalculationID: sp.CalculationID,
			ScenarioID:    sc.ScenarioID,
			ServiceType:   in.ServiceType,
			Region:        in.Region,
			BaseCost:      sc.BasePrice - sc.AdditionalCosts,
			FinalPrice:    sc.FinalPrice,
			MarginRate:    sc.MarginRate,
			RiskScore:     sc.FullOutput.RiskScore,
			CreatedAt:     sp.Timestamp,
		})
	}
	if err := s.recorder.Record(ctx, entries); err != nil {
		s.log.Error().Err(err).Msg("failed to record history")
	}
}

// handleGetQuote retrieves a persisted signed quote.
func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	if s.quotes == nil {
		writeJSON(w, http.StatusNotFound, boundary.ErrorResponse{
			Code:    "NOT_CONFIGURED",
			Message: "quote persistence is not configured",
		})
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, boundary.ErrorResponse{
			Code:    perrors.ErrCodeInvalidInput,
			Message: "invalid quote id",
		})
		return
	}
	rec, err := s.quotes.Get(r.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Msg("quote lookup failed")
		writeJSON(w, http.StatusInternalServerError, boundary.ErrorResponse{
			Code:    "INTERNAL",
			Message: "quote lookup failed",
		})
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, boundary.ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "quote not found",
		})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, boundary.ErrorResponse{
			Code:    perrors.ErrCodeInvalidInput,
			Message: "malformed request body",
		})
		return err
	}
	return nil
}

// writeError maps the error taxonomy onto status codes: boundary
// validation to 400, critical module aborts to 422, the rest to 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var qe *perrors.QuoteError
	if errors.As(err, &qe) {
		status := http.StatusInternalServerError
		switch qe.Code {
		case perrors.ErrCodeInvalidInput, perrors.ErrCodeMissingBaseCost:
			status = http.StatusBadRequest
		case perrors.ErrCodeCriticalModule:
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, boundary.ErrorResponse{Code: qe.Code, Message: qe.Message})
		return
	}
	s.log.Error().Err(err).Msg("internal error")
	writeJSON(w, http.StatusInternalServerError, boundary.ErrorResponse{
		Code:    "INTERNAL",
		Message: "internal error",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

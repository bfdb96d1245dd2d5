// Package api serves the strategy simulator over JSON/HTTP. It owns request
// validation, defaults, result caching and error mapping; the simulator
// itself stays free of any request-level state.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/pitstop-ai/pitsim/sim"
)

// HeaderRequestID carries the request id on requests and responses.
const HeaderRequestID = "X-Request-Id"

// HeaderCache reports "hit" or "miss" for /run_sim responses.
const HeaderCache = "X-Cache"

const maxBodyBytes = 1 << 20

type ctxKey int

const requestIDKey ctxKey = iota

// Server handles simulation requests against one lap table and config.
type Server struct {
	laps        *sim.LapTable
	cfg         sim.SimulationConfig
	seed        int64
	parallelism int
	cacheTTL    time.Duration
	cache       *resultCache[string, *sim.SimulationResult]
	log         logrus.FieldLogger
}

// Option configures a Server.
type Option func(*Server)

// WithSeed sets the top-level seed of every simulation.
func WithSeed(seed int64) Option {
	return func(s *Server) { s.seed = seed }
}

// WithParallelism sets how many candidates of a request are simulated concurrently.
func WithParallelism(n int) Option {
	return func(s *Server) { s.parallelism = n }
}

// WithCacheTTL sets how long identical requests are answered from cache.
// Zero disables the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Server) { s.cacheTTL = ttl }
}

// WithLogger sets the server logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) { s.log = l }
}

// NewServer creates a Server. cfg.MCSamples is the default sample count of
// requests that do not set mc_samples.
func NewServer(laps *sim.LapTable, cfg sim.SimulationConfig, opts ...Option) *Server {
	s := &Server{
		laps:        laps,
		cfg:         cfg,
		seed:        sim.DefaultSeed,
		parallelism: 1,
		cacheTTL:    5 * time.Minute,
		log:         logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = newResultCache(
		WithExpiration[string, *sim.SimulationResult](s.cacheTTL),
		WithCacheLogger[string, *sim.SimulationResult](s.log.WithField("component", "cache")),
	)
	return s
}

// Router registers the API routes.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(requestID)
	router.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	router.HandleFunc("/config", s.config).Methods(http.MethodGet)
	router.HandleFunc("/run_sim", s.runSim).Methods(http.MethodPost)
	return router
}

// Handler wraps Router with CORS and panic recovery.
func (s *Server) Handler() http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", HeaderRequestID}),
		handlers.ExposedHeaders([]string{HeaderRequestID, HeaderCache}),
	)
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(s.log), handlers.PrintRecoveryStack(true))
	return recovery(cors(s.Router()))
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *Server) logFor(r *http.Request) logrus.FieldLogger {
	id, _ := r.Context().Value(requestIDKey).(string)
	return s.log.WithField("request_id", id)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	type health struct {
		Status string `json:"status"`
		Laps   int    `json:"laps"`
	}
	writeJSON(w, http.StatusOK, health{Status: "ok", Laps: s.laps.Len()})
}

func (s *Server) config(w http.ResponseWriter, _ *http.Request) {
	type activeConfig struct {
		Seed       int64                `json:"seed"`
		Simulation sim.SimulationConfig `json:"simulation"`
	}
	writeJSON(w, http.StatusOK, activeConfig{Seed: s.seed, Simulation: s.cfg})
}

func (s *Server) runSim(w http.ResponseWriter, r *http.Request) {
	l := s.logFor(r)

	var req RunSimRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	norm, err := req.Normalize(s.cfg.MCSamples)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	res, hit, err := s.cache.Get(norm.CacheKey(), func() (*sim.SimulationResult, error) {
		return sim.Simulate(norm.SimRequest(s.laps, s.cfg, s.seed),
			sim.WithParallelism(s.parallelism), sim.WithLogger(l))
	})
	switch {
	case errors.Is(err, sim.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		l.WithError(err).Error("simulation failed")
		writeError(w, http.StatusInternalServerError, "simulation failed: "+err.Error())
		return
	}

	l.WithFields(logrus.Fields{
		"candidates": len(norm.Candidates),
		"mc_samples": norm.MCSamples,
		"cache_hit":  hit,
		"elapsed":    time.Since(start),
	}).Info("run_sim")
	if hit {
		w.Header().Set(HeaderCache, "hit")
	} else {
		w.Header().Set(HeaderCache, "miss")
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("writing response")
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	type errorBody struct {
		Detail string `json:"detail"`
	}
	writeJSON(w, status, errorBody{Detail: detail})
}

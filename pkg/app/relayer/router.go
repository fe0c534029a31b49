package relayer

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/copytrade-relayer/pkg/app/errors"
	apphttp "github.com/chainsafe/copytrade-relayer/pkg/app/http"
	"github.com/chainsafe/copytrade-relayer/pkg/auth"
	"github.com/chainsafe/copytrade-relayer/pkg/config"
	"github.com/chainsafe/copytrade-relayer/pkg/db"
	"github.com/chainsafe/copytrade-relayer/pkg/relayer"
)

const (
	defaultRunsLimit = 50
	maxRunsLimit     = 500

	requestTimeout = 60 * time.Second
)

// EngineStatus is the part of the engine the ops API reports on
type EngineStatus interface {
	IsReady() bool
	Status() relayer.Status
}

// RunReader reads bridge run audit records
type RunReader interface {
	GetRun(ctx context.Context, id uuid.UUID) (*db.BridgeRun, error)
	ListRuns(ctx context.Context, limit int) ([]*db.BridgeRun, error)
}

type handlers struct {
	engine EngineStatus
	runs   RunReader
}

// NewRouter builds the ops API. /api/v1 is rate limited per IP and, when
// server.auth_secret is set, requires a bearer token.
func NewRouter(cfg *config.Config, engine EngineStatus, runs RunReader, logger *zap.Logger) http.Handler {
	h := &handlers{engine: engine, runs: runs}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apphttp.AccessLog(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Get("/ready", func(w http.ResponseWriter, _ *http.Request) {
		if !engine.IsReady() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT_READY"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	})

	if cfg.Monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Server.RateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.Server.RateLimit, time.Minute))
		}
		if cfg.Server.AuthSecret != "" {
			r.Use(apphttp.RequireToken(auth.NewTokenValidator(cfg.Server.AuthSecret, "")))
		}
		r.Get("/status", apphttp.HandleError(h.getStatus))
		r.Get("/runs", apphttp.HandleError(h.listRuns))
		r.Get("/runs/{id}", apphttp.HandleError(h.getRun))
	})

	return r
}

func (h *handlers) getStatus(w http.ResponseWriter, _ *http.Request) error {
	apphttp.WriteJSON(w, http.StatusOK, h.engine.Status())
	return nil
}

func (h *handlers) listRuns(w http.ResponseWriter, r *http.Request) error {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return apperrors.ValidationError(err, "limit must be a positive integer")
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		return apperrors.GeneralError(err)
	}
	apphttp.WriteJSON(w, http.StatusOK, map[string]any{"runs": runs})
	return nil
}

func (h *handlers) getRun(w http.ResponseWriter, r *http.Request) error {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return apperrors.ValidationError(err, "invalid run id")
	}

	run, err := h.runs.GetRun(r.Context(), id)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, run)
	return nil
}

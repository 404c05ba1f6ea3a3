// Package api exposes the operational HTTP surface of the tick engine:
// manual triggers, tick history reads, and health/metrics endpoints. End
// users never talk to this API; it is for administrative tooling.
package api

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/YOUR-BIGWINGS/quickbuck-beta-sub001/internal/config"
	"github.com/YOUR-BIGWINGS/quickbuck-beta-sub001/internal/econ"
)

type Server struct {
	cfg  config.WorkerConfig
	log  *slog.Logger
	econ *econ.Service
	mux  *chi.Mux
}

func New(cfg config.WorkerConfig, logger *slog.Logger, econSvc *econ.Service, gatherer prometheus.Gatherer) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:  cfg,
		log:  logger,
		econ: econSvc,
		mux:  chi.NewRouter(),
	}
	s.routes(gatherer)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes(gatherer prometheus.Gatherer) {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.adminMiddleware)
		r.Post("/admin/tick", s.handleManualTick)
		r.Post("/admin/tax-sweep", s.handleTaxSweep)
		r.Get("/ticks", s.handleTickList)
		r.Get("/ticks/{number}", s.handleTickByNumber)
		r.Post("/players/{id}/tax-evasion", s.handleTaxEvasion)
	})
}

// adminMiddleware gates every /v1 route behind the deploy-time admin token.
// Manual invocation is restricted to privileged callers.
func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AdminToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "missing or invalid admin token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleManualTick(w http.ResponseWriter, r *http.Request) {
	summary, err := s.econ.RunTick(r.Context(), "manual")
	if err != nil {
		if errors.Is(err, econ.ErrTickInProgress) {
			// Expected contention, retryable, not a system failure.
			writeError(w, http.StatusConflict, "another tick is in progress; retry shortly")
			return
		}
		s.log.Error("manual tick failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleTaxSweep(w http.ResponseWriter, r *http.Request) {
	summary, err := s.econ.RunTaxSweep(r.Context(), "manual")
	if err != nil {
		if errors.Is(err, econ.ErrTickInProgress) {
			writeError(w, http.StatusConflict, "another tick is in progress; retry shortly")
			return
		}
		s.log.Error("manual tax sweep failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleTickList(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	records, err := s.econ.ListTickRecords(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []econ.TickRecordView{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ticks": records})
}

func (s *Server) handleTickByNumber(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.ParseInt(chi.URLParam(r, "number"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "tick number must be an integer")
		return
	}
	record, err := s.econ.TickRecordByNumber(r.Context(), number)
	if err != nil {
		if errors.Is(err, econ.ErrTickNotFound) {
			writeError(w, http.StatusNotFound, "tick not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleTaxEvasion(w http.ResponseWriter, r *http.Request) {
	playerID := strings.TrimSpace(chi.URLParam(r, "id"))
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "player id required")
		return
	}
	result, err := s.econ.AttemptTaxEvasion(r.Context(), playerID)
	if err != nil {
		if errors.Is(err, econ.ErrPlayerNotFound) {
			writeError(w, http.StatusNotFound, "player not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

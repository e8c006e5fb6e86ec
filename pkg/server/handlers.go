package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/jkrumm/fpp-analytics/pkg/analytics"
	"github.com/jkrumm/fpp-analytics/pkg/email"
	"github.com/jkrumm/fpp-analytics/pkg/httpx"
	"github.com/jkrumm/fpp-analytics/pkg/server/monitor"
	"github.com/jkrumm/fpp-analytics/pkg/store"
)

var startTime = time.Now()

const dbPingTimeout = 2 * time.Second

// authMiddleware guards the analytics routes with the shared secret. A
// missing server-side secret is a deployment fault, not a client fault.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()

		if s.cfg.SecretToken == "" {
			httpx.RespondErrorString(w, http.StatusInternalServerError,
				"auth_unconfigured", "analytics secret token is not configured", started)
			return
		}

		token := r.Header.Get("Authorization")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.SecretToken)) != 1 {
			httpx.RespondErrorString(w, http.StatusUnauthorized,
				"unauthorized", "invalid authorization token", started)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type dashboardResponse struct {
	Data          *analytics.Bundle `json:"data"`
	DataUpdatedAt string            `json:"data_updated_at"`
}

// handleDashboard serves the full analytics bundle. Responses are
// memoized per freshness marker: as long as no sync cycle rewrote the
// read model, repeated requests hit the cache.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	marker, markerOK := s.store.ReadFreshness()
	if markerOK {
		if cached, hit := s.bundles.Get(marker); hit {
			w.Header().Set("X-Cache", "HIT")
			httpx.RespondJSON(w, http.StatusOK, cached)
			return
		}
	}

	bundle, err := s.engine.ComputeBundle(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		tag := "analytics_failed"
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusServiceUnavailable
			tag = "data_unavailable"
		}
		s.log.Error("dashboard computation failed", zap.Error(err))
		httpx.RespondError(w, status, tag, err, started)
		return
	}

	response := dashboardResponse{Data: bundle, DataUpdatedAt: marker}
	if markerOK {
		s.bundles.Set(marker, response)
	}

	w.Header().Set("X-Cache", "MISS")
	httpx.RespondJSON(w, http.StatusOK, response)
}

// handleRoomStats serves per-room vote aggregates. The votes table is
// refreshed first so the numbers are near real time; when the refresh
// fails the handler serves what is on disk instead of erroring.
func (s *Server) handleRoomStats(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	roomID, err := strconv.ParseInt(mux.Vars(r)["room_id"], 10, 64)
	if err != nil || roomID <= 0 {
		httpx.RespondErrorString(w, http.StatusBadRequest,
			"invalid_room_id", "room_id must be a positive integer", started)
		return
	}

	if _, err := s.syncer.SyncVotes(r.Context()); err != nil {
		s.log.Warn("votes refresh failed, serving stored data",
			zap.Int64("room_id", roomID), zap.Error(err))
	}

	stats, err := s.engine.RoomStats(r.Context(), roomID)
	if err != nil {
		status := http.StatusInternalServerError
		tag := "room_stats_failed"
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusServiceUnavailable
			tag = "data_unavailable"
		}
		s.log.Error("room stats failed", zap.Int64("room_id", roomID), zap.Error(err))
		httpx.RespondError(w, status, tag, err, started)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, stats)
}

// handleDailyAnalytics computes the trailing-24h summary and forwards
// it to the email service. An email failure maps to a 502 but never
// takes the process down.
func (s *Server) handleDailyAnalytics(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	stats, err := s.engine.Daily(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		tag := "analytics_failed"
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusServiceUnavailable
			tag = "data_unavailable"
		}
		s.log.Error("daily analytics failed", zap.Error(err))
		httpx.RespondError(w, status, tag, err, started)
		return
	}

	if err := s.email.SendDailyReport(r.Context(), stats); err != nil {
		status := http.StatusInternalServerError
		tag := "email_failed"
		if errors.Is(err, email.ErrEmailService) {
			status = http.StatusBadGateway
			tag = "email_service"
		}
		s.log.Error("daily report email failed", zap.Error(err))
		httpx.RespondError(w, status, tag, err, started)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, stats)
}

// healthResponse is the health check payload.
type healthResponse struct {
	Status    string             `json:"status"`
	Uptime    string             `json:"uptime"`
	Database  string             `json:"database"`
	Files     []store.FileStatus `json:"files"`
	UsedBytes int64              `json:"used_bytes"`
	Sync      monitor.SyncStatus `json:"sync"`
}

// handleHealth reports read-model and database health. Unauthenticated
// so uptime monitors can poll it.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	files := s.store.Files()
	allPresent := true
	for _, f := range files {
		if !f.Present {
			allPresent = false
			break
		}
	}

	pingCtx, cancel := context.WithTimeout(r.Context(), dbPingTimeout)
	defer cancel()
	database := "up"
	if err := s.source.Ping(pingCtx); err != nil {
		database = "down"
		s.log.Warn("health check database ping failed", zap.Error(err))
	}

	usedBytes, err := s.storageMonitor.GetUsage()
	if err != nil {
		s.log.Warn("health check storage scan failed", zap.Error(err))
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !allPresent || database == "down" {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	httpx.RespondJSON(w, statusCode, healthResponse{
		Status:    status,
		Uptime:    time.Since(startTime).String(),
		Database:  database,
		Files:     files,
		UsedBytes: usedBytes,
		Sync:      s.syncMonitor.Status(),
	})
}

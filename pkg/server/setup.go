// Package server wires the HTTP API: routes, authentication, the
// response cache and the background sync task.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/jkrumm/fpp-analytics/pkg/analytics"
	"github.com/jkrumm/fpp-analytics/pkg/cache"
	"github.com/jkrumm/fpp-analytics/pkg/config"
	"github.com/jkrumm/fpp-analytics/pkg/email"
	"github.com/jkrumm/fpp-analytics/pkg/server/monitor"
	"github.com/jkrumm/fpp-analytics/pkg/source"
	"github.com/jkrumm/fpp-analytics/pkg/store"
	"github.com/jkrumm/fpp-analytics/pkg/syncer"
)

// Server holds every dependency the handlers need.
type Server struct {
	cfg     config.Config
	log     *zap.Logger
	store   *store.Store
	source  source.Source
	syncer  *syncer.Syncer
	engine  *analytics.Engine
	email   *email.Client
	bundles *cache.Cache[dashboardResponse]

	syncMonitor    *monitor.SyncMonitor
	storageMonitor *monitor.StorageMonitor
}

// New assembles a Server from its dependencies.
func New(
	cfg config.Config,
	log *zap.Logger,
	st *store.Store,
	src source.Source,
	sy *syncer.Syncer,
	engine *analytics.Engine,
	emailClient *email.Client,
) *Server {
	return &Server{
		cfg:     cfg,
		log:     log,
		store:   st,
		source:  src,
		syncer:  sy,
		engine:  engine,
		email:   emailClient,
		bundles: cache.New[dashboardResponse](),

		// Allow one missed cycle before the read model counts as stale.
		syncMonitor:    monitor.NewSyncMonitor(2 * cfg.SyncInterval),
		storageMonitor: monitor.NewStorageMonitor(st.DataDir()),
	}
}

// SyncMonitor exposes the sync health tracker to the background task.
func (s *Server) SyncMonitor() *monitor.SyncMonitor {
	return s.syncMonitor
}

// Routes configures all HTTP routes.
func (s *Server) Routes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	authed := router.NewRoute().Subrouter()
	authed.Use(s.authMiddleware)
	authed.HandleFunc("/", s.handleDashboard).Methods(http.MethodGet)
	authed.HandleFunc("/room/{room_id}/stats", s.handleRoomStats).Methods(http.MethodGet)
	authed.HandleFunc("/daily-analytics", s.handleDailyAnalytics).Methods(http.MethodGet)

	return router
}

package handlers

import (
	"net/http"

	"droidmon/app/internal/database"
	"droidmon/app/internal/ratelimit"
	"droidmon/app/internal/sampler"
	"droidmon/app/internal/security"
)

// SetupRoutes configures the control API and its middlewares. collectLimiter
// bounds the on-demand collection endpoints; nil disables the limit.
func SetupRoutes(ctl *sampler.Controller, store *database.Store, collectLimiter *ratelimit.Limiter) http.Handler {
	limited := func(h http.HandlerFunc) http.Handler {
		if collectLimiter == nil {
			return h
		}
		return security.RateLimit(collectLimiter, "collect", h)
	}

	mux := http.NewServeMux()

	// Foreground host actions
	mux.HandleFunc("POST /api/monitoring/start", HandleStartMonitoring(ctl))
	mux.HandleFunc("POST /api/monitoring/stop", HandleStopMonitoring(ctl))
	mux.HandleFunc("GET /api/monitoring", HandleMonitoringState(ctl))
	mux.HandleFunc("GET /api/status/stream", HandleStatusStream(ctl))

	// Live cadence and on-demand collection
	mux.HandleFunc("GET /api/live", HandleLive(ctl))
	mux.HandleFunc("GET /api/live/recent", HandleLiveRecent(ctl))
	mux.Handle("POST /api/collect", limited(HandleCollect(ctl)))
	mux.Handle("POST /api/collect/store", limited(HandleCollectAndStore(ctl)))

	// Stored history
	mux.HandleFunc("GET /api/stats", HandleStats(store))
	mux.HandleFunc("GET /api/stats/latest", HandleLatest(store))
	mux.HandleFunc("GET /api/stats/averages", HandleAverages(store))
	mux.HandleFunc("DELETE /api/stats", HandleDeleteStats(store))
	mux.HandleFunc("GET /api/stats/{id}", HandleRecord(store))
	mux.HandleFunc("GET /api/sessions", HandleSessions(store))
	mux.HandleFunc("DELETE /api/sessions/{id}", HandleDeleteSession(store))
	mux.HandleFunc("GET /api/database", HandleDatabaseInfo(store))
	mux.HandleFunc("GET /api/events", HandleEvents(store))

	return security.LoopbackOnly(security.SecureHeaders(GzipMiddleware(mux)))
}

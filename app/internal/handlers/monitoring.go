package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"droidmon/app/internal/sampler"
)

// MonitoringState is the background cadence as shown to the host
type MonitoringState struct {
	Running     bool   `json:"running"`
	SessionID   string `json:"session_id,omitempty"`
	SampleCount int    `json:"sample_count"`
	Status      string `json:"status"`
}

func monitoringState(ctl *sampler.Controller) MonitoringState {
	bg := ctl.Background()
	st := bg.State()
	return MonitoringState{
		Running:     st.Running,
		SessionID:   st.SessionID,
		SampleCount: st.SampleCount,
		Status:      bg.StatusText(),
	}
}

// HandleStartMonitoring is the start-monitoring action
func HandleStartMonitoring(ctl *sampler.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ctl.StartBackground(r.Context()); err != nil {
			serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, monitoringState(ctl))
	}
}

// HandleStopMonitoring is the stop-monitoring action
func HandleStopMonitoring(ctl *sampler.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ctl.StopBackground(r.Context()); err != nil {
			serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, monitoringState(ctl))
	}
}

// HandleMonitoringState returns the background cadence state
func HandleMonitoringState(ctl *sampler.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, monitoringState(ctl))
	}
}

// HandleStatusStream pushes the status surface as server-sent events: a
// "status" event for every status line and a "stats" event per stored sample
func HandleStatusStream(ctl *sampler.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}

		ctx := r.Context()
		bg := ctl.Background()
		statuses := bg.Status().Subscribe(ctx)
		stats := bg.Stats().Subscribe(ctx)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		send := func(event string, v any) bool {
			b, err := json.Marshal(v)
			if err != nil {
				return true
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b); err != nil {
				return false
			}
			flusher.Flush()
			return true
		}

		for {
			select {
			case _, ok := <-statuses:
				if !ok || !send("status", monitoringState(ctl)) {
					return
				}
			case u, ok := <-stats:
				if !ok || !send("stats", u) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}
}

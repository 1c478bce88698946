package handlers

import (
	"net/http"

	"droidmon/app/internal/models"
	"droidmon/app/internal/sampler"
)

// HandleLive returns the newest live snapshot
func HandleLive(ctl *sampler.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		live := ctl.Live()
		if live == nil {
			writeError(w, http.StatusNotFound, "live sampling disabled")
			return
		}
		snap := live.Current()
		if snap == nil {
			writeError(w, http.StatusNotFound, "no live snapshot yet")
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// HandleLiveRecent returns the live trend window, oldest first
func HandleLiveRecent(ctl *sampler.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recent := []models.Snapshot{}
		if live := ctl.Live(); live != nil {
			recent = live.Recent()
		}
		writeJSON(w, http.StatusOK, recent)
	}
}

// HandleCollect captures one snapshot without storing it
func HandleCollect(ctl *sampler.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := ctl.CollectNow(r.Context())
		if err != nil {
			serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// HandleCollectAndStore captures and stores one snapshot under a manual session
func HandleCollectAndStore(ctl *sampler.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := ctl.CollectAndStore(r.Context())
		if err != nil {
			serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

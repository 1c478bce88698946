package handlers

import (
	"net/http"
	"strconv"
	"time"

	"droidmon/app/internal/database"
	"droidmon/app/internal/models"
)

const (
	defaultRecordLimit = 100
	maxRecordLimit     = 10000
)

// HandleStats returns stored records, newest first. ?session= selects one
// session, ?from=&to= a time range (ms), otherwise the newest ?limit= records.
func HandleStats(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			recs []models.Record
			err  error
		)

		from, hasFrom, errFrom := queryInt64(r, "from")
		to, hasTo, errTo := queryInt64(r, "to")
		limit, errLimit := queryLimit(r, defaultRecordLimit, maxRecordLimit)
		if errFrom != nil || errTo != nil || errLimit != nil {
			writeError(w, http.StatusBadRequest, "from, to and limit must be integers")
			return
		}

		switch session := r.URL.Query().Get("session"); {
		case session != "":
			recs, err = store.BySession(r.Context(), session)
		case hasFrom || hasTo:
			if !hasTo {
				to = time.Now().UnixMilli()
			}
			recs, err = store.Range(r.Context(), from, to)
		default:
			recs, err = store.Recent(r.Context(), limit)
		}
		if err != nil {
			serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

// HandleRecord returns one record by id
func HandleRecord(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid record id")
			return
		}
		rec, err := store.Get(r.Context(), id)
		if err != nil {
			serverError(w, r, err)
			return
		}
		if rec == nil {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// HandleLatest returns the newest stored record
func HandleLatest(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := store.Latest(r.Context())
		if err != nil {
			serverError(w, r, err)
			return
		}
		if rec == nil {
			writeError(w, http.StatusNotFound, "no records")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// HandleAverages returns mean load, memory used and battery level over
// ?from=&to= (ms; defaults to all time up to now)
func HandleAverages(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, _, errFrom := queryInt64(r, "from")
		to, hasTo, errTo := queryInt64(r, "to")
		if errFrom != nil || errTo != nil {
			writeError(w, http.StatusBadRequest, "from and to must be integers")
			return
		}
		if !hasTo {
			to = time.Now().UnixMilli()
		}

		avg, err := store.Averages(r.Context(), from, to)
		if err != nil {
			serverError(w, r, err)
			return
		}
		if avg == nil {
			writeError(w, http.StatusNotFound, "no records in range")
			return
		}
		writeJSON(w, http.StatusOK, avg)
	}
}

// HandleDeleteStats removes records: ?before= (ms cutoff), ?days= (older
// than N days) or, with neither, everything
func HandleDeleteStats(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		before, hasBefore, errBefore := queryInt64(r, "before")
		days, hasDays, errDays := queryInt64(r, "days")
		if errBefore != nil || errDays != nil {
			writeError(w, http.StatusBadRequest, "before and days must be integers")
			return
		}

		var (
			n   int
			err error
		)
		switch {
		case hasBefore:
			n, err = store.DeleteOld(r.Context(), before)
		case hasDays:
			if days < 0 {
				writeError(w, http.StatusBadRequest, "days must not be negative")
				return
			}
			n, err = store.DeleteOlderThanDays(r.Context(), int(days), time.Now())
		default:
			n, err = store.DeleteAll(r.Context())
		}
		if err != nil {
			serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
	}
}

// HandleSessions returns a summary of every session, most recent first
func HandleSessions(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sums, err := store.SessionSummaries(r.Context())
		if err != nil {
			serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sums)
	}
}

// HandleDeleteSession removes the records of one session
func HandleDeleteSession(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := store.DeleteSession(r.Context(), r.PathValue("id"))
		if err != nil {
			serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
	}
}

// HandleDatabaseInfo returns record count, latest timestamp and size estimate
func HandleDatabaseInfo(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := store.Info(r.Context())
		if err != nil {
			serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

// HandleEvents returns the event log, newest first, filtered by ?level= and ?category=
func HandleEvents(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryLimit(r, 100, 1000)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		q := r.URL.Query()
		events, err := store.Events(r.Context(), limit, q.Get("level"), q.Get("category"))
		if err != nil {
			serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"droidmon/app/internal/logger"

	"go.uber.org/zap"
)

var errBadQuery = errors.New("bad query")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// serverError logs err and answers 500 without leaking it
func serverError(w http.ResponseWriter, r *http.Request, err error) {
	logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	writeError(w, http.StatusInternalServerError, "server error")
}

// queryInt64 parses an optional integer query parameter
func queryInt64(r *http.Request, name string) (int64, bool, error) {
	q := r.URL.Query().Get(name)
	if q == "" {
		return 0, false, nil
	}
	n, err := strconv.ParseInt(q, 10, 64)
	if err != nil {
		return 0, true, errBadQuery
	}
	return n, true, nil
}

// queryLimit parses ?limit= clamped to [1, hi], def when absent
func queryLimit(r *http.Request, def, hi int) (int, error) {
	n, ok, err := queryInt64(r, "limit")
	if err != nil || !ok {
		return def, err
	}
	if n < 1 {
		n = 1
	}
	if n > int64(hi) {
		n = int64(hi)
	}
	return int(n), nil
}

// Package handlers provides shared HTTP response helpers for domain handlers.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// Failure is the JSON body written for user-visible failures that can be retried.
type Failure struct {
	Error string `json:"error"`
	Retry string `json:"retry,omitempty"`
}

// RespondJSON writes data as JSON with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError logs err and writes it as {"error": "..."}.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	logger.Error("handler error", "status", status, "error", err)
	RespondJSON(w, status, map[string]string{"error": err.Error()})
}

// RespondFailure logs err and writes a Failure carrying a retry hint.
func RespondFailure(w http.ResponseWriter, logger *slog.Logger, status int, err error, retry string) {
	logger.Error("handler failure", "status", status, "error", err, "retry", retry)
	RespondJSON(w, status, Failure{Error: err.Error(), Retry: retry})
}

// Stream writes initial, then every value received from ch, as server-sent
// events until ch closes or the request context is done. Each value is sent as a
// single JSON data line.
func Stream[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, initial T, ch <-chan T) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		RespondError(w, logger, http.StatusInternalServerError, fmt.Errorf("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeEvent(w, logger, initial)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case v, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(w, logger, v)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, logger *slog.Logger, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		logger.Error("stream encode failed", "error", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

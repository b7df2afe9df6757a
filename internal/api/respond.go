package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/lacak-emas/lacak-emas-api/internal/fetcher"
	"github.com/lacak-emas/lacak-emas-api/internal/store"
)

// Meta accompanies every successful data response.
type Meta struct {
	Source    string `json:"source"`
	ScrapedAt string `json:"scraped_at"`
	Total     int    `json:"total"`
	Cached    bool   `json:"cached"`
	Method    string `json:"method,omitempty"`
}

type envelope struct {
	Success bool  `json:"success"`
	Data    any   `json:"data"`
	Summary any   `json:"summary,omitempty"`
	Meta    *Meta `json:"meta,omitempty"`
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Detail  string `json:"detail,omitempty"`
}

// badRequest marks a client error in query parameters.
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string { return e.msg }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: write response", zap.Error(err))
	}
}

// statusFor maps an error to its HTTP status and a short public message.
func statusFor(err error) (int, string) {
	var br *badRequest
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest, "invalid query parameter"
	case errors.Is(err, store.ErrDisabled):
		return http.StatusServiceUnavailable, "persistence not configured"
	case fetcher.IsTimeout(err):
		return http.StatusGatewayTimeout, "source page timed out"
	case fetcher.IsFetchError(err):
		return http.StatusBadGateway, "source page unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	detail := err.Error()
	var br *badRequest
	if errors.As(err, &br) {
		detail = br.msg
	}

	log := zap.L().With(zap.String("path", r.URL.Path), zap.Int("status", status))
	if status >= http.StatusInternalServerError {
		log.Error("api: request failed", zap.Error(err))
	} else {
		log.Debug("api: request rejected", zap.Error(err))
	}

	writeJSON(w, status, errorBody{Success: false, Error: msg, Detail: detail})
}

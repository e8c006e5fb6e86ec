// Package httpx holds the shared JSON response helpers for the API.
package httpx

import (
	"math"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// RespondJSON writes a JSON response with the given status code and data.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("encode json response", zap.Error(err))
	}
}

// ErrorResponse is the uniform error payload: a short failure tag, a
// human-readable message and the elapsed handler time in seconds.
type ErrorResponse struct {
	Error    string  `json:"error"`
	Message  string  `json:"message"`
	Duration float64 `json:"duration"`
}

// RespondError writes an error payload for a failure tagged with tag.
// started is when the handler began; the payload reports the elapsed
// seconds so slow failures are visible to the caller.
func RespondError(w http.ResponseWriter, status int, tag string, err error, started time.Time) {
	RespondJSON(w, status, ErrorResponse{
		Error:    tag,
		Message:  err.Error(),
		Duration: elapsedSeconds(started),
	})
}

// RespondErrorString is RespondError for message strings.
func RespondErrorString(w http.ResponseWriter, status int, tag, message string, started time.Time) {
	RespondJSON(w, status, ErrorResponse{
		Error:    tag,
		Message:  message,
		Duration: elapsedSeconds(started),
	})
}

func elapsedSeconds(started time.Time) float64 {
	return math.Round(time.Since(started).Seconds()*1000) / 1000
}

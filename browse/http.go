package browse

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// HTTPLogger logs one line per request with its status and duration.
func HTTPLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wr := NewStatusCodeRecorderResponseWriter(w)
			handler.ServeHTTP(wr, r)
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.String()).
				Int("status", wr.Status).
				Dur("took", time.Since(start)).
				Msg("http")
		})
	}
}

type StatusCodeRecorderResponseWriter struct {
	http.ResponseWriter
	Status int
}

func (r *StatusCodeRecorderResponseWriter) WriteHeader(status int) {
	r.Status = status
	r.ResponseWriter.WriteHeader(status)
}

func NewStatusCodeRecorderResponseWriter(w http.ResponseWriter) *StatusCodeRecorderResponseWriter {
	return &StatusCodeRecorderResponseWriter{ResponseWriter: w, Status: http.StatusOK}
}

package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"accentscan/internal/logging"
	"accentscan/internal/services"
)

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestID tags every request with a correlation ID that flows into
// pipeline logs through the context.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := services.WithRequestID(r.Context(), id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		logging.WithContext(ctx, s.logger).Debug("request served",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			logging.WarnWithContext(logging.WithContext(r.Context(), s.logger), "analysis request rate limited", "rate_limited",
				logging.String(logging.FieldImpact, "request rejected"),
				logging.String(logging.FieldErrorHint, "wait a few seconds before submitting again"),
			)
			s.writeError(w, http.StatusTooManyRequests, "warning", "Too many requests. Please wait a moment and try again.", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

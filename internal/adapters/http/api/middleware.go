package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/combatlog/pkg/metrics"
)

// MetricsMiddleware records request count, latency and failures for endpoint.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		ms := float64(time.Since(start).Microseconds()) / 1000
		code := strconv.Itoa(rw.statusCode)
		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, ms)

		kind, severity, failed := failureClass(rw.statusCode)
		if !failed {
			return
		}
		metrics.RecordErrorByEndpoint(endpoint, r.Method, kind)
		metrics.RecordErrorByType(kind, severity)
		metrics.RecordErrorLatency("http", kind, ms)
	}
}

// failureClass maps a status code to the error type and severity labels.
// failed is false for anything below 400.
func failureClass(status int) (kind, severity string, failed bool) {
	switch {
	case status < http.StatusBadRequest:
		return "", "", false
	case status >= http.StatusInternalServerError:
		return "server_error", "high", true
	}
	switch status {
	case http.StatusTooManyRequests:
		kind = "backpressure"
	case http.StatusRequestEntityTooLarge:
		kind = "payload_too_large"
	case http.StatusNotFound:
		kind = "not_found"
	default:
		kind = "client_error"
	}
	return kind, "medium", true
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}

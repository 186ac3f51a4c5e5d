package router

import (
	"net/http"
	"time"

	"didcom/service-report/internal/handler"

	"go.uber.org/zap"
)

// slowRequest is the duration above which requests are logged as warnings
const slowRequest = time.Second

// New registers the report routes and wraps them in the logging middleware
func New(reportHandler *handler.ReportHandler, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("GET /{$}", reportHandler.Index)
	mux.HandleFunc("POST /report/update", reportHandler.Update)
	mux.HandleFunc("POST /report/add", reportHandler.Add)
	mux.HandleFunc("POST /report/remove/{index}", reportHandler.Remove)
	mux.HandleFunc("POST /report/submit", reportHandler.Submit)
	mux.HandleFunc("GET /report/export", reportHandler.Export)
	mux.Handle("GET /static/", reportHandler.Static())

	return loggingMiddleware(mux, logger)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'")

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		duration := time.Since(start)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Int("status", rec.status),
			zap.Duration("duration", duration),
		}
		if duration > slowRequest {
			logger.Warn("Slow HTTP request", fields...)
		} else {
			logger.Debug("HTTP request", fields...)
		}
	})
}

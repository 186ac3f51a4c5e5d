package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"didcom/service-report/internal/config"
	"didcom/service-report/internal/export"
	"didcom/service-report/internal/handler"
	"didcom/service-report/internal/service"
	"didcom/service-report/internal/session"

	"go.uber.org/zap/zaptest"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zaptest.NewLogger(t)
	profile := session.MultiCompanyProfile()

	store := session.NewStore(profile, time.Hour, logger)
	t.Cleanup(store.Stop)

	svc := service.NewReportService(profile, config.WebhookConfig{}, "", nil, export.NewExporter(export.Gray(0), logger), logger)
	h, err := handler.NewReportHandler(svc, store, config.BrandConfig{PrimaryColor: "#0b4ea2", AccentColor: "#00b5e2"}, logger)
	if err != nil {
		t.Fatalf("NewReportHandler() error = %v", err)
	}
	return New(h, logger)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != `{"status":"ok"}` {
		t.Errorf("body = %q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("Content-Security-Policy not set")
	}
}

func TestRouteMethods(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{method: http.MethodGet, path: "/", want: http.StatusOK},
		{method: http.MethodPost, path: "/report/add", want: http.StatusSeeOther},
		{method: http.MethodGet, path: "/report/add", want: http.StatusMethodNotAllowed},
		{method: http.MethodPost, path: "/report/export", want: http.StatusMethodNotAllowed},
		{method: http.MethodPost, path: "/report/remove/0", want: http.StatusSeeOther},
		{method: http.MethodGet, path: "/missing", want: http.StatusNotFound},
		{method: http.MethodGet, path: "/static/report.js", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
			}
		})
	}
}

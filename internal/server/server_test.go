package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestServeAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})
	srv := New(0, h, time.Minute, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRunInvalidPort(t *testing.T) {
	srv := New(-1, http.NotFoundHandler(), 0, zaptest.NewLogger(t))
	if err := srv.Run(context.Background()); err == nil {
		t.Error("Run() error = nil for invalid port")
	}
}

func TestNewWriteTimeout(t *testing.T) {
	srv := New(8080, http.NotFoundHandler(), 45*time.Second, zaptest.NewLogger(t))
	if got := srv.httpServer.WriteTimeout; got != 45*time.Second {
		t.Errorf("WriteTimeout = %v, want 45s", got)
	}
	if srv.httpServer.ReadTimeout != readTimeout {
		t.Errorf("ReadTimeout = %v, want %v", srv.httpServer.ReadTimeout, readTimeout)
	}
}

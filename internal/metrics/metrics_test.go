package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRouterServesMetrics(t *testing.T) {
	reg := InitRegistry()
	ObserveDirectory("locations/v3/search", "200", 12*time.Millisecond)
	ObserveConversation("/lowprice", "ok")
	ObserveHistoryWrite(nil)

	srv := httptest.NewServer(NewRouter(reg, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	for _, name := range []string{
		"hotelsbot_directory_requests_total",
		"hotelsbot_directory_request_duration_seconds",
		"hotelsbot_conversations_total",
		"hotelsbot_history_writes_total",
	} {
		if !strings.Contains(string(body), name) {
			t.Fatalf("expected %s in output", name)
		}
	}
}

func TestHealthz(t *testing.T) {
	var healthy error
	h := NewRouter(InitRegistry(), func(context.Context) error { return healthy })

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("healthy: %d %q", rr.Code, rr.Body.String())
	}

	healthy = errors.New("db down")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("unhealthy: %d", rr.Code)
	}
}

func TestObserveHistoryWriteLabels(t *testing.T) {
	reg := InitRegistry()
	ObserveHistoryWrite(errors.New("tx aborted"))

	rr := httptest.NewRecorder()
	MetricsHandler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), `hotelsbot_history_writes_total{status="fail"}`) {
		t.Fatalf("fail write not exported:\n%s", rr.Body.String())
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", http.NotFoundHandler()) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop")
	}
}

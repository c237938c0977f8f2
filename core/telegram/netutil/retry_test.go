package netutil

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

type flakyTransport struct {
	failures int
	calls    int
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	}
	return http.DefaultTransport.RoundTrip(req)
}

func TestShouldRetry(t *testing.T) {
	if ShouldRetry(nil) || ShouldRetry(errors.New("bad request")) {
		t.Fatal("plain errors must not be retried")
	}
	dial := &url.Error{Op: "Get", URL: "http://x", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}}
	if !ShouldRetry(dial) {
		t.Fatal("dial errors must be retried")
	}
}

func TestRetryTransportRecoversFromDialFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	flaky := &flakyTransport{failures: 2}
	client := &http.Client{Transport: &RetryTransport{Base: flaky, MaxRetries: 2, Backoff: time.Millisecond}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent || flaky.calls != 3 {
		t.Fatalf("status %d after %d calls", resp.StatusCode, flaky.calls)
	}
}

func TestRetryTransportGivesUp(t *testing.T) {
	flaky := &flakyTransport{failures: 10}
	client := &http.Client{Transport: &RetryTransport{Base: flaky, MaxRetries: 1, Backoff: time.Millisecond}}
	if _, err := client.Get("http://127.0.0.1:1"); err == nil {
		t.Fatal("expected error")
	}
	if flaky.calls != 2 {
		t.Fatalf("calls = %d, want 2", flaky.calls)
	}
}

package httpretry_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"realitease/internal/httpretry"
	"realitease/internal/services"
)

func getter(url string) httpretry.RequestFunc {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func recordSleeps(delays *[]time.Duration) httpretry.Option {
	return httpretry.WithSleep(func(_ context.Context, d time.Duration) error {
		if d > 0 {
			*delays = append(*delays, d)
		}
		return nil
	})
}

func TestDoRetriesRateLimitHonouringRetryAfter(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"id":42}`))
	}))
	t.Cleanup(server.Close)

	var delays []time.Duration
	client := httpretry.New(httpretry.Policy{MaxRetries: 3, InitialBackoff: time.Second}, recordSleeps(&delays))

	var payload struct {
		ID int `json:"id"`
	}
	if err := client.GetJSON(context.Background(), getter(server.URL), &payload); err != nil {
		t.Fatalf("GetJSON returned error: %v", err)
	}
	if payload.ID != 42 || calls.Load() != 2 {
		t.Fatalf("unexpected result id=%d calls=%d", payload.ID, calls.Load())
	}
	if len(delays) != 1 || delays[0] != 7*time.Second {
		t.Fatalf("expected Retry-After delay, got %v", delays)
	}
}

func TestDoGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	var delays []time.Duration
	client := httpretry.New(httpretry.Policy{MaxRetries: 2, InitialBackoff: time.Second, MaxBackoff: 10 * time.Second}, recordSleeps(&delays))
	_, err := client.GetBody(context.Background(), getter(server.URL))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
	if len(delays) != 2 || delays[0] != time.Second || delays[1] != 2*time.Second {
		t.Fatalf("unexpected backoff %v", delays)
	}
}

func TestDoMapsNotFoundAndClientErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/denied":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	t.Cleanup(server.Close)

	client := httpretry.New(httpretry.Policy{MaxRetries: 3})
	if _, err := client.GetBody(context.Background(), getter(server.URL+"/missing")); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := client.GetBody(context.Background(), getter(server.URL+"/denied")); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	_, err := client.GetBody(context.Background(), getter(server.URL+"/bad"))
	var status *httpretry.StatusError
	if !errors.As(err, &status) || status.Code != http.StatusBadRequest {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestStatusErrorRedactsAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(server.Close)

	client := httpretry.New(httpretry.Policy{})
	_, err := client.GetBody(context.Background(), getter(server.URL+"/x?api_key=secret"))
	if err == nil || strings.Contains(err.Error(), "secret") {
		t.Fatalf("expected redacted error, got %v", err)
	}
}

func TestPacingSpacesRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	t.Cleanup(server.Close)

	var delays []time.Duration
	client := httpretry.New(httpretry.Policy{MinInterval: time.Hour}, recordSleeps(&delays))
	for i := 0; i < 2; i++ {
		if _, err := client.GetBody(context.Background(), getter(server.URL)); err != nil {
			t.Fatal(err)
		}
	}
	if len(delays) != 1 || delays[0] < 59*time.Minute {
		t.Fatalf("expected second request to wait ~1h, got %v", delays)
	}
}

func TestRetryAfterAndBackoff(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if d, ok := httpretry.RetryAfter("3", now); !ok || d != 3*time.Second {
		t.Fatalf("seconds form: %v %v", d, ok)
	}
	if d, ok := httpretry.RetryAfter(now.Add(90*time.Second).Format(http.TimeFormat), now); !ok || d != 90*time.Second {
		t.Fatalf("date form: %v %v", d, ok)
	}
	if _, ok := httpretry.RetryAfter("soon", now); ok {
		t.Fatal("expected garbage to be rejected")
	}
	if got := httpretry.Backoff(time.Second, 5*time.Second, 4); got != 5*time.Second {
		t.Fatalf("expected cap, got %v", got)
	}
	if !httpretry.IsRetriable(context.DeadlineExceeded) || httpretry.IsRetriable(context.Canceled) {
		t.Fatal("unexpected retriable classification")
	}
}

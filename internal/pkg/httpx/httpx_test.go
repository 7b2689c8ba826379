package httpx

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"429", &StatusError{Service: "x", StatusCode: 429}, true},
		{"503", &StatusError{Service: "x", StatusCode: 503}, true},
		{"400", &StatusError{Service: "x", StatusCode: 400}, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		if got := IsRetryableError(tc.err); got != tc.want {
			t.Fatalf("%s: want %v got %v", tc.name, tc.want, got)
		}
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryPolicy{MaxRetries: 3, BaseBackoff: time.Millisecond}, func(context.Context) error {
		calls++
		return &StatusError{Service: "x", StatusCode: 400}
	})
	if err == nil || calls != 1 {
		t.Fatalf("want 1 call and an error, got calls=%d err=%v", calls, err)
	}
}

func TestRetryRecoversFromTransientError(t *testing.T) {
	calls := 0
	retries := 0
	p := RetryPolicy{
		MaxRetries:  3,
		BaseBackoff: time.Millisecond,
		OnRetry:     func(int, time.Duration, error) { retries++ },
	}
	err := Retry(context.Background(), p, func(context.Context) error {
		calls++
		if calls < 3 {
			return &StatusError{Service: "x", StatusCode: http.StatusServiceUnavailable}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 3 || retries != 2 {
		t.Fatalf("want calls=3 retries=2, got calls=%d retries=%d", calls, retries)
	}
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"30"}}}
	if got := RetryAfterDuration(resp, time.Second, 10*time.Second); got != 10*time.Second {
		t.Fatalf("capped retry-after: got %s", got)
	}
	if got := RetryAfterDuration(nil, 2*time.Second, 0); got != 2*time.Second {
		t.Fatalf("fallback: got %s", got)
	}
}

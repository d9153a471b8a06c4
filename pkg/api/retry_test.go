package api

import (
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestRetryPolicy_CalculateBackoff(t *testing.T) {
	policy := DefaultRetryPolicy()

	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{"zero attempt", 0, 0},
		{"first attempt", 1, 1 * time.Second},
		{"second attempt", 2, 2 * time.Second},
		{"third attempt", 3, 4 * time.Second},
		{"capped at max", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.CalculateBackoff(tt.attempt); got != tt.want {
				t.Fatalf("CalculateBackoff(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestRetryPolicy_IsRetryableError(t *testing.T) {
	policy := DefaultRetryPolicy()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"retryable 500", &HTTPError{StatusCode: http.StatusInternalServerError, Message: "boom"}, true},
		{"retryable 429", &HTTPError{StatusCode: http.StatusTooManyRequests, Message: "slow down"}, true},
		{"non-retryable 404", &HTTPError{StatusCode: http.StatusNotFound, Message: "nope"}, false},
		{"non-retryable 401", &HTTPError{StatusCode: http.StatusUnauthorized, Message: "denied"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.IsRetryableError(tt.err); got != tt.want {
				t.Fatalf("IsRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryPolicy_IsRateLimitError(t *testing.T) {
	policy := DefaultRetryPolicy()

	if !policy.IsRateLimitError(&HTTPError{StatusCode: http.StatusTooManyRequests, Message: "x"}) {
		t.Fatal("IsRateLimitError(429) = false, want true")
	}
	if policy.IsRateLimitError(&HTTPError{StatusCode: http.StatusInternalServerError, Message: "x"}) {
		t.Fatal("IsRateLimitError(500) = true, want false")
	}
}

func TestConservativeRetryPolicy(t *testing.T) {
	policy := ConservativeRetryPolicy()

	if policy.MaxAttempts != 2 {
		t.Fatalf("MaxAttempts = %d, want 2", policy.MaxAttempts)
	}
	if len(policy.RetryableErrors) != 3 {
		t.Fatalf("RetryableErrors = %d codes, want 3", len(policy.RetryableErrors))
	}
}

func TestHTTPError_Error(t *testing.T) {
	err := &HTTPError{StatusCode: http.StatusInternalServerError, Message: "Internal Server Error"}

	want := "HTTP 500: Internal Server Error"
	if err.Error() != want {
		t.Fatalf("HTTPError.Error() = %q, want %q", err.Error(), want)
	}
}

func TestExecuteWithRetry(t *testing.T) {
	fastPolicy := func(codes ...int) *RetryPolicy {
		return &RetryPolicy{
			MaxAttempts:       3,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        10 * time.Millisecond,
			BackoffMultiplier: 2.0,
			RetryableErrors:   codes,
		}
	}

	t.Run("success on first attempt", func(t *testing.T) {
		attempts := 0
		err := ExecuteWithRetry(func() error {
			attempts++
			return nil
		}, fastPolicy(http.StatusInternalServerError), "op")

		if err != nil {
			t.Fatalf("ExecuteWithRetry() error = %v", err)
		}
		if attempts != 1 {
			t.Fatalf("attempts = %d, want 1", attempts)
		}
	})

	t.Run("non-retryable error stops immediately", func(t *testing.T) {
		attempts := 0
		err := ExecuteWithRetry(func() error {
			attempts++
			return &HTTPError{StatusCode: http.StatusNotFound, Message: "nope"}
		}, fastPolicy(http.StatusInternalServerError), "op")

		if err == nil {
			t.Fatal("ExecuteWithRetry() error = nil, want failure")
		}
		if attempts != 1 {
			t.Fatalf("attempts = %d, want 1", attempts)
		}
	})

	t.Run("succeeds after retries", func(t *testing.T) {
		attempts := 0
		err := ExecuteWithRetry(func() error {
			attempts++
			if attempts < 3 {
				return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "boom"}
			}
			return nil
		}, fastPolicy(http.StatusInternalServerError), "op")

		if err != nil {
			t.Fatalf("ExecuteWithRetry() error = %v", err)
		}
		if attempts != 3 {
			t.Fatalf("attempts = %d, want 3", attempts)
		}
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		attempts := 0
		err := ExecuteWithRetry(func() error {
			attempts++
			return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "boom"}
		}, fastPolicy(http.StatusInternalServerError), "my-operation")

		if err == nil {
			t.Fatal("ExecuteWithRetry() error = nil, want failure")
		}
		if attempts != 3 {
			t.Fatalf("attempts = %d, want 3", attempts)
		}
		if !strings.Contains(err.Error(), "my-operation") {
			t.Fatalf("error %q does not mention operation name", err.Error())
		}
	})
}

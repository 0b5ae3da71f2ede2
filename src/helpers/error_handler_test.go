package helpers_test

import (
	"errors"
	"testing"
	"time"

	"portfolio-runner/src/helpers"
)

func TestRetryWithBackoff_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	res, err := helpers.RetryWithBackoff("flaky op", 3, time.Millisecond, func() (interface{}, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("transient")
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if res != "ok" || attempts != 3 {
		t.Errorf("Expected 3 attempts returning ok, got %d attempts, %v", attempts, res)
	}
}

func TestRetryWithBackoff_ExhaustsRetries(t *testing.T) {
	attempts := 0
	_, err := helpers.RetryWithBackoff("doomed op", 2, time.Millisecond, func() (interface{}, error) {
		attempts++
		return nil, errors.New("permanent")
	})

	if err == nil {
		t.Fatal("Expected failure after exhausting retries")
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

func TestExecuteWithRetry_CategorizesByOperation(t *testing.T) {
	h := helpers.NewErrorHandler("ERROR")

	tests := []struct {
		operation string
		check     func(error) bool
	}{
		{"pip install", func(err error) bool {
			var e *helpers.BootstrapError
			return errors.As(err, &e)
		}},
		{"journal cleanup", func(err error) bool {
			var e *helpers.DatabaseError
			return errors.As(err, &e)
		}},
		{"launch app", func(err error) bool {
			var e *helpers.ProcessError
			return errors.As(err, &e)
		}},
	}

	for _, tt := range tests {
		_, err := h.ExecuteWithRetry(tt.operation, func() (interface{}, error) {
			return nil, errors.New("boom")
		}, 1)
		if err == nil {
			t.Fatalf("%s: expected an error", tt.operation)
		}
		if !tt.check(err) {
			t.Errorf("%s: unexpected error type: %T", tt.operation, err)
		}
	}
}

func TestExecuteWithRetry_SuccessRecoversErrorCount(t *testing.T) {
	h := helpers.NewErrorHandler("ERROR")
	h.ErrorCount = 2

	res, err := h.ExecuteWithRetry("status check", func() (interface{}, error) {
		return 42, nil
	}, 3)

	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if res != 42 {
		t.Errorf("Expected result 42, got %v", res)
	}
	if h.ErrorCount != 1 {
		t.Errorf("Expected error count to decay to 1, got %d", h.ErrorCount)
	}
}

package retry

import (
	"errors"
	"testing"
	"time"
)

func TestDoRetriesUntilSuccess(t *testing.T) {
	policy := NewPolicy(3, time.Millisecond)

	calls := 0
	err := policy.Do(func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	}, nil)

	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if calls != 2 {
		t.Errorf("op called %d times, want 2", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	policy := NewPolicy(3, time.Millisecond)

	calls := 0
	wantErr := errors.New("still broken")
	err := policy.Do(func() error {
		calls++
		return wantErr
	}, nil)

	if !errors.Is(err, wantErr) {
		t.Errorf("Do returned %v, want last error", err)
	}
	if calls != 3 {
		t.Errorf("op called %d times, want 3", calls)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	policy := NewPolicy(5, time.Millisecond)

	permanent := errors.New("bad request")
	calls := 0
	err := policy.Do(func() error {
		calls++
		return permanent
	}, func(err error) bool {
		return false
	})

	if !errors.Is(err, permanent) {
		t.Errorf("Do returned %v, want the permanent error", err)
	}
	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
}

func TestDoPredicateSelectsRetries(t *testing.T) {
	policy := NewPolicy(4, time.Millisecond)

	transient := errors.New("http 503")
	calls := 0
	err := policy.Do(func() error {
		calls++
		if calls < 3 {
			return transient
		}
		return errors.New("http 400")
	}, func(err error) bool {
		return err.Error() == "http 503"
	})

	if err == nil || err.Error() != "http 400" {
		t.Errorf("Do returned %v, want the http 400 error", err)
	}
	if calls != 3 {
		t.Errorf("op called %d times, want 3", calls)
	}
}

func TestNewPolicyGuards(t *testing.T) {
	policy := NewPolicy(0, 0)
	if policy.MaxAttempts != 1 {
		t.Errorf("max attempts = %d, want 1", policy.MaxAttempts)
	}
	if policy.InitialInterval != time.Second {
		t.Errorf("initial interval = %s, want 1s", policy.InitialInterval)
	}
}

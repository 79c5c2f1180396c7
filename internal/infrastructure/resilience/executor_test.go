package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy() Policy {
	return Policy{
		Attempts:      3,
		BaseDelay:     time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
		MinCalls:      2,
		FailureRatio:  0.5,
		Cooldown:      time.Minute,
		HalfOpenCalls: 1,
	}
}

func alwaysRetry(error) Outcome { return Outcome{Retry: true, TripBreaker: true} }
func neverRetry(error) Outcome  { return Outcome{Retry: false, TripBreaker: true} }

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	executor := NewExecutor(fastPolicy(), nil)

	calls := 0
	err := executor.Execute(context.Background(), "llm.entity_extractor", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("503")
		}
		return nil
	}, alwaysRetry)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestExecuteStopsAtAttemptBudget(t *testing.T) {
	executor := NewExecutor(fastPolicy(), nil)

	calls := 0
	err := executor.Execute(context.Background(), "ocr.extract", func(ctx context.Context) error {
		calls++
		return errors.New("503")
	}, alwaysRetry)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestExecuteDoesNotRetryFinalErrors(t *testing.T) {
	executor := NewExecutor(fastPolicy(), nil)

	calls := 0
	wantErr := errors.New("401 unauthorized")
	err := executor.Execute(context.Background(), "llm.ocr_cleaner", func(ctx context.Context) error {
		calls++
		return wantErr
	}, neverRetry)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestExecuteRespectsCancelledContext(t *testing.T) {
	executor := NewExecutor(fastPolicy(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := executor.Execute(ctx, "nats.publish", func(ctx context.Context) error {
		calls++
		return nil
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if calls != 0 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	policy := fastPolicy()
	policy.Attempts = 1
	executor := NewExecutor(policy, nil)

	fail := func(ctx context.Context) error { return errors.New("503") }
	for i := 0; i < 4; i++ {
		_ = executor.Execute(context.Background(), "llm.document_classifier", fail, alwaysRetry)
	}

	calls := 0
	err := executor.Execute(context.Background(), "llm.document_classifier", func(ctx context.Context) error {
		calls++
		return nil
	}, alwaysRetry)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("call passed through an open breaker")
	}
}

func TestBreakerIgnoresNonTrippingErrors(t *testing.T) {
	policy := fastPolicy()
	policy.Attempts = 1
	executor := NewExecutor(policy, nil)

	benign := func(error) Outcome { return Outcome{} }
	fail := func(ctx context.Context) error { return context.Canceled }
	for i := 0; i < 6; i++ {
		_ = executor.Execute(context.Background(), "llm.data_reviewer", fail, benign)
	}

	err := executor.Execute(context.Background(), "llm.data_reviewer", func(ctx context.Context) error {
		return nil
	}, benign)
	if err != nil {
		t.Fatalf("breaker tripped on non-counting failures: %v", err)
	}
}

func TestBreakersAreIsolatedPerOperation(t *testing.T) {
	policy := fastPolicy()
	policy.Attempts = 1
	executor := NewExecutor(policy, nil)

	fail := func(ctx context.Context) error { return errors.New("down") }
	for i := 0; i < 4; i++ {
		_ = executor.Execute(context.Background(), "ocr.extract", fail, alwaysRetry)
	}

	err := executor.Execute(context.Background(), "nats.publish", func(ctx context.Context) error {
		return nil
	}, alwaysRetry)
	if err != nil {
		t.Fatalf("unrelated operation blocked: %v", err)
	}
}

func TestPolicyDelayForCapsAtMax(t *testing.T) {
	policy := Policy{Attempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}.sanitized()

	if got := policy.delayFor(1); got != 100*time.Millisecond {
		t.Fatalf("delayFor(1) = %v", got)
	}
	if got := policy.delayFor(2); got != 200*time.Millisecond {
		t.Fatalf("delayFor(2) = %v", got)
	}
	if got := policy.delayFor(4); got != 300*time.Millisecond {
		t.Fatalf("delayFor(4) = %v", got)
	}
}

func TestSanitizedFillsZeroValues(t *testing.T) {
	policy := Policy{}.sanitized()
	def := DefaultPolicy()
	if policy.Attempts != def.Attempts || policy.BaseDelay != def.BaseDelay {
		t.Fatalf("sanitized = %+v", policy)
	}
	if policy.FailureRatio != def.FailureRatio || policy.Cooldown != def.Cooldown {
		t.Fatalf("sanitized = %+v", policy)
	}
}

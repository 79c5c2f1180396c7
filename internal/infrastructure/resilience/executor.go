package resilience

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Outcome tells the executor how to treat one failed call.
type Outcome struct {
	// Retry means another attempt may succeed (transient network or 5xx).
	Retry bool
	// TripBreaker means the failure counts toward opening the circuit.
	// Context cancellations and caller mistakes should leave it false.
	TripBreaker bool
}

// ClassifyFunc maps a collaborator error to an Outcome. A nil classifier
// treats every error as final and breaker-worthy.
type ClassifyFunc func(err error) Outcome

// Executor wraps collaborator calls in bounded retries and one circuit
// breaker per operation name. Operation names are stable identifiers such as
// "llm.entity_extractor" or "nats.publish"; they key the breakers and show
// up in retry logs.
type Executor struct {
	policy Policy
	logger *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

func NewExecutor(policy Policy, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		policy:   policy.sanitized(),
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker[struct{}]),
	}
}

func (e *Executor) Execute(ctx context.Context, operation string, call func(context.Context) error, classify ClassifyFunc) error {
	if call == nil {
		return errors.New("resilience: nil call")
	}
	if operation = strings.TrimSpace(operation); operation == "" {
		operation = "unnamed"
	}
	if classify == nil {
		classify = func(error) Outcome { return Outcome{TripBreaker: true} }
	}

	if e.policy.BreakerDisabled {
		return e.retry(ctx, operation, call, classify)
	}
	_, err := e.breakerFor(operation, classify).Execute(func() (struct{}, error) {
		return struct{}{}, e.retry(ctx, operation, call, classify)
	})
	return err
}

func (e *Executor) retry(ctx context.Context, operation string, call func(context.Context) error, classify ClassifyFunc) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := call(ctx)
		if err == nil {
			return nil
		}
		if attempt >= e.policy.Attempts || !classify(err).Retry {
			return err
		}

		delay := e.policy.delayFor(attempt)
		e.logger.Warn("collaborator_retry",
			"operation", operation,
			"attempt", attempt,
			"of", e.policy.Attempts,
			"delay", delay.String(),
			"error", err,
		)
		if !sleepCtx(ctx, delay) {
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (e *Executor) breakerFor(operation string, classify ClassifyFunc) *gobreaker.CircuitBreaker[struct{}] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if breaker, ok := e.breakers[operation]; ok {
		return breaker
	}

	policy := e.policy
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        operation,
		MaxRequests: policy.HalfOpenCalls,
		Timeout:     policy.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < policy.MinCalls {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= policy.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classify(err).TripBreaker
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			e.logger.Warn("breaker_state",
				"operation", name, "from", from.String(), "to", to.String())
		},
	})
	e.breakers[operation] = breaker
	return breaker
}

// IsCircuitOpen reports whether err came from a breaker refusing the call
// rather than from the collaborator itself.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

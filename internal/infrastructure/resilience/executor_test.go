package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
)

func TestExecuteRetriesTemporaryFailure(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemp
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{
			Retryable:     errors.Is(err, errTemp),
			RecordFailure: true,
		}
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})

	attempts := 0
	errPermanent := errors.New("permanent")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errPermanent
	}, func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     1 * time.Millisecond,
		RetryMaxBackoff:         1 * time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	})

	errTemp := errors.New("temporary")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: true,
		}
	}

	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return errTemp
		}, classifier)
		if !errors.Is(err, errTemp) {
			t.Fatalf("expected temporary error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, classifier)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open state error, got %v", err)
	}
}

func TestExecuteReportsRetriesAndStateChanges(t *testing.T) {
	var retries []int
	var transitions []string
	exec := NewExecutor(Config{
		RetryMaxAttempts:        2,
		RetryInitialBackoff:     1 * time.Millisecond,
		RetryMaxBackoff:         1 * time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      1,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	}, WithHooks(Hooks{
		OnRetry: func(_ string, attempt int) { retries = append(retries, attempt) },
		OnStateChange: func(op string, from, to gobreaker.State) {
			transitions = append(transitions, op+":"+from.String()+"->"+to.String())
		},
	}))

	errTemp := errors.New("redis timeout")
	classifier := TransientClassifier(func(err error) bool { return errors.Is(err, errTemp) })
	err := exec.Execute(context.Background(), "redis.get", func(context.Context) error {
		return errTemp
	}, classifier)
	if !errors.Is(err, errTemp) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if len(retries) != 1 || retries[0] != 1 {
		t.Fatalf("expected one retry hook call, got %v", retries)
	}
	if len(transitions) != 1 || transitions[0] != "redis.get:closed->open" {
		t.Fatalf("unexpected transitions: %v", transitions)
	}
	if exec.State("redis.get") != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %s", exec.State("redis.get"))
	}
	if exec.State("never.called") != gobreaker.StateClosed {
		t.Fatalf("expected closed breaker for unknown operation")
	}
}

func TestTransientClassifier(t *testing.T) {
	errTransient := errors.New("connection reset")
	classify := TransientClassifier(func(err error) bool { return errors.Is(err, errTransient) })

	if got := classify(context.Canceled); got.Retryable || got.RecordFailure {
		t.Fatalf("cancellation must be neither retried nor recorded, got %+v", got)
	}
	if got := classify(errTransient); !got.Retryable || !got.RecordFailure {
		t.Fatalf("transient error must be retried, got %+v", got)
	}
	if got := classify(gobreaker.ErrOpenState); !got.Retryable {
		t.Fatalf("open circuit must be retryable, got %+v", got)
	}
	if got := classify(errors.New("bad request")); got.Retryable || !got.RecordFailure {
		t.Fatalf("permanent error must fail fast, got %+v", got)
	}
}

func TestWrapTemporaryMarksRetryableErrors(t *testing.T) {
	errTransient := errors.New("no servers")
	classify := TransientClassifier(func(err error) bool { return errors.Is(err, errTransient) })

	wrapped := WrapTemporary("nats publish", errTransient, classify)
	if !domain.IsKind(wrapped, domain.ErrTemporary) || !errors.Is(wrapped, errTransient) {
		t.Fatalf("expected temporary wrap, got %v", wrapped)
	}
	permanent := errors.New("payload too large")
	if got := WrapTemporary("nats publish", permanent, classify); got != permanent {
		t.Fatalf("expected permanent error unchanged, got %v", got)
	}
	if WrapTemporary("op", nil, classify) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestExecuteAppliesDependencyRetryLimit(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     2,
		Dependencies: map[string]DependencyPolicy{
			DependencyRedis: {RetryMaxAttempts: 1},
		},
	})
	alwaysRetry := func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}
	errDown := errors.New("down")

	counts := map[string]int{}
	for _, op := range []string{"redis.get", "nats.publish"} {
		_ = exec.Execute(context.Background(), op, func(context.Context) error {
			counts[op]++
			return errDown
		}, alwaysRetry)
	}
	if counts["redis.get"] != 1 {
		t.Fatalf("expected redis.get to stop after 1 attempt, got %d", counts["redis.get"])
	}
	if counts["nats.publish"] != 3 {
		t.Fatalf("expected nats.publish to keep the shared 3 attempts, got %d", counts["nats.publish"])
	}
}

func TestExecuteTripsDependencyBreakerSooner(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     time.Millisecond,
		RetryMaxBackoff:         time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
		Dependencies: map[string]DependencyPolicy{
			DependencyOllama: {BreakerMinRequests: 2},
		},
	})
	errDown := errors.New("down")
	fail := func(context.Context) error { return errDown }

	for i := 0; i < 2; i++ {
		_ = exec.Execute(context.Background(), "ollama.generate", fail, nil)
		_ = exec.Execute(context.Background(), "redis.get", fail, nil)
	}
	if got := exec.State("ollama.generate"); got != gobreaker.StateOpen {
		t.Fatalf("expected ollama.generate breaker open, got %s", got)
	}
	if got := exec.State("redis.get"); got != gobreaker.StateClosed {
		t.Fatalf("expected redis.get breaker closed under shared minimum, got %s", got)
	}
}

func TestDefaultConfigShortensCacheBreaker(t *testing.T) {
	cfg := DefaultConfig()
	redis := cfg.For("redis.get")
	nats := cfg.For("nats.publish")

	if redis.BreakerOpenTimeout >= cfg.BreakerOpenTimeout {
		t.Fatalf("expected redis open timeout below %s, got %s", cfg.BreakerOpenTimeout, redis.BreakerOpenTimeout)
	}
	if redis.RetryMaxAttempts >= cfg.RetryMaxAttempts {
		t.Fatalf("expected redis to retry less than %d, got %d", cfg.RetryMaxAttempts, redis.RetryMaxAttempts)
	}
	if nats.RetryMaxAttempts != cfg.RetryMaxAttempts || nats.BreakerOpenTimeout != cfg.BreakerOpenTimeout {
		t.Fatalf("expected nats to keep shared settings, got %+v", nats)
	}
	if got := cfg.For("unknown").RetryMaxAttempts; got != cfg.RetryMaxAttempts {
		t.Fatalf("expected unknown dependency to inherit, got %d", got)
	}
}

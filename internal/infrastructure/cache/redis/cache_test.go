package redis

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
	"github.com/kirillkom/claim-assessor/internal/infrastructure/resilience"
)

type fakeCommands struct {
	values  map[string]string
	ttls    map[string]time.Duration
	getErrs []error
	gets    int
}

func (f *fakeCommands) Get(_ context.Context, key string) *redis.StringCmd {
	f.gets++
	if len(f.getErrs) > 0 {
		err := f.getErrs[0]
		f.getErrs = f.getErrs[1:]
		return redis.NewStringResult("", err)
	}
	value, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (f *fakeCommands) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.values == nil {
		f.values = map[string]string{}
		f.ttls = map[string]time.Duration{}
	}
	f.values[key] = string(value.([]byte))
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestCacheRoundTripUsesPrefixAndTTL(t *testing.T) {
	fake := &fakeCommands{}
	cache := newCache(fake, Options{TTL: time.Hour})

	in := &domain.ClaimAssessment{ClaimReferenceID: "CLM-A-0001", Eligibility: domain.EligibilityApproved, CatalogVersion: "1.0.0"}
	if err := cache.Put(context.Background(), "1.0.0:abc", in); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if fake.ttls[DefaultKeyPrefix+"1.0.0:abc"] != time.Hour {
		t.Fatalf("expected ttl 1h under prefixed key, got %v", fake.ttls)
	}

	out, ok, err := cache.Get(context.Background(), "1.0.0:abc")
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v", ok, err)
	}
	if out.ClaimReferenceID != "CLM-A-0001" || out.Eligibility != domain.EligibilityApproved {
		t.Fatalf("unexpected cached assessment: %+v", out)
	}
}

func TestCacheMissIsNotAnError(t *testing.T) {
	cache := newCache(&fakeCommands{}, Options{})
	out, ok, err := cache.Get(context.Background(), "1.0.0:missing")
	if err != nil || ok || out != nil {
		t.Fatalf("expected clean miss, got %v %v %v", out, ok, err)
	}
	if cache.ttl != DefaultTTL {
		t.Fatalf("expected default ttl, got %v", cache.ttl)
	}
}

func TestCacheRetriesTransientFailure(t *testing.T) {
	fake := &fakeCommands{getErrs: []error{io.EOF}}
	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     2,
	})
	cache := newCache(fake, Options{ResilienceExecutor: exec})

	_, ok, err := cache.Get(context.Background(), "k")
	if err != nil || ok {
		t.Fatalf("expected miss after retry, got %v %v", ok, err)
	}
	if fake.gets != 2 {
		t.Fatalf("expected 2 GET calls, got %d", fake.gets)
	}
}

func TestCacheWrapsPersistentFailureAsTemporary(t *testing.T) {
	cache := newCache(&fakeCommands{getErrs: []error{io.EOF}}, Options{})
	_, _, err := cache.Get(context.Background(), "k")
	if !domain.IsKind(err, domain.ErrTemporary) || !errors.Is(err, io.EOF) {
		t.Fatalf("expected temporary EOF, got %v", err)
	}
}

func TestClassifyRedisError(t *testing.T) {
	if got := classifyRedisError(redis.Nil); got.Retryable || got.RecordFailure {
		t.Fatalf("cache miss must not count as failure, got %+v", got)
	}
	dialErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	if got := classifyRedisError(dialErr); !got.Retryable {
		t.Fatalf("network error must be retryable, got %+v", got)
	}
	if got := classifyRedisError(errors.New("WRONGTYPE")); got.Retryable || !got.RecordFailure {
		t.Fatalf("command error must fail fast, got %+v", got)
	}
}

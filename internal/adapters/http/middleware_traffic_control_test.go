package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/claim-assessor/internal/config"
	"github.com/kirillkom/claim-assessor/internal/core/domain"
)

type countingAssessor struct {
	calls atomic.Int32
}

func (a *countingAssessor) Assess(_ context.Context, fnol domain.FNOL) (*domain.ClaimAssessment, error) {
	a.calls.Add(1)
	return &domain.ClaimAssessment{ClaimReferenceID: fnol.ClaimID, Eligibility: domain.EligibilityApproved}, nil
}

// blockingAssessor holds every assessment until release is closed.
type blockingAssessor struct {
	started chan struct{}
	release chan struct{}
}

func (a *blockingAssessor) Assess(ctx context.Context, fnol domain.FNOL) (*domain.ClaimAssessment, error) {
	a.started <- struct{}{}
	select {
	case <-a.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &domain.ClaimAssessment{ClaimReferenceID: fnol.ClaimID, Eligibility: domain.EligibilityReview}, nil
}

func TestRateLimitShedsAssessmentsBeforeTheEngine(t *testing.T) {
	assessor := &countingAssessor{}
	handler := NewRouter(config.Config{
		APIRateLimitRPS:   1,
		APIRateLimitBurst: 1,
	}, assessor, readerFake{}, &catalogFake{}).Handler()

	first := postJSON(t, handler, "/v1/assessments", `{"claim_id":"CLM-RL-1"}`, nil)
	if first.Code != http.StatusOK {
		t.Fatalf("first assessment expected 200, got %d: %s", first.Code, first.Body.String())
	}

	second := postJSON(t, handler, "/v1/assessments", `{"claim_id":"CLM-RL-2"}`, map[string]string{requestIDHeader: "req-rl"})
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second assessment expected 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header for 429 response")
	}
	var body map[string]string
	if err := json.NewDecoder(second.Body).Decode(&body); err != nil {
		t.Fatalf("decode 429 body: %v", err)
	}
	if body["request_id"] != "req-rl" {
		t.Fatalf("expected request id in 429 body, got %v", body)
	}
	if got := assessor.calls.Load(); got != 1 {
		t.Fatalf("throttled claim must not reach the engine, got %d assessments", got)
	}
}

func TestBackpressureShedsWhileAssessmentInFlight(t *testing.T) {
	assessor := &blockingAssessor{started: make(chan struct{}, 1), release: make(chan struct{})}
	handler := NewRouter(config.Config{
		APIBackpressureMax:    1,
		APIBackpressureWaitMS: 20,
	}, assessor, readerFake{}, &catalogFake{}).Handler()

	done := make(chan int, 1)
	go func() {
		done <- postJSON(t, handler, "/v1/assessments", `{"claim_id":"CLM-BP-1"}`, nil).Code
	}()
	<-assessor.started

	shed := postJSON(t, handler, "/v1/assessments", `{"claim_id":"CLM-BP-2"}`, nil)
	if shed.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while the only slot is busy, got %d", shed.Code)
	}
	if shed.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After 1, got %q", shed.Header().Get("Retry-After"))
	}

	close(assessor.release)

	select {
	case code := <-done:
		if code != http.StatusOK {
			t.Fatalf("in-flight assessment expected 200, got %d", code)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for in-flight assessment")
	}
}

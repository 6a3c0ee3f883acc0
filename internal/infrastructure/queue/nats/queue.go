package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
	"github.com/kirillkom/claim-assessor/internal/infrastructure/resilience"
)

const (
	DefaultSubmittedSubject = "claims.fnol.submitted"
	DefaultCompletedSubject = "claims.assessment.completed"
	DefaultQueueGroup       = "assessors"
)

type Queue struct {
	conn             *nats.Conn
	submittedSubject string
	completedSubject string
	queueGroup       string
	executor         *resilience.Executor
	logger           *slog.Logger
}

type Options struct {
	SubmittedSubject     string
	CompletedSubject     string
	QueueGroup           string
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func New(url string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("claim-assessor"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return newQueue(conn, options, logger), nil
}

func newQueue(conn *nats.Conn, options Options, logger *slog.Logger) *Queue {
	q := &Queue{
		conn:             conn,
		submittedSubject: options.SubmittedSubject,
		completedSubject: options.CompletedSubject,
		queueGroup:       options.QueueGroup,
		executor:         options.ResilienceExecutor,
		logger:           logger,
	}
	if q.submittedSubject == "" {
		q.submittedSubject = DefaultSubmittedSubject
	}
	if q.completedSubject == "" {
		q.completedSubject = DefaultCompletedSubject
	}
	if q.queueGroup == "" {
		q.queueGroup = DefaultQueueGroup
	}
	return q
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// PublishFNOLSubmitted enqueues one FNOL for the worker pool.
func (q *Queue) PublishFNOLSubmitted(ctx context.Context, fnol domain.FNOL) error {
	payload, err := json.Marshal(fnol)
	if err != nil {
		return fmt.Errorf("marshal fnol: %w", err)
	}
	return q.publish(ctx, q.submittedSubject, payload)
}

func (q *Queue) PublishAssessmentCompleted(ctx context.Context, assessment *domain.ClaimAssessment) error {
	payload, err := json.Marshal(assessment)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	return q.publish(ctx, q.completedSubject, payload)
}

func (q *Queue) publish(ctx context.Context, subject string, payload []byte) error {
	call := func(_ context.Context) error {
		if err := q.conn.Publish(subject, payload); err != nil {
			return fmt.Errorf("nats publish %s: %w", subject, err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return resilience.WrapTemporary("nats publish", err, classifyNATSError)
	}
	return nil
}

// SubscribeFNOLSubmitted delivers each submitted FNOL to handler within the
// queue group and blocks until ctx ends, then drains the subscription.
func (q *Queue) SubscribeFNOLSubmitted(ctx context.Context, handler func(context.Context, domain.FNOL) error) error {
	sub, err := q.conn.QueueSubscribe(q.submittedSubject, q.queueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		q.dispatch(ctx, msg.Data, handler)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

// dispatch decodes one message; malformed payloads are logged and dropped.
func (q *Queue) dispatch(ctx context.Context, data []byte, handler func(context.Context, domain.FNOL) error) {
	var fnol domain.FNOL
	if err := json.Unmarshal(data, &fnol); err != nil {
		q.logger.Error("fnol_decode_failed", "subject", q.submittedSubject, "bytes", len(data), "error", err)
		return
	}

	handlerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := handler(handlerCtx, fnol); err != nil {
		q.logger.Error("fnol_handler_failed", "claim_id", fnol.ClaimID, "error", err)
	}
}

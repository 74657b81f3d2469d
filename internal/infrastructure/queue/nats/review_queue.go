// Package nats publishes High-tier merchants onto the manual-review subject.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/claritypay/merchant-underwriter/internal/core/domain"
	"github.com/claritypay/merchant-underwriter/internal/infrastructure/resilience"
)

// ReviewRequest is the wire payload handed to the review workflow.
type ReviewRequest struct {
	RunID           string  `json:"run_id"`
	MerchantID      string  `json:"merchant_id"`
	Country         string  `json:"country"`
	RiskTier        string  `json:"risk_tier"`
	RiskProbability float64 `json:"risk_probability"`
}

type ReviewQueue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
}

type Options struct {
	ConnectTimeout     time.Duration
	ReconnectWait      time.Duration
	MaxReconnects      int
	ResilienceExecutor *resilience.Executor
}

func New(url, subject string) (*ReviewQueue, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*ReviewQueue, error) {
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

	conn, err := nats.Connect(
		url,
		nats.Name("merchant-underwriter"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("nats reconnected: %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &ReviewQueue{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
	}, nil
}

func (q *ReviewQueue) PublishReviewRequested(ctx context.Context, runID string, rec domain.MerchantRecord) error {
	payload, err := json.Marshal(ReviewRequest{
		RunID:           runID,
		MerchantID:      rec.MerchantID,
		Country:         rec.Country,
		RiskTier:        string(rec.Scoring.Tier),
		RiskProbability: rec.Scoring.Probability,
	})
	if err != nil {
		return fmt.Errorf("marshal review request: %w", err)
	}

	publish := func(context.Context) error {
		if err := q.conn.Publish(q.subject, payload); err != nil {
			return fmt.Errorf("publish review request: %w", err)
		}
		return nil
	}
	if q.executor == nil {
		return publish(ctx)
	}
	return q.executor.Do(ctx, "review_publish", classifyPublishError, publish)
}

// SubscribeReviewRequested delivers review requests to a handler; the
// subscription lives until ctx is done.
func (q *ReviewQueue) SubscribeReviewRequested(ctx context.Context, handler func(context.Context, ReviewRequest) error) error {
	sub, err := q.conn.Subscribe(q.subject, func(msg *nats.Msg) {
		var req ReviewRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Printf("drop malformed review request: %v", err)
			return
		}
		if err := handler(ctx, req); err != nil {
			log.Printf("review handler error for %s: %v", req.MerchantID, err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", q.subject, err)
	}
	defer func() {
		_ = sub.Unsubscribe()
	}()

	<-ctx.Done()
	return ctx.Err()
}

func (q *ReviewQueue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func classifyPublishError(err error) resilience.Classification {
	if err == nil {
		return resilience.Classification{}
	}
	return resilience.Classification{Retryable: true, RecordFailure: true}
}

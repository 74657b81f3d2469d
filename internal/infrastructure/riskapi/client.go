// Package riskapi is the HTTP client for the internal merchant-risk API.
// This collaborator has no documented fallback: errors that survive the
// retry/breaker policy propagate to the caller.
package riskapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claritypay/merchant-underwriter/internal/core/domain"
	"github.com/claritypay/merchant-underwriter/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
		executor:   executor,
	}
}

func (c *Client) FetchRisk(ctx context.Context, merchantID string) (domain.InternalRiskReport, error) {
	var report domain.InternalRiskReport

	call := func(ctx context.Context) error {
		return c.getRisk(ctx, merchantID, &report)
	}
	if c.executor == nil {
		if err := call(ctx); err != nil {
			return domain.InternalRiskReport{}, err
		}
		return report, nil
	}

	if err := c.executor.Do(ctx, "risk_api_fetch", ClassifyError, call); err != nil {
		return domain.InternalRiskReport{}, err
	}
	return report, nil
}

func (c *Client) getRisk(ctx context.Context, merchantID string, out *domain.InternalRiskReport) error {
	endpoint := c.baseURL + "/risk/" + url.PathEscape(merchantID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create risk request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("risk api request for %s: %w", merchantID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError("fetch risk", resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode risk response for %s: %w", merchantID, err)
	}
	return nil
}

// StatusError carries the HTTP status for retry classification.
type StatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("risk api %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("risk api %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func statusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &StatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(body),
	}
}

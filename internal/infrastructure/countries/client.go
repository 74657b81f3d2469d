// Package countries resolves region/subregion metadata via the REST
// Countries API. Errors are returned as-is; the enrichment stage owns the
// Unknown/Unknown fallback.
package countries

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/claritypay/merchant-underwriter/internal/core/domain"
)

const defaultBaseURL = "https://restcountries.com/v3.1"

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New builds a client limited to rps lookups per second against the public
// API. rps <= 0 disables limiting.
func New(baseURL string, rps float64) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    limiter,
	}
}

func (c *Client) FetchCountryMeta(ctx context.Context, country string) (domain.CountryMeta, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return domain.CountryMeta{}, err
		}
	}

	endpoint := fmt.Sprintf("%s/name/%s?fields=region,subregion", c.baseURL, url.PathEscape(country))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.CountryMeta{}, fmt.Errorf("create country request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.CountryMeta{}, fmt.Errorf("country request for %q: %w", country, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return domain.CountryMeta{}, fmt.Errorf("country lookup for %q status: %s", country, resp.Status)
	}

	var matches []domain.CountryMeta
	if err := json.NewDecoder(resp.Body).Decode(&matches); err != nil {
		return domain.CountryMeta{}, fmt.Errorf("decode country response for %q: %w", country, err)
	}
	if len(matches) == 0 {
		return domain.CountryMeta{}, fmt.Errorf("no match for country %q", country)
	}
	if matches[0].Region == "" {
		return domain.CountryMeta{}, fmt.Errorf("missing region field for country %q", country)
	}
	return matches[0], nil
}

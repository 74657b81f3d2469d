// Package scraper collects public web-presence signals from the merchant
// homepage: value propositions, public stats, and partner mentions.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/claritypay/merchant-underwriter/internal/core/domain"
)

const userAgent = "MerchantRiskAssessmentBot/1.0"

// valuePropKeywords flag homepage lines that read like product claims.
var valuePropKeywords = []string{"Pay", "Clear", "Flexible", "Transparent"}

const maxSignals = 10

type Homepage struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New builds a scraper for one site. rps limits request rate against the
// target; rps <= 0 disables limiting.
func New(url string, rps float64) *Homepage {
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &Homepage{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    limiter,
	}
}

func (h *Homepage) Scrape(ctx context.Context) (domain.WebPresence, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return domain.WebPresence{}, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return domain.WebPresence{}, fmt.Errorf("create scrape request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return domain.WebPresence{}, fmt.Errorf("scrape %s: %w", h.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return domain.WebPresence{}, fmt.Errorf("scrape %s status: %s", h.url, resp.Status)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return domain.WebPresence{}, fmt.Errorf("parse %s: %w", h.url, err)
	}
	return extractPresence(root), nil
}

func extractPresence(root *html.Node) domain.WebPresence {
	lines := textLines(root)
	return domain.WebPresence{
		ValuePropositions: valuePropositions(lines),
		PublicStats:       publicStats(lines),
		Partners:          partnerMentions(root),
	}
}

// textLines walks the document and returns trimmed text-node lines, with
// script and style contents skipped.
func textLines(root *html.Node) []string {
	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			for _, part := range strings.Split(n.Data, "\n") {
				if line := strings.TrimSpace(part); line != "" {
					lines = append(lines, line)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return lines
}

func valuePropositions(lines []string) []string {
	var props []string
	for _, line := range lines {
		if len(line) <= 10 || len(line) >= 120 {
			continue
		}
		for _, kw := range valuePropKeywords {
			if strings.Contains(line, kw) {
				props = append(props, line)
				break
			}
		}
	}
	return dedupeCap(props, maxSignals)
}

func publicStats(lines []string) []string {
	var stats []string
	for _, line := range lines {
		if !strings.Contains(line, "+") && !strings.Contains(line, "$") {
			continue
		}
		if strings.IndexFunc(line, unicode.IsDigit) >= 0 {
			stats = append(stats, line)
		}
	}
	return dedupeCap(stats, maxSignals)
}

func partnerMentions(root *html.Node) []string {
	var partners []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "img" {
			for _, attr := range n.Attr {
				if attr.Key == "alt" && strings.Contains(strings.ToLower(attr.Val), "partner") {
					partners = append(partners, attr.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return dedupeCap(partners, 0)
}

// dedupeCap removes duplicates preserving first-seen order; limit <= 0
// means unbounded.
func dedupeCap(values []string, limit int) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

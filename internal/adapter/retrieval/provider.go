// Package retrieval fetches reference snippets (policy excerpts, approved
// phrasing) from an external knowledge service to ground generation. The
// service is strictly best-effort: any failure yields no snippets, never an
// error that could block a turn.
package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Provider fetches snippets from the knowledge service.
type Provider struct {
	baseURL    string
	topK       int
	httpClient *http.Client
	log        *slog.Logger
}

// NewProvider creates a Provider. An empty baseURL disables retrieval: Fetch
// then always returns nil.
func NewProvider(baseURL string, topK int, timeout time.Duration, logger *slog.Logger) *Provider {
	return &Provider{
		baseURL:    baseURL,
		topK:       topK,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", "retrieval"),
	}
}

// Enabled reports whether a knowledge service is configured.
func (p *Provider) Enabled() bool {
	return p.baseURL != ""
}

type searchResponse struct {
	Snippets []struct {
		Text string `json:"text"`
	} `json:"snippets"`
}

// Fetch returns up to topK snippets relevant to the query. Every failure path
// logs and returns nil: generation proceeds without grounding.
func (p *Provider) Fetch(ctx context.Context, query string) []string {
	if !p.Enabled() || query == "" {
		return nil
	}

	reqURL := fmt.Sprintf("%s/search?q=%s&k=%s",
		p.baseURL, url.QueryEscape(query), strconv.Itoa(p.topK))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		p.log.WarnContext(ctx, "retrieval request build failed", slog.String("error", err.Error()))
		return nil
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.log.WarnContext(ctx, "retrieval request failed", slog.String("error", err.Error()))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.log.WarnContext(ctx, "retrieval unexpected status", slog.Int("status", resp.StatusCode))
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.log.WarnContext(ctx, "retrieval read body failed", slog.String("error", err.Error()))
		return nil
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		p.log.WarnContext(ctx, "retrieval decode failed", slog.String("error", err.Error()))
		return nil
	}

	snippets := make([]string, 0, len(sr.Snippets))
	for _, s := range sr.Snippets {
		if s.Text != "" {
			snippets = append(snippets, s.Text)
		}
	}
	if len(snippets) > p.topK {
		snippets = snippets[:p.topK]
	}

	p.log.DebugContext(ctx, "retrieval response", slog.Int("snippets", len(snippets)))

	return snippets
}

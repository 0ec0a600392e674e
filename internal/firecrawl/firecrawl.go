// Package firecrawl fetches job postings through the Firecrawl v1 API: a
// search per (country, query) pair, optionally scraping each result into
// LLM-ready markdown.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"time"

	"job-radar/internal/corpus"
	"job-radar/internal/util"

	"go.uber.org/zap"
)

const (
	apiURL         = "https://api.firecrawl.dev/v1"
	defaultLimit   = 50
	defaultRetries = 4
)

type Client struct {
	ctx    context.Context
	token  string
	logger *zap.Logger

	HTTPClient *http.Client
	APIURL     string
	MaxRetries int
	// RetryWaitBase is the backoff time unit. Tests shrink it.
	RetryWaitBase time.Duration
	// ScrapeResults fetches each search hit's page content so postings
	// carry a scoreable body, not just a snippet.
	ScrapeResults bool
}

func New(ctx context.Context, logger *zap.Logger, token string) *Client {
	return &Client{
		ctx:    ctx,
		token:  token,
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: 70 * time.Second,
		},
		APIURL:        apiURL,
		MaxRetries:    defaultRetries,
		RetryWaitBase: time.Second,
	}
}

type searchRequest struct {
	Query   string `json:"q"`
	Country string `json:"country,omitempty"`
	Limit   int    `json:"limit"`
}

type searchResponse struct {
	Items []map[string]any `json:"items"`
}

// Search returns normalized postings for a query in a country. Rate limiting
// and server errors are retried with exponential backoff.
func (c *Client) Search(query, country string, limit int) ([]corpus.Posting, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	var resp searchResponse
	err := c.postJSON(c.APIURL+"/search", searchRequest{
		Query:   query,
		Country: country,
		Limit:   limit,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("search %q in %q: %w", query, country, err)
	}

	postings := make([]corpus.Posting, 0, len(resp.Items))
	for _, item := range resp.Items {
		posting := corpus.Posting{
			"url":        stringField(item, "url"),
			"title":      stringField(item, "title", "headline", "name"),
			"snippet":    stringField(item, "snippet", "excerpt"),
			"fetched_at": time.Now().UTC().Format("20060102T150405Z"),
		}

		if c.ScrapeResults {
			if url, ok := posting["url"].(string); ok && url != "" {
				raw, err := c.Scrape(url)
				if err != nil {
					c.logger.Debug("scraping search result failed",
						zap.String("url", url),
						zap.Error(err),
					)
				} else {
					posting["raw"] = raw
				}
			}
		}

		postings = append(postings, posting)
	}

	return postings, nil
}

type scrapeRequest struct {
	URL     string         `json:"url"`
	Options map[string]any `json:"options"`
}

// Scrape converts a single URL into content through the /scrape endpoint.
// The response typically carries markdown plus page metadata.
func (c *Client) Scrape(url string) (map[string]any, error) {
	var result map[string]any
	err := c.postJSON(c.APIURL+"/scrape", scrapeRequest{
		URL: url,
		Options: map[string]any{
			"format": "markdown",
		},
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("scrape %q: %w", url, err)
	}

	return result, nil
}

// FetchAll searches every country for the query. A failed country degrades to
// an empty group with a warning; fetching never aborts the run.
func (c *Client) FetchAll(countries []string, query string, limit int) []corpus.Group {
	groups := make([]corpus.Group, 0, len(countries))
	for _, country := range countries {
		jobs, err := c.Search(query, country, limit)
		if err != nil {
			c.logger.Warn("fetching postings failed",
				zap.String("country", country),
				zap.Error(err),
			)
			jobs = []corpus.Posting{}
		}

		c.logger.Info("fetched postings",
			zap.String("country", country),
			zap.Int("count", len(jobs)),
		)

		groups = append(groups, corpus.Group{
			Country: country,
			Query:   query,
			Jobs:    jobs,
		})
	}

	return groups
}

func (c *Client) postJSON(url string, payload any, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(c.ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")

		c.logger.Debug("make request", zap.String("url", url), zap.Int("attempt", attempt))

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			if attempt > c.MaxRetries {
				return err
			}
			if err := c.backoff(attempt); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt > c.MaxRetries {
				return fmt.Errorf("bad status: %s", resp.Status)
			}
			if err := c.backoff(attempt); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("bad status: %s", resp.Status)
		}

		err = json.NewDecoder(resp.Body).Decode(target)
		resp.Body.Close()
		return err
	}
}

// backoff waits 2^attempt wait units (capped at 60) with ±20% jitter,
// honoring context cancellation.
func (c *Client) backoff(attempt int) error {
	unit := c.RetryWaitBase
	if unit <= 0 {
		unit = time.Second
	}

	base := math.Min(60, math.Pow(2, float64(attempt)))
	jitter := base * 0.2 * (rand.Float64()*2 - 1)

	return util.WaitFor(c.ctx, time.Duration((base+jitter)*float64(unit)))
}

func stringField(item map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := item[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
)

// DefaultUserAgent is a plain desktop browser string. Some sites serve
// stripped-down pages to unknown agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// DefaultFetchTimeout bounds one page request.
const DefaultFetchTimeout = 10 * time.Second

// PageFetcher retrieves the HTML of one URL.
type PageFetcher interface {
	Fetch(ctx context.Context, targetURL string) (string, error)
}

// Fetcher fetches static HTML with colly, one collector per request.
type Fetcher struct {
	userAgent string
	timeout   time.Duration
}

// NewFetcher creates a fetcher. Empty or zero arguments fall back to the
// defaults.
func NewFetcher(userAgent string, timeout time.Duration) *Fetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{userAgent: userAgent, timeout: timeout}
}

// Fetch retrieves the page body as a string. Non-2xx responses are
// reported as errors.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := colly.NewCollector(colly.UserAgent(f.userAgent))
	c.SetRequestTimeout(f.timeout)

	var (
		body     string
		fetchErr error
	)

	c.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			fetchErr = fmt.Errorf("fetch %s: status %d: %w", targetURL, r.StatusCode, err)
			return
		}
		fetchErr = fmt.Errorf("fetch %s: %w", targetURL, err)
	})

	if err := c.Visit(targetURL); err != nil {
		return "", fmt.Errorf("fetch %s: %w", targetURL, err)
	}
	if fetchErr != nil {
		return "", fetchErr
	}

	return body, nil
}

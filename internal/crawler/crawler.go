package crawler

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/corpusmill/corpusmill/internal/jsonl"
	"github.com/corpusmill/corpusmill/internal/logger"
	"github.com/corpusmill/corpusmill/internal/rundir"
)

// Config holds crawl parameters for one run.
type Config struct {
	URL       string        `validate:"required,url"` // seed URL, crawl stays on its host
	MaxPages  int           `validate:"gte=1"`        // stop after this many pages scraped
	Delay     time.Duration `validate:"gte=0"`        // pause after each request
	UserAgent string
	Timeout   time.Duration
}

// DefaultConfig returns the standard crawl parameters: 100 pages with a
// one second pause between requests.
func DefaultConfig() Config {
	return Config{
		MaxPages: 100,
		Delay:    time.Second,
	}
}

var validate = validator.New()

// Validate checks the config bounds.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid crawl config: %w", err)
	}
	return nil
}

// Summary reports what a crawl did.
type Summary struct {
	PagesScraped int
	FetchErrors  int
	URLsSeen     int
	OutputPath   string
	CSVPath      string
}

// Crawler walks one site breadth-first and records every page it can
// parse. It is strictly sequential; politeness comes from the fixed
// per-request delay, not concurrency limits.
type Crawler struct {
	fetcher PageFetcher
	cfg     Config
}

// New creates a crawler after validating the config.
func New(fetcher PageFetcher, cfg Config) (*Crawler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Crawler{fetcher: fetcher, cfg: cfg}, nil
}

// Run crawls from the seed URL and writes crawl_raw.jsonl plus the
// crawl_raw.csv side file into dir. Records are flushed as they are
// scraped. Fetch failures are logged and skipped, not fatal.
func (c *Crawler) Run(ctx context.Context, dir string) (Summary, error) {
	outPath, err := rundir.GuardOutput(dir, rundir.RawFile)
	if err != nil {
		return Summary{}, err
	}
	csvPath, err := rundir.GuardOutput(dir, rundir.RawCSVFile)
	if err != nil {
		return Summary{}, err
	}

	w, err := jsonl.Create(outPath)
	if err != nil {
		return Summary{}, err
	}
	defer w.Close()

	csvFile, err := os.OpenFile(csvPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Summary{}, fmt.Errorf("create csv output: %w", err)
	}
	defer csvFile.Close()

	cw := csv.NewWriter(csvFile)
	if err := cw.Write([]string{"url", "page_type", "title", "meta_description", "text"}); err != nil {
		return Summary{}, err
	}

	summary := Summary{OutputPath: outPath, CSVPath: csvPath}

	logger.Info("crawl starting",
		"url", c.cfg.URL,
		"max_pages", c.cfg.MaxPages,
		"delay", c.cfg.Delay)

	queue := NewURLQueue()
	queue.Add(c.cfg.URL)

	for summary.PagesScraped < c.cfg.MaxPages {
		current, ok := queue.Pop()
		if !ok {
			break
		}

		if err := ctx.Err(); err != nil {
			return summary, err
		}

		logger.Debug("fetching page", "url", current)
		html, err := c.fetcher.Fetch(ctx, current)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			summary.FetchErrors++
			logger.Warn("fetch failed, skipping page", "url", current, "error", err)
			continue
		}

		raw, links, err := ParsePage(current, html)
		if err != nil {
			logger.Warn("unparseable page, skipping", "url", current, "error", err)
			continue
		}

		if err := w.Append(raw); err != nil {
			return summary, err
		}
		if err := cw.Write([]string{
			raw.URL,
			raw.PageType,
			raw.Title,
			raw.MetaDescription,
			strings.Join(raw.Paragraphs, " "),
		}); err != nil {
			return summary, err
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return summary, err
		}
		summary.PagesScraped++

		for _, link := range links {
			if !IsSameDomain(c.cfg.URL, link) {
				continue
			}
			if ShouldSkip(link) {
				continue
			}
			queue.Add(link)
		}

		if summary.PagesScraped%10 == 0 {
			logger.Info("crawl progress",
				"scraped", summary.PagesScraped,
				"max_pages", c.cfg.MaxPages,
				"queued", queue.Len())
		}

		if c.cfg.Delay > 0 {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(c.cfg.Delay):
			}
		}
	}

	summary.URLsSeen = queue.Len() + summary.PagesScraped + summary.FetchErrors

	if err := w.Close(); err != nil {
		return summary, err
	}
	if err := csvFile.Close(); err != nil {
		return summary, err
	}

	logger.Info("crawl complete",
		"pages", summary.PagesScraped,
		"fetch_errors", summary.FetchErrors,
		"output", outPath)

	return summary, nil
}

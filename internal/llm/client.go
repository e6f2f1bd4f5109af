package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/corpusmill/corpusmill/internal/logger"
)

// Pair is one question-answer pair parsed from a completion.
type Pair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ClientConfig controls the retry behavior of a Client.
type ClientConfig struct {
	MaxAttempts int           // attempt ceiling before a batch is abandoned
	BaseBackoff time.Duration // doubled after each failed attempt
	Temperature float64
	MaxTokens   int
}

// DefaultClientConfig matches the generation contract: five attempts
// with exponential backoff starting at one second.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		MaxAttempts: 5,
		BaseBackoff: time.Second,
		Temperature: 0.2,
		MaxTokens:   2048,
	}
}

// Client wraps a Provider with the retry contract the QA generator
// relies on: rate limits and transient failures are retried with
// exponential backoff up to the attempt ceiling; a malformed completion
// is not retried and yields zero pairs.
type Client struct {
	provider Provider
	cfg      ClientConfig
}

// NewClient creates a retrying client over a provider.
func NewClient(provider Provider, cfg ClientConfig) *Client {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = time.Second
	}
	return &Client{provider: provider, cfg: cfg}
}

// Provider returns the wrapped provider.
func (c *Client) Provider() Provider {
	return c.provider
}

// GeneratePairs submits a prompt and parses the completion as a JSON
// array of question-answer pairs. An empty array is a valid outcome.
// The returned error is non-nil only when every attempt failed.
func (c *Client) GeneratePairs(ctx context.Context, prompt string) ([]Pair, error) {
	var lastErr error

	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			wait := c.cfg.BaseBackoff << (attempt - 1)
			logger.Warn("generation attempt failed, backing off",
				"attempt", attempt,
				"wait", wait,
				"error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		resp, err := c.provider.Complete(ctx, CompletionRequest{
			Messages:    []Message{{Role: RoleUser, Content: prompt}},
			MaxTokens:   c.cfg.MaxTokens,
			Temperature: c.cfg.Temperature,
		})
		if err != nil {
			lastErr = err
			continue
		}

		pairs, err := ParsePairs(resp.Content)
		if err != nil {
			// Malformed output is a content problem, not a transport
			// problem; retrying the same prompt rarely helps.
			logger.Warn("invalid JSON in completion, skipping batch", "error", err)
			return nil, nil
		}
		return pairs, nil
	}

	return nil, fmt.Errorf("generation failed after %d attempts: %w", c.cfg.MaxAttempts, lastErr)
}

// ParsePairs decodes a completion into pairs. It tolerates a markdown
// code fence around the array, which several models add unasked.
func ParsePairs(content string) ([]Pair, error) {
	content = stripCodeFence(strings.TrimSpace(content))
	if content == "" {
		return nil, nil
	}

	var pairs []Pair
	if err := json.Unmarshal([]byte(content), &pairs); err != nil {
		return nil, fmt.Errorf("parse pairs: %w", err)
	}
	return pairs, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

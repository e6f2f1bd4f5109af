// Package crawler implements the breadth-first site crawler that
// produces the raw page records the pipeline starts from.
package crawler

import (
	"net/url"
	"strings"
	"sync"
)

// skipKeywords marks URLs that never yield training content: auth,
// commerce chrome, and legal boilerplate.
var skipKeywords = []string{
	"login", "signup", "register", "cart", "checkout", "account",
	"search", "filter", "privacy", "terms", "policy", "cookie", "cookies",
}

// skipExtensions are binary assets a text crawler has no use for.
var skipExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg",
	".pdf", ".zip", ".mp4", ".mp3",
}

// ShouldSkip reports whether a discovered link is worth crawling.
func ShouldSkip(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, kw := range skipKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, ext := range skipExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// URLQueue is a FIFO frontier with visited-set deduplication. URLs are
// normalized before comparison, so the same page reached with and
// without a trailing slash or fragment counts once.
type URLQueue struct {
	mu      sync.Mutex
	queue   []string
	visited map[string]bool
}

// NewURLQueue creates an empty queue.
func NewURLQueue() *URLQueue {
	return &URLQueue{
		queue:   make([]string, 0),
		visited: make(map[string]bool),
	}
}

// Add enqueues a URL if it has not been seen before. It reports whether
// the URL was accepted.
func (q *URLQueue) Add(rawURL string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	normalized := normalizeURL(rawURL)
	if normalized == "" {
		return false
	}
	if q.visited[normalized] {
		return false
	}

	q.visited[normalized] = true
	q.queue = append(q.queue, normalized)
	return true
}

// Pop removes and returns the next URL in FIFO order.
func (q *URLQueue) Pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.queue) == 0 {
		return "", false
	}

	item := q.queue[0]
	q.queue = q.queue[1:]
	return item, true
}

// Len returns the number of queued URLs.
func (q *URLQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

// IsVisited reports whether a URL has been seen.
func (q *URLQueue) IsVisited(rawURL string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.visited[normalizeURL(rawURL)]
}

// MarkVisited records a URL as seen without queueing it.
func (q *URLQueue) MarkVisited(rawURL string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.visited[normalizeURL(rawURL)] = true
}

// normalizeURL strips the fragment and any trailing slash (except on
// the root path) so equivalent URLs compare equal.
func normalizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	parsed.Fragment = ""

	if len(parsed.Path) > 1 && parsed.Path[len(parsed.Path)-1] == '/' {
		parsed.Path = parsed.Path[:len(parsed.Path)-1]
	}

	return parsed.String()
}

// IsSameDomain checks if two URLs are on the same host.
func IsSameDomain(url1, url2 string) bool {
	parsed1, err := url.Parse(url1)
	if err != nil {
		return false
	}
	parsed2, err := url.Parse(url2)
	if err != nil {
		return false
	}
	return parsed1.Host == parsed2.Host
}

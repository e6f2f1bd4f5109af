// Package cleaner removes navigation boilerplate from raw crawl records,
// assembles the surviving text, and deduplicates whole documents.
package cleaner

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/corpusmill/corpusmill/internal/jsonl"
	"github.com/corpusmill/corpusmill/internal/logger"
	"github.com/corpusmill/corpusmill/internal/record"
	"github.com/corpusmill/corpusmill/internal/rundir"
	"github.com/corpusmill/corpusmill/internal/textutil"
)

// MinParagraphLen is the minimum paragraph length in characters.
// Anything shorter is treated as navigation junk.
const MinParagraphLen = 40

// navKeywords marks a paragraph as navigation/boilerplate when any of
// them appears as a case-insensitive substring.
var navKeywords = []string{
	"all services", "contact", "terms", "policy", "policies",
	"faq", "frequently asked", "shop", "academy", "medical",
	"login", "signup", "register", "copyright",
}

// IsNavigation reports whether a paragraph is navigation or boilerplate:
// too short, or containing any navigation keyword.
func IsNavigation(text string) bool {
	t := strings.ToLower(text)
	// Character count, not bytes; curly quotes and accents are common in
	// this domain and must not inflate the measured length.
	if utf8.RuneCountInString(t) < MinParagraphLen {
		return true
	}
	for _, k := range navKeywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

// BuildDocument assembles the cleaned text of a raw record: title, then
// level-1 and level-2 headings in original order, then non-boilerplate
// paragraphs, joined with blank lines and whitespace-normalized. The
// second return value is false when no paragraph survives filtering and
// the whole document should be discarded.
func BuildDocument(rec record.Raw) (string, bool) {
	var kept []string
	for _, p := range rec.Paragraphs {
		if !IsNavigation(p) {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return "", false
	}

	var parts []string
	if title := strings.TrimSpace(rec.Title); title != "" {
		parts = append(parts, title)
	}
	for _, h := range rec.Headings {
		if h.Level <= 2 {
			parts = append(parts, h.Text)
		}
	}
	parts = append(parts, kept...)

	return textutil.Normalize(strings.Join(parts, "\n\n")), true
}

// HashText returns the dedup key for a normalized document.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Summary reports what the stage did.
type Summary struct {
	RecordsIn    int
	RecordsOut   int
	LinesSkipped int
	Duplicates   int
	Discarded    int
	OutputPath   string
}

// Run cleans the raw crawl data in a run directory, writing
// crawl_clean.jsonl. It refuses to overwrite an existing output file.
func Run(dir string) (Summary, error) {
	inPath, err := rundir.RequireInput(dir, rundir.RawFile)
	if err != nil {
		return Summary{}, err
	}
	outPath, err := rundir.GuardOutput(dir, rundir.CleanFile)
	if err != nil {
		return Summary{}, err
	}

	records, skipped, err := jsonl.ReadFile[record.Raw](inPath)
	if err != nil {
		return Summary{}, err
	}

	w, err := jsonl.Create(outPath)
	if err != nil {
		return Summary{}, err
	}
	defer w.Close()

	summary := Summary{
		RecordsIn:    len(records),
		LinesSkipped: skipped,
		OutputPath:   outPath,
	}

	// Exact-match dedup only, scoped to this invocation.
	seen := make(map[string]struct{})

	for _, rec := range records {
		text, ok := BuildDocument(rec)
		if !ok {
			summary.Discarded++
			continue
		}

		key := HashText(text)
		if _, dup := seen[key]; dup {
			summary.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		pageType := rec.PageType
		if pageType == "" {
			pageType = "unknown"
		}

		doc := record.CleanDocument{
			URL:      rec.URL,
			PageType: pageType,
			Text:     text,
		}
		if err := w.Append(doc); err != nil {
			return summary, err
		}
		summary.RecordsOut++
	}

	if err := w.Close(); err != nil {
		return summary, err
	}

	logger.Info("clean complete",
		"in", summary.RecordsIn,
		"out", summary.RecordsOut,
		"duplicates", summary.Duplicates,
		"discarded", summary.Discarded,
		"lines_skipped", summary.LinesSkipped,
		"output", outPath)

	return summary, nil
}

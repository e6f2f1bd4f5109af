// Package slicer splits cleaned documents into paragraph-level blocks,
// breaking dense listings (price tables, bullet runs) into line-level
// units and dropping undersized fragments.
package slicer

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/corpusmill/corpusmill/internal/jsonl"
	"github.com/corpusmill/corpusmill/internal/logger"
	"github.com/corpusmill/corpusmill/internal/record"
	"github.com/corpusmill/corpusmill/internal/rundir"
	"github.com/corpusmill/corpusmill/internal/textutil"
)

// MinBlockChars drops tiny UI junk. Blocks shorter than this never make
// it into the sliced output. Lengths are measured in characters, not
// bytes, so non-ASCII punctuation does not inflate them.
const MinBlockChars = 80

var pricePattern = regexp.MustCompile(`\$\s*\d+`)

// IsDenseListing reports whether a raw block looks like a service
// listing or product catalog: at least two price markers, two
// occurrences of "booked", or five bullet markers.
func IsDenseListing(block string) bool {
	priceHits := len(pricePattern.FindAllString(block, -1))
	bookedHits := strings.Count(strings.ToLower(block), "booked")
	bulletHits := strings.Count(block, "•") + strings.Count(block, "*")
	return priceHits >= 2 || bookedHits >= 2 || bulletHits >= 5
}

// SplitDenseBlock splits a dense listing into line-like units. It first
// tries internal newlines; that split is accepted only when it yields
// more than one line and the first three lines each clear MinBlockChars.
// Otherwise it splits at each position immediately preceding a price
// marker, keeping chunks longer than the minimum. If nothing usable
// results, the whole block is kept when it meets the minimum, or
// dropped.
func SplitDenseBlock(block string) []string {
	var lines []string
	for _, l := range strings.Split(block, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	if len(lines) > 1 && leadingLinesLongEnough(lines) {
		return lines
	}

	var chunks []string
	for _, c := range splitBeforePrices(block) {
		if c = strings.TrimSpace(c); utf8.RuneCountInString(c) > MinBlockChars {
			chunks = append(chunks, c)
		}
	}
	if len(chunks) > 0 {
		return chunks
	}

	if utf8.RuneCountInString(block) > MinBlockChars {
		return []string{block}
	}
	return nil
}

// leadingLinesLongEnough checks the first three lines (or all of them,
// if fewer) against the minimum block length.
func leadingLinesLongEnough(lines []string) bool {
	n := len(lines)
	if n > 3 {
		n = 3
	}
	for _, l := range lines[:n] {
		if utf8.RuneCountInString(l) <= MinBlockChars {
			return false
		}
	}
	return true
}

// splitBeforePrices cuts block at every position where a price marker
// begins, keeping the marker with the chunk that follows it. Go's
// regexp has no lookahead, so the boundaries come from
// FindAllStringIndex.
func splitBeforePrices(block string) []string {
	locs := pricePattern.FindAllStringIndex(block, -1)
	if len(locs) == 0 {
		return []string{block}
	}

	var chunks []string
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			chunks = append(chunks, block[prev:loc[0]])
			prev = loc[0]
		}
	}
	chunks = append(chunks, block[prev:])
	return chunks
}

// Slice breaks one clean document into blocks. Block indexes are
// contiguous from zero in emission order; documents contributing no
// blocks return an empty slice.
func Slice(doc record.CleanDocument) []record.Block {
	text := textutil.Normalize(doc.Text)

	var rawBlocks []string
	for _, b := range strings.Split(text, "\n\n") {
		if b = strings.TrimSpace(b); b != "" {
			rawBlocks = append(rawBlocks, b)
		}
	}

	pageType := doc.PageType
	if pageType == "" {
		pageType = "unknown"
	}

	var blocks []record.Block
	index := 0
	for _, raw := range rawBlocks {
		subBlocks := []string{raw}
		if IsDenseListing(raw) {
			subBlocks = SplitDenseBlock(raw)
		}

		for _, sub := range subBlocks {
			length := utf8.RuneCountInString(sub)
			if length < MinBlockChars {
				continue
			}
			blocks = append(blocks, record.Block{
				SourceURL:  doc.URL,
				PageType:   pageType,
				BlockIndex: index,
				BlockText:  sub,
				BlockLen:   length,
				WordCount:  textutil.WordCount(sub),
			})
			index++
		}
	}

	return blocks
}

// Summary reports what the stage did.
type Summary struct {
	DocumentsIn  int
	BlocksOut    int
	LinesSkipped int
	OutputPath   string
}

// Run slices the cleaned documents in a run directory, writing
// crawl_sliced.jsonl. It refuses to overwrite an existing output file.
func Run(dir string) (Summary, error) {
	inPath, err := rundir.RequireInput(dir, rundir.CleanFile)
	if err != nil {
		return Summary{}, err
	}
	outPath, err := rundir.GuardOutput(dir, rundir.SlicedFile)
	if err != nil {
		return Summary{}, err
	}

	docs, skipped, err := jsonl.ReadFile[record.CleanDocument](inPath)
	if err != nil {
		return Summary{}, err
	}

	w, err := jsonl.Create(outPath)
	if err != nil {
		return Summary{}, err
	}
	defer w.Close()

	summary := Summary{
		DocumentsIn:  len(docs),
		LinesSkipped: skipped,
		OutputPath:   outPath,
	}

	totalChars := 0
	totalWords := 0

	for _, doc := range docs {
		for _, b := range Slice(doc) {
			if err := w.Append(b); err != nil {
				return summary, err
			}
			summary.BlocksOut++
			totalChars += b.BlockLen
			totalWords += b.WordCount
		}
	}

	if err := w.Close(); err != nil {
		return summary, err
	}

	if summary.BlocksOut > 0 {
		logger.Info("slice complete",
			"documents", summary.DocumentsIn,
			"blocks", summary.BlocksOut,
			"avg_chars", totalChars/summary.BlocksOut,
			"avg_words", totalWords/summary.BlocksOut,
			"lines_skipped", summary.LinesSkipped,
			"output", outPath)
	} else {
		logger.Warn("slice produced no blocks",
			"documents", summary.DocumentsIn,
			"min_block_chars", MinBlockChars)
	}

	return summary, nil
}

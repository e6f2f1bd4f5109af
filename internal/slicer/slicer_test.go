package slicer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/corpusmill/corpusmill/internal/jsonl"
	"github.com/corpusmill/corpusmill/internal/record"
	"github.com/corpusmill/corpusmill/internal/rundir"
)

// pad extends s with filler so it clears MinBlockChars.
func pad(s string) string {
	for len(s) <= MinBlockChars {
		s += " including a full description of what the service involves and how long it takes"
	}
	return s
}

// --- IsDenseListing Tests ---

func TestIsDenseListing(t *testing.T) {
	tests := []struct {
		name  string
		block string
		want  bool
	}{
		{"two price markers", "Haircut $30\nColor $80\nBlowout $45", true},
		{"price with space", "Cut $ 25 and finish $ 40", true},
		{"single price", "A consultation costs $50 and lasts an hour", false},
		{"booked twice", "Fully booked Monday. Also booked Tuesday.", true},
		{"booked once", "This slot is booked already", false},
		{"five bullets", "• one • two • three • four • five", true},
		{"four bullets", "• one • two • three • four", false},
		{"asterisk bullets", "* a * b * c * d * e", true},
		{"plain paragraph", "Our stylists trained in London and Paris.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDenseListing(tt.block); got != tt.want {
				t.Errorf("IsDenseListing(%q) = %v, want %v", tt.block, got, tt.want)
			}
		})
	}
}

// --- SplitDenseBlock Tests ---

func TestSplitDenseBlock_NewlineSplit(t *testing.T) {
	lines := []string{
		pad("Signature haircut and finish $30"),
		pad("Full head colour with toner $80"),
		pad("Blow dry and styling session $45"),
	}
	block := strings.Join(lines, "\n")

	got := SplitDenseBlock(block)
	if len(got) != 3 {
		t.Fatalf("len(sub-blocks) = %d, want 3 (one per line)", len(got))
	}
	for i, sub := range got {
		if sub != lines[i] {
			t.Errorf("sub-block %d = %q, want %q", i, sub, lines[i])
		}
		if len(sub) < MinBlockChars {
			t.Errorf("sub-block %d below minimum length", i)
		}
	}
}

func TestSplitDenseBlock_ShortLinesFallToPriceSplit(t *testing.T) {
	// Lines are too short for the newline split to be accepted, but the
	// price-boundary split produces chunks above the minimum.
	block := pad("Deluxe package") + " $120 " + pad("includes massage and facial") + " $95 " + pad("with aftercare products")

	got := SplitDenseBlock(block)
	if len(got) < 2 {
		t.Fatalf("len(sub-blocks) = %d, want >= 2 from price split", len(got))
	}
	for i, sub := range got {
		if len(sub) <= MinBlockChars {
			t.Errorf("sub-block %d length %d, want > %d", i, len(sub), MinBlockChars)
		}
	}
	// Chunks after the first should start at a price marker.
	for _, sub := range got[1:] {
		if !strings.HasPrefix(sub, "$") {
			t.Errorf("price-split chunk should start with marker, got %q", sub)
		}
	}
}

func TestSplitDenseBlock_ShortDenseBlockDropped(t *testing.T) {
	// Dense but too small to yield any usable unit.
	got := SplitDenseBlock("Haircut $30\nColor $80\nBlowout $45")
	if len(got) != 0 {
		t.Errorf("short dense block should be dropped, got %v", got)
	}
}

func TestSplitDenseBlock_KeepsWholeWhenUnsplittable(t *testing.T) {
	block := pad("Fully booked all week and booked again next week for every stylist")

	got := SplitDenseBlock(block)
	if len(got) != 1 {
		t.Fatalf("len(sub-blocks) = %d, want 1 (whole block)", len(got))
	}
	if got[0] != block {
		t.Error("unsplittable block should be kept whole")
	}
}

// --- Slice Tests ---

func TestSlice_MinimumLength(t *testing.T) {
	doc := record.CleanDocument{
		URL:      "https://example.com/services",
		PageType: "product",
		Text:     "Short.\n\n" + pad("A paragraph long enough to survive the minimum block filter"),
	}

	blocks := Slice(doc)
	if len(blocks) != 1 {
		t.Fatalf("len(blocks) = %d, want 1", len(blocks))
	}
	for _, b := range blocks {
		if b.BlockLen < MinBlockChars {
			t.Errorf("block %d has length %d, want >= %d", b.BlockIndex, b.BlockLen, MinBlockChars)
		}
	}
}

func TestSlice_IndexContiguity(t *testing.T) {
	doc := record.CleanDocument{
		URL:      "https://example.com/treatments",
		PageType: "general",
		Text: strings.Join([]string{
			pad("First paragraph about facial treatments and their benefits"),
			"tiny",
			pad("Second surviving paragraph describing the massage options"),
			pad("Third surviving paragraph covering aftercare and products"),
		}, "\n\n"),
	}

	blocks := Slice(doc)
	if len(blocks) != 3 {
		t.Fatalf("len(blocks) = %d, want 3", len(blocks))
	}
	for i, b := range blocks {
		if b.BlockIndex != i {
			t.Errorf("block %d has index %d, want %d", i, b.BlockIndex, i)
		}
	}
}

func TestSlice_BlockMetadata(t *testing.T) {
	text := pad("Metadata check paragraph with a stable set of words")
	doc := record.CleanDocument{URL: "https://example.com/p", PageType: "faq", Text: text}

	blocks := Slice(doc)
	if len(blocks) != 1 {
		t.Fatalf("len(blocks) = %d, want 1", len(blocks))
	}

	b := blocks[0]
	if b.SourceURL != doc.URL {
		t.Errorf("SourceURL = %q", b.SourceURL)
	}
	if b.PageType != "faq" {
		t.Errorf("PageType = %q", b.PageType)
	}
	if b.BlockLen != utf8.RuneCountInString(b.BlockText) {
		t.Errorf("BlockLen = %d, want character count %d", b.BlockLen, utf8.RuneCountInString(b.BlockText))
	}
	if b.WordCount != len(strings.Fields(b.BlockText)) {
		t.Errorf("WordCount = %d", b.WordCount)
	}
}

func TestSlice_LengthFloorCountsCharacters(t *testing.T) {
	// 60 two-byte characters: 120 bytes, but only 60 characters, under
	// the 80-character floor.
	under := strings.Repeat("é", 60)
	if blocks := Slice(record.CleanDocument{URL: "https://example.com/p", Text: under}); len(blocks) != 0 {
		t.Errorf("60-character block should be dropped regardless of byte length, got %d blocks", len(blocks))
	}

	// 90 of the same character clears the floor, and BlockLen reports
	// the character count.
	over := strings.Repeat("é", 90)
	blocks := Slice(record.CleanDocument{URL: "https://example.com/p", Text: over})
	if len(blocks) != 1 {
		t.Fatalf("90-character block should survive, got %d blocks", len(blocks))
	}
	if blocks[0].BlockLen != 90 {
		t.Errorf("BlockLen = %d, want 90 characters", blocks[0].BlockLen)
	}
}

func TestSlice_EmptyDocument(t *testing.T) {
	doc := record.CleanDocument{URL: "https://example.com/empty", Text: "tiny\n\nalso tiny"}

	if blocks := Slice(doc); len(blocks) != 0 {
		t.Errorf("document with only undersized blocks should yield none, got %d", len(blocks))
	}
}

// --- Run Tests ---

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()

	w, err := jsonl.Create(filepath.Join(dir, rundir.CleanFile))
	if err != nil {
		t.Fatal(err)
	}
	docs := []record.CleanDocument{
		{URL: "https://example.com/a", PageType: "product", Text: pad("First document paragraph describing the treatment menu")},
		{URL: "https://example.com/b", PageType: "general", Text: "too small to keep"},
	}
	for _, d := range docs {
		if err := w.Append(d); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	summary, err := Run(dir)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if summary.DocumentsIn != 2 {
		t.Errorf("DocumentsIn = %d, want 2", summary.DocumentsIn)
	}
	if summary.BlocksOut != 1 {
		t.Errorf("BlocksOut = %d, want 1", summary.BlocksOut)
	}

	blocks, _, err := jsonl.ReadFile[record.Block](filepath.Join(dir, rundir.SlicedFile))
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 {
		t.Fatalf("len(blocks) = %d, want 1", len(blocks))
	}
	if blocks[0].SourceURL != "https://example.com/a" {
		t.Errorf("SourceURL = %q", blocks[0].SourceURL)
	}
}

func TestRun_RefusesExistingOutput(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, rundir.CleanFile), []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, rundir.SlicedFile), []byte("partial\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Run(dir); err == nil {
		t.Fatal("Run() should refuse to overwrite existing output")
	}
}

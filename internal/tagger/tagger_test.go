package tagger

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/corpusmill/corpusmill/internal/jsonl"
	"github.com/corpusmill/corpusmill/internal/record"
	"github.com/corpusmill/corpusmill/internal/rundir"
)

// --- Tag Tests ---

func TestTag_PriorityOrder(t *testing.T) {
	// Matches both TRANSACTIONAL ("price") and PROMOTIONAL ("special",
	// "offer"); TRANSACTIONAL is checked first and must win.
	role, _ := Tag("Book now for our special price $50 offer")
	if role != RoleTransactional {
		t.Errorf("role = %q, want %q (priority order)", role, RoleTransactional)
	}
}

func TestTag_Roles(t *testing.T) {
	tests := []struct {
		name string
		text string
		role string
	}{
		{"transactional price", "The full fee is payable on arrival", RoleTransactional},
		{"temporal schedule", "We can schedule you in next week", RoleTemporal},
		{"procedural how to", "How to prepare for your first visit", RoleProcedural},
		{"promotional discount", "Seasonal discount on all colour work", RolePromotional},
		{"policy legal", "Our privacy notice explains data handling", RolePolicyLegal},
		{"contact", "Phone us any weekend morning", RoleContact},
		{"descriptive treatment", "This treatment smooths and strengthens", RoleDescriptive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, _ := Tag(tt.text)
			if role != tt.role {
				t.Errorf("Tag(%q) role = %q, want %q", tt.text, role, tt.role)
			}
		})
	}
}

func TestTag_Fallback(t *testing.T) {
	role, confidence := Tag("The sky was clear that afternoon crowd gathering slowly")
	if role != RoleGeneral {
		t.Errorf("role = %q, want %q", role, RoleGeneral)
	}
	if confidence != GeneralConfidence {
		t.Errorf("confidence = %v, want %v", confidence, GeneralConfidence)
	}
}

func TestTag_CaseInsensitive(t *testing.T) {
	role, _ := Tag("BOOKING REQUIRED FOR ALL VISITS")
	if role != RoleTransactional {
		t.Errorf("role = %q, want %q", role, RoleTransactional)
	}
}

func TestTag_ConfidenceFormula(t *testing.T) {
	// "price" has 5 characters: 0.6 + 5*0.02 = 0.70.
	_, confidence := Tag("price list inside")
	if math.Abs(confidence-0.70) > 1e-9 {
		t.Errorf("confidence = %v, want 0.70", confidence)
	}

	// "opening hours" has 13 characters: 0.6 + 13*0.02 = 0.86.
	_, confidence = Tag("see our opening hours below")
	if math.Abs(confidence-0.86) > 1e-9 {
		t.Errorf("confidence = %v, want 0.86", confidence)
	}
}

func TestTag_ConfidenceCountsCharactersNotBytes(t *testing.T) {
	// "£" and "€" are one character each despite their multibyte UTF-8
	// encodings: 0.6 + 1*0.02 = 0.62, same as "$".
	tests := []struct {
		name string
		text string
	}{
		{"pound", "£50 deposit required when reserving"},
		{"euro", "€80 for the full colour package"},
		{"dollar", "$30 for a quick trim"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, confidence := Tag(tt.text)
			if role != RoleTransactional {
				t.Fatalf("role = %q, want %q", role, RoleTransactional)
			}
			if math.Abs(confidence-0.62) > 1e-9 {
				t.Errorf("confidence = %v, want 0.62", confidence)
			}
		})
	}
}

func TestTag_ConfidenceCapped(t *testing.T) {
	for _, rule := range Rules {
		for _, keyword := range rule.keywords {
			_, confidence := Tag("zzz " + keyword + " zzz")
			if confidence > 0.9 {
				t.Errorf("confidence for keyword %q = %v, want <= 0.9", keyword, confidence)
			}
			if confidence < GeneralConfidence {
				t.Errorf("confidence for keyword %q = %v, below floor", keyword, confidence)
			}
		}
	}
}

func TestTag_Deterministic(t *testing.T) {
	text := "Book now for our special price $50 offer"
	role1, conf1 := Tag(text)
	for i := 0; i < 10; i++ {
		role2, conf2 := Tag(text)
		if role1 != role2 || conf1 != conf2 {
			t.Fatalf("Tag not deterministic: (%q, %v) vs (%q, %v)", role1, conf1, role2, conf2)
		}
	}
}

// --- Run Tests ---

func writeSliced(t *testing.T, dir string, blocks []record.Block) {
	t.Helper()
	w, err := jsonl.Create(filepath.Join(dir, rundir.SlicedFile))
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range blocks {
		if err := w.Append(b); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestRun_TagsAllBlocks(t *testing.T) {
	dir := t.TempDir()
	writeSliced(t, dir, []record.Block{
		{SourceURL: "https://example.com/a", PageType: "product", BlockIndex: 0, BlockText: "The full price list is available at reception", BlockLen: 45, WordCount: 8},
		{SourceURL: "https://example.com/a", PageType: "product", BlockIndex: 1, BlockText: "The sky was clear that afternoon", BlockLen: 32, WordCount: 6},
	})

	summary, err := Run(dir)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if summary.BlocksOut != 2 {
		t.Errorf("BlocksOut = %d, want 2", summary.BlocksOut)
	}
	if summary.RoleCounts[RoleTransactional] != 1 || summary.RoleCounts[RoleGeneral] != 1 {
		t.Errorf("RoleCounts = %v", summary.RoleCounts)
	}

	tagged, _, err := jsonl.ReadFile[record.TaggedBlock](filepath.Join(dir, rundir.TaggedFile))
	if err != nil {
		t.Fatal(err)
	}
	if len(tagged) != 2 {
		t.Fatalf("len(tagged) = %d, want 2", len(tagged))
	}
	if tagged[0].Role != RoleTransactional {
		t.Errorf("tagged[0].Role = %q", tagged[0].Role)
	}
	if tagged[1].Role != RoleGeneral || tagged[1].Confidence != 0.3 {
		t.Errorf("tagged[1] = %q/%v, want GENERAL/0.3", tagged[1].Role, tagged[1].Confidence)
	}
}

func TestRun_ExistingOutputIsNoOp(t *testing.T) {
	dir := t.TempDir()
	writeSliced(t, dir, []record.Block{
		{SourceURL: "https://example.com/a", BlockIndex: 0, BlockText: "price list", BlockLen: 10, WordCount: 2},
	})

	existing := []byte(`{"source_url":"https://example.com/a","page_type":"","block_index":0,"block_text":"price list","block_length":10,"word_count":2,"role":"TRANSACTIONAL","confidence":0.7}` + "\n")
	taggedPath := filepath.Join(dir, rundir.TaggedFile)
	if err := os.WriteFile(taggedPath, existing, 0o644); err != nil {
		t.Fatal(err)
	}

	summary, err := Run(dir)
	if err != nil {
		t.Fatalf("rerun with existing output should be a no-op, got error: %v", err)
	}
	if !summary.NoOp {
		t.Error("summary.NoOp = false, want true")
	}

	// Existing file untouched.
	data, err := os.ReadFile(taggedPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(existing) {
		t.Error("no-op rerun modified the existing tagged file")
	}
}

func TestRun_MissingInput(t *testing.T) {
	if _, err := Run(t.TempDir()); err == nil {
		t.Fatal("Run() should fail without an input file")
	}
}

// Package tagger assigns each block a role from a fixed keyword
// taxonomy. Classification is deterministic: roles are tested in
// priority order and the first keyword hit wins.
package tagger

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/corpusmill/corpusmill/internal/jsonl"
	"github.com/corpusmill/corpusmill/internal/logger"
	"github.com/corpusmill/corpusmill/internal/record"
	"github.com/corpusmill/corpusmill/internal/rundir"
)

// Role labels. RoleGeneral is the fallback when nothing matches.
const (
	RoleTransactional = "TRANSACTIONAL"
	RoleTemporal      = "TEMPORAL"
	RoleProcedural    = "PROCEDURAL"
	RolePromotional   = "PROMOTIONAL"
	RolePolicyLegal   = "POLICY_LEGAL"
	RoleContact       = "CONTACT"
	RoleDescriptive   = "DESCRIPTIVE"
	RoleGeneral       = "GENERAL"
)

// GeneralConfidence is assigned to blocks with no keyword match.
const GeneralConfidence = 0.3

type roleRule struct {
	role     string
	keywords []string
}

// Rules is the ordered dispatch table. Order matters: the first role
// with any case-insensitive substring match wins, so TRANSACTIONAL
// shadows PROMOTIONAL for text that matches both.
var Rules = []roleRule{
	{RoleTransactional, []string{"price", "$", "£", "€", "booking", "book now", "buy", "purchase", "order", "payment", "cost", "fee"}},
	{RoleTemporal, []string{"schedule", "appointment", "date", "time", "opening hours", "deadline", "hours", "open", "closed", "monday", "tuesday", "wednesday", "thursday", "friday", "available"}},
	{RoleProcedural, []string{"how to", "step", "instruction", "procedure", "guide", "tutorial", "process", "method", "apply", "prepare"}},
	{RolePromotional, []string{"offer", "discount", "sale", "promotion", "deal", "special", "limited", "testimonial", "review", "rated"}},
	{RolePolicyLegal, []string{"terms", "privacy", "policy", "regulation", "legal", "conditions", "agreement", "copyright", "disclaimer"}},
	{RoleContact, []string{"email", "phone", "contact", "support", "address", "location", "call", "reach us", "get in touch"}},
	{RoleDescriptive, []string{"what is", "treatment", "procedure", "benefit", "result", "effect", "improve", "enhance", "rejuvenate", "reduce"}},
}

// Tag classifies a block's text, returning the role and a confidence
// derived from the matching keyword's length. The same text always
// yields the same result.
func Tag(blockText string) (string, float64) {
	text := strings.ToLower(blockText)

	for _, rule := range Rules {
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				// Keyword length in characters, not bytes; "£" and "€"
				// count as one.
				length := utf8.RuneCountInString(keyword)
				confidence := math.Min(0.9, 0.6+float64(length)*0.02)
				return rule.role, confidence
			}
		}
	}

	return RoleGeneral, GeneralConfidence
}

// Summary reports what the stage did.
type Summary struct {
	BlocksIn     int
	BlocksOut    int
	LinesSkipped int
	RoleCounts   map[string]int
	OutputPath   string
	NoOp         bool
}

// Run tags the sliced blocks in a run directory, writing
// crawl_tagged.jsonl. A pre-existing output file makes the stage a
// no-op rather than an error, so reruns reuse the earlier tagging.
func Run(dir string) (Summary, error) {
	inPath, err := rundir.RequireInput(dir, rundir.SlicedFile)
	if err != nil {
		return Summary{}, err
	}

	if rundir.OutputExists(dir, rundir.TaggedFile) {
		logger.Warn("tagged file already exists, using it as-is",
			"path", rundir.TaggedFile)
		return Summary{NoOp: true}, nil
	}

	blocks, skipped, err := jsonl.ReadFile[record.Block](inPath)
	if err != nil {
		return Summary{}, err
	}

	outPath, err := rundir.GuardOutput(dir, rundir.TaggedFile)
	if err != nil {
		return Summary{}, err
	}
	w, err := jsonl.Create(outPath)
	if err != nil {
		return Summary{}, err
	}
	defer w.Close()

	summary := Summary{
		BlocksIn:     len(blocks),
		LinesSkipped: skipped,
		RoleCounts:   make(map[string]int),
		OutputPath:   outPath,
	}

	for _, b := range blocks {
		role, confidence := Tag(b.BlockText)

		tagged := record.TaggedBlock{
			Block:      b,
			Role:       role,
			Confidence: math.Round(confidence*100) / 100,
		}
		if err := w.Append(tagged); err != nil {
			return summary, err
		}
		summary.BlocksOut++
		summary.RoleCounts[role]++
	}

	if err := w.Close(); err != nil {
		return summary, err
	}

	logger.Info("tag complete",
		"blocks", summary.BlocksOut,
		"lines_skipped", summary.LinesSkipped,
		"output", outPath)

	// Role distribution, stable order.
	roles := make([]string, 0, len(summary.RoleCounts))
	for role := range summary.RoleCounts {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	for _, role := range roles {
		count := summary.RoleCounts[role]
		logger.Info("role distribution",
			"role", role,
			"count", count,
			"share_pct", float64(count)*100/float64(summary.BlocksOut))
	}

	return summary, nil
}

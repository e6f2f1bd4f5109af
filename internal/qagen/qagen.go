// Package qagen turns tagged blocks into question-answer training
// pairs. Blocks are filtered by role and signal quality, grouped by
// page context, packed into token-budgeted batches, and submitted to
// the LLM client one batch at a time.
package qagen

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/corpusmill/corpusmill/internal/jsonl"
	"github.com/corpusmill/corpusmill/internal/llm"
	"github.com/corpusmill/corpusmill/internal/logger"
	"github.com/corpusmill/corpusmill/internal/record"
	"github.com/corpusmill/corpusmill/internal/rundir"
	"github.com/corpusmill/corpusmill/internal/tagger"
	"github.com/corpusmill/corpusmill/internal/textutil"
)

const (
	// MaxTokensPerBatch is the packing budget for one LLM submission.
	MaxTokensPerBatch = 6000

	// TokenMultiplier approximates tokens per word for the packing
	// estimate. It is deliberately crude; packing only needs an upper
	// bound, not an exact count.
	TokenMultiplier = 1.3

	// MinWordCount drops fragments too short to support a question.
	MinWordCount = 8

	// MinDistinctWords drops near-repetitive fragments.
	MinDistinctWords = 5
)

// DefaultRoles are the roles worth generating questions from.
var DefaultRoles = []string{
	tagger.RoleDescriptive,
	tagger.RoleProcedural,
	tagger.RoleTemporal,
	tagger.RoleTransactional,
}

var (
	priceRe    = regexp.MustCompile(`\$\s?\d+`)
	bookedRe   = regexp.MustCompile(`(?i)\bbooked\b`)
	dropdownRe = regexp.MustCompile(`(?i)please choose an option`)
)

// IsLowSignal reports whether a block is too weak to ground a question:
// too few words, availability noise (a price next to "booked"), a
// dropdown placeholder, or too little vocabulary.
func IsLowSignal(b record.TaggedBlock) bool {
	if b.WordCount < MinWordCount {
		return true
	}
	text := b.BlockText
	if priceRe.MatchString(text) && bookedRe.MatchString(text) {
		return true
	}
	if dropdownRe.MatchString(text) {
		return true
	}
	return textutil.DistinctWords(text) < MinDistinctWords
}

// EstimateTokens is the packing estimate for a set of blocks.
func EstimateTokens(blocks []record.TaggedBlock) int {
	words := 0
	for _, b := range blocks {
		words += b.WordCount
	}
	return int(float64(words) * TokenMultiplier)
}

// PairGenerator is the LLM collaborator contract: one prompt in, zero
// or more grounded pairs out. Retries and backoff live behind it.
type PairGenerator interface {
	GeneratePairs(ctx context.Context, prompt string) ([]llm.Pair, error)
}

// Options configures a generation run.
type Options struct {
	Roles []string // allowed roles; nil means DefaultRoles

	// ExactTokens enables exact prompt-token accounting in the summary
	// via the cl100k_base encoding. The encoder fetches its vocabulary
	// on first use, so this stays off unless asked for.
	ExactTokens bool
}

// Summary reports what the stage did.
type Summary struct {
	BlocksIn      int
	RoleKept      int
	LowSignalOut  int
	Groups        int
	Batches       int
	BatchesFailed int
	PairsOut      int
	LinesSkipped  int
	PromptTokens  int // exact count across submitted prompts, when available
	OutputPath    string
}

type groupKey struct {
	SourceURL string
	PageType  string
}

// Run generates QA pairs from the tagged blocks in a run directory,
// writing qa_training.jsonl. Pairs are appended and flushed per batch,
// so a killed run loses at most the in-flight batch. It refuses to
// overwrite an existing output file.
func Run(ctx context.Context, dir string, gen PairGenerator, opts Options) (Summary, error) {
	inPath, err := rundir.RequireInput(dir, rundir.TaggedFile)
	if err != nil {
		return Summary{}, err
	}
	outPath, err := rundir.GuardOutput(dir, rundir.QAFile)
	if err != nil {
		return Summary{}, err
	}

	roles := opts.Roles
	if len(roles) == 0 {
		roles = DefaultRoles
	}
	// Role tags are stored uppercase; accept any casing from callers so
	// --roles descriptive,procedural works as documented.
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[strings.ToUpper(strings.TrimSpace(r))] = struct{}{}
	}

	blocks, skipped, err := jsonl.ReadFile[record.TaggedBlock](inPath)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		BlocksIn:     len(blocks),
		LinesSkipped: skipped,
		OutputPath:   outPath,
	}

	// Role filter first: it is free, LLM calls are not.
	grouped := make(map[groupKey][]record.TaggedBlock)
	for _, b := range blocks {
		role := b.Role
		if role == "" {
			role = tagger.RoleGeneral
		}
		if _, ok := allowed[role]; !ok {
			continue
		}
		summary.RoleKept++
		if IsLowSignal(b) {
			summary.LowSignalOut++
			continue
		}
		key := groupKey{SourceURL: b.SourceURL, PageType: b.PageType}
		grouped[key] = append(grouped[key], b)
	}
	summary.Groups = len(grouped)

	logger.Info("generation input ready",
		"blocks", summary.BlocksIn,
		"role_kept", summary.RoleKept,
		"low_signal_dropped", summary.LowSignalOut,
		"groups", summary.Groups)

	w, err := jsonl.Create(outPath)
	if err != nil {
		return Summary{}, err
	}
	defer w.Close()

	// Exact token accounting for the summary; packing stays on the
	// word-count estimate.
	var encoder *tiktoken.Tiktoken
	if opts.ExactTokens {
		encoder, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			logger.Warn("token encoder unavailable, skipping exact counts", "error", err)
			encoder = nil
		}
	}

	// Deterministic group order.
	keys := make([]groupKey, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].SourceURL != keys[j].SourceURL {
			return keys[i].SourceURL < keys[j].SourceURL
		}
		return keys[i].PageType < keys[j].PageType
	})

	for _, key := range keys {
		group := grouped[key]
		sort.Slice(group, func(i, j int) bool {
			return group[i].BlockIndex < group[j].BlockIndex
		})

		var batch []record.TaggedBlock
		for _, b := range group {
			next := append(batch, b)
			if len(batch) > 0 && EstimateTokens(next) > MaxTokensPerBatch {
				if err := submitBatch(ctx, gen, w, key, batch, encoder, &summary); err != nil {
					return summary, err
				}
				batch = nil
			}
			batch = append(batch, b)
		}
		if len(batch) > 0 {
			if err := submitBatch(ctx, gen, w, key, batch, encoder, &summary); err != nil {
				return summary, err
			}
		}
	}

	if err := w.Close(); err != nil {
		return summary, err
	}

	logger.Info("generation complete",
		"pairs", summary.PairsOut,
		"batches", summary.Batches,
		"batches_failed", summary.BatchesFailed,
		"prompt_tokens", summary.PromptTokens,
		"output", outPath)

	return summary, nil
}

// submitBatch sends one batch to the collaborator and streams any pairs
// to the output file. A collaborator failure abandons the batch, not
// the run; a cancelled context does stop the run.
func submitBatch(
	ctx context.Context,
	gen PairGenerator,
	w *jsonl.Writer,
	key groupKey,
	batch []record.TaggedBlock,
	encoder *tiktoken.Tiktoken,
	summary *Summary,
) error {
	texts := make([]string, len(batch))
	for i, b := range batch {
		texts[i] = b.BlockText
	}
	prompt := llm.BuildQAPrompt(texts, key.SourceURL, key.PageType)

	if encoder != nil {
		summary.PromptTokens += len(encoder.Encode(prompt, nil, nil))
	}

	summary.Batches++
	logger.Debug("submitting batch",
		"source_url", key.SourceURL,
		"page_type", key.PageType,
		"blocks", len(batch),
		"est_tokens", EstimateTokens(batch))

	pairs, err := gen.GeneratePairs(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		summary.BatchesFailed++
		logger.Warn("batch abandoned",
			"source_url", key.SourceURL,
			"error", err)
		return nil
	}

	for _, p := range pairs {
		qa := record.QAPair{
			SourceURL: key.SourceURL,
			PageType:  key.PageType,
			Question:  p.Question,
			Answer:    p.Answer,
		}
		if err := w.Append(qa); err != nil {
			return err
		}
		summary.PairsOut++
	}

	return nil
}

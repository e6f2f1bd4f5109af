package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/corpusmill/corpusmill/internal/crawler"
	"github.com/corpusmill/corpusmill/internal/llm"
	"github.com/corpusmill/corpusmill/internal/logger"
	"github.com/corpusmill/corpusmill/internal/rundir"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the whole pipeline against a website",
	Long: `Crawl a site into a fresh run directory and push it through every
stage: clean, slice, tag, and generate. A failure in any stage aborts
the run; completed stages keep their output, so the run can be resumed
stage by stage.

Examples:
  corpusmill run --url "https://example.com"
  corpusmill run --url "https://example.com" --max-pages 50 --skip-qa`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.StringP("url", "u", "", "seed URL to crawl (required)")
	flags.Int("max-pages", 100, "stop after this many pages")
	flags.Duration("delay", time.Second, "pause between requests")
	flags.Duration("timeout", crawler.DefaultFetchTimeout, "per-request fetch timeout")
	flags.String("user-agent", "", "override the request user agent")
	flags.StringP("output-root", "o", "data", "directory that holds runs/")
	flags.StringSlice("roles", nil, "roles to generate from (default descriptive,procedural,temporal,transactional)")
	flags.Bool("skip-qa", false, "stop after tagging, skip LLM generation")

	// Provider flags shared with generate via viper bindings there.
	flags.StringP("provider", "p", "", "LLM provider: groq, openai, anthropic")
	flags.StringP("model", "m", "", "model name (provider-specific)")
	flags.StringP("api-key", "k", "", "API key (or use env var)")
	flags.Duration("llm-timeout", 120*time.Second, "per-request LLM timeout")
	flags.Int("max-attempts", 5, "attempts per batch before abandoning it")

	_ = runCmd.MarkFlagRequired("url")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	skipQA, _ := cmd.Flags().GetBool("skip-qa")

	// The LLM client is assembled first so a missing API key fails the
	// run before any pages are fetched.
	var client *llm.Client
	if !skipQA {
		c, err := buildClient(cmd)
		if err != nil {
			return err
		}
		client = c
	}

	outputRoot, _ := cmd.Flags().GetString("output-root")
	dir, err := rundir.Create(outputRoot)
	if err != nil {
		logger.Error("failed to create run directory", "error", err)
		return err
	}
	logger.Info("run directory created", "dir", dir)

	if _, err := crawlInto(ctx, dir, crawlConfigFromFlags(cmd)); err != nil {
		return err
	}
	if err := cleanInto(dir); err != nil {
		return err
	}
	if err := sliceInto(dir); err != nil {
		return err
	}
	if err := tagInto(dir); err != nil {
		return err
	}

	if skipQA {
		logger.Info("skipping QA generation", "dir", dir)
		fmt.Printf("Run directory: %s\n", dir)
		return nil
	}

	roles, _ := cmd.Flags().GetStringSlice("roles")
	if err := generateInto(ctx, dir, client, roles); err != nil {
		return err
	}

	fmt.Printf("Run directory: %s\n", dir)
	return nil
}

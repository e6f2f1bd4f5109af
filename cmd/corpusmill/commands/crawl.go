package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/corpusmill/corpusmill/internal/crawler"
	"github.com/corpusmill/corpusmill/internal/logger"
	"github.com/corpusmill/corpusmill/internal/rundir"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl a website into a fresh run directory",
	Long: `Crawl a site breadth-first, staying on the seed URL's host, and
write the raw page records into a new run directory.

Examples:
  corpusmill crawl --url "https://example.com"
  corpusmill crawl --url "https://example.com" --max-pages 50 --delay 2s`,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	flags := crawlCmd.Flags()
	flags.StringP("url", "u", "", "seed URL to crawl (required)")
	flags.Int("max-pages", 100, "stop after this many pages")
	flags.Duration("delay", time.Second, "pause between requests")
	flags.Duration("timeout", crawler.DefaultFetchTimeout, "per-request timeout")
	flags.String("user-agent", "", "override the request user agent")
	flags.StringP("output-root", "o", "data", "directory that holds runs/")

	_ = crawlCmd.MarkFlagRequired("url")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	outputRoot, _ := cmd.Flags().GetString("output-root")
	dir, err := rundir.Create(outputRoot)
	if err != nil {
		logger.Error("failed to create run directory", "error", err)
		return err
	}
	logger.Info("run directory created", "dir", dir)

	cfg := crawlConfigFromFlags(cmd)
	if _, err := crawlInto(ctx, dir, cfg); err != nil {
		return err
	}

	fmt.Printf("Run directory: %s\n", dir)
	return nil
}

// crawlConfigFromFlags builds a crawler config from the crawl flags,
// which the run command shares.
func crawlConfigFromFlags(cmd *cobra.Command) crawler.Config {
	cfg := crawler.DefaultConfig()
	cfg.URL, _ = cmd.Flags().GetString("url")
	cfg.MaxPages, _ = cmd.Flags().GetInt("max-pages")
	cfg.Delay, _ = cmd.Flags().GetDuration("delay")
	cfg.Timeout, _ = cmd.Flags().GetDuration("timeout")
	cfg.UserAgent, _ = cmd.Flags().GetString("user-agent")
	return cfg
}

// crawlInto runs the crawl stage against an existing run directory and
// records it in the manifest.
func crawlInto(ctx context.Context, dir string, cfg crawler.Config) (crawler.Summary, error) {
	c, err := crawler.New(crawler.NewFetcher(cfg.UserAgent, cfg.Timeout), cfg)
	if err != nil {
		logger.Error("invalid crawl configuration", "error", err)
		return crawler.Summary{}, err
	}

	summary, err := c.Run(ctx, dir)
	if err != nil {
		logger.Error("crawl failed", "error", err)
		return summary, err
	}

	manifest, err := rundir.LoadManifest(dir)
	if err != nil {
		return summary, err
	}
	manifest.SeedURL = cfg.URL
	if err := manifest.RecordStage(dir, "crawl", summary.PagesScraped, summary.PagesScraped, summary.OutputPath); err != nil {
		return summary, err
	}

	return summary, nil
}

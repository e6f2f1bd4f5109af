package commands

import (
	"github.com/spf13/cobra"

	"github.com/corpusmill/corpusmill/internal/cleaner"
	"github.com/corpusmill/corpusmill/internal/logger"
	"github.com/corpusmill/corpusmill/internal/rundir"
)

var cleanCmd = &cobra.Command{
	Use:   "clean <run-dir>",
	Short: "Clean and deduplicate crawled pages",
	Long: `Rebuild each crawled page as one plain-text document: drop
navigation boilerplate and short paragraphs, normalize whitespace, and
deduplicate identical documents.`,
	Args: cobra.ExactArgs(1),
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	initLogger()

	dir := args[0]
	if err := rundir.Validate(dir); err != nil {
		logger.Error("invalid run directory", "error", err)
		return err
	}

	return cleanInto(dir)
}

// cleanInto runs the clean stage and records it in the manifest.
func cleanInto(dir string) error {
	summary, err := cleaner.Run(dir)
	if err != nil {
		logger.Error("clean failed", "error", err)
		return err
	}

	manifest, err := rundir.LoadManifest(dir)
	if err != nil {
		return err
	}
	return manifest.RecordStage(dir, "clean", summary.RecordsIn, summary.RecordsOut, summary.OutputPath)
}

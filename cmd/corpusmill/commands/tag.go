package commands

import (
	"github.com/spf13/cobra"

	"github.com/corpusmill/corpusmill/internal/logger"
	"github.com/corpusmill/corpusmill/internal/rundir"
	"github.com/corpusmill/corpusmill/internal/tagger"
)

var tagCmd = &cobra.Command{
	Use:   "tag <run-dir>",
	Short: "Tag blocks with functional roles",
	Long: `Assign each block a functional role (transactional, temporal,
procedural, promotional, policy_legal, contact, descriptive, or general)
using keyword rules. Rerunning against an already tagged run reuses the
existing tags.`,
	Args: cobra.ExactArgs(1),
	RunE: runTag,
}

func init() {
	rootCmd.AddCommand(tagCmd)
}

func runTag(cmd *cobra.Command, args []string) error {
	initLogger()

	dir := args[0]
	if err := rundir.Validate(dir); err != nil {
		logger.Error("invalid run directory", "error", err)
		return err
	}

	return tagInto(dir)
}

// tagInto runs the tag stage and records it in the manifest. A no-op
// rerun leaves the manifest untouched.
func tagInto(dir string) error {
	summary, err := tagger.Run(dir)
	if err != nil {
		logger.Error("tag failed", "error", err)
		return err
	}
	if summary.NoOp {
		return nil
	}

	manifest, err := rundir.LoadManifest(dir)
	if err != nil {
		return err
	}
	return manifest.RecordStage(dir, "tag", summary.BlocksIn, summary.BlocksOut, summary.OutputPath)
}

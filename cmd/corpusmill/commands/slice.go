package commands

import (
	"github.com/spf13/cobra"

	"github.com/corpusmill/corpusmill/internal/logger"
	"github.com/corpusmill/corpusmill/internal/rundir"
	"github.com/corpusmill/corpusmill/internal/slicer"
)

var sliceCmd = &cobra.Command{
	Use:   "slice <run-dir>",
	Short: "Slice clean documents into blocks",
	Long: `Split each clean document into paragraph-level blocks, breaking
dense listings (price tables, bullet walls) into smaller pieces.`,
	Args: cobra.ExactArgs(1),
	RunE: runSlice,
}

func init() {
	rootCmd.AddCommand(sliceCmd)
}

func runSlice(cmd *cobra.Command, args []string) error {
	initLogger()

	dir := args[0]
	if err := rundir.Validate(dir); err != nil {
		logger.Error("invalid run directory", "error", err)
		return err
	}

	return sliceInto(dir)
}

// sliceInto runs the slice stage and records it in the manifest.
func sliceInto(dir string) error {
	summary, err := slicer.Run(dir)
	if err != nil {
		logger.Error("slice failed", "error", err)
		return err
	}

	manifest, err := rundir.LoadManifest(dir)
	if err != nil {
		return err
	}
	return manifest.RecordStage(dir, "slice", summary.DocumentsIn, summary.BlocksOut, summary.OutputPath)
}

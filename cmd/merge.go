package cmd

import (
	"fmt"

	"github.com/jfmyers9/tagfill/internal/config"
	"github.com/jfmyers9/tagfill/internal/dataset"
	"github.com/jfmyers9/tagfill/internal/metadata"
	"github.com/spf13/cobra"
)

var (
	mergeFrom   string
	mergeInto   string
	mergeOutput string
	mergeColumn string
)

// mergeCmd represents the merge command
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Append rows with new recording ids from one dataset to another",
	Long: `Append the rows of --from whose recording_id is set, not "Not found",
and not already present in --into. Columns only --from has are added to the
result. Merging the same file twice adds nothing the second time.`,
	Example: `  tagfill merge --from more_songs.csv --into songs.csv
  tagfill merge --from a.csv --into b.csv -o merged.csv`,
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringVar(&mergeFrom, "from", "", "Dataset to take new rows from (required)")
	mergeCmd.Flags().StringVar(&mergeInto, "into", "", "Dataset to add rows to (required)")
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "Output CSV file (default: overwrite --into)")
	mergeCmd.Flags().StringVar(&mergeColumn, "column", metadata.RecordingIDColumn, "Key column")

	_ = mergeCmd.MarkFlagRequired("from")
	_ = mergeCmd.MarkFlagRequired("into")
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := commandLogger(cfg.LogLevel).With().Str("component", "merge").Logger()

	output := mergeOutput
	if output == "" {
		output = mergeInto
	}

	from, err := dataset.ReadFile(mergeFrom)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", mergeFrom, err)
	}
	into, err := dataset.ReadFile(mergeInto)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", mergeInto, err)
	}

	merged, added, err := dataset.MergeByKey(from, into, mergeColumn, metadata.NotFoundSentinel)
	if err != nil {
		return err
	}

	if err := dataset.WriteFileAtomic(output, merged); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	logger.Info().
		Int("added", added).
		Int("rows", merged.Len()).
		Str("output", output).
		Msg("Datasets merged")

	fmt.Fprintf(cmd.OutOrStdout(), "Added: %s (%s rows in %s)\n",
		formatCount(added), formatCount(merged.Len()), output)
	return nil
}

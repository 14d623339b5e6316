package cmd

import (
	"fmt"

	"github.com/jfmyers9/tagfill/internal/config"
	"github.com/jfmyers9/tagfill/internal/dataset"
	"github.com/jfmyers9/tagfill/internal/metadata"
	"github.com/spf13/cobra"
)

var (
	fixInput  string
	fixOutput string
	fixColumn string
	fixTop    int
)

// fixArtistsCmd represents the fix-artists command
var fixArtistsCmd = &cobra.Command{
	Use:   "fix-artists",
	Short: `Rewrite inverted artist names ("beatles, the" -> "the beatles")`,
	Long: `Rewrite artist names stored as "<name>, <article>" to "<article> <name>".

Only names with exactly one comma are changed, so "Crosby, Stills, Nash &
Young" is left alone. The output defaults to overwriting the input.`,
	Example: `  tagfill fix-artists -i songs.csv
  tagfill fix-artists -i songs.csv -o fixed.csv --top 20`,
	RunE: runFixArtists,
}

func init() {
	rootCmd.AddCommand(fixArtistsCmd)

	fixArtistsCmd.Flags().StringVarP(&fixInput, "input", "i", "", "Input CSV file (required)")
	fixArtistsCmd.Flags().StringVarP(&fixOutput, "output", "o", "", "Output CSV file (default: overwrite input)")
	fixArtistsCmd.Flags().StringVar(&fixColumn, "column", metadata.ArtistColumn, "Artist name column")
	fixArtistsCmd.Flags().IntVar(&fixTop, "top", 10, "Number of corrected names to list (0 for all)")

	_ = fixArtistsCmd.MarkFlagRequired("input")
}

func runFixArtists(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := commandLogger(cfg.LogLevel).With().Str("component", "fix-artists").Logger()

	output := fixOutput
	if output == "" {
		output = fixInput
	}

	t, err := dataset.ReadFile(fixInput)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	corrections, err := dataset.FixArtistNames(t, fixColumn)
	if err != nil {
		return err
	}

	if err := dataset.WriteFileAtomic(output, t); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	logger.Info().
		Int("corrections", corrections.Total).
		Int("artists", len(corrections.Counts)).
		Str("output", output).
		Msg("Artist names fixed")

	out := cmd.OutOrStdout()
	if corrections.Total == 0 {
		fmt.Fprintln(out, "No inverted artist names found.")
		return nil
	}

	names := corrections.Names()
	if fixTop > 0 && len(names) > fixTop {
		names = names[:fixTop]
	}
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, formatCount(corrections.Counts[name])})
	}
	fmt.Fprintln(out, renderTable([]string{"Artist", "Corrected"}, rows, []columnAlignment{alignLeft, alignRight}))
	fmt.Fprintf(out, "Total corrections: %s (%s artists)\n",
		formatCount(corrections.Total), formatCount(len(corrections.Counts)))
	return nil
}

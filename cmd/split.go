package cmd

import (
	"fmt"

	"github.com/jfmyers9/tagfill/internal/config"
	"github.com/jfmyers9/tagfill/internal/dataset"
	"github.com/spf13/cobra"
)

var (
	splitInput   string
	splitMatched string
	splitRest    string
	splitColumn  string
	splitCode    float64
)

// splitCmd represents the split command
var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split rows by an HTTP status code column",
	Long: `Split a dataset in two by the value of a status code column.

Rows whose column equals --code go to --matched, every other row goes to
--rest. Codes are compared as numbers, so 404 and 404.0 both match.`,
	Example: `  tagfill split -i songs.csv --matched 404.csv --rest ok.csv`,
	RunE:    runSplit,
}

func init() {
	rootCmd.AddCommand(splitCmd)

	splitCmd.Flags().StringVarP(&splitInput, "input", "i", "", "Input CSV file (required)")
	splitCmd.Flags().StringVar(&splitMatched, "matched", "", "Output for rows with the code (required)")
	splitCmd.Flags().StringVar(&splitRest, "rest", "", "Output for all other rows (required)")
	splitCmd.Flags().StringVar(&splitColumn, "column", "error", "Column holding the status code")
	splitCmd.Flags().Float64Var(&splitCode, "code", 404, "Status code to split out")

	_ = splitCmd.MarkFlagRequired("input")
	_ = splitCmd.MarkFlagRequired("matched")
	_ = splitCmd.MarkFlagRequired("rest")
}

func runSplit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := commandLogger(cfg.LogLevel).With().Str("component", "split").Logger()

	input, err := dataset.ReadFile(splitInput)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	matched, rest, err := dataset.SplitByCode(input, splitColumn, splitCode)
	if err != nil {
		return err
	}

	if err := dataset.WriteFileAtomic(splitMatched, matched); err != nil {
		return fmt.Errorf("failed to write %s: %w", splitMatched, err)
	}
	if err := dataset.WriteFileAtomic(splitRest, rest); err != nil {
		return fmt.Errorf("failed to write %s: %w", splitRest, err)
	}

	logger.Info().
		Int("matched", matched.Len()).
		Int("rest", rest.Len()).
		Msg("Dataset split")

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(
		[]string{"File", "Rows"},
		[][]string{
			{splitMatched, formatCount(matched.Len())},
			{splitRest, formatCount(rest.Len())},
		},
		[]columnAlignment{alignLeft, alignRight},
	))
	return nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jfmyers9/tagfill/internal/dataset"
	"github.com/jfmyers9/tagfill/internal/enrich"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

// enrichFlags are shared by the genres and recordings commands.
type enrichFlags struct {
	input           string
	output          string
	errorLog        string
	checkpointEvery int
	rate            float64
	byIndex         bool
	retryNotFound   bool
	progress        bool
}

func (f *enrichFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Input CSV file (required)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output CSV file, also used to resume (required)")
	cmd.Flags().StringVar(&f.errorLog, "error-log", "", "Append failed lookups to this file (default: <output>.errors.log)")
	cmd.Flags().IntVar(&f.checkpointEvery, "checkpoint-every", 0, "Save progress every N processed rows (default from config)")
	cmd.Flags().Float64Var(&f.rate, "rate", 0, "Maximum requests per second (default from config)")
	cmd.Flags().BoolVar(&f.byIndex, "by-index", false, "Match rows to a previous run by position instead of by key")
	cmd.Flags().BoolVar(&f.retryNotFound, "retry-not-found", false, "Look up rows that previously came back not found")
	cmd.Flags().BoolVar(&f.progress, "progress", false, "Print a line per row even when stdout is not a terminal")

	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
}

// job fills the run options of job from the flags, falling back to the
// configured interval and rate.
func (f *enrichFlags) job(job enrich.Job, interval int, rps float64) enrich.Job {
	job.OutputPath = f.output
	job.RetryNotFound = f.retryNotFound

	job.CheckpointInterval = interval
	if f.checkpointEvery > 0 {
		job.CheckpointInterval = f.checkpointEvery
	}

	if f.rate > 0 {
		rps = f.rate
	}
	job.RateLimit = rate.Limit(rps)

	job.Identity = enrich.IdentityKey
	if f.byIndex {
		job.Identity = enrich.IdentityIndex
	}

	return job
}

func (f *enrichFlags) errorLogPath() string {
	if f.errorLog != "" {
		return f.errorLog
	}
	return f.output + ".errors.log"
}

// runEnrichment runs job over the input file until it completes or the
// process receives SIGINT/SIGTERM, then prints a summary.
func runEnrichment(cmd *cobra.Command, flags *enrichFlags, job enrich.Job, logger zerolog.Logger) error {
	input, err := dataset.ReadFile(flags.input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	errLog, err := enrich.OpenErrorLog(flags.errorLogPath())
	if err != nil {
		return err
	}
	defer errLog.Close()

	out := cmd.OutOrStdout()
	progress := newProgressPrinter(out, flags.progress)

	cfg := enrich.Config{ErrorLog: errLog}
	if progress != nil {
		cfg.Progress = progress.print
	} else {
		cfg.Progress = logProgress(logger)
	}
	runner := enrich.NewRunner(cfg, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := runner.Run(ctx, input, job)
	progress.finish()

	if err != nil && enrich.IsConfigError(err) {
		return err
	}

	fmt.Fprintln(out, renderStats(stats))

	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(out, "Interrupted. Progress saved to %s; run the same command again to resume.\n", job.OutputPath)
		return err
	case err != nil:
		return err
	}

	fmt.Fprintf(out, "Saved %s\n", job.OutputPath)
	if stats.Failures > 0 {
		fmt.Fprintf(out, "Failed lookups logged to %s\n", flags.errorLogPath())
	}
	return nil
}

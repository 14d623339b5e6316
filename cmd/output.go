package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/jfmyers9/tagfill/internal/enrich"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog"
)

// progressWidth is the display width of a progress line on a terminal.
const progressWidth = 100

// padToWidth pads or truncates str to exactly width display columns.
//
// Width is measured in display columns, accounting for Unicode characters.
// If width <= 0, returns str unchanged.
// If str is longer than width, truncates with "..." suffix.
// If str is shorter than width, pads with spaces.
func padToWidth(str string, width int) string {
	if width <= 0 {
		return str
	}

	currentWidth := runewidth.StringWidth(str)

	if currentWidth > width {
		ellipsis := "..."
		ellipsisWidth := runewidth.StringWidth(ellipsis)

		if width <= ellipsisWidth {
			return runewidth.Truncate(ellipsis, width, "")
		}

		result := runewidth.Truncate(str, width-ellipsisWidth, "") + ellipsis

		// Wide runes can leave the cut one column short
		if resultWidth := runewidth.StringWidth(result); resultWidth < width {
			return result + strings.Repeat(" ", width-resultWidth)
		}
		return result
	} else if currentWidth < width {
		return str + strings.Repeat(" ", width-currentWidth)
	}

	return str
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func formatCount(n int) string {
	return humanize.Comma(int64(n))
}

// percent formats part/total, e.g. "42.5%".
func percent(part, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(part)*100/float64(total))
}

// renderStats renders a run summary.
func renderStats(stats enrich.Stats) string {
	rows := [][]string{
		{"Rows", formatCount(stats.Total), ""},
		{"Already processed", formatCount(stats.Skipped), percent(stats.Skipped, stats.Total)},
		{"Processed now", formatCount(stats.Processed), percent(stats.Processed, stats.Total)},
		{"Requests", formatCount(stats.Fetched), ""},
		{"Resolved", formatCount(stats.Resolved), percent(stats.Resolved, stats.Processed)},
		{"Not found", formatCount(stats.NotFound), percent(stats.NotFound, stats.Processed)},
		{"Errors logged", formatCount(stats.Failures), ""},
		{"Checkpoints", formatCount(stats.Checkpoints), ""},
		{"Checkpoint failures", formatCount(stats.CheckpointFailures), ""},
		{"Still pending", formatCount(stats.Tally.Pending), percent(stats.Tally.Pending, stats.Tally.Total)},
		{"Elapsed", stats.Elapsed.Round(time.Second).String(), ""},
	}
	return renderTable([]string{"", "Count", "Share"}, rows, []columnAlignment{alignLeft, alignRight, alignRight})
}

// progressPrinter prints one line per processed row. On a terminal the
// line is redrawn in place.
type progressPrinter struct {
	out     io.Writer
	inPlace bool
}

func newProgressPrinter(out io.Writer, force bool) *progressPrinter {
	tty := isTerminal(out)
	if !tty && !force {
		return nil
	}
	return &progressPrinter{out: out, inPlace: tty}
}

func (p *progressPrinter) print(pr enrich.Progress) {
	line := progressLine(pr)
	if p.inPlace {
		fmt.Fprintf(p.out, "\r%s", padToWidth(line, progressWidth))
		return
	}
	fmt.Fprintln(p.out, line)
}

// finish ends an in-place line so later output starts on its own line.
func (p *progressPrinter) finish() {
	if p != nil && p.inPlace {
		fmt.Fprintln(p.out)
	}
}

// logProgress reports each processed row through logger, for runs whose
// stdout is not a terminal.
func logProgress(logger zerolog.Logger) enrich.ProgressFunc {
	logger = logger.With().Str("component", "enrich").Logger()
	return func(pr enrich.Progress) {
		logger.Info().
			Int("row", pr.Row+1).
			Int("done", pr.Done).
			Int("todo", pr.Todo).
			Bool("reused", pr.Reused).
			Msg(progressLine(pr))
	}
}

func progressLine(pr enrich.Progress) string {
	results := make([]string, len(pr.Fields))
	for i, f := range pr.Fields {
		if f.State == enrich.StateResolved {
			results[i] = f.Value
		} else {
			results[i] = pr.Columns[i].Sentinel
		}
	}

	return fmt.Sprintf("[%s/%s] %s -> %s",
		formatCount(pr.Done),
		formatCount(pr.Todo),
		strings.Join(pr.Keys, " - "),
		strings.Join(results, " | "),
	)
}

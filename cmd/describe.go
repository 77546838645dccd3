package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/peekknuf/fairqa/internal/dataset"
	"github.com/peekknuf/fairqa/internal/profiler"
)

var (
	describeDelimiter string
	describeSheet     string
	describeFilterCol string
	describeFilterVal []string
	outputFile        string
)

var describeCmd = &cobra.Command{
	Use:   "describe [file]",
	Short: "Print the data summary of a CSV or XLSX dataset",
	Long: `Print pandas.describe() style statistics for every column of a
dataset, optionally after applying the same row filter a report uses.

Examples:
  fairqa describe pcpe_03.csv --delimiter ';'
  fairqa describe pcpe_03.csv --delimiter ';' --filter-column RAMO_ATIVIDADE_1 --filter-values 1,3
  fairqa describe data.xlsx --sheet Sheet2 --output summary.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		startTime := time.Now()
		targetPath := args[0]

		opts := dataset.LoadOptions{Sheet: describeSheet}
		if describeDelimiter != "" {
			opts.Delimiter = []rune(describeDelimiter)[0]
		}

		table, err := dataset.Load(targetPath, opts)
		if err != nil {
			return err
		}
		if describeFilterCol != "" {
			if table, err = table.Filter(describeFilterCol, describeFilterVal); err != nil {
				return err
			}
		}

		summary, err := profiler.Summarize(table)
		if err != nil {
			return err
		}

		var output strings.Builder
		writeSummary(&output, summary, time.Since(startTime))

		if outputFile != "" {
			if err := os.WriteFile(outputFile, []byte(output.String()), 0644); err != nil {
				return fmt.Errorf("failed to write to output file %s: %w", outputFile, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Results saved to %s\n", outputFile)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), output.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)

	describeCmd.Flags().StringVar(&describeDelimiter, "delimiter", ",",
		"CSV field delimiter")
	describeCmd.Flags().StringVar(&describeSheet, "sheet", "",
		"XLSX sheet (default: first sheet)")
	describeCmd.Flags().StringVar(&describeFilterCol, "filter-column", "",
		"Keep only rows whose value in this column is one of --filter-values")
	describeCmd.Flags().StringSliceVar(&describeFilterVal, "filter-values", nil,
		"Values kept by --filter-column")
	describeCmd.Flags().StringVar(&outputFile, "output", "",
		"Output file to save results (default: stdout)")
}

func writeSummary(w io.Writer, s profiler.Summary, elapsed time.Duration) {
	q := s.Quality()

	fmt.Fprintf(w, "=== DATA SUMMARY: %s ===\n", s.Dataset)
	fmt.Fprintf(w, "Rows: %s | Columns: %d | Numeric: %d | Other: %d\n",
		humanize.Comma(int64(s.RowCount)), s.ColumnCount, s.NumericColumns, s.StringColumns)
	fmt.Fprintf(w, "Data completeness: %.1f%% | Distinct ratio: %.2f\n", 100.0-s.NullPercentage, q.DistinctRatio)
	fmt.Fprintf(w, "Processing time: %v\n\n", elapsed.Round(time.Millisecond))

	fmt.Fprintf(w, "%-30s %-7s %10s %8s %9s %12s %12s %12s %12s\n",
		"Column", "Type", "Count", "Nulls", "Distinct", "Mean", "Std", "Min", "Max")
	fmt.Fprintln(w, strings.Repeat("-", 118))

	for _, col := range s.Columns {
		name := col.Name
		if len(name) > 29 {
			name = name[:26] + "..."
		}
		mean, std := "", ""
		if col.IsNumeric() {
			mean = fmt.Sprintf("%.4f", col.Mean)
			std = fmt.Sprintf("%.4f", col.Std)
		}
		fmt.Fprintf(w, "%-30s %-7s %10d %8d %9d %12s %12s %12s %12s\n",
			name, col.Type, col.Count, col.NullCount, col.DistinctCount, mean, std, truncate(col.Min, 12), truncate(col.Max, 12))
	}

	if q.EmptyColumns > 0 {
		fmt.Fprintf(w, "\n%d columns have no values\n", q.EmptyColumns)
	}
	if q.ConstantColumns > 0 {
		fmt.Fprintf(w, "%d columns hold a single distinct value\n", q.ConstantColumns)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/peekknuf/fairqa/internal/config"
	"github.com/peekknuf/fairqa/internal/connectors"
	"github.com/peekknuf/fairqa/internal/report"
)

var (
	dirPath   string
	outDir    string
	recursive bool
	exclude   []string
	minSize   int64
	maxSize   int64
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run the configured fairness report for every dataset in a directory",
	Long: `Scan a directory for CSV and XLSX datasets and write one fairness
report per dataset, using the metrics and filter from the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// dataset.path is supplied per discovered file.
		cfg.Dataset.Path = "-"
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		files, err := connectors.DiscoverDatasets(dirPath, connectors.DiscoveryOptions{
			Recursive: recursive,
			MinSize:   minSize,
			MaxSize:   maxSize,
			Exclude:   exclude,
		})
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		if len(files) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No datasets found in %s\n", dirPath)
			return nil
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		bar := progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetDescription("[cyan][reset] Building reports..."),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(os.Stderr)
			}),
		)

		var failedFiles int
		for _, file := range files {
			out := filepath.Join(outDir, reportName(file.Path))
			if err := scanOne(cmd, cfg, file.Path, out); err != nil {
				slog.Error("report failed", "dataset", file.Path, "error", err)
				failedFiles++
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) -> %s\n", file.Path, humanize.Bytes(uint64(file.Size)), out)
			}
			_ = bar.Add(1)
		}
		_ = bar.Finish()

		if failedFiles > 0 {
			return fmt.Errorf("%d of %d datasets could not be reported", failedFiles, len(files))
		}
		return nil
	},
}

func scanOne(cmd *cobra.Command, cfg *config.Config, path, out string) error {
	pipeline, err := newPipeline(cfg, path)
	if err != nil {
		return err
	}
	rep, err := pipeline.Run(cmd.Context())
	if err != nil {
		return err
	}
	return report.Save(out, rep)
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVarP(&dirPath, "dir", "d", "",
		"Directory to scan (required)")
	scanCmd.Flags().StringVar(&outDir, "out-dir", "reports",
		"Directory the reports are written to")
	scanCmd.Flags().BoolVarP(&recursive, "recursive", "r", false,
		"Search directories recursively")
	scanCmd.Flags().StringSliceVar(&exclude, "exclude", nil,
		"Glob patterns of file names to skip")
	scanCmd.Flags().Int64Var(&minSize, "min-size", 0,
		"Minimum file size in bytes")
	scanCmd.Flags().Int64Var(&maxSize, "max-size", 0,
		"Maximum file size in bytes")

	scanCmd.MarkFlagRequired("dir")
}

func reportName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_report.html"
}

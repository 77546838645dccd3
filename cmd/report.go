package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/peekknuf/fairqa/internal/config"
	"github.com/peekknuf/fairqa/internal/metric"
	"github.com/peekknuf/fairqa/internal/report"
)

var (
	reportOutput    string
	reportReference string
	failOnTests     bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run the configured fairness metrics and write an HTML report",
	Long: `Load the configured dataset, apply its row filter, compute every
configured fairness metric and write the results to an HTML report.

Examples:
  fairqa report --config fairqa.yaml
  fairqa report --config fairqa.yaml --output out/report.html
  fairqa report --config fairqa.yaml --reference baseline.csv --fail-on-tests`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if reportOutput != "" {
			cfg.Report.Output = reportOutput
		}
		if reportReference != "" {
			cfg.Reference.Path = reportReference
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		pipeline, err := newPipeline(cfg, cfg.Dataset.Path)
		if err != nil {
			return err
		}
		rep, err := pipeline.Run(cmd.Context())
		if err != nil {
			return err
		}
		if err := report.Save(cfg.Report.Output, rep); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report saved to %s\n", cfg.Report.Output)

		_, failed, errored, failures := rep.Counts()
		if failOnTests && failed+errored+failures > 0 {
			return fmt.Errorf("%d tests failed, %d errored, %d metrics did not complete", failed, errored, failures)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "",
		"Report output path (overrides report.output)")
	reportCmd.Flags().StringVar(&reportReference, "reference", "",
		"Reference dataset for regression tests (overrides reference.path)")
	reportCmd.Flags().BoolVar(&failOnTests, "fail-on-tests", false,
		"Exit non-zero when any default test does not pass")
}

// newPipeline builds a report pipeline for datasetPath from cfg.
func newPipeline(cfg *config.Config, datasetPath string) (*report.Pipeline, error) {
	specs, err := cfg.Specs()
	if err != nil {
		return nil, err
	}

	runner := report.NewRunner(specs)
	runner.Options = metric.DefaultOptions()
	runner.Options.Provider.PositiveLabel = cfg.Report.PositiveLabel
	runner.Parallelism = cfg.Report.Parallelism
	runner.MetricTimeout = cfg.Report.MetricTimeout
	runner.Logger = slog.Default()

	p := &report.Pipeline{
		Title:       cfg.Report.Title,
		Current:     source(cfg.Dataset, datasetPath),
		Runner:      runner,
		DataSummary: cfg.Report.DataSummary,
		Logger:      slog.Default(),
	}
	if cfg.Reference.Path != "" {
		// The reference is read and filtered like the current dataset
		// unless it says otherwise.
		rc := cfg.Reference
		if rc.Delimiter == "" {
			rc.Delimiter = cfg.Dataset.Delimiter
		}
		if rc.Filter.Column == "" {
			rc.Filter = cfg.Dataset.Filter
		}
		ref := source(rc, rc.Path)
		p.Reference = &ref
	}
	return p, nil
}

func source(dc config.DatasetConfig, path string) report.Source {
	return report.Source{
		Path:         path,
		Options:      dc.LoadOptions(),
		FilterColumn: dc.Filter.Column,
		FilterValues: dc.Filter.Values,
	}
}

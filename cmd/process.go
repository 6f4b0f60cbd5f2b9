package main

import (
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/premises-cli/internal/config"
	"github.com/sells-group/premises-cli/internal/input"
	"github.com/sells-group/premises-cli/internal/output"
	"github.com/sells-group/premises-cli/internal/pipeline"
	"github.com/sells-group/premises-cli/internal/runlog"
	"github.com/sells-group/premises-cli/internal/scorer"
	"github.com/sells-group/premises-cli/pkg/anthropic"
	"github.com/sells-group/premises-cli/pkg/places"
)

var (
	processInput     string
	processSheet     string
	processOutputDir string
	processOffline   bool
	processDryRun    bool
	processLimit     int
)

// applyProcessFlags folds the process command flags into the loaded config.
// Offline mode swaps in the stub collaborators and the fixture store, so no
// API keys or database are needed.
func applyProcessFlags(c *config.Config) {
	if processOffline {
		c.Places.Offline = true
		c.Records.Driver = "fixture"
	}
	if processOutputDir != "" {
		c.Output.Dir = processOutputDir
	}
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process a premises spreadsheet",
	Long:  "Reads a CSV or XLSX file of business locations and routes every row to the processed, errors, or duplicates file.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		applyProcessFlags(cfg)
		if err := cfg.Validate("process"); err != nil {
			return err
		}

		rows, err := input.ReadFile(processInput, processSheet)
		if err != nil {
			return eris.Wrap(err, "process: read input")
		}
		if processLimit > 0 && len(rows) > processLimit {
			rows = rows[:processLimit]
		}
		if len(rows) == 0 {
			return eris.New("process: input file has no data rows")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		var (
			placesClient places.Client
			confidence   scorer.Confidence
			occupancy    scorer.Occupancy
		)
		if cfg.Places.Offline {
			placesClient = &pipeline.StubPlacesClient{}
			confidence = &pipeline.StubConfidence{}
			occupancy = &pipeline.StubOccupancy{}
		} else {
			placesClient = places.NewClient(cfg.Places.Key,
				places.WithBaseURL(cfg.Places.BaseURL),
				places.WithRateLimit(cfg.Places.RequestsPerSec),
				places.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Places.TimeoutSecs) * time.Second}),
			)
			claude := anthropic.NewClient(cfg.Anthropic.Key)
			confidence = scorer.NewConfidence(claude, cfg.Anthropic.ConfidenceModel)
			occupancy = scorer.NewOccupancy(claude, cfg.Anthropic.OccupancyModel)
		}

		engine := pipeline.NewEngine(placesClient, st, confidence, occupancy, pipeline.Config{
			ConfidenceThreshold:     cfg.Pipeline.ConfidenceThreshold,
			SearchRadiusDegrees:     cfg.Pipeline.SearchRadiusDegrees,
			PlaceMaxDistanceDegrees: cfg.Pipeline.PlaceMaxDistanceDegrees,
		})

		log, err := runlog.Open(cfg.Runlog.Path)
		if err != nil {
			return err
		}
		defer log.Close() //nolint:errcheck

		runID, err := log.Start(ctx, processInput)
		if err != nil {
			return err
		}

		result, err := engine.Run(ctx, rows)
		if err != nil {
			_ = log.Fail(ctx, runID)
			return eris.Wrap(err, "process: run pipeline")
		}

		if processDryRun {
			zap.L().Info("dry run, skipping output files",
				zap.Int("processed", len(result.Processed)),
				zap.Int("errors", len(result.Errors)),
				zap.Int("duplicates", len(result.Duplicates)),
			)
		} else {
			writer := output.NewWriter(cfg.Output.Dir)
			writer.ProcessedFile = cfg.Output.ProcessedFile
			writer.ErrorsFile = cfg.Output.ErrorsFile
			writer.DuplicatesFile = cfg.Output.DuplicatesFile
			if err := writer.Write(result); err != nil {
				_ = log.Fail(ctx, runID)
				return eris.Wrap(err, "process: write output")
			}
		}

		if err := log.Finish(ctx, runID, len(result.Processed), len(result.Errors), len(result.Duplicates)); err != nil {
			return err
		}

		zap.L().Info("process complete",
			zap.String("run_id", runID),
			zap.String("input", processInput),
			zap.Int("total", result.Total()),
			zap.Int("processed", len(result.Processed)),
			zap.Int("errors", len(result.Errors)),
			zap.Int("duplicates", len(result.Duplicates)),
		)
		return nil
	},
}

func init() {
	processCmd.Flags().StringVar(&processInput, "input", "", "path to CSV or XLSX input file (required)")
	processCmd.Flags().StringVar(&processSheet, "xlsx-sheet", "", "sheet name for XLSX input (defaults to the first sheet)")
	processCmd.Flags().StringVar(&processOutputDir, "output-dir", "", "directory for output files (overrides config)")
	processCmd.Flags().BoolVar(&processOffline, "offline", false, "use canned places and scoring instead of live APIs")
	processCmd.Flags().BoolVar(&processDryRun, "dry-run", false, "run the pipeline without writing output files")
	processCmd.Flags().IntVar(&processLimit, "limit", 0, "process at most this many rows (0 = all)")
	_ = processCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(processCmd)
}

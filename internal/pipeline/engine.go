// Package pipeline implements the per-row premises import state machine:
// normalize, resolve against the places provider, standardize, detect
// duplicates, classify occupancy, format, and validate.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/premises-cli/internal/input"
	"github.com/sells-group/premises-cli/internal/model"
	"github.com/sells-group/premises-cli/internal/records"
	"github.com/sells-group/premises-cli/internal/scorer"
	"github.com/sells-group/premises-cli/pkg/places"
)

// Config holds the pipeline tunables.
type Config struct {
	// ConfidenceThreshold is the minimum duplicate confidence score that
	// routes a row to the duplicate log instead of the output.
	ConfidenceThreshold int

	// SearchRadiusDegrees is the bounding box half-width for the nearby
	// premises query. 0.001 degrees is roughly 100 meters.
	SearchRadiusDegrees float64

	// PlaceMaxDistanceDegrees rejects place candidates farther than this
	// from the geocoded point. 0.05 degrees is roughly 5 kilometers.
	PlaceMaxDistanceDegrees float64
}

// DefaultConfig returns the production tunables.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold:     8,
		SearchRadiusDegrees:     0.001,
		PlaceMaxDistanceDegrees: 0.05,
	}
}

// Engine runs the import state machine over a set of input rows.
type Engine struct {
	places     places.Client
	store      records.Store
	confidence scorer.Confidence
	occupancy  scorer.Occupancy
	cfg        Config
}

// NewEngine creates an Engine with the given collaborators.
func NewEngine(pc places.Client, st records.Store, conf scorer.Confidence, occ scorer.Occupancy, cfg Config) *Engine {
	return &Engine{
		places:     pc,
		store:      st,
		confidence: conf,
		occupancy:  occ,
		cfg:        cfg,
	}
}

// Run processes every row to a terminal disposition and returns the
// accumulated result. Rows land in exactly one of processed, errors, or
// duplicates, in input order.
func (e *Engine) Run(ctx context.Context, rows []input.RawRow) (*model.RunResult, error) {
	run := &runState{rows: rows, result: &model.RunResult{}}

	zap.L().Info("starting import run", zap.Int("rows", len(rows)))

	step := StepParseRow
	for step != StepEnd {
		if err := ctx.Err(); err != nil {
			return run.result, eris.Wrap(err, "pipeline: run cancelled")
		}
		step = e.advance(ctx, run, step)
	}
	return run.result, nil
}

func (e *Engine) advance(ctx context.Context, run *runState, step Step) Step {
	switch step {
	case StepParseRow:
		return e.parseRow(run)
	case StepPlacesSearch:
		return e.placesSearch(ctx, run.cur)
	case StepStandardize:
		return e.standardize(run.cur)
	case StepDatabaseQuery:
		return e.databaseQuery(ctx, run.cur)
	case StepConfidenceScoring:
		return e.confidenceScoring(ctx, run.cur)
	case StepLogDuplicate:
		return e.logDuplicate(run)
	case StepOccupancyClassification:
		return e.classifyOccupancy(ctx, run.cur)
	case StepFormatOutput:
		return e.formatOutput(run.cur)
	case StepVerifyOutput:
		return e.verifyOutput(run)
	case StepErrorHandler:
		return e.handleError(run)
	case StepNextRow:
		return e.nextRow(run)
	case StepWriteOutput:
		return e.finish(run)
	default:
		return StepEnd
	}
}

// handleError banks the current row in the error bucket with its reason.
func (e *Engine) handleError(run *runState) Step {
	reason := run.cur.errMsg
	if reason == "" {
		reason = "Unknown error"
	}
	zap.L().Warn("row failed",
		zap.Int("row", run.idx),
		zap.String("name", run.cur.row.Name),
		zap.String("reason", reason),
	)
	run.result.Errors = append(run.result.Errors, model.ErrorRow{
		Row:    run.cur.row,
		Reason: reason,
	})
	return StepNextRow
}

// logDuplicate banks the current row in the duplicate log. These rows are
// never emitted as new premises.
func (e *Engine) logDuplicate(run *runState) Step {
	cur := run.cur
	score := 0
	if cur.confidence != nil {
		score = *cur.confidence
	}
	zap.L().Info("duplicate detected",
		zap.Int("row", run.idx),
		zap.String("name", cur.row.Name),
		zap.Int64("matched_premise_id", cur.matchedID),
		zap.Int("score", score),
	)
	run.result.Duplicates = append(run.result.Duplicates, model.DuplicateEntry{
		SourceName:       cur.row.Name,
		SourceAddress:    cur.row.Address,
		StandardizedName: cur.stdName,
		MatchedPremiseID: cur.matchedID,
		ConfidenceScore:  score,
		Reason:           duplicateReason(score),
	})
	return StepNextRow
}

// nextRow advances the cursor; parseRow decides whether rows remain.
func (e *Engine) nextRow(run *runState) Step {
	run.idx++
	run.cur = nil
	return StepParseRow
}

func (e *Engine) finish(run *runState) Step {
	zap.L().Info("import run complete",
		zap.Int("processed", len(run.result.Processed)),
		zap.Int("errors", len(run.result.Errors)),
		zap.Int("duplicates", len(run.result.Duplicates)),
	)
	return StepEnd
}

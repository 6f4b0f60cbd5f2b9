package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/premises-cli/internal/scorer"
)

// databaseQuery resolves the row's state and looks for existing premises
// near the geocoded point.
func (e *Engine) databaseQuery(ctx context.Context, cur *rowState) Step {
	cur.stateCode = cur.stdAddr.StateCode

	if cur.stateCode != "" {
		st, err := e.store.GetStateByCode(ctx, cur.stateCode)
		if err != nil {
			zap.L().Error("state lookup failed", zap.String("state", cur.stateCode), zap.Error(err))
			cur.errMsg = "Database lookup failed"
			return StepErrorHandler
		}
		if st == nil && cur.stdAddr.State != "" {
			st, err = e.store.GetStateByName(ctx, cur.stdAddr.State)
			if err != nil {
				zap.L().Error("state lookup failed", zap.String("state", cur.stdAddr.State), zap.Error(err))
				cur.errMsg = "Database lookup failed"
				return StepErrorHandler
			}
		}
		if st != nil {
			cur.stateID = &st.ID
		}
	}

	// A zero coordinate on either axis means the row was never geocoded.
	if cur.lat == 0 || cur.lng == 0 {
		return StepOccupancyClassification
	}

	candidates, err := e.store.QueryNearby(ctx, cur.lat, cur.lng, cur.stateID, e.cfg.SearchRadiusDegrees)
	if err != nil {
		zap.L().Error("nearby premises query failed",
			zap.Float64("lat", cur.lat),
			zap.Float64("lng", cur.lng),
			zap.Error(err),
		)
		cur.errMsg = "Database lookup failed"
		return StepErrorHandler
	}
	cur.candidates = candidates

	if len(candidates) > 0 {
		zap.L().Debug("nearby premises found",
			zap.Int("count", len(candidates)),
			zap.String("closest", candidates[0].PremiseName),
		)
		return StepConfidenceScoring
	}
	return StepOccupancyClassification
}

// confidenceScoring compares the row against the closest existing premise.
// Scoring uses the original user input name so suffixes like "- Branch"
// survive standardization.
func (e *Engine) confidenceScoring(ctx context.Context, cur *rowState) Step {
	if len(cur.candidates) == 0 {
		return StepOccupancyClassification
	}
	existing := cur.candidates[0]

	comparisonName := cur.row.Name
	if comparisonName == "" {
		comparisonName = cur.stdName
	}

	score, err := e.confidence.Score(ctx, scorer.ScoreRequest{
		Name:         comparisonName,
		AddressLine1: cur.stdAddr.AddressLine1,
		City:         cur.stdAddr.City,
		State:        cur.stdAddr.State,
	}, existing)
	if err != nil {
		// Degrade rather than fail the row. The conservative score keeps
		// the row flowing as a new record.
		zap.L().Warn("confidence scoring failed",
			zap.String("name", comparisonName),
			zap.Error(err),
		)
		score = scorer.ConservativeScore
	}

	cur.confidence = &score
	cur.matchedID = existing.ID

	zap.L().Debug("confidence scored",
		zap.String("name", comparisonName),
		zap.String("existing", existing.PremiseName),
		zap.Int("score", score),
		zap.Int("threshold", e.cfg.ConfidenceThreshold),
	)

	if score >= e.cfg.ConfidenceThreshold {
		return StepLogDuplicate
	}
	return StepOccupancyClassification
}

func duplicateReason(score int) string {
	return fmt.Sprintf("High confidence match (score: %d)", score)
}

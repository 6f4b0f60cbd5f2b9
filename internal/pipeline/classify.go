package pipeline

import (
	"context"

	"go.uber.org/zap"
)

// classifyOccupancy picks an occupancy category for the row from the
// categories valid in its state.
func (e *Engine) classifyOccupancy(ctx context.Context, cur *rowState) Step {
	if cur.stateCode != "" {
		categories, err := e.store.ListCategoriesForState(ctx, cur.stateCode)
		if err != nil {
			zap.L().Error("category lookup failed", zap.String("state", cur.stateCode), zap.Error(err))
			cur.errMsg = "Database lookup failed"
			return StepErrorHandler
		}
		cur.categories = categories
	}

	if len(cur.categories) == 0 {
		// The row continues to formatting; the missing occupancy is caught
		// by output validation.
		cur.errMsg = "No occupancy types available for state"
		cur.selected = nil
		return StepFormatOutput
	}

	placesType := cur.placesType
	if placesType == "" {
		placesType = "establishment"
	}

	id, err := e.occupancy.Classify(ctx, placesType, cur.stdName, cur.categories)
	if err != nil {
		// Degrade to the first category rather than fail the row.
		zap.L().Warn("occupancy classification failed",
			zap.String("name", cur.stdName),
			zap.Error(err),
		)
		id = cur.categories[0].ID
	}

	for i := range cur.categories {
		if cur.categories[i].ID == id {
			cur.selected = &cur.categories[i]
			break
		}
	}
	return StepFormatOutput
}

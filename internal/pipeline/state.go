package pipeline

import (
	"github.com/sells-group/premises-cli/internal/input"
	"github.com/sells-group/premises-cli/internal/model"
	"github.com/sells-group/premises-cli/internal/records"
	"github.com/sells-group/premises-cli/pkg/places"
)

// rowState holds everything scoped to the row currently in flight. It is
// rebuilt from scratch for every row, so no field can leak across rows.
type rowState struct {
	raw input.RawRow
	row model.Row

	// Resolution results.
	place      *places.Candidate
	placeFound bool
	lat, lng   float64
	placesType string

	// Standardization results.
	stdName string
	stdAddr model.StandardizedAddress

	// Duplicate detection results.
	candidates []records.Premise
	stateID    *int64
	stateCode  string
	confidence *int
	matchedID  int64

	// Occupancy classification results.
	categories []records.Category
	selected   *records.Category

	out    model.OutputRecord
	errMsg string
}

// runState carries the cursor and accumulators for one Run call.
type runState struct {
	rows   []input.RawRow
	idx    int
	cur    *rowState
	result *model.RunResult
}

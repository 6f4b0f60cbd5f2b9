package pipeline

// Step identifies a state of the per-row processing machine. Each step
// handler returns the next Step; the run loop dispatches until StepEnd.
type Step int

const (
	StepParseRow Step = iota
	StepPlacesSearch
	StepStandardize
	StepDatabaseQuery
	StepConfidenceScoring
	StepLogDuplicate
	StepOccupancyClassification
	StepFormatOutput
	StepVerifyOutput
	StepErrorHandler
	StepNextRow
	StepWriteOutput
	StepEnd
)

var stepNames = map[Step]string{
	StepParseRow:                "parse_row",
	StepPlacesSearch:            "places_search",
	StepStandardize:             "standardize",
	StepDatabaseQuery:           "database_query",
	StepConfidenceScoring:       "confidence_scoring",
	StepLogDuplicate:            "log_duplicate",
	StepOccupancyClassification: "occupancy_classification",
	StepFormatOutput:            "format_output",
	StepVerifyOutput:            "verify_output",
	StepErrorHandler:            "error_handler",
	StepNextRow:                 "next_row",
	StepWriteOutput:             "write_output",
	StepEnd:                     "end",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

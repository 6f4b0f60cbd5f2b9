package model

// ErrorRow preserves the normalized input fields of a failed row alongside
// the reason it was rejected.
type ErrorRow struct {
	Row
	Reason string `json:"error_reason"`
}

// DuplicateEntry records a high-confidence match against an existing premise.
// Rows landing here are never inserted as new records.
type DuplicateEntry struct {
	SourceName       string `json:"source_name"`
	SourceAddress    string `json:"source_address"`
	StandardizedName string `json:"standardized_name"`
	MatchedPremiseID int64  `json:"matched_premise_id"`
	ConfidenceScore  int    `json:"confidence_score"`
	Reason           string `json:"reason"`
}

// RunResult accumulates the three terminal dispositions of an import run.
// Every input row lands in exactly one of the three slices, in input order.
type RunResult struct {
	Processed  []OutputRecord
	Errors     []ErrorRow
	Duplicates []DuplicateEntry
}

// Total returns the number of rows that reached a terminal disposition.
func (r *RunResult) Total() int {
	return len(r.Processed) + len(r.Errors) + len(r.Duplicates)
}

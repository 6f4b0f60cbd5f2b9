package pipeline

import (
	"sort"
	"strings"

	"github.com/sells-group/premises-cli/internal/input"
	"github.com/sells-group/premises-cli/internal/model"
)

var nameHeaderHints = []string{
	"premise_name", "business_name", "company_name", "facility_name", "location_name",
}

var addressHeaderHints = []string{"address", "street", "location"}

var cityHeaderHints = []string{"city", "municipality", "town"}

// parseRow normalizes the next raw row onto the canonical five-field shape,
// or ends the loop when the rows are exhausted.
func (e *Engine) parseRow(run *runState) Step {
	if run.idx >= len(run.rows) {
		return StepWriteOutput
	}

	raw := run.rows[run.idx]
	run.cur = &rowState{
		raw: raw,
		row: NormalizeRow(raw),
	}
	return StepPlacesSearch
}

// NormalizeRow maps arbitrary source column names onto the canonical row
// shape. Header matching is case-insensitive, treats spaces as underscores,
// and tolerates common synonyms (business_name, street, zip, st, and so
// on). Keys are visited in sorted
// order so the mapping is deterministic when multiple headers match the
// same field.
func NormalizeRow(raw input.RawRow) model.Row {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var row model.Row
	for _, key := range keys {
		value := strings.TrimSpace(raw[key])
		keyLower := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), " ", "_")

		switch {
		case matchesNameHeader(keyLower):
			row.Name = value
		case containsAny(keyLower, addressHeaderHints) && !strings.Contains(keyLower, "name"):
			row.Address = value
		case containsAny(keyLower, cityHeaderHints):
			row.City = value
		case strings.Contains(keyLower, "state") || keyLower == "st":
			row.State = value
		case strings.Contains(keyLower, "postal") || strings.Contains(keyLower, "zip"):
			row.PostalCode = value
		}
	}
	return row
}

func matchesNameHeader(keyLower string) bool {
	if keyLower == "name" || keyLower == "business" {
		return true
	}
	return containsAny(keyLower, nameHeaderHints)
}

func containsAny(s string, hints []string) bool {
	for _, hint := range hints {
		if strings.Contains(s, hint) {
			return true
		}
	}
	return false
}

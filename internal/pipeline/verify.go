package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/premises-cli/internal/model"
)

var (
	stateCodePattern  = regexp.MustCompile(`^[A-Z]{2}$`)
	postalCodePattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// requiredOutputFields maps the required export columns to their values.
func requiredOutputFields(rec model.OutputRecord) []struct{ name, value string } {
	return []struct{ name, value string }{
		{"Premise Name", rec.PremiseName},
		{"Address Line 1", rec.AddressLine1},
		{"City", rec.City},
		{"State", rec.State},
		{"Postal Code", rec.PostalCode},
		{"Status", rec.Status},
		{"Latitude", rec.Latitude},
		{"Longitude", rec.Longitude},
		{"Premise Occupancy", rec.PremiseOccupancy},
	}
}

// ValidateRecord runs the full validation battery over an output record and
// returns every violation found, never short-circuiting.
func ValidateRecord(rec model.OutputRecord) []string {
	var violations []string

	for _, f := range requiredOutputFields(rec) {
		if strings.TrimSpace(f.value) == "" {
			violations = append(violations, fmt.Sprintf("Missing required field: %s", f.name))
		}
	}

	lat, latErr := strconv.ParseFloat(rec.Latitude, 64)
	lng, lngErr := strconv.ParseFloat(rec.Longitude, 64)
	if latErr != nil || lngErr != nil {
		violations = append(violations, "Latitude/Longitude must be valid numbers")
	} else {
		if lat < -90 || lat > 90 {
			violations = append(violations, fmt.Sprintf("Invalid latitude: %s (must be -90 to 90)", rec.Latitude))
		}
		if lng < -180 || lng > 180 {
			violations = append(violations, fmt.Sprintf("Invalid longitude: %s (must be -180 to 180)", rec.Longitude))
		}
		if lat == 0 && lng == 0 {
			violations = append(violations, "Coordinates are 0,0 (likely invalid)")
		}
	}

	if rec.State != "" && !stateCodePattern.MatchString(rec.State) {
		violations = append(violations, fmt.Sprintf("Invalid state code: %s (must be 2 uppercase letters)", rec.State))
	}
	if rec.PostalCode != "" && !postalCodePattern.MatchString(rec.PostalCode) {
		violations = append(violations, fmt.Sprintf("Invalid postal code format: %s", rec.PostalCode))
	}
	if rec.Status != model.StatusActive && rec.Status != model.StatusInactive {
		violations = append(violations, fmt.Sprintf("Invalid status: %s (must be 'Active' or 'Inactive')", rec.Status))
	}
	if rec.Country != "" && rec.Country != model.DefaultCountry {
		violations = append(violations, fmt.Sprintf("Invalid country: %s (must be 'USA')", rec.Country))
	}
	if rec.CountryShort != "" && rec.CountryShort != model.DefaultCountryShort {
		violations = append(violations, fmt.Sprintf("Invalid country short name: %s (must be 'US')", rec.CountryShort))
	}

	return violations
}

// verifyOutput gates the formatted record. Valid records land in the
// processed bucket; invalid ones carry the full violation list to the error
// bucket.
func (e *Engine) verifyOutput(run *runState) Step {
	cur := run.cur

	violations := ValidateRecord(cur.out)
	if len(violations) > 0 {
		cur.errMsg = "Output validation failed: " + strings.Join(violations, "; ")
		return StepErrorHandler
	}

	zap.L().Debug("output validated", zap.String("name", cur.out.PremiseName))
	run.result.Processed = append(run.result.Processed, cur.out)
	return StepNextRow
}

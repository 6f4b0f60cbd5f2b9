package pipeline

import (
	"strconv"

	"github.com/sells-group/premises-cli/internal/model"
)

// formatOutput maps the row's resolved data onto the fixed export schema.
func (e *Engine) formatOutput(cur *rowState) Step {
	occupancy := ""
	if cur.selected != nil {
		occupancy = cur.selected.Name
	}

	stateCode := cur.stateCode
	if stateCode == "" {
		stateCode = cur.stdAddr.StateCode
	}

	cur.out = model.OutputRecord{
		PremiseName:      cur.stdName,
		AddressLine1:     cur.stdAddr.AddressLine1,
		PostalCode:       cur.stdAddr.PostalCode,
		Status:           model.StatusActive,
		RecordType:       model.DefaultRecordType,
		Country:          model.DefaultCountry,
		State:            stateCode,
		City:             cur.stdAddr.City,
		Communication:    model.DefaultCommunication,
		PremiseOccupancy: occupancy,
		Latitude:         formatCoord(cur.lat),
		Longitude:        formatCoord(cur.lng),
		HasKnoxBox:       model.DefaultKnoxBox,
		GeofenceAssign:   model.DefaultGeofenceAssign,
		CountryShort:     model.DefaultCountryShort,
		ConfidenceScore:  cur.confidence,
		DuplicateChecked: cur.confidence != nil,
	}

	// Any transient note from classification is superseded by validation.
	cur.errMsg = ""
	return StepVerifyOutput
}

func formatCoord(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

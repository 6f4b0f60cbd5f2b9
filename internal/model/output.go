package model

import "strconv"

// Static defaults applied by the output formatter.
const (
	StatusActive          = "Active"
	StatusInactive        = "Inactive"
	DefaultRecordType     = "Standard"
	DefaultCountry        = "USA"
	DefaultCountryShort   = "US"
	DefaultCommunication  = "Email"
	DefaultKnoxBox        = "No"
	DefaultGeofenceAssign = "No"
)

// OutputHeader is the fixed export column order. The trailing underscore
// columns are evaluation metadata and are not part of the persisted schema
// consumed by downstream systems.
var OutputHeader = []string{
	"Id",
	"Reference Number",
	"Unique Reference Number",
	"Building Number",
	"Premise Name",
	"Address Line 1",
	"Address Line 2",
	"Postal Code",
	"Status",
	"AHJ Name",
	"AHJ Geofence Name",
	"Record Type",
	"Country",
	"State",
	"City",
	"System Type",
	"Internal System Type",
	"Preferred Communication Type",
	"Parent Premises",
	"Premise Occupancy",
	"Contact Name",
	"Contact Email",
	"Contact Number",
	"Latitude",
	"Longitude",
	"Fire Station Number",
	"Has Knox Box",
	"Knox Box Location",
	"Knox Box Description",
	"Enable Geofence Auto Assign",
	"Country ShortName",
	"Parent Reference",
	"Labels",
	"_confidence_score",
	"_duplicate_checked",
}

// OutputRecord is one processed premises row in the fixed export schema.
// Columns with no source in this pipeline (Id, reference numbers, AHJ,
// contact and Knox Box fields) are emitted empty for downstream systems.
type OutputRecord struct {
	PremiseName      string
	AddressLine1     string
	PostalCode       string
	Status           string
	RecordType       string
	Country          string
	State            string
	City             string
	Communication    string
	PremiseOccupancy string
	Latitude         string
	Longitude        string
	HasKnoxBox       string
	GeofenceAssign   string
	CountryShort     string

	// Evaluation metadata, written as the two trailing columns.
	ConfidenceScore  *int
	DuplicateChecked bool
}

// Record renders the output record in OutputHeader order.
func (r OutputRecord) Record() []string {
	score := ""
	if r.ConfidenceScore != nil {
		score = strconv.Itoa(*r.ConfidenceScore)
	}
	return []string{
		"", // Id
		"", // Reference Number
		"", // Unique Reference Number
		"", // Building Number
		r.PremiseName,
		r.AddressLine1,
		"", // Address Line 2
		r.PostalCode,
		r.Status,
		"", // AHJ Name
		"", // AHJ Geofence Name
		r.RecordType,
		r.Country,
		r.State,
		r.City,
		"", // System Type
		"", // Internal System Type
		r.Communication,
		"", // Parent Premises
		r.PremiseOccupancy,
		"", // Contact Name
		"", // Contact Email
		"", // Contact Number
		r.Latitude,
		r.Longitude,
		"", // Fire Station Number
		r.HasKnoxBox,
		"", // Knox Box Location
		"", // Knox Box Description
		r.GeofenceAssign,
		r.CountryShort,
		"", // Parent Reference
		"", // Labels
		score,
		strconv.FormatBool(r.DuplicateChecked),
	}
}

// OutputRecordFromRow rebuilds the validated subset of an OutputRecord from a
// CSV header and row, for re-validating an existing processed file. Columns
// missing from the header are left empty.
func OutputRecordFromRow(header, row []string) OutputRecord {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	get := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	return OutputRecord{
		PremiseName:      get("Premise Name"),
		AddressLine1:     get("Address Line 1"),
		PostalCode:       get("Postal Code"),
		Status:           get("Status"),
		RecordType:       get("Record Type"),
		Country:          get("Country"),
		State:            get("State"),
		City:             get("City"),
		Communication:    get("Preferred Communication Type"),
		PremiseOccupancy: get("Premise Occupancy"),
		Latitude:         get("Latitude"),
		Longitude:        get("Longitude"),
		HasKnoxBox:       get("Has Knox Box"),
		GeofenceAssign:   get("Enable Geofence Auto Assign"),
		CountryShort:     get("Country ShortName"),
	}
}

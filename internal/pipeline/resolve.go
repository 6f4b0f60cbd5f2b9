package pipeline

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/premises-cli/pkg/places"
)

// validStateCodes holds the fifty US states plus DC.
var validStateCodes = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true,
	"CO": true, "CT": true, "DE": true, "FL": true, "GA": true,
	"HI": true, "ID": true, "IL": true, "IN": true, "IA": true,
	"KS": true, "KY": true, "LA": true, "ME": true, "MD": true,
	"MA": true, "MI": true, "MN": true, "MS": true, "MO": true,
	"MT": true, "NE": true, "NV": true, "NH": true, "NJ": true,
	"NM": true, "NY": true, "NC": true, "ND": true, "OH": true,
	"OK": true, "OR": true, "PA": true, "RI": true, "SC": true,
	"SD": true, "TN": true, "TX": true, "UT": true, "VT": true,
	"VA": true, "WA": true, "WV": true, "WI": true, "WY": true,
	"DC": true,
}

// nonBusinessTypes are place types that describe an address or area rather
// than a business. A candidate whose types are all in this set is treated
// as an address-only result.
var nonBusinessTypes = map[string]bool{
	"street_address": true, "route": true, "intersection": true,
	"political": true, "country": true,
	"administrative_area_level_1": true, "administrative_area_level_2": true,
	"administrative_area_level_3": true, "administrative_area_level_4": true,
	"administrative_area_level_5": true,
	"locality": true, "sublocality": true, "neighborhood": true,
	"premise": true, "subpremise": true, "postal_code": true,
	"natural_feature": true, "airport": true, "park": true,
	"point_of_interest": true,
}

// placesSearch validates the row's address, geocodes it, and looks for a
// business at the location. The geocoded coordinates are always kept for
// duplicate detection, even when a place candidate is found.
func (e *Engine) placesSearch(ctx context.Context, cur *rowState) Step {
	address := cur.row.Address
	city := cur.row.City
	stateCode := strings.ToUpper(cur.row.State)

	if address == "" || city == "" || stateCode == "" {
		cur.errMsg = "Incomplete address information"
		return StepErrorHandler
	}
	if !validStateCodes[stateCode] {
		cur.errMsg = fmt.Sprintf("Invalid US state code: %s", stateCode)
		return StepErrorHandler
	}

	geo, err := e.places.Geocode(ctx, places.AddressInput{
		Address: address,
		City:    city,
		State:   stateCode,
	})
	if err != nil {
		zap.L().Error("geocode failed", zap.String("address", address), zap.Error(err))
		cur.errMsg = fmt.Sprintf("Address lookup failed: %s, %s, %s", address, city, stateCode)
		return StepErrorHandler
	}
	if geo == nil {
		cur.errMsg = fmt.Sprintf("Address not found: %s, %s, %s", address, city, stateCode)
		return StepErrorHandler
	}

	// Duplicate detection always uses the geocoded point, not the
	// candidate's own coordinates.
	cur.lat = geo.Latitude
	cur.lng = geo.Longitude

	query := fmt.Sprintf("%s, %s, %s", address, city, stateCode)
	if cur.row.Name != "" {
		query = fmt.Sprintf("%s, %s", cur.row.Name, query)
	}

	cand, err := e.places.SearchPlace(ctx, query, geo.Latitude, geo.Longitude)
	if err != nil {
		// A failed search degrades to the geocoded address; the row is
		// still importable.
		zap.L().Warn("place search failed", zap.String("query", query), zap.Error(err))
		cand = nil
	}

	// Places sometimes returns a same-named business far from the address.
	if cand != nil && cand.Latitude != 0 && cand.Longitude != 0 {
		dist := math.Sqrt(math.Pow(cand.Latitude-geo.Latitude, 2) + math.Pow(cand.Longitude-geo.Longitude, 2))
		if dist > e.cfg.PlaceMaxDistanceDegrees {
			zap.L().Debug("candidate too far from geocoded point",
				zap.String("query", query),
				zap.Float64("distance_degrees", dist),
			)
			cand = nil
		}
	}

	if cand != nil && !addressOnly(cand.Types) {
		cur.place = cand
		cur.placeFound = true
		cur.placesType = firstType(cand.Types)
		return StepStandardize
	}

	// Address-only or no candidate: keep the user's name with the
	// geocoded address under a synthetic premise type.
	cur.place = &places.Candidate{
		Name:             cur.row.Name,
		FormattedAddress: geo.FormattedAddress,
		Latitude:         geo.Latitude,
		Longitude:        geo.Longitude,
		Types:            []string{"premise"},
		Components:       geo.Components,
	}
	cur.placeFound = true
	cur.placesType = "premise"
	return StepStandardize
}

func addressOnly(types []string) bool {
	if len(types) == 0 {
		return false
	}
	for _, t := range types {
		if !nonBusinessTypes[t] {
			return false
		}
	}
	return true
}

func firstType(types []string) string {
	if len(types) == 0 {
		return "establishment"
	}
	return types[0]
}

package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/premises-cli/internal/records"
	"github.com/sells-group/premises-cli/internal/scorer"
	"github.com/sells-group/premises-cli/pkg/places"
)

// Compile-time interface checks.
var (
	_ places.Client     = (*StubPlacesClient)(nil)
	_ scorer.Confidence = (*StubConfidence)(nil)
	_ scorer.Occupancy  = (*StubOccupancy)(nil)
)

// --- Places Stub ---

// StubPlacesClient implements places.Client with a canned dataset of
// Northern California addresses, for offline runs and tests.
type StubPlacesClient struct{}

type stubPlace struct {
	nameHints    []string // any hint matching the query selects this place
	addressHints []string // any hint matching the geocode input selects it
	name         string
	formatted    string
	lat, lng     float64
	types        []string
	components   []places.AddressComponent
}

func caComponents(number, route, routeShort, city, postal string) []places.AddressComponent {
	return []places.AddressComponent{
		{LongName: number, ShortName: number, Types: []string{"street_number"}},
		{LongName: route, ShortName: routeShort, Types: []string{"route"}},
		{LongName: city, ShortName: city, Types: []string{"locality"}},
		{LongName: "California", ShortName: "CA", Types: []string{"administrative_area_level_1"}},
		{LongName: postal, ShortName: postal, Types: []string{"postal_code"}},
	}
}

var stubPlaces = []stubPlace{
	{
		nameHints:    []string{"mountain valley homes"},
		addressHints: []string{"1375 grass valley", "grass valley highway"},
		name:         "Mountain Valley Homes",
		formatted:    "1375 Grass Valley Highway, Auburn, CA 95603, USA",
		lat:          38.9352, lng: -121.0933,
		types:      []string{"real_estate_agency", "point_of_interest", "establishment"},
		components: caComponents("1375", "Grass Valley Highway", "Grass Valley Hwy", "Auburn", "95603"),
	},
	{
		nameHints:    []string{"victor downin"},
		addressHints: []string{"6020 kenneth way"},
		name:         "Victor Downin Hauling & Tractor",
		formatted:    "6020 Kenneth Way, Auburn, CA 95602, USA",
		lat:          38.9118, lng: -121.0625,
		types:      []string{"moving_company", "point_of_interest", "establishment"},
		components: caComponents("6020", "Kenneth Way", "Kenneth Way", "Auburn", "95602"),
	},
	{
		nameHints:    []string{"nicoles creative"},
		addressHints: []string{"9540 littoral"},
		name:         "Nicoles Creative Designs",
		formatted:    "9540 Littoral St, Roseville, CA 95747, USA",
		lat:          38.7821, lng: -121.2880,
		types:      []string{"store", "point_of_interest", "establishment"},
		components: caComponents("9540", "Littoral Street", "Littoral St", "Roseville", "95747"),
	},
	{
		nameHints:    []string{"schenes"},
		addressHints: []string{"1860 millertown"},
		name:         "Schenes",
		formatted:    "1860 Millertown Rd, Auburn, CA 95603, USA",
		lat:          38.8977, lng: -121.0767,
		types:      []string{"store", "point_of_interest", "establishment"},
		components: caComponents("1860", "Millertown Road", "Millertown Rd", "Auburn", "95603"),
	},
	{
		nameHints: []string{"gold country veterinary"},
		name:      "Gold Country Veterinary Hospital",
		formatted: "3130 Professional Dr # C And D, Auburn, CA 95603, USA",
		lat:       38.9234, lng: -121.0712,
		types:      []string{"veterinary_care", "point_of_interest", "establishment"},
		components: caComponents("3130", "Professional Drive", "Professional Dr", "Auburn", "95603"),
	},
	{
		nameHints: []string{"dm consulting"},
		name:      "Dm Consulting & Tax Service",
		formatted: "9821 Sword Dancer Dr, Roseville, CA 95747, USA",
		lat:       38.7654, lng: -121.2956,
		types:      []string{"accounting", "point_of_interest", "establishment"},
		components: caComponents("9821", "Sword Dancer Drive", "Sword Dancer Dr", "Roseville", "95747"),
	},
}

// invalidHints mark addresses and names the stub treats as nonexistent.
var invalidHints = []string{"fake", "imaginary", "nowhereville", "fantasyland", "fictional", "acme corp"}

func (s *StubPlacesClient) Geocode(_ context.Context, addr places.AddressInput) (*places.GeocodeResult, error) {
	full := strings.ToLower(addr.Address + ", " + addr.City + ", " + addr.State)

	for _, hint := range invalidHints {
		if strings.Contains(full, hint) {
			return nil, nil
		}
	}
	for _, p := range stubPlaces {
		for _, hint := range p.addressHints {
			if strings.Contains(full, hint) {
				return &places.GeocodeResult{
					Latitude:         p.lat,
					Longitude:        p.lng,
					FormattedAddress: p.formatted,
					Components:       p.components,
				}, nil
			}
		}
	}
	return nil, nil
}

func (s *StubPlacesClient) SearchPlace(_ context.Context, query string, _, _ float64) (*places.Candidate, error) {
	queryLower := strings.ToLower(query)

	for _, hint := range invalidHints {
		if strings.Contains(queryLower, hint) {
			return nil, nil
		}
	}
	for _, p := range stubPlaces {
		for _, hint := range p.nameHints {
			if strings.Contains(queryLower, hint) {
				return &places.Candidate{
					PlaceID:          "stub_" + strings.ReplaceAll(hint, " ", "_"),
					Name:             p.name,
					FormattedAddress: p.formatted,
					Latitude:         p.lat,
					Longitude:        p.lng,
					Types:            p.types,
					Components:       p.components,
				}, nil
			}
		}
	}
	return nil, nil
}

var errNoOptions = eris.New("pipeline: no occupancy options")

// --- Confidence Stub ---

// StubConfidence scores duplicate confidence with a deterministic name
// heuristic instead of a model call.
type StubConfidence struct{}

func (s *StubConfidence) Score(_ context.Context, req scorer.ScoreRequest, existing records.Premise) (int, error) {
	a := normalizeName(req.Name)
	b := normalizeName(existing.PremiseName)

	switch {
	case a == b:
		return 10, nil
	case a != "" && b != "" && (strings.Contains(a, b) || strings.Contains(b, a)):
		return 7, nil
	default:
		return 2, nil
	}
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, cut := range []string{",", ".", "'", "\""} {
		s = strings.ReplaceAll(s, cut, "")
	}
	return strings.Join(strings.Fields(s), " ")
}

// --- Occupancy Stub ---

// StubOccupancy maps place types onto occupancy categories by name, falling
// back to the first option.
type StubOccupancy struct{}

var stubTypeCategories = map[string]string{
	"store":              "Mercantile",
	"department_store":   "Mercantile",
	"electronics_store":  "Mercantile",
	"accounting":         "Business",
	"real_estate_agency": "Business",
	"moving_company":     "Business",
	"veterinary_care":    "Business",
	"cafe":               "Assembly",
	"restaurant":         "Assembly",
	"premise":            "Residential",
}

func (s *StubOccupancy) Classify(_ context.Context, placesType, _ string, options []records.Category) (int64, error) {
	if len(options) == 0 {
		return 0, errNoOptions
	}
	if want, ok := stubTypeCategories[placesType]; ok {
		for _, opt := range options {
			if strings.EqualFold(opt.Name, want) {
				return opt.ID, nil
			}
		}
	}
	return options[0].ID, nil
}

package records

import (
	"context"
	"math"
	"sort"
	"strings"
)

// FixtureStore is an in-memory Store with canned data for offline runs and
// demos. It mirrors the query semantics of the SQL-backed stores.
type FixtureStore struct {
	states     []State
	premises   []Premise
	categories map[string][]Category // state code → categories
}

// NewFixture returns a FixtureStore seeded with a small California dataset.
func NewFixture() *FixtureStore {
	states := []State{
		{ID: 1, Name: "California", Code: "CA"},
		{ID: 2, Name: "Nevada", Code: "NV"},
		{ID: 3, Name: "Oregon", Code: "OR"},
	}
	premises := []Premise{
		{
			ID:           5001,
			PremiseName:  "Mountain Valley Homes",
			AddressLine1: "1375 Grass Valley Highway",
			Latitude:     38.9352,
			Longitude:    -121.0933,
			PostalCode:   "95603",
			StateID:      1,
		},
		{
			ID:           5002,
			PremiseName:  "Auburn Town Center",
			AddressLine1: "350 Nevada Street",
			Latitude:     38.9043,
			Longitude:    -121.0690,
			PostalCode:   "95603",
			StateID:      1,
		},
		{
			ID:           5003,
			PremiseName:  "Roseville Commerce Park",
			AddressLine1: "9500 Littoral Street",
			Latitude:     38.7824,
			Longitude:    -121.2877,
			PostalCode:   "95747",
			StateID:      1,
		},
	}
	caCategories := []Category{
		{ID: 101, Name: "Assembly", AhjID: 11},
		{ID: 102, Name: "Business", AhjID: 11},
		{ID: 103, Name: "Educational", AhjID: 11},
		{ID: 104, Name: "Industrial", AhjID: 11},
		{ID: 105, Name: "Mercantile", AhjID: 11},
		{ID: 106, Name: "Residential", AhjID: 11},
		{ID: 107, Name: "Storage", AhjID: 11},
	}
	return &FixtureStore{
		states:   states,
		premises: premises,
		categories: map[string][]Category{
			"CA": caCategories,
		},
	}
}

// AddPremise appends a premises row. Intended for tests.
func (s *FixtureStore) AddPremise(p Premise) {
	s.premises = append(s.premises, p)
}

// AddState appends a state row. Intended for tests.
func (s *FixtureStore) AddState(st State) {
	s.states = append(s.states, st)
}

// SetCategories replaces the categories for a state code. Intended for tests.
func (s *FixtureStore) SetCategories(stateCode string, cats []Category) {
	if s.categories == nil {
		s.categories = make(map[string][]Category)
	}
	s.categories[stateCode] = cats
}

func (s *FixtureStore) QueryNearby(_ context.Context, lat, lng float64, stateID *int64, radiusDeg float64) ([]Premise, error) {
	var out []Premise
	for _, p := range s.premises {
		if stateID != nil && p.StateID != *stateID {
			continue
		}
		if math.Abs(p.Latitude-lat) >= radiusDeg || math.Abs(p.Longitude-lng) >= radiusDeg {
			continue
		}
		p.Distance = math.Sqrt(math.Pow(p.Latitude-lat, 2) + math.Pow(p.Longitude-lng, 2))
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > maxNearby {
		out = out[:maxNearby]
	}
	return out, nil
}

func (s *FixtureStore) GetStateByCode(_ context.Context, code string) (*State, error) {
	for _, st := range s.states {
		if st.Code == code {
			copied := st
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *FixtureStore) GetStateByName(_ context.Context, name string) (*State, error) {
	for _, st := range s.states {
		if strings.EqualFold(st.Name, name) {
			copied := st
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *FixtureStore) GetPremiseByID(_ context.Context, id int64) (*Premise, error) {
	for _, p := range s.premises {
		if p.ID == id {
			copied := p
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *FixtureStore) ListCategoriesForState(_ context.Context, stateCode string) ([]Category, error) {
	return s.categories[stateCode], nil
}

func (s *FixtureStore) Ping(_ context.Context) error { return nil }

func (s *FixtureStore) Close() error { return nil }

var _ Store = (*FixtureStore)(nil)
var _ Store = (*SQLiteStore)(nil)
var _ Store = (*PostgresStore)(nil)

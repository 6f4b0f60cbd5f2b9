package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/premises-cli/internal/input"
	"github.com/sells-group/premises-cli/internal/records"
	"github.com/sells-group/premises-cli/internal/scorer"
	"github.com/sells-group/premises-cli/pkg/places"
)

func rawRow(name, address, city, state, postal string) input.RawRow {
	return input.RawRow{
		"Business Name": name,
		"Address":       address,
		"City":          city,
		"State":         state,
		"Zip":           postal,
	}
}

var caComponentsFixture = []places.AddressComponent{
	{LongName: "11701", ShortName: "11701", Types: []string{"street_number"}},
	{LongName: "Willow Valley Road", ShortName: "Willow Valley Rd", Types: []string{"route"}},
	{LongName: "Nevada City", ShortName: "Nevada City", Types: []string{"locality", "political"}},
	{LongName: "California", ShortName: "CA", Types: []string{"administrative_area_level_1", "political"}},
	{LongName: "95959", ShortName: "95959", Types: []string{"postal_code"}},
}

func geocodeFixture() *places.GeocodeResult {
	return &places.GeocodeResult{
		Latitude:         39.2516,
		Longitude:        -121.0183,
		FormattedAddress: "11701 Willow Valley Rd, Nevada City, CA 95959, USA",
		Components:       caComponentsFixture,
	}
}

func businessCandidate() *places.Candidate {
	return &places.Candidate{
		PlaceID:          "place_123",
		Name:             "Willow Valley Market",
		FormattedAddress: "11701 Willow Valley Rd, Nevada City, CA 95959, USA",
		Latitude:         39.2517,
		Longitude:        -121.0184,
		Types:            []string{"grocery_or_supermarket", "store", "establishment"},
		Components:       caComponentsFixture,
	}
}

var caCategories = []records.Category{
	{ID: 101, Name: "Assembly", AhjID: 11},
	{ID: 105, Name: "Mercantile", AhjID: 11},
	{ID: 106, Name: "Residential", AhjID: 11},
}

type engineMocks struct {
	places     *mockPlacesClient
	store      *mockStore
	confidence *mockConfidence
	occupancy  *mockOccupancy
}

func newTestEngine() (*Engine, *engineMocks) {
	m := &engineMocks{
		places:     new(mockPlacesClient),
		store:      new(mockStore),
		confidence: new(mockConfidence),
		occupancy:  new(mockOccupancy),
	}
	return NewEngine(m.places, m.store, m.confidence, m.occupancy, DefaultConfig()), m
}

func TestRun_HappyPath(t *testing.T) {
	engine, m := newTestEngine()

	m.places.On("Geocode", mock.Anything, mock.Anything).Return(geocodeFixture(), nil)
	m.places.On("SearchPlace", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(businessCandidate(), nil)
	m.store.On("GetStateByCode", mock.Anything, "CA").Return(&records.State{ID: 1, Name: "California", Code: "CA"}, nil)
	m.store.On("QueryNearby", mock.Anything, 39.2516, -121.0183, mock.Anything, 0.001).
		Return([]records.Premise{}, nil)
	m.store.On("ListCategoriesForState", mock.Anything, "CA").Return(caCategories, nil)
	m.occupancy.On("Classify", mock.Anything, "grocery_or_supermarket", "Willow Valley Market", caCategories).
		Return(int64(105), nil)

	result, err := engine.Run(context.Background(), []input.RawRow{
		rawRow("Willow Valley Market", "11701 Willow Valley Rd", "Nevada City", "CA", "95959"),
	})
	require.NoError(t, err)
	require.Len(t, result.Processed, 1)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Duplicates)

	rec := result.Processed[0]
	assert.Equal(t, "Willow Valley Market", rec.PremiseName)
	assert.Equal(t, "11701 Willow Valley Road", rec.AddressLine1)
	assert.Equal(t, "Nevada City", rec.City)
	assert.Equal(t, "CA", rec.State)
	assert.Equal(t, "95959", rec.PostalCode)
	assert.Equal(t, "Active", rec.Status)
	assert.Equal(t, "Mercantile", rec.PremiseOccupancy)
	assert.Equal(t, "39.2516", rec.Latitude)
	assert.Equal(t, "-121.0183", rec.Longitude)
	assert.Nil(t, rec.ConfidenceScore)
	assert.False(t, rec.DuplicateChecked)

	m.confidence.AssertNotCalled(t, "Score", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_IncompleteAddress(t *testing.T) {
	engine, m := newTestEngine()

	result, err := engine.Run(context.Background(), []input.RawRow{
		rawRow("Some Business", "", "Nevada City", "CA", "95959"),
	})
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Incomplete address information", result.Errors[0].Reason)
	assert.Equal(t, "Some Business", result.Errors[0].Name)

	m.places.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything)
}

func TestRun_InvalidStateCode(t *testing.T) {
	engine, m := newTestEngine()

	result, err := engine.Run(context.Background(), []input.RawRow{
		rawRow("Some Business", "123 Main St", "Springfield", "ZZ", "12345"),
	})
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Invalid US state code: ZZ", result.Errors[0].Reason)

	m.places.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything)
}

func TestRun_AddressNotFound(t *testing.T) {
	engine, m := newTestEngine()

	m.places.On("Geocode", mock.Anything, mock.Anything).Return(nil, nil)

	result, err := engine.Run(context.Background(), []input.RawRow{
		rawRow("Ghost Business", "1 Nowhere Ln", "Nowhereville", "CA", "00000"),
	})
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Address not found: 1 Nowhere Ln, Nowhereville, CA", result.Errors[0].Reason)
}

func TestRun_GeocodeTransportError(t *testing.T) {
	engine, m := newTestEngine()

	m.places.On("Geocode", mock.Anything, mock.Anything).Return(nil, eris.New("places: geocode request"))

	result, err := engine.Run(context.Background(), []input.RawRow{
		rawRow("Some Business", "123 Main St", "Auburn", "CA", "95603"),
	})
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Address lookup failed: 123 Main St, Auburn, CA", result.Errors[0].Reason)
}

func TestRun_DuplicateDetected(t *testing.T) {
	engine, m := newTestEngine()

	existing := records.Premise{
		ID:           5001,
		PremiseName:  "Willow Valley Market",
		AddressLine1: "11701 Willow Valley Rd",
		Latitude:     39.2516,
		Longitude:    -121.0183,
	}

	m.places.On("Geocode", mock.Anything, mock.Anything).Return(geocodeFixture(), nil)
	m.places.On("SearchPlace", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(businessCandidate(), nil)
	m.store.On("GetStateByCode", mock.Anything, "CA").Return(&records.State{ID: 1, Name: "California", Code: "CA"}, nil)
	m.store.On("QueryNearby", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]records.Premise{existing}, nil)
	m.confidence.On("Score", mock.Anything, mock.Anything, existing).Return(9, nil)

	result, err := engine.Run(context.Background(), []input.RawRow{
		rawRow("Willow Valley Market", "11701 Willow Valley Rd", "Nevada City", "CA", "95959"),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Processed)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Duplicates, 1)

	dup := result.Duplicates[0]
	assert.Equal(t, "Willow Valley Market", dup.SourceName)
	assert.Equal(t, int64(5001), dup.MatchedPremiseID)
	assert.Equal(t, 9, dup.ConfidenceScore)
	assert.Equal(t, "High confidence match (score: 9)", dup.Reason)

	m.occupancy.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_LowConfidencePassesThrough(t *testing.T) {
	engine, m := newTestEngine()

	existing := records.Premise{ID: 5002, PremiseName: "Different Market"}

	m.places.On("Geocode", mock.Anything, mock.Anything).Return(geocodeFixture(), nil)
	m.places.On("SearchPlace", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(businessCandidate(), nil)
	m.store.On("GetStateByCode", mock.Anything, "CA").Return(&records.State{ID: 1, Name: "California", Code: "CA"}, nil)
	m.store.On("QueryNearby", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]records.Premise{existing}, nil)
	m.confidence.On("Score", mock.Anything, mock.Anything, existing).Return(4, nil)
	m.store.On("ListCategoriesForState", mock.Anything, "CA").Return(caCategories, nil)
	m.occupancy.On("Classify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(int64(105), nil)

	result, err := engine.Run(context.Background(), []input.RawRow{
		rawRow("Willow Valley Market", "11701 Willow Valley Rd", "Nevada City", "CA", "95959"),
	})
	require.NoError(t, err)
	require.Len(t, result.Processed, 1)
	assert.Empty(t, result.Duplicates)

	rec := result.Processed[0]
	require.NotNil(t, rec.ConfidenceScore)
	assert.Equal(t, 4, *rec.ConfidenceScore)
	assert.True(t, rec.DuplicateChecked)
}

func TestRun_ScorerFailureDegradesConservatively(t *testing.T) {
	engine, m := newTestEngine()

	existing := records.Premise{ID: 5003, PremiseName: "Another Market"}

	m.places.On("Geocode", mock.Anything, mock.Anything).Return(geocodeFixture(), nil)
	m.places.On("SearchPlace", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(businessCandidate(), nil)
	m.store.On("GetStateByCode", mock.Anything, "CA").Return(&records.State{ID: 1, Name: "California", Code: "CA"}, nil)
	m.store.On("QueryNearby", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]records.Premise{existing}, nil)
	m.confidence.On("Score", mock.Anything, mock.Anything, existing).
		Return(0, eris.New("anthropic: create message"))
	m.store.On("ListCategoriesForState", mock.Anything, "CA").Return(caCategories, nil)
	m.occupancy.On("Classify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(int64(101), nil)

	result, err := engine.Run(context.Background(), []input.RawRow{
		rawRow("Willow Valley Market", "11701 Willow Valley Rd", "Nevada City", "CA", "95959"),
	})
	require.NoError(t, err)
	require.Len(t, result.Processed, 1)

	rec := result.Processed[0]
	require.NotNil(t, rec.ConfidenceScore)
	assert.Equal(t, scorer.ConservativeScore, *rec.ConfidenceScore)
	assert.True(t, rec.DuplicateChecked)
}

func TestRun_ClassifierFailureFallsBackToFirstCategory(t *testing.T) {
	engine, m := newTestEngine()

	m.places.On("Geocode", mock.Anything, mock.Anything).Return(geocodeFixture(), nil)
	m.places.On("SearchPlace", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(businessCandidate(), nil)
	m.store.On("GetStateByCode", mock.Anything, "CA").Return(&records.State{ID: 1, Name: "California", Code: "CA"}, nil)
	m.store.On("QueryNearby", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]records.Premise{}, nil)
	m.store.On("ListCategoriesForState", mock.Anything, "CA").Return(caCategories, nil)
	m.occupancy.On("Classify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(int64(0), eris.New("anthropic: create message"))

	result, err := engine.Run(context.Background(), []input.RawRow{
		rawRow("Willow Valley Market", "11701 Willow Valley Rd", "Nevada City", "CA", "95959"),
	})
	require.NoError(t, err)
	require.Len(t, result.Processed, 1)
	assert.Equal(t, "Assembly", result.Processed[0].PremiseOccupancy)
}

func TestRun_NoCategoriesFailsValidation(t *testing.T) {
	engine, m := newTestEngine()

	m.places.On("Geocode", mock.Anything, mock.Anything).Return(geocodeFixture(), nil)
	m.places.On("SearchPlace", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(businessCandidate(), nil)
	m.store.On("GetStateByCode", mock.Anything, "CA").Return(&records.State{ID: 1, Name: "California", Code: "CA"}, nil)
	m.store.On("QueryNearby", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]records.Premise{}, nil)
	m.store.On("ListCategoriesForState", mock.Anything, "CA").Return([]records.Category{}, nil)

	result, err := engine.Run(context.Background(), []input.RawRow{
		rawRow("Willow Valley Market", "11701 Willow Valley Rd", "Nevada City", "CA", "95959"),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Processed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Reason, "Output validation failed")
	assert.Contains(t, result.Errors[0].Reason, "Missing required field: Premise Occupancy")

	m.occupancy.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_PlaceSearchFailureDegradesToGeocode(t *testing.T) {
	engine, m := newTestEngine()

	m.places.On("Geocode", mock.Anything, mock.Anything).Return(geocodeFixture(), nil)
	m.places.On("SearchPlace", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, eris.New("places: find place request"))
	m.store.On("GetStateByCode", mock.Anything, "CA").Return(&records.State{ID: 1, Name: "California", Code: "CA"}, nil)
	m.store.On("QueryNearby", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]records.Premise{}, nil)
	m.store.On("ListCategoriesForState", mock.Anything, "CA").Return(caCategories, nil)
	m.occupancy.On("Classify", mock.Anything, "premise", mock.Anything, caCategories).
		Return(int64(106), nil)

	result, err := engine.Run(context.Background(), []input.RawRow{
		rawRow("quiet hillside cabin", "11701 Willow Valley Rd", "Nevada City", "CA", "95959"),
	})
	require.NoError(t, err)
	require.Len(t, result.Processed, 1)

	// The synthetic candidate carries the user's name through verbatim.
	rec := result.Processed[0]
	assert.Equal(t, "quiet hillside cabin", rec.PremiseName)
	assert.Equal(t, "Residential", rec.PremiseOccupancy)
}

func TestRun_FarCandidateDropped(t *testing.T) {
	engine, m := newTestEngine()

	far := businessCandidate()
	far.Name = "Willow Valley Market of Los Angeles"
	far.Latitude = 34.0522
	far.Longitude = -118.2437

	m.places.On("Geocode", mock.Anything, mock.Anything).Return(geocodeFixture(), nil)
	m.places.On("SearchPlace", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(far, nil)
	m.store.On("GetStateByCode", mock.Anything, "CA").Return(&records.State{ID: 1, Name: "California", Code: "CA"}, nil)
	m.store.On("QueryNearby", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]records.Premise{}, nil)
	m.store.On("ListCategoriesForState", mock.Anything, "CA").Return(caCategories, nil)
	m.occupancy.On("Classify", mock.Anything, "premise", mock.Anything, caCategories).
		Return(int64(106), nil)

	result, err := engine.Run(context.Background(), []input.RawRow{
		rawRow("Willow Valley Market", "11701 Willow Valley Rd", "Nevada City", "CA", "95959"),
	})
	require.NoError(t, err)
	require.Len(t, result.Processed, 1)

	// The distant candidate is discarded, so the user's name survives.
	assert.Equal(t, "Willow Valley Market", result.Processed[0].PremiseName)
	assert.Equal(t, "39.2516", result.Processed[0].Latitude)
}

func TestRun_ZeroCoordinateSkipsNearbyQuery(t *testing.T) {
	engine, m := newTestEngine()

	geo := geocodeFixture()
	geo.Longitude = 0

	m.places.On("Geocode", mock.Anything, mock.Anything).Return(geo, nil)
	m.places.On("SearchPlace", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil)
	m.store.On("GetStateByCode", mock.Anything, "CA").
		Return(&records.State{ID: 1, Name: "California", Code: "CA"}, nil)
	m.store.On("ListCategoriesForState", mock.Anything, "CA").Return(caCategories, nil)
	m.occupancy.On("Classify", mock.Anything, "premise", mock.Anything, caCategories).
		Return(int64(106), nil)

	result, err := engine.Run(context.Background(), []input.RawRow{
		rawRow("Meridian Cafe", "11701 Willow Valley Rd", "Nevada City", "CA", "95959"),
	})
	require.NoError(t, err)

	m.store.AssertNotCalled(t, "QueryNearby",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Reason, "Missing required field: Longitude")
}

func TestRun_StoreFailure(t *testing.T) {
	engine, m := newTestEngine()

	m.places.On("Geocode", mock.Anything, mock.Anything).Return(geocodeFixture(), nil)
	m.places.On("SearchPlace", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(businessCandidate(), nil)
	m.store.On("GetStateByCode", mock.Anything, "CA").Return(nil, eris.New("records: query state"))

	result, err := engine.Run(context.Background(), []input.RawRow{
		rawRow("Willow Valley Market", "11701 Willow Valley Rd", "Nevada City", "CA", "95959"),
	})
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Database lookup failed", result.Errors[0].Reason)
}

func TestRun_MultiRowProcessesEveryRow(t *testing.T) {
	engine, m := newTestEngine()

	m.places.On("Geocode", mock.Anything, mock.Anything).Return(geocodeFixture(), nil)
	m.places.On("SearchPlace", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(businessCandidate(), nil)
	m.store.On("GetStateByCode", mock.Anything, "CA").Return(&records.State{ID: 1, Name: "California", Code: "CA"}, nil)
	m.store.On("QueryNearby", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]records.Premise{}, nil)
	m.store.On("ListCategoriesForState", mock.Anything, "CA").Return(caCategories, nil)
	m.occupancy.On("Classify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(int64(105), nil)

	rows := []input.RawRow{
		rawRow("First Market", "11701 Willow Valley Rd", "Nevada City", "CA", "95959"),
		rawRow("Second Market", "", "Nevada City", "CA", "95959"),
		rawRow("Third Market", "11701 Willow Valley Rd", "Nevada City", "CA", "95959"),
	}

	result, err := engine.Run(context.Background(), rows)
	require.NoError(t, err)

	// Every row lands in exactly one bucket, and the last row is not skipped.
	assert.Equal(t, len(rows), result.Total())
	assert.Len(t, result.Processed, 2)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Second Market", result.Errors[0].Name)
}

func TestRun_EmptyInput(t *testing.T) {
	engine, _ := newTestEngine()

	result, err := engine.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, result.Total())
}

func TestRun_ContextCancelled(t *testing.T) {
	engine, _ := newTestEngine()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Run(ctx, []input.RawRow{
		rawRow("Some Business", "123 Main St", "Auburn", "CA", "95603"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

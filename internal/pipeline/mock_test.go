package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/premises-cli/internal/records"
	"github.com/sells-group/premises-cli/internal/scorer"
	"github.com/sells-group/premises-cli/pkg/places"
)

// --- Places Mock ---

type mockPlacesClient struct {
	mock.Mock
}

func (m *mockPlacesClient) Geocode(ctx context.Context, addr places.AddressInput) (*places.GeocodeResult, error) {
	args := m.Called(ctx, addr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*places.GeocodeResult), args.Error(1)
}

func (m *mockPlacesClient) SearchPlace(ctx context.Context, query string, lat, lng float64) (*places.Candidate, error) {
	args := m.Called(ctx, query, lat, lng)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*places.Candidate), args.Error(1)
}

// --- Records Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) QueryNearby(ctx context.Context, lat, lng float64, stateID *int64, radiusDeg float64) ([]records.Premise, error) {
	args := m.Called(ctx, lat, lng, stateID, radiusDeg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]records.Premise), args.Error(1)
}

func (m *mockStore) GetStateByCode(ctx context.Context, code string) (*records.State, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*records.State), args.Error(1)
}

func (m *mockStore) GetStateByName(ctx context.Context, name string) (*records.State, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*records.State), args.Error(1)
}

func (m *mockStore) GetPremiseByID(ctx context.Context, id int64) (*records.Premise, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*records.Premise), args.Error(1)
}

func (m *mockStore) ListCategoriesForState(ctx context.Context, stateCode string) ([]records.Category, error) {
	args := m.Called(ctx, stateCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]records.Category), args.Error(1)
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

// --- Scorer Mocks ---

type mockConfidence struct {
	mock.Mock
}

func (m *mockConfidence) Score(ctx context.Context, req scorer.ScoreRequest, existing records.Premise) (int, error) {
	args := m.Called(ctx, req, existing)
	return args.Int(0), args.Error(1)
}

type mockOccupancy struct {
	mock.Mock
}

func (m *mockOccupancy) Classify(ctx context.Context, placesType, businessName string, options []records.Category) (int64, error) {
	args := m.Called(ctx, placesType, businessName, options)
	return args.Get(0).(int64), args.Error(1)
}

// Compile-time interface checks.
var (
	_ places.Client     = (*mockPlacesClient)(nil)
	_ records.Store     = (*mockStore)(nil)
	_ scorer.Confidence = (*mockConfidence)(nil)
	_ scorer.Occupancy  = (*mockOccupancy)(nil)
)

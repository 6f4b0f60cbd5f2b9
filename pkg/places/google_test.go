package places

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const geocodeOKBody = `{
	"status": "OK",
	"results": [{
		"formatted_address": "1375 Grass Valley Hwy, Auburn, CA 95603, USA",
		"geometry": {"location": {"lat": 38.9352, "lng": -121.0933}},
		"address_components": [
			{"long_name": "1375", "short_name": "1375", "types": ["street_number"]},
			{"long_name": "Grass Valley Highway", "short_name": "Grass Valley Hwy", "types": ["route"]},
			{"long_name": "Auburn", "short_name": "Auburn", "types": ["locality", "political"]},
			{"long_name": "California", "short_name": "CA", "types": ["administrative_area_level_1", "political"]},
			{"long_name": "95603", "short_name": "95603", "types": ["postal_code"]}
		]
	}]
}`

const findPlaceOKBody = `{
	"status": "OK",
	"candidates": [{
		"place_id": "place_abc",
		"name": "Mountain Valley Homes",
		"formatted_address": "1375 Grass Valley Hwy, Auburn, CA 95603, USA",
		"geometry": {"location": {"lat": 38.9352, "lng": -121.0933}},
		"types": ["real_estate_agency", "point_of_interest", "establishment"]
	}]
}`

const detailsOKBody = `{
	"status": "OK",
	"result": {
		"name": "Mountain Valley Homes",
		"formatted_address": "1375 Grass Valley Hwy, Auburn, CA 95603, USA",
		"geometry": {"location": {"lat": 38.9352, "lng": -121.0933}},
		"types": ["real_estate_agency", "point_of_interest", "establishment"],
		"address_components": [
			{"long_name": "1375", "short_name": "1375", "types": ["street_number"]},
			{"long_name": "Grass Valley Highway", "short_name": "Grass Valley Hwy", "types": ["route"]}
		]
	}
}`

func newTestClient(handler http.HandlerFunc) (Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient("test-key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	return client, srv
}

func TestGeocode_OK(t *testing.T) {
	var gotAddress string
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/geocode/json", r.URL.Path)
		gotAddress = r.URL.Query().Get("address")
		require.Equal(t, "test-key", r.URL.Query().Get("key"))
		fmt.Fprint(w, geocodeOKBody)
	})
	defer srv.Close()

	geo, err := client.Geocode(context.Background(), AddressInput{
		Address: "1375 Grass Valley Hwy",
		City:    "Auburn",
		State:   "CA",
	})
	require.NoError(t, err)
	require.NotNil(t, geo)
	assert.Equal(t, "1375 Grass Valley Hwy, Auburn, CA", gotAddress)
	assert.Equal(t, 38.9352, geo.Latitude)
	assert.Equal(t, -121.0933, geo.Longitude)
	assert.Equal(t, "1375 Grass Valley Hwy, Auburn, CA 95603, USA", geo.FormattedAddress)
	assert.Len(t, geo.Components, 5)
}

func TestGeocode_ZeroResults(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "ZERO_RESULTS", "results": []}`)
	})
	defer srv.Close()

	geo, err := client.Geocode(context.Background(), AddressInput{Address: "1 Nowhere Ln", City: "X", State: "CA"})
	require.NoError(t, err)
	assert.Nil(t, geo)
}

func TestGeocode_ErrorStatus(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "REQUEST_DENIED", "results": []}`)
	})
	defer srv.Close()

	_, err := client.Geocode(context.Background(), AddressInput{Address: "1 Main St", City: "Auburn", State: "CA"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
}

func TestGeocode_HTTPError(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})
	defer srv.Close()

	_, err := client.Geocode(context.Background(), AddressInput{Address: "1 Main St", City: "Auburn", State: "CA"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}

func TestSearchPlace_EnrichedWithDetails(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/place/findplacefromtext/json":
			assert.Equal(t, "Mountain Valley Homes, Auburn, CA", r.URL.Query().Get("input"))
			assert.Equal(t, "textquery", r.URL.Query().Get("inputtype"))
			assert.Contains(t, r.URL.Query().Get("locationbias"), "circle:50000@")
			fmt.Fprint(w, findPlaceOKBody)
		case "/place/details/json":
			assert.Equal(t, "place_abc", r.URL.Query().Get("place_id"))
			fmt.Fprint(w, detailsOKBody)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	defer srv.Close()

	cand, err := client.SearchPlace(context.Background(), "Mountain Valley Homes, Auburn, CA", 38.9352, -121.0933)
	require.NoError(t, err)
	require.NotNil(t, cand)
	assert.Equal(t, "place_abc", cand.PlaceID)
	assert.Equal(t, "Mountain Valley Homes", cand.Name)
	assert.Len(t, cand.Components, 2)
}

func TestSearchPlace_DetailsFailureNonFatal(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/place/findplacefromtext/json":
			fmt.Fprint(w, findPlaceOKBody)
		case "/place/details/json":
			http.Error(w, "details down", http.StatusInternalServerError)
		}
	})
	defer srv.Close()

	cand, err := client.SearchPlace(context.Background(), "Mountain Valley Homes", 38.9352, -121.0933)
	require.NoError(t, err)
	require.NotNil(t, cand)
	assert.Equal(t, "Mountain Valley Homes", cand.Name)
	// Without the details response there are no components.
	assert.Empty(t, cand.Components)
}

func TestSearchPlace_NoCandidates(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "ZERO_RESULTS", "candidates": []}`)
	})
	defer srv.Close()

	cand, err := client.SearchPlace(context.Background(), "Nothing Here", 0, 0)
	require.NoError(t, err)
	assert.Nil(t, cand)
}

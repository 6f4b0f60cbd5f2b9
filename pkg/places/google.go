package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api"

// statusZeroResults is the provider status for "valid request, no match".
const statusZeroResults = "ZERO_RESULTS"

type googleClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		AddressComponents []AddressComponent `json:"address_components"`
	} `json:"results"`
}

// Geocode resolves the address via the Geocoding API. A ZERO_RESULTS status
// is a miss, returned as (nil, nil).
func (c *googleClient) Geocode(ctx context.Context, addr AddressInput) (*GeocodeResult, error) {
	full := fmt.Sprintf("%s, %s, %s", addr.Address, addr.City, addr.State)

	q := url.Values{}
	q.Set("address", full)
	q.Set("key", c.apiKey)

	var resp geocodeResponse
	if err := c.get(ctx, "/geocode/json", q, &resp); err != nil {
		return nil, err
	}

	if resp.Status != "OK" && resp.Status != statusZeroResults {
		return nil, eris.Errorf("places: geocode status %s", resp.Status)
	}
	if resp.Status == statusZeroResults || len(resp.Results) == 0 {
		zap.L().Debug("places: geocode miss", zap.String("address", full))
		return nil, nil
	}

	r := resp.Results[0]
	return &GeocodeResult{
		Latitude:         r.Geometry.Location.Lat,
		Longitude:        r.Geometry.Location.Lng,
		FormattedAddress: r.FormattedAddress,
		Components:       r.AddressComponents,
	}, nil
}

type findPlaceResponse struct {
	Status     string `json:"status"`
	Candidates []struct {
		PlaceID          string `json:"place_id"`
		Name             string `json:"name"`
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		Types []string `json:"types"`
	} `json:"candidates"`
}

type detailsResponse struct {
	Status string `json:"status"`
	Result struct {
		Name             string `json:"name"`
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		Types             []string           `json:"types"`
		AddressComponents []AddressComponent `json:"address_components"`
	} `json:"result"`
}

// SearchPlace finds the best candidate for the query via Find Place, biased
// to a 50km circle around the given point, then enriches it with Place
// Details for the type list and address components. No candidate is a miss,
// returned as (nil, nil).
func (c *googleClient) SearchPlace(ctx context.Context, query string, lat, lng float64) (*Candidate, error) {
	q := url.Values{}
	q.Set("input", query)
	q.Set("inputtype", "textquery")
	q.Set("fields", "place_id,name,formatted_address,geometry,types")
	q.Set("locationbias", fmt.Sprintf("circle:50000@%f,%f", lat, lng))
	q.Set("key", c.apiKey)

	var resp findPlaceResponse
	if err := c.get(ctx, "/place/findplacefromtext/json", q, &resp); err != nil {
		return nil, err
	}

	if resp.Status != "OK" && resp.Status != statusZeroResults {
		return nil, eris.Errorf("places: find place status %s", resp.Status)
	}
	if resp.Status == statusZeroResults || len(resp.Candidates) == 0 {
		zap.L().Debug("places: search miss", zap.String("query", query))
		return nil, nil
	}

	best := resp.Candidates[0]
	cand := &Candidate{
		PlaceID:          best.PlaceID,
		Name:             best.Name,
		FormattedAddress: best.FormattedAddress,
		Latitude:         best.Geometry.Location.Lat,
		Longitude:        best.Geometry.Location.Lng,
		Types:            best.Types,
	}

	// Find Place omits address components; details fills them in. A details
	// failure is non-fatal, the candidate is still usable without components.
	if best.PlaceID != "" {
		details, err := c.placeDetails(ctx, best.PlaceID)
		if err != nil {
			zap.L().Warn("places: details lookup failed",
				zap.String("place_id", best.PlaceID),
				zap.Error(err),
			)
			return cand, nil
		}
		if details != nil {
			return details, nil
		}
	}
	return cand, nil
}

func (c *googleClient) placeDetails(ctx context.Context, placeID string) (*Candidate, error) {
	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", "name,formatted_address,geometry,type,address_component")
	q.Set("key", c.apiKey)

	var resp detailsResponse
	if err := c.get(ctx, "/place/details/json", q, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" {
		return nil, nil
	}

	r := resp.Result
	return &Candidate{
		PlaceID:          placeID,
		Name:             r.Name,
		FormattedAddress: r.FormattedAddress,
		Latitude:         r.Geometry.Location.Lat,
		Longitude:        r.Geometry.Location.Lng,
		Types:            r.Types,
		Components:       r.AddressComponents,
	}, nil
}

func (c *googleClient) get(ctx context.Context, path string, q url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "places: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "places: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "places: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("places: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "places: unmarshal response")
	}
	return nil
}

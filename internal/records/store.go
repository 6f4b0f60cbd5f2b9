// Package records provides read access to the premises database used for
// duplicate detection and occupancy category lookups.
package records

import (
	"context"
)

// Premise is a single premises record.
type Premise struct {
	ID               int64    `json:"id"`
	PremiseName      string   `json:"premise_name"`
	AddressLine1     string   `json:"address_line_1"`
	AddressLine2     string   `json:"address_line_2,omitempty"`
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	PostalCode       string   `json:"postal_code"`
	StateID          int64    `json:"state_id"`
	CityID           *int64   `json:"city_id,omitempty"`
	AhjID            *int64   `json:"ahj_id,omitempty"`
	FormattedAddress string   `json:"formatted_address,omitempty"`
	ReferenceNumber  string   `json:"reference_number,omitempty"`

	// Distance is the planar degree distance from the query point,
	// populated by QueryNearby.
	Distance float64 `json:"distance"`
}

// State is a US state row.
type State struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"state_code"`
}

// Category is an occupancy category valid for some jurisdiction.
type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	AhjID int64  `json:"ahj_id"`
}

// Store defines read access to premises, states, and occupancy categories.
// Lookup methods return (nil, nil) when no row matches.
type Store interface {
	// QueryNearby returns up to ten premises within radiusDeg degrees of
	// the given point on both axes, nearest first. A non-nil stateID
	// restricts results to that state.
	QueryNearby(ctx context.Context, lat, lng float64, stateID *int64, radiusDeg float64) ([]Premise, error)

	GetStateByCode(ctx context.Context, code string) (*State, error)
	GetStateByName(ctx context.Context, name string) (*State, error)
	GetPremiseByID(ctx context.Context, id int64) (*Premise, error)

	// ListCategoriesForState returns the occupancy categories accepted by
	// jurisdictions in the given state, ordered by name.
	ListCategoriesForState(ctx context.Context, stateCode string) ([]Category, error)

	Ping(ctx context.Context) error
	Close() error
}

// maxNearby caps the number of rows QueryNearby returns.
const maxNearby = 10

// Package model defines the core data types shared across the import pipeline.
package model

// Row is one normalized input row: the canonical five-field shape every raw
// spreadsheet row is mapped onto before processing.
type Row struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

// StandardizedAddress holds the address bundle produced by the standardizer,
// sourced from Places address components with per-field fallback to user input.
type StandardizedAddress struct {
	AddressLine1 string `json:"address_line_1"`
	City         string `json:"city"`
	State        string `json:"state"`
	StateCode    string `json:"state_code"`
	PostalCode   string `json:"postal_code"`
}

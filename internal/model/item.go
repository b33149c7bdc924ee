// Package model defines domain types for the price catalog, budget, and chat transcript.
package model

import "github.com/shopspring/decimal"

// PriceRecord is one row of the price catalog.
// Values are never validated: a negative or missing price flows into totals as-is.
type PriceRecord struct {
	Location string          `json:"location"`
	Unit     string          `json:"unit"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
}

// SelectionKey identifies a record for selection tracking.
// It is comparable and used directly as a map key.
type SelectionKey struct {
	Location string `json:"location"`
	Unit     string `json:"unit"`
	Name     string `json:"name"`
}

// Key returns the record's selection key.
func (r PriceRecord) Key() SelectionKey {
	return SelectionKey{Location: r.Location, Unit: r.Unit, Name: r.Name}
}

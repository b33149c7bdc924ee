// Package catalog holds the read-only price table and its facet and filter queries.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/model"
)

//go:embed data/items.json
var defaultItems []byte

// Source supplies the fixed, insertion-ordered catalog.
// Implementations must return the same sequence on every call.
type Source interface {
	Records() []model.PriceRecord
}

// Catalog is an in-memory, immutable Source.
type Catalog struct {
	records []model.PriceRecord
}

// New builds a catalog from records. The slice is copied.
func New(records []model.PriceRecord) *Catalog {
	cp := make([]model.PriceRecord, len(records))
	copy(cp, records)
	return &Catalog{records: cp}
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(defaultItems)
	if err != nil {
		// The embedded file is part of the build; a decode failure is a build defect.
		panic(fmt.Sprintf("catalog: embedded items: %v", err))
	}
	return c
}

// Parse decodes a JSON array of price records. Fields are not validated.
func Parse(data []byte) (*Catalog, error) {
	var records []model.PriceRecord
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("catalog: parsing records: %w", err)
	}
	return &Catalog{records: records}, nil
}

// LoadFile reads a JSON catalog export from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is chosen by the local user
	if err != nil {
		return nil, fmt.Errorf("catalog: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Records returns a copy of every record in catalog order.
func (c *Catalog) Records() []model.PriceRecord {
	out := make([]model.PriceRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Locations returns the distinct locations of src in ascending order.
func Locations(src Source) []string {
	return distinct(src.Records(), func(r model.PriceRecord) string { return r.Location })
}

// Units returns the distinct units of src in ascending order.
// Units are collected across the whole catalog, independent of location.
func Units(src Source) []string {
	return distinct(src.Records(), func(r model.PriceRecord) string { return r.Unit })
}

// Filter returns the records whose location and unit exactly equal the given
// values, preserving catalog order. Matching is case-sensitive with no trimming.
func Filter(src Source, location, unit string) []model.PriceRecord {
	var out []model.PriceRecord
	for _, r := range src.Records() {
		if r.Location == location && r.Unit == unit {
			out = append(out, r)
		}
	}
	return out
}

func distinct(records []model.PriceRecord, field func(model.PriceRecord) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		v := field(r)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

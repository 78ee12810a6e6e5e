package meta

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// RawComposition is a scraped composition record
type RawComposition struct {
	Name      string        `json:"name"`
	Champions []RawChampion `json:"champions"`
	// AvgPlace is nil when the scraper found no placement
	AvgPlace *float64 `json:"avgPlace"`
}

// RawChampion is a champion as scraped. Cost and Stars are optional.
type RawChampion struct {
	Name     string   `json:"name"`
	RawItems []string `json:"rawItems"`
	Cost     int      `json:"cost,omitempty"`
	Stars    int      `json:"stars,omitempty"`
}

// DecodeRaw reads a JSON array of raw compositions
func DecodeRaw(r io.Reader) ([]RawComposition, error) {
	var raws []RawComposition
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raws); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return raws, nil
}

// LoadRaw reads raw compositions from a JSON file
func LoadRaw(path string) ([]RawComposition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raw records: %w", err)
	}
	defer f.Close()
	return DecodeRaw(f)
}

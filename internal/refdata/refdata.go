// Package refdata loads static reference data into the store: berth
// coordinates, inter-area border links and operator codes. All of it is
// pre-loaded at import time and read-only at runtime.
package refdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/railwatch/railwatch/internal/store"
)

// location is one berth's surveyed position in the locations dataset,
// which is keyed area -> berth code -> position.
type location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ImportBerths loads a locations JSON dataset into the store and returns
// the number of berths written.
func ImportBerths(ctx context.Context, st *store.Store, r io.Reader) (int, error) {
	var areas map[string]map[string]location
	if err := json.NewDecoder(r).Decode(&areas); err != nil {
		return 0, fmt.Errorf("decode locations dataset: %w", err)
	}

	n := 0
	for area, berths := range areas {
		for code, loc := range berths {
			lat, lon := loc.Lat, loc.Lon
			b := store.Berth{
				Area:      area,
				Code:      code,
				Latitude:  &lat,
				Longitude: &lon,
			}
			if err := st.UpsertBerth(ctx, b); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

// Border is one configured inter-area link: trains pass between
// (Area, Berth) and the neighbouring area in the given direction.
type Border struct {
	Area      string `yaml:"area"`
	Berth     string `yaml:"berth"`
	Neighbour string `yaml:"neighbour"`
	Direction string `yaml:"direction"` // "in" or "out"
}

// ImportBorders loads a YAML border mapping into the store.
func ImportBorders(ctx context.Context, st *store.Store, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read borders dataset: %w", err)
	}
	var borders []Border
	if err := yaml.Unmarshal(data, &borders); err != nil {
		return 0, fmt.Errorf("decode borders dataset: %w", err)
	}

	for i, b := range borders {
		switch b.Direction {
		case "in":
			err = st.SetBorderIn(ctx, b.Area, b.Berth, b.Neighbour)
		case "out":
			err = st.SetBorderOut(ctx, b.Area, b.Berth, b.Neighbour)
		default:
			return i, fmt.Errorf("border %s/%s: direction must be \"in\" or \"out\", got %q",
				b.Area, b.Berth, b.Direction)
		}
		if err != nil {
			return i, err
		}
	}
	return len(borders), nil
}

// operatorRecord is one entry of the operator codes dataset.
type operatorRecord struct {
	Operator   string `json:"operator"`
	SectorCode int    `json:"sector_code"`
	ATOCCode   string `json:"atoc_code"`
}

// ImportOperators loads the operator codes JSON dataset into the store.
func ImportOperators(ctx context.Context, st *store.Store, r io.Reader) (int, error) {
	var records []operatorRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return 0, fmt.Errorf("decode operators dataset: %w", err)
	}

	for i, rec := range records {
		op := store.Operator{
			SectorCode: rec.SectorCode,
			Name:       rec.Operator,
			ATOCCode:   rec.ATOCCode,
		}
		if err := st.UpsertOperator(ctx, op); err != nil {
			return i, err
		}
	}
	return len(records), nil
}

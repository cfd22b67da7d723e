package grid

import (
	"encoding/json"
	"fmt"
)

// wireGrid is the JSON form exchanged with the grid data service. Rows
// follow the latitude axis; null marks a missing cell.
type wireGrid struct {
	Lat    []float64    `json:"lat"`
	Lon    []float64    `json:"lon"`
	Values [][]*float64 `json:"values"`
}

// MarshalJSON encodes the grid with invalid cells as null.
func (g *Grid) MarshalJSON() ([]byte, error) {
	w := wireGrid{Lat: g.lat, Lon: g.lon, Values: make([][]*float64, len(g.lat))}
	for i := range g.lat {
		row := make([]*float64, len(g.lon))
		for j := range g.lon {
			if v, ok := g.At(i, j); ok {
				row[j] = &v
			}
		}
		w.Values[i] = row
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes and validates a grid.
func (g *Grid) UnmarshalJSON(data []byte) error {
	var w wireGrid
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode grid: %w", err)
	}
	if len(w.Values) != len(w.Lat) {
		return fmt.Errorf("%w: %d rows for %d latitudes", ErrShape, len(w.Values), len(w.Lat))
	}

	values := make([]float64, 0, len(w.Lat)*len(w.Lon))
	mask := make([]bool, 0, cap(values))
	for i, row := range w.Values {
		if len(row) != len(w.Lon) {
			return fmt.Errorf("%w: row %d has %d cells for %d longitudes", ErrShape, i, len(row), len(w.Lon))
		}
		for _, v := range row {
			if v == nil {
				values = append(values, 0)
				mask = append(mask, false)
				continue
			}
			values = append(values, *v)
			mask = append(mask, true)
		}
	}

	decoded, err := NewMasked(w.Lat, w.Lon, values, mask)
	if err != nil {
		return err
	}
	*g = *decoded
	return nil
}

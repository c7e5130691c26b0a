package domain

import (
	"cmp"
	"slices"
)

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Station is one monitoring site from the station directory.
type Station struct {
	ID          string      `json:"meteosiId" validate:"required"`
	Title       string      `json:"title"`
	LongTitle   string      `json:"longTitle"`
	Coordinates Coordinates `json:"coordinates"`
}

// SortStations returns a copy of stations ordered by id. The input is not modified.
func SortStations(stations []Station) []Station {
	sorted := slices.Clone(stations)
	slices.SortStableFunc(sorted, func(a, b Station) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return sorted
}

// StationIndex maps station ids to their column in the matrix. When a directory
// lists the same id twice, the first column wins.
func StationIndex(stations []Station) map[string]int {
	index := make(map[string]int, len(stations))
	for j, s := range stations {
		if _, ok := index[s.ID]; !ok {
			index[s.ID] = j
		}
	}
	return index
}

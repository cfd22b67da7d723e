// Package griddata provides domain.GridSource implementations: an HTTP client
// for the grid data service, a directory reader for fixtures and offline
// runs, and an LRU cache decorator for either.
//
// Both sources exchange grids in the JSON form of [grid.Grid]:
//
//	{"lat":[...],"lon":[...],"values":[[...],[...]]}
//
// with one row per latitude and null for a missing cell.
package griddata

import "github.com/couchcryptid/shark-hsi-service/internal/domain"

// ErrNotFound is returned when a grid does not exist for a variable and day.
var ErrNotFound = domain.ErrGridNotFound

package geo

import (
	_ "embed"
	"sync"

	"github.com/rotisserie/eris"
)

// countriesGeoJSON is a coarse world map with one feature per Natural Earth
// 110m admin-0 country, roughly one vertex per degree of coastline. Records
// keep the Natural Earth ISO_A3 codes, "-99" placeholders included. Use a
// GeoJSON or shapefile source for publication-quality borders.
//
//go:embed data/countries.geojson
var countriesGeoJSON []byte

var (
	bundledOnce      sync.Once
	bundledCountries []CountryGeometry
	bundledErr       error
)

type bundledSource struct{}

// Bundled returns the embedded low-resolution world geometry. The data is
// decoded once per process and shared; callers must not mutate it.
func Bundled() Source {
	return bundledSource{}
}

// Countries implements Source.
func (bundledSource) Countries() ([]CountryGeometry, error) {
	bundledOnce.Do(func() {
		bundledCountries, bundledErr = decodeFeatureCollection(countriesGeoJSON, "iso_a3", "name")
	})
	if bundledErr != nil {
		return nil, eris.Wrapf(ErrGeometrySource, "bundled world: %v", bundledErr)
	}
	out := make([]CountryGeometry, len(bundledCountries))
	copy(out, bundledCountries)
	return out, nil
}

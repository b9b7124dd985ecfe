package geo

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/choropleth-cli/internal/dataset"
)

// JoinedCountry is a geometry with its data row attached, if any.
type JoinedCountry struct {
	Geometry CountryGeometry
	Value    float64
	Present  bool
	Label    string
	Bin      int // class index, -1 when unclassified or missing
}

// JoinResult is the output of Join.
type JoinResult struct {
	Countries []JoinedCountry // geometry order
	Matched   int             // geometries that found a data row
	Unmatched []string        // data codes with no geometry, sorted
}

// Join left-joins geometries to table rows by code. Every geometry appears
// exactly once in the result; rows without a geometry are reported in
// Unmatched.
func Join(countries []CountryGeometry, table *dataset.Table) *JoinResult {
	res := &JoinResult{Countries: make([]JoinedCountry, 0, len(countries))}
	used := make(map[string]bool, len(countries))

	for _, c := range countries {
		jc := JoinedCountry{Geometry: c, Bin: -1}
		if table != nil {
			if row, ok := table.Lookup(c.Code); ok {
				jc.Value = row.Value
				jc.Present = row.Present
				jc.Label = row.Label
				used[c.Code] = true
				res.Matched++
			}
		}
		res.Countries = append(res.Countries, jc)
	}

	if table != nil {
		for _, row := range table.Rows {
			if !used[row.Code] {
				res.Unmatched = append(res.Unmatched, row.Code)
			}
		}
	}
	sort.Strings(res.Unmatched)
	return res
}

// PresentValues returns the values of joined countries that carry data, in
// geometry order.
func (r *JoinResult) PresentValues() []float64 {
	var vals []float64
	for _, c := range r.Countries {
		if c.Present {
			vals = append(vals, c.Value)
		}
	}
	return vals
}

// Open picks a Source for path by extension. An empty path selects the
// bundled world.
func Open(path, codeField, nameField string) (Source, error) {
	if path == "" {
		return Bundled(), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return GeoJSONFile(path, codeField, nameField), nil
	case ".shp", ".zip":
		return Shapefile(path, codeField, nameField), nil
	default:
		return nil, eris.Wrapf(ErrGeometrySource, "unsupported world file %q (want .geojson, .json, .shp or .zip)", path)
	}
}

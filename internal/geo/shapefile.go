package geo

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth-cli/internal/fetcher"
)

// ShapefileSource reads countries from an ESRI shapefile or a ZIP archive
// containing one.
type ShapefileSource struct {
	Path      string
	CodeField string
	NameField string
}

// Shapefile returns a Source backed by a .shp file or a zipped shapefile.
func Shapefile(path, codeField, nameField string) *ShapefileSource {
	return &ShapefileSource{Path: path, CodeField: codeField, NameField: nameField}
}

// Countries implements Source.
func (s *ShapefileSource) Countries() ([]CountryGeometry, error) {
	shpPath := s.Path
	if strings.EqualFold(filepath.Ext(s.Path), ".zip") {
		dir, err := os.MkdirTemp("", "choropleth-shp-*")
		if err != nil {
			return nil, eris.Wrapf(ErrGeometrySource, "create temp dir: %v", err)
		}
		defer os.RemoveAll(dir) //nolint:errcheck

		files, err := fetcher.ExtractZIP(s.Path, dir)
		if err != nil {
			return nil, eris.Wrapf(ErrGeometrySource, "%s: %v", s.Path, err)
		}
		shpPath, err = fetcher.FindByExt(files, ".shp")
		if err != nil {
			return nil, eris.Wrapf(ErrGeometrySource, "%s: %v", s.Path, err)
		}
	}

	countries, err := readShapefile(shpPath, s.CodeField, s.NameField)
	if err != nil {
		return nil, eris.Wrapf(ErrGeometrySource, "%s: %v", s.Path, err)
	}
	return countries, nil
}

func readShapefile(path, codeField, nameField string) ([]CountryGeometry, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "geo: open shapefile")
	}
	defer func() { _ = reader.Close() }()

	codeFields := defaultCodeProps
	if codeField != "" {
		codeFields = []string{codeField}
	}
	nameFields := defaultNameProps
	if nameField != "" {
		nameFields = []string{nameField}
	}

	codeIdx := firstFieldIndex(reader, codeFields)
	if codeIdx < 0 {
		return nil, eris.Errorf("geo: no code field (%s) in shapefile", strings.Join(codeFields, ", "))
	}
	nameIdx := firstFieldIndex(reader, nameFields)

	log := zap.L().With(zap.String("component", "geo.shapefile"))

	var countries []CountryGeometry
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		var name string
		if nameIdx >= 0 {
			name = attribute(reader, nameIdx)
		}
		code := normalizeCode(attribute(reader, codeIdx), name)

		poly, ok := shape.(*shp.Polygon)
		if !ok || code == "" {
			skipped++
			continue
		}
		mp := polygonToMultiPolygon(poly)
		if mp == nil {
			skipped++
			continue
		}

		countries = append(countries, CountryGeometry{Code: code, Name: name, Boundary: mp})
	}

	if skipped > 0 {
		log.Debug("skipped shapefile records", zap.Int("skipped", skipped))
	}
	if len(countries) == 0 {
		return nil, eris.New("geo: shapefile has no polygon records with a country code")
	}
	return countries, nil
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon.
// Clockwise parts start a new polygon; counter-clockwise parts are holes of
// the preceding polygon.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	var current *geom.Polygon
	flush := func() {
		if current == nil {
			return
		}
		if err := mp.Push(current); err != nil {
			zap.L().Debug("geo: skipping malformed polygon", zap.Error(err))
		}
		current = nil
	}

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if end-start < 3 {
			continue
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)

		if current == nil || signedArea(flat) <= 0 {
			flush()
			current = geom.NewPolygon(geom.XY)
		}
		if err := current.Push(ring); err != nil {
			zap.L().Debug("geo: skipping malformed ring", zap.Int32("part", i), zap.Error(err))
		}
	}
	flush()

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// signedArea is the shoelace area of a flat XY ring; negative when clockwise.
func signedArea(flat []float64) float64 {
	n := len(flat) / 2
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += flat[2*i]*flat[2*j+1] - flat[2*j]*flat[2*i+1]
	}
	return sum / 2
}

// firstFieldIndex returns the index of the first candidate DBF field present.
func firstFieldIndex(reader *shp.Reader, candidates []string) int {
	for _, name := range candidates {
		if idx := fieldIndex(reader, name); idx >= 0 {
			return idx
		}
	}
	return -1
}

// fieldIndex returns the index of the named field in the shapefile, or -1.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

func attribute(reader *shp.Reader, idx int) string {
	return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
}

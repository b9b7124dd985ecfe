package geo

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// Property names tried, in order, when the caller does not name one.
var (
	defaultCodeProps = []string{"iso_a3", "ADM0_A3", "SOV_A3", "iso3", "code"}
	defaultNameProps = []string{"name", "ADMIN", "NAME_LONG", "SOVEREIGNT"}
)

// GeoJSONSource reads countries from a GeoJSON FeatureCollection file.
type GeoJSONSource struct {
	Path     string
	CodeProp string
	NameProp string
}

// GeoJSONFile returns a Source backed by a GeoJSON file. Empty property names
// fall back to the Natural Earth defaults.
func GeoJSONFile(path, codeProp, nameProp string) *GeoJSONSource {
	return &GeoJSONSource{Path: path, CodeProp: codeProp, NameProp: nameProp}
}

// Countries implements Source.
func (s *GeoJSONSource) Countries() ([]CountryGeometry, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, eris.Wrapf(ErrGeometrySource, "read %s: %v", s.Path, err)
	}
	countries, err := decodeFeatureCollection(data, s.CodeProp, s.NameProp)
	if err != nil {
		return nil, eris.Wrapf(ErrGeometrySource, "%s: %v", s.Path, err)
	}
	return countries, nil
}

func decodeFeatureCollection(data []byte, codeProp, nameProp string) ([]CountryGeometry, error) {
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrap(err, "geo: decode feature collection")
	}

	codeProps := defaultCodeProps
	if codeProp != "" {
		codeProps = []string{codeProp}
	}
	nameProps := defaultNameProps
	if nameProp != "" {
		nameProps = []string{nameProp}
	}

	log := zap.L().With(zap.String("component", "geo.geojson"))

	countries := make([]CountryGeometry, 0, len(fc.Features))
	for i, f := range fc.Features {
		name := lookupProp(f.Properties, nameProps)
		code := normalizeCode(lookupProp(f.Properties, codeProps), name)
		if code == "" {
			log.Debug("skipping feature without code", zap.Int("feature", i), zap.String("name", name))
			continue
		}

		mp, err := toMultiPolygon(f.Geometry)
		if err != nil {
			log.Warn("skipping feature with unusable geometry",
				zap.String("code", code),
				zap.Error(err),
			)
			continue
		}

		countries = append(countries, CountryGeometry{Code: code, Name: name, Boundary: mp})
	}

	if len(countries) == 0 {
		return nil, eris.New("geo: no polygon features with a country code")
	}
	return countries, nil
}

// lookupProp returns the first candidate property found, matching keys
// case-insensitively.
func lookupProp(props map[string]interface{}, candidates []string) string {
	for _, want := range candidates {
		if v, ok := props[want]; ok && v != nil {
			return propString(v)
		}
		for k, v := range props {
			if v != nil && strings.EqualFold(k, want) {
				return propString(v)
			}
		}
	}
	return ""
}

func propString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}

// Package geo loads country boundaries and joins them to tabular data.
package geo

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// ErrGeometrySource is returned when country boundaries cannot be loaded.
var ErrGeometrySource = eris.New("geo: geometry source unavailable")

// CountryGeometry is one country boundary in lon/lat degrees.
type CountryGeometry struct {
	Code     string
	Name     string
	Boundary *geom.MultiPolygon
}

// Source provides country geometries.
type Source interface {
	Countries() ([]CountryGeometry, error)
}

// RepresentativePoint returns the centroid of the largest polygon.
// Falls back to the bounding box center if the centroid cannot be computed.
func (c CountryGeometry) RepresentativePoint() (lon, lat float64) {
	if c.Boundary == nil || c.Boundary.NumPolygons() == 0 {
		return 0, 0
	}

	best, bestArea := 0, -1.0
	for i := 0; i < c.Boundary.NumPolygons(); i++ {
		if a := c.Boundary.Polygon(i).Area(); a > bestArea {
			best, bestArea = i, a
		}
	}

	poly := c.Boundary.Polygon(best)
	centroid, err := xy.Centroid(poly)
	if err != nil || len(centroid) < 2 || math.IsNaN(centroid.X()) || math.IsNaN(centroid.Y()) {
		b := poly.Bounds()
		return (b.Min(0) + b.Max(0)) / 2, (b.Min(1) + b.Max(1)) / 2
	}
	return centroid.X(), centroid.Y()
}

// codeFixups maps country names to codes for Natural Earth records whose
// ISO_A3 is "-99". Somaliland and Kosovo take their Natural Earth ADM0_A3
// codes; N. Cyprus has none and stays "-99".
var codeFixups = map[string]string{
	"france":     "FRA",
	"norway":     "NOR",
	"somaliland": "SOL",
	"kosovo":     "KOS",
}

// normalizeCode upper-cases a code and repairs known placeholder codes.
func normalizeCode(code, name string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || code == "-99" {
		if fixed, ok := codeFixups[strings.ToLower(strings.TrimSpace(name))]; ok {
			return fixed
		}
	}
	return code
}

// toMultiPolygon converts a Polygon or MultiPolygon of any layout to an XY
// MultiPolygon.
func toMultiPolygon(g geom.T) (*geom.MultiPolygon, error) {
	mp := geom.NewMultiPolygon(geom.XY)
	switch t := g.(type) {
	case *geom.Polygon:
		p, err := polygonXY(t)
		if err != nil {
			return nil, err
		}
		if err := mp.Push(p); err != nil {
			return nil, eris.Wrap(err, "geo: push polygon")
		}
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			p, err := polygonXY(t.Polygon(i))
			if err != nil {
				return nil, eris.Wrapf(err, "geo: polygon %d", i)
			}
			if err := mp.Push(p); err != nil {
				return nil, eris.Wrapf(err, "geo: push polygon %d", i)
			}
		}
	case nil:
		return nil, eris.New("geo: missing geometry")
	default:
		return nil, eris.Errorf("geo: unsupported geometry type %T", g)
	}
	return mp, nil
}

func polygonXY(p *geom.Polygon) (*geom.Polygon, error) {
	out := geom.NewPolygon(geom.XY)
	for i := 0; i < p.NumLinearRings(); i++ {
		lr := p.LinearRing(i)
		flat := make([]float64, 0, lr.NumCoords()*2)
		for j := 0; j < lr.NumCoords(); j++ {
			c := lr.Coord(j)
			flat = append(flat, c.X(), c.Y())
		}
		if err := out.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			return nil, eris.Wrapf(err, "geo: ring %d", i)
		}
	}
	return out, nil
}

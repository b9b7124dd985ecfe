// Package projection converts geographic coordinates to planar map
// coordinates on the unit sphere.
package projection

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrUnsupported is returned by Lookup for unknown projection names.
var ErrUnsupported = eris.New("unsupported projection")

// Point is a projected coordinate. Y grows northward.
type Point struct {
	X, Y float64
}

// Projection is a named forward map projection.
type Projection struct {
	name    string
	maxLat  float64 // latitude clamp in degrees
	forward func(lam, phi float64) (x, y float64)
}

// Name returns the canonical projection name.
func (p *Projection) Name() string { return p.name }

// Forward projects a longitude/latitude pair given in degrees. Inputs are
// clamped to the valid domain (longitude ±180, latitude ±maxLat).
func (p *Projection) Forward(lon, lat float64) Point {
	lon = clamp(lon, -180, 180)
	lat = clamp(lat, -p.maxLat, p.maxLat)
	x, y := p.forward(lon*math.Pi/180, lat*math.Pi/180)
	return Point{X: x, Y: y}
}

// Outline traces the edge of the projected world (the ±180° meridians and
// the latitude limits) with a vertex every step degrees.
func (p *Projection) Outline(step float64) []Point {
	if step <= 0 {
		step = 1
	}
	var pts []Point
	for lat := -p.maxLat; lat < p.maxLat; lat += step {
		pts = append(pts, p.Forward(-180, lat))
	}
	for lon := -180.0; lon < 180; lon += step {
		pts = append(pts, p.Forward(lon, p.maxLat))
	}
	for lat := p.maxLat; lat > -p.maxLat; lat -= step {
		pts = append(pts, p.Forward(180, lat))
	}
	for lon := 180.0; lon > -180; lon -= step {
		pts = append(pts, p.Forward(lon, -p.maxLat))
	}
	return pts
}

// Bounds returns the projected extent of the whole world.
func (p *Projection) Bounds() (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, pt := range p.Outline(1) {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}
	return minX, minY, maxX, maxY
}

var registry = []*Projection{
	{name: "PlateCarree", maxLat: 90, forward: plateCarree},
	{name: "Mercator", maxLat: 85, forward: mercator},
	{name: "Robinson", maxLat: 90, forward: robinson},
	{name: "Mollweide", maxLat: 90, forward: mollweide},
	{name: "EqualEarth", maxLat: 90, forward: equalEarth},
	{name: "WinkelTripel", maxLat: 90, forward: winkelTripel},
}

// Names lists the supported projections.
func Names() []string {
	names := make([]string, len(registry))
	for i, p := range registry {
		names[i] = p.name
	}
	return names
}

// Lookup finds a projection by name, ignoring case.
func Lookup(name string) (*Projection, error) {
	for _, p := range registry {
		if strings.EqualFold(p.name, strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return nil, eris.Wrapf(ErrUnsupported, "projection: %q (want one of %s)", name, strings.Join(Names(), ", "))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

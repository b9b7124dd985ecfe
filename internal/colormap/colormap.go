// Package colormap maps normalized values and class indices to colors.
package colormap

import (
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rotisserie/eris"
)

// Sentinel errors. Match with eris.Is.
var (
	ErrUnsupported  = eris.New("unsupported colormap")
	ErrInvalidColor = eris.New("invalid color")
)

const reversedSuffix = "_r"

// Colormap is a piecewise-linear gradient through evenly spaced stops.
type Colormap struct {
	Name  string
	stops []colorful.Color
}

// Lookup returns the named colormap. Appending "_r" reverses any map.
func Lookup(name string) (*Colormap, error) {
	base, reversed := strings.CutSuffix(name, reversedSuffix)
	hexes, ok := palettes[base]
	if !ok {
		return nil, eris.Wrapf(ErrUnsupported, "colormap: %q (available: %s)", name, strings.Join(Names(), ", "))
	}

	stops := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, eris.Wrapf(err, "colormap: bad stop %q in %s", h, base)
		}
		stops[i] = c
	}
	if reversed {
		for i, j := 0, len(stops)-1; i < j; i, j = i+1, j-1 {
			stops[i], stops[j] = stops[j], stops[i]
		}
	}

	return &Colormap{Name: name, stops: stops}, nil
}

// Names lists the base colormap names in sorted order.
func Names() []string {
	names := make([]string, 0, len(palettes))
	for n := range palettes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// At returns the color at t, clamped to [0, 1]. NaN maps to 0.
func (m *Colormap) At(t float64) color.NRGBA {
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}

	pos := t * float64(len(m.stops)-1)
	i := int(math.Floor(pos))
	if i >= len(m.stops)-1 {
		return toNRGBA(m.stops[len(m.stops)-1])
	}
	return toNRGBA(m.stops[i].BlendRgb(m.stops[i+1], pos-float64(i)))
}

// Discrete samples n colors evenly across the map, first stop to last.
func (m *Colormap) Discrete(n int) []color.NRGBA {
	if n <= 0 {
		return nil
	}
	out := make([]color.NRGBA, n)
	if n == 1 {
		out[0] = m.At(0)
		return out
	}
	for i := range out {
		out[i] = m.At(float64(i) / float64(n-1))
	}
	return out
}

func toNRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

var namedColors = map[string]string{
	"white":     "#ffffff",
	"black":     "#000000",
	"gray":      "#808080",
	"grey":      "#808080",
	"lightgray": "#d3d3d3",
	"lightgrey": "#d3d3d3",
	"red":       "#ff0000",
	"green":     "#008000",
	"blue":      "#0000ff",
}

// ParseColor accepts #RGB, #RRGGBB, #RRGGBBAA, a few basic color names, and
// "none"/"transparent".
func ParseColor(s string) (color.NRGBA, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "none", "transparent":
		return color.NRGBA{}, nil
	}
	if hex, ok := namedColors[v]; ok {
		v = hex
	}

	alpha := uint8(0xff)
	if len(v) == 9 && v[0] == '#' {
		a, err := strconv.ParseUint(v[7:], 16, 8)
		if err != nil {
			return color.NRGBA{}, eris.Wrapf(ErrInvalidColor, "colormap: %q", s)
		}
		alpha = uint8(a)
		v = v[:7]
	}

	c, err := colorful.Hex(v)
	if err != nil {
		return color.NRGBA{}, eris.Wrapf(ErrInvalidColor, "colormap: %q", s)
	}
	out := toNRGBA(c)
	out.A = alpha
	return out, nil
}

// Package render draws a projected choropleth scene to a PNG file.
package render

import (
	"context"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth-cli/internal/projection"
)

// ErrOutputWrite is returned when the PNG cannot be written.
var ErrOutputWrite = eris.New("output write failed")

// maxPixels bounds the canvas so a typo in --dpi cannot exhaust memory.
const maxPixels = 200_000_000

// Feature is one filled country shape in lon/lat degrees.
type Feature struct {
	Code     string
	Boundary *geom.MultiPolygon
	Fill     color.NRGBA
}

// Label is a text annotation anchored at a lon/lat point.
type Label struct {
	Lon, Lat float64
	Text     string
}

// Scene is everything needed to draw one map.
type Scene struct {
	Features   []Feature
	Projection *projection.Projection

	Width, Height float64 // inches
	DPI           int

	Background color.NRGBA
	EdgeColor  color.NRGBA
	EdgeWidth  float64 // points

	Title  string
	Legend *Legend
	Labels []Label
}

// PixelSize returns the canvas size in pixels.
func (s *Scene) PixelSize() (int, int) {
	return int(math.Round(s.Width * float64(s.DPI))), int(math.Round(s.Height * float64(s.DPI)))
}

// Validate checks the scene can be drawn.
func (s *Scene) Validate() error {
	if s.Projection == nil {
		return eris.New("render: scene has no projection")
	}
	if s.DPI <= 0 || s.Width <= 0 || s.Height <= 0 {
		return eris.Errorf("render: invalid canvas %gx%g in at %d dpi", s.Width, s.Height, s.DPI)
	}
	w, h := s.PixelSize()
	if w < 1 || h < 1 {
		return eris.Errorf("render: canvas %dx%d px is empty", w, h)
	}
	if w*h > maxPixels {
		return eris.Errorf("render: canvas %dx%d px exceeds %d pixels", w, h, maxPixels)
	}
	return nil
}

// Render draws the scene and writes it as PNG to path.
func Render(ctx context.Context, scene *Scene, path string) error {
	if err := scene.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "render: canceled")
	}

	log := zap.L().With(zap.String("component", "render"))

	dc, err := draw(ctx, scene)
	if err != nil {
		return err
	}

	if err := writePNG(dc, path); err != nil {
		return err
	}

	w, h := scene.PixelSize()
	log.Info("map written",
		zap.String("path", path),
		zap.Int("width_px", w),
		zap.Int("height_px", h),
		zap.Int("features", len(scene.Features)),
	)
	return nil
}

// draw paints the scene onto a new context.
func draw(ctx context.Context, scene *Scene) (*gg.Context, error) {
	w, h := scene.PixelSize()
	dc := gg.NewContext(w, h)
	pt := float64(scene.DPI) / 72

	dc.SetColor(scene.Background)
	dc.Clear()

	var titleHeight float64
	if scene.Title != "" {
		titleHeight = 14*pt*1.6 + 12*pt
	}
	fr := newFrame(scene.Projection, float64(w), float64(h), titleHeight)

	// World frame.
	outline := scene.Projection.Outline(2)
	fr.path(dc, outline)
	dc.SetColor(color.NRGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff})
	dc.SetLineWidth(math.Max(0.5*pt, 1))
	dc.Stroke()

	dc.SetFillRuleEvenOdd()
	dc.SetLineJoinRound()
	for i, f := range scene.Features {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, eris.Wrap(err, "render: canceled")
			}
		}
		if f.Boundary == nil {
			continue
		}
		fr.multiPolygon(dc, f.Boundary)
		dc.SetColor(f.Fill)
		if scene.EdgeWidth > 0 {
			dc.FillPreserve()
			dc.SetColor(scene.EdgeColor)
			dc.SetLineWidth(scene.EdgeWidth * pt)
			dc.Stroke()
		} else {
			dc.Fill()
		}
	}

	if scene.Title != "" {
		dc.SetFontFace(fontFace(14, float64(scene.DPI)))
		dc.SetColor(color.Black)
		dc.DrawStringAnchored(scene.Title, float64(w)/2, titleHeight/2+6*pt, 0.5, 0.5)
	}

	if len(scene.Labels) > 0 {
		dc.SetFontFace(fontFace(6, float64(scene.DPI)))
		for _, l := range scene.Labels {
			p := fr.project(l.Lon, l.Lat)
			drawHaloText(dc, l.Text, p.X, p.Y, math.Max(0.6*pt, 1))
		}
	}

	if scene.Legend != nil {
		scene.Legend.draw(dc, fr, pt)
	}

	return dc, nil
}

// frame maps projected coordinates to canvas pixels.
type frame struct {
	proj         *projection.Projection
	minX, maxY   float64
	scale        float64
	offX, offY   float64
	left, bottom float64 // map area edges in pixels
}

func newFrame(p *projection.Projection, w, h, top float64) *frame {
	minX, minY, maxX, maxY := p.Bounds()
	margin := math.Min(w, h) * 0.03
	availW := w - 2*margin
	availH := h - 2*margin - top
	scale := math.Min(availW/(maxX-minX), availH/(maxY-minY))

	mapW, mapH := (maxX-minX)*scale, (maxY-minY)*scale
	offX := margin + (availW-mapW)/2
	offY := margin + top + (availH-mapH)/2

	return &frame{
		proj:   p,
		minX:   minX,
		maxY:   maxY,
		scale:  scale,
		offX:   offX,
		offY:   offY,
		left:   offX,
		bottom: offY + mapH,
	}
}

func (f *frame) toPixel(pt projection.Point) projection.Point {
	return projection.Point{
		X: f.offX + (pt.X-f.minX)*f.scale,
		Y: f.offY + (f.maxY-pt.Y)*f.scale,
	}
}

func (f *frame) project(lon, lat float64) projection.Point {
	return f.toPixel(f.proj.Forward(lon, lat))
}

// path adds a closed ring of projected points as a subpath.
func (f *frame) path(dc *gg.Context, pts []projection.Point) {
	for i, p := range pts {
		px := f.toPixel(p)
		if i == 0 {
			dc.MoveTo(px.X, px.Y)
		} else {
			dc.LineTo(px.X, px.Y)
		}
	}
	dc.ClosePath()
}

// multiPolygon adds every ring of mp as a subpath.
func (f *frame) multiPolygon(dc *gg.Context, mp *geom.MultiPolygon) {
	for i := 0; i < mp.NumPolygons(); i++ {
		poly := mp.Polygon(i)
		for j := 0; j < poly.NumLinearRings(); j++ {
			ring := poly.LinearRing(j)
			n := ring.NumCoords()
			if n < 3 {
				continue
			}
			for k := 0; k < n; k++ {
				c := ring.Coord(k)
				p := f.project(c.X(), c.Y())
				if k == 0 {
					dc.MoveTo(p.X, p.Y)
				} else {
					dc.LineTo(p.X, p.Y)
				}
			}
			dc.ClosePath()
		}
	}
}

func drawHaloText(dc *gg.Context, s string, x, y, halo float64) {
	dc.SetColor(color.White)
	for _, d := range [][2]float64{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}} {
		dc.DrawStringAnchored(s, x+d[0]*halo, y+d[1]*halo, 0.5, 0.5)
	}
	dc.SetColor(color.Black)
	dc.DrawStringAnchored(s, x, y, 0.5, 0.5)
}

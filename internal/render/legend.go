package render

import (
	"image/color"
	"math"

	"github.com/fogleman/gg"
)

// LegendEntry is one swatch and its caption.
type LegendEntry struct {
	Color color.NRGBA
	Text  string
}

// Legend describes the key drawn in the lower-left corner of the map. Set
// Entries for a classified map, or Ramp with Min and Max for a continuous one.
type Legend struct {
	Title   string
	Entries []LegendEntry
	Ramp    []color.NRGBA
	Min     string
	Max     string
	NoData  *LegendEntry
}

// Continuous reports whether the legend is a gradient bar.
func (l *Legend) Continuous() bool {
	return len(l.Entries) == 0 && len(l.Ramp) > 0
}

func (l *Legend) draw(dc *gg.Context, fr *frame, pt float64) {
	var (
		pad    = 5 * pt
		swatch = 9 * pt
		gap    = 4 * pt
		rowH   = 12 * pt
		barW   = 110 * pt
		barH   = 8 * pt
	)

	titleFace := fontFace(9, pt*72)
	bodyFace := fontFace(8, pt*72)

	rows := append([]LegendEntry(nil), l.Entries...)
	if l.NoData != nil {
		rows = append(rows, *l.NoData)
	}

	// Measure.
	var contentW, contentH float64
	var titleH float64
	if l.Title != "" {
		dc.SetFontFace(titleFace)
		tw, _ := dc.MeasureString(l.Title)
		contentW = tw
		titleH = rowH + 2*pt
		contentH += titleH
	}
	dc.SetFontFace(bodyFace)
	if l.Continuous() {
		contentW = math.Max(contentW, barW)
		contentH += barH + rowH
	}
	for _, r := range rows {
		tw, _ := dc.MeasureString(r.Text)
		contentW = math.Max(contentW, swatch+gap+tw)
		contentH += rowH
	}
	if contentH == 0 {
		return
	}

	boxW, boxH := contentW+2*pad, contentH+2*pad
	x0 := fr.left + 4*pt
	y0 := fr.bottom - boxH - 4*pt

	dc.DrawRectangle(x0, y0, boxW, boxH)
	dc.SetColor(color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xdd})
	dc.FillPreserve()
	dc.SetColor(color.NRGBA{R: 0xaa, G: 0xaa, B: 0xaa, A: 0xff})
	dc.SetLineWidth(math.Max(0.5*pt, 1))
	dc.Stroke()

	x, y := x0+pad, y0+pad
	if l.Title != "" {
		dc.SetFontFace(titleFace)
		dc.SetColor(color.Black)
		dc.DrawStringAnchored(l.Title, x, y+rowH/2, 0, 0.5)
		y += titleH
	}

	dc.SetFontFace(bodyFace)
	if l.Continuous() {
		grad := gg.NewLinearGradient(x, 0, x+barW, 0)
		for i, c := range l.Ramp {
			offset := 0.0
			if len(l.Ramp) > 1 {
				offset = float64(i) / float64(len(l.Ramp)-1)
			}
			grad.AddColorStop(offset, c)
		}
		dc.DrawRectangle(x, y, barW, barH)
		dc.SetFillStyle(grad)
		dc.Fill()

		dc.SetColor(color.Black)
		dc.DrawStringAnchored(l.Min, x, y+barH+rowH/2, 0, 0.5)
		dc.DrawStringAnchored(l.Max, x+barW, y+barH+rowH/2, 1, 0.5)
		y += barH + rowH
	}

	for _, r := range rows {
		cy := y + rowH/2
		dc.DrawRectangle(x, cy-swatch/2, swatch, swatch)
		dc.SetColor(r.Color)
		dc.FillPreserve()
		dc.SetColor(color.NRGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xff})
		dc.SetLineWidth(math.Max(0.25*pt, 0.5))
		dc.Stroke()

		dc.SetColor(color.Black)
		dc.DrawStringAnchored(r.Text, x+swatch+gap, cy, 0, 0.5)
		y += rowH
	}
}

package render

import (
	"sync"

	"github.com/golang/freetype/truetype"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	regularOnce sync.Once
	regularFont *truetype.Font
)

// fontFace returns Go Regular at size points for the given dpi. If the
// embedded font fails to parse, the fixed 7x13 bitmap face is used.
func fontFace(size, dpi float64) font.Face {
	regularOnce.Do(func() {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			zap.L().Warn("render: falling back to bitmap font", zap.Error(err))
			return
		}
		regularFont = f
	})
	if regularFont == nil {
		return basicfont.Face7x13
	}
	return truetype.NewFace(regularFont, &truetype.Options{
		Size:    size,
		DPI:     dpi,
		Hinting: font.HintingNone,
	})
}

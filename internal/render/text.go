package render

import (
	"golang.org/x/image/font"

	"github.com/YannKr/certgen/internal/model"
)

const (
	underlineGap   = 5
	underlineWidth = 2
)

// boldOffsets are the halo copies drawn before the real text when bold is
// requested.
var boldOffsets = [4][2]float64{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// TextStyler draws styled single-line text onto a Canvas.
type TextStyler struct {
	Fonts *FontLoader
}

// Draw draws text with its top-left corner at pos. Italic is accepted but
// not rendered.
func (s *TextStyler) Draw(c Canvas, pos model.Point, text, fontPath string, size int, col model.RGB, style model.Style) {
	face := s.Fonts.Face(fontPath, size)
	c.SetFontFace(face)
	c.SetColor(toColor(col))

	x := float64(pos.X)
	y := float64(pos.Y)
	baseline := y + ascent(face)

	if style.Bold {
		for _, o := range boldOffsets {
			c.DrawString(text, x+o[0], baseline+o[1])
		}
	}
	c.DrawString(text, x, baseline)

	if style.Underline {
		w, _ := c.MeasureString(text)
		ly := y + float64(size) + underlineGap
		c.SetLineWidth(underlineWidth)
		c.SetLineCapButt()
		c.DrawLine(x, ly, x+w, ly)
		c.Stroke()
	}
}

func ascent(face font.Face) float64 {
	return float64(face.Metrics().Ascent) / 64
}

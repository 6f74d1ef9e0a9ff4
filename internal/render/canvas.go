package render

import (
	"image"
	"image/color"

	"golang.org/x/image/font"

	"github.com/YannKr/certgen/internal/model"
)

// Canvas is the drawing surface a certificate is composed on.
// *gg.Context satisfies it.
type Canvas interface {
	SetFontFace(face font.Face)
	SetColor(c color.Color)
	DrawString(s string, x, y float64)
	MeasureString(s string) (w, h float64)
	SetLineWidth(w float64)
	SetLineCapButt()
	DrawLine(x1, y1, x2, y2 float64)
	Stroke()
	DrawImage(im image.Image, x, y int)
}

func toColor(c model.RGB) color.Color {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

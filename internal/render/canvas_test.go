package render_test

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
)

type stringCall struct {
	text  string
	x, y  float64
	color color.Color
	face  font.Face
}

type imageCall struct {
	im   image.Image
	x, y int
}

// recordingCanvas records draw calls instead of rasterizing them.
type recordingCanvas struct {
	face      font.Face
	color     color.Color
	lineWidth float64
	buttCap   bool
	strings   []stringCall
	lines     [][4]float64
	strokes   int
	images    []imageCall
}

func (c *recordingCanvas) SetFontFace(face font.Face) { c.face = face }
func (c *recordingCanvas) SetColor(col color.Color)   { c.color = col }

func (c *recordingCanvas) DrawString(s string, x, y float64) {
	c.strings = append(c.strings, stringCall{text: s, x: x, y: y, color: c.color, face: c.face})
}

func (c *recordingCanvas) MeasureString(s string) (float64, float64) {
	adv := font.MeasureString(c.face, s)
	return float64(adv) / 64, float64(c.face.Metrics().Height) / 64
}

func (c *recordingCanvas) SetLineWidth(w float64) { c.lineWidth = w }
func (c *recordingCanvas) SetLineCapButt()        { c.buttCap = true }

func (c *recordingCanvas) DrawLine(x1, y1, x2, y2 float64) {
	c.lines = append(c.lines, [4]float64{x1, y1, x2, y2})
}

func (c *recordingCanvas) Stroke() { c.strokes++ }

func (c *recordingCanvas) DrawImage(im image.Image, x, y int) {
	c.images = append(c.images, imageCall{im: im, x: x, y: y})
}

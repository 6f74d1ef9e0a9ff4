package render_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YannKr/certgen/internal/model"
	"github.com/YannKr/certgen/internal/render"
)

func isWhite(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r>>8 == 0xff && g>>8 == 0xff && b>>8 == 0xff
}

func hasInk(img image.Image, rect image.Rectangle) bool {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if !isWhite(img.At(x, y)) {
				return true
			}
		}
	}
	return false
}

func TestRenderScenario(t *testing.T) {
	tpl := solid(1000, 700, color.White)
	req := model.CertificateRequest{Name: "Jane Doe", Topic: "for completing X", Date: "01 Jan, 2025"}
	cfg := model.DefaultRenderConfig()

	out, err := render.New(render.NewFontLoader(), "").Render(tpl, cfg, req, nil)
	require.NoError(t, err)
	assert.Equal(t, tpl.Bounds(), out.Bounds())

	for _, p := range []model.Point{cfg.Positions.Name, cfg.Positions.Topic, cfg.Positions.Date} {
		anchor := image.Rect(p.X, p.Y, p.X+120, p.Y+40)
		assert.True(t, hasInk(out, anchor), "text expected near %v", p)

		leftOf := image.Rect(p.X-30, p.Y, p.X-3, p.Y+32)
		assert.False(t, hasInk(out, leftOf), "text starts at x=%d", p.X)
	}

	assert.False(t, hasInk(out, image.Rect(0, 0, 200, 200)), "no overlays composited")
	assert.False(t, hasInk(tpl, tpl.Bounds()), "template is not mutated")
}

func TestRenderKeepsTemplateSizeWithOversizedOverlay(t *testing.T) {
	tpl := solid(300, 200, color.White)
	cfg := model.DefaultRenderConfig()
	cfg.Positions = model.All(model.Point{X: 10, Y: 10})
	overlays := []model.OverlayAsset{
		{Kind: model.OverlayLogo, Image: solid(50, 50, color.Black), Position: model.Point{X: 250, Y: 150}, Size: 400},
	}

	out, err := render.New(render.NewFontLoader(), "").Render(tpl, cfg, model.CertificateRequest{Name: "A"}, overlays)
	require.NoError(t, err)
	assert.Equal(t, tpl.Bounds(), out.Bounds())
	assert.False(t, isWhite(out.At(299, 199)))
}

func TestRenderRejectsOutOfBoundsConfig(t *testing.T) {
	tpl := solid(100, 100, color.White)
	_, err := render.New(render.NewFontLoader(), "").Render(tpl, model.DefaultRenderConfig(), model.CertificateRequest{}, nil)
	assert.ErrorIs(t, err, model.ErrInvalidConfig)
}

func TestComposeOrder(t *testing.T) {
	c := &recordingCanvas{}
	r := render.New(render.NewFontLoader(), "")
	req := model.CertificateRequest{Name: "N", Topic: "T", Date: "D"}
	overlays := []model.OverlayAsset{
		{Kind: model.OverlaySignature, Image: solid(2, 2, color.Black), Size: 61},
		{Kind: model.OverlayLogo, Image: solid(2, 2, color.Black), Size: 62},
		{Kind: model.OverlaySignature, Image: nil, Size: 63},
		{Kind: model.OverlayLogo, Image: solid(2, 2, color.Black), Size: 64},
		{Kind: model.OverlaySignature, Image: solid(2, 2, color.Black), Size: 65},
	}
	r.Compose(c, model.DefaultRenderConfig(), req, overlays)

	var texts []string
	for _, s := range c.strings {
		texts = append(texts, s.text)
	}
	assert.Equal(t, []string{"N", "T", "D"}, texts)

	var sizes []int
	for _, im := range c.images {
		sizes = append(sizes, im.im.Bounds().Dx())
	}
	assert.Equal(t, []int{62, 64, 61, 65}, sizes)
}

func TestEncodeJPEG(t *testing.T) {
	data, err := render.EncodeJPEG(solid(40, 30, color.White))
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 30, cfg.Height)
}

func TestRenderToPDF(t *testing.T) {
	img, err := render.EncodeJPEG(solid(1000, 700, color.White))
	require.NoError(t, err)

	pdf, err := render.RenderToPDF(img)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	assert.Contains(t, string(pdf), "/Count 1")
}

func TestRenderToPDFRejectsGarbage(t *testing.T) {
	_, err := render.RenderToPDF([]byte("not a jpeg"))
	assert.Error(t, err)
}

package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/YannKr/certgen/internal/model"
)

// JPEGQuality is used for every encoded certificate image.
const JPEGQuality = 92

var errNoTemplate = errors.New("render: no template image")

type Renderer struct {
	Text     *TextStyler
	FontPath string
}

func New(fonts *FontLoader, fontPath string) *Renderer {
	return &Renderer{
		Text:     &TextStyler{Fonts: fonts},
		FontPath: fontPath,
	}
}

// Render draws req onto a copy of tpl. The result always has the bounds of
// tpl; tpl itself is left untouched.
func (r *Renderer) Render(tpl image.Image, cfg model.RenderConfig, req model.CertificateRequest, overlays []model.OverlayAsset) (*image.RGBA, error) {
	if tpl == nil {
		return nil, errNoTemplate
	}
	b := tpl.Bounds()
	if err := cfg.Validate(b.Dx(), b.Dy()); err != nil {
		return nil, err
	}

	dc := gg.NewContextForImage(tpl)
	r.Compose(dc, cfg, req, overlays)

	out, ok := dc.Image().(*image.RGBA)
	if !ok {
		return nil, fmt.Errorf("render: unexpected canvas image %T", dc.Image())
	}
	return out, nil
}

// Compose draws the text fields in name, topic, date order followed by
// the overlays, logos first.
func (r *Renderer) Compose(c Canvas, cfg model.RenderConfig, req model.CertificateRequest, overlays []model.OverlayAsset) {
	for _, f := range model.DrawOrder {
		r.Text.Draw(c, cfg.Positions.Get(f), req.Text(f), r.FontPath,
			cfg.FontSizes.Get(f), cfg.FontColor, cfg.Styles.Get(f))
	}
	for _, o := range orderOverlays(overlays) {
		Paste(c, o.Image, o.Position, o.Size)
	}
}

func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

package render

import (
	"image"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/YannKr/certgen/internal/model"
)

// Paste resizes asset to a size x size square and draws it over the canvas
// at pos, masked by the asset's own alpha channel. Aspect ratio is not kept.
func Paste(c Canvas, asset image.Image, pos model.Point, size int) {
	if asset == nil || size <= 0 {
		return
	}
	// imaging returns NRGBA, so opaque formats gain an alpha channel here.
	c.DrawImage(imaging.Resize(asset, size, size, imaging.Lanczos), pos.X, pos.Y)
}

func overlayRank(k model.OverlayKind) int {
	switch k {
	case model.OverlayLogo:
		return 0
	case model.OverlaySignature:
		return 1
	}
	return 2
}

// orderOverlays returns logos before signatures, keeping the caller's order
// within each kind.
func orderOverlays(overlays []model.OverlayAsset) []model.OverlayAsset {
	out := make([]model.OverlayAsset, len(overlays))
	copy(out, overlays)
	sort.SliceStable(out, func(i, j int) bool {
		return overlayRank(out[i].Kind) < overlayRank(out[j].Kind)
	})
	return out
}

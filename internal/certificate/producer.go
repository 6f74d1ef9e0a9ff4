package certificate

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/YannKr/certgen/internal/metrics"
	"github.com/YannKr/certgen/internal/model"
	"github.com/YannKr/certgen/internal/render"
	"github.com/YannKr/certgen/internal/storage"
)

// Producer turns certificate requests into artifacts for one template and
// layout. Template, Config and Overlays are read-only and shared by every
// request.
type Producer struct {
	Renderer   *render.Renderer
	Template   image.Image
	Config     model.RenderConfig
	Overlays   []model.OverlayAsset
	IncludePDF bool
	// Sink receives every file as soon as it is produced. Nil keeps the
	// artifacts in memory only.
	Sink storage.Sink
}

// Preview renders req without encoding or storing anything.
func (p *Producer) Preview(req model.CertificateRequest) (*image.RGBA, error) {
	return p.Renderer.Render(p.Template, p.Config, req, p.Overlays)
}

// Produce renders req, encodes it and writes the files to the sink. A later
// request with the same stem overwrites the earlier files.
func (p *Producer) Produce(ctx context.Context, req model.CertificateRequest) (*model.Artifact, error) {
	start := time.Now()

	img, err := p.Preview(req)
	if err != nil {
		return nil, fmt.Errorf("render %q: %w", req.Name, err)
	}

	art := &model.Artifact{Stem: ArtifactStem(req.Name)}
	art.Image, err = render.EncodeJPEG(img)
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", req.Name, err)
	}
	metrics.CertificatesRendered.WithLabelValues("jpg").Inc()

	if p.IncludePDF {
		art.PDF, err = render.RenderToPDF(art.Image)
		if err != nil {
			return nil, fmt.Errorf("pdf %q: %w", req.Name, err)
		}
		metrics.CertificatesRendered.WithLabelValues("pdf").Inc()
	}
	metrics.RenderDuration.Observe(time.Since(start).Seconds())

	if p.Sink != nil {
		if err := p.Sink.Put(ctx, art.ImageName(), "image/jpeg", art.Image); err != nil {
			return nil, fmt.Errorf("store %s: %w", art.ImageName(), err)
		}
		if art.PDF != nil {
			if err := p.Sink.Put(ctx, art.PDFName(), "application/pdf", art.PDF); err != nil {
				return nil, fmt.Errorf("store %s: %w", art.PDFName(), err)
			}
		}
	}

	slog.Debug("certificate produced", "stem", art.Stem, "pdf", art.PDF != nil, "elapsed", time.Since(start))
	return art, nil
}

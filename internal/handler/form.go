package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/YannKr/certgen/internal/certificate"
	"github.com/YannKr/certgen/internal/model"
	"github.com/YannKr/certgen/internal/store"
	"github.com/YannKr/certgen/internal/templates"
)

// renderForm is the multipart form shared by the preview, certificate and
// bulk routes.
type renderForm struct {
	Template   string
	Request    model.CertificateRequest
	Overlays   []model.OverlayAsset
	IncludePDF bool
	Lenient    bool

	// Layout is an optional JSON layout applied over the saved one for this
	// request only.
	Layout []byte
}

func (h *Handler) parseRenderForm(w http.ResponseWriter, r *http.Request) (*renderForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, badRequest(err)
	}

	f := &renderForm{
		Template: r.FormValue("template"),
		Request: model.CertificateRequest{
			Name:  r.FormValue("name"),
			Topic: r.FormValue("topic"),
			Date:  r.FormValue("date"),
		},
		IncludePDF: formBool(r, "pdf"),
		Lenient:    formBool(r, "lenient"),
	}
	if v := r.FormValue("config"); v != "" {
		f.Layout = []byte(v)
	}
	if f.Template == "" {
		return nil, badRequest(errors.New("template is required"))
	}

	for _, slot := range model.OverlaySlots {
		file, _, err := r.FormFile(slot.Key)
		if err == http.ErrMissingFile {
			continue
		}
		if err != nil {
			return nil, badRequest(fmt.Errorf("read %s: %w", slot.Key, err))
		}
		img, err := templates.DecodeOverlay(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", slot.Key, err)
		}

		asset := model.OverlayAsset{Kind: slot.Kind, Image: img, Position: slot.Position, Size: slot.Size}
		if asset.Position.X, err = formInt(r, slot.Key+"_x", slot.Position.X); err != nil {
			return nil, err
		}
		if asset.Position.Y, err = formInt(r, slot.Key+"_y", slot.Position.Y); err != nil {
			return nil, err
		}
		if asset.Size, err = formInt(r, slot.Key+"_size", slot.Size); err != nil {
			return nil, err
		}
		if asset.Size < model.MinOverlaySize || asset.Size > model.MaxOverlaySize {
			return nil, fmt.Errorf("%w: %s size %d outside [%d,%d]", model.ErrInvalidConfig,
				slot.Key, asset.Size, model.MinOverlaySize, model.MaxOverlaySize)
		}
		f.Overlays = append(f.Overlays, asset)
	}
	return f, nil
}

// producer builds a Producer for the form's template and the saved layout,
// with the form's layout override applied on top.
func (h *Handler) producer(r *http.Request, f *renderForm) (*certificate.Producer, error) {
	tpl, err := h.Templates.Open(f.Template)
	if err != nil {
		return nil, err
	}
	cfg, err := store.LoadOrDefault(r.Context(), h.Store)
	if err != nil {
		return nil, err
	}
	if f.Layout != nil {
		dec := json.NewDecoder(bytes.NewReader(f.Layout))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, badRequest(fmt.Errorf("config: %w", err))
		}
	}
	return &certificate.Producer{
		Renderer:   h.Renderer,
		Template:   tpl,
		Config:     cfg,
		Overlays:   f.Overlays,
		IncludePDF: f.IncludePDF,
		Sink:       h.Sink,
	}, nil
}

func formInt(r *http.Request, key string, fallback int) (int, error) {
	v := r.FormValue(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not an integer", model.ErrInvalidConfig, key, v)
	}
	return n, nil
}

func formBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.FormValue(key))
	return b
}

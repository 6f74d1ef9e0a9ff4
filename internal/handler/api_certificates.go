package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/YannKr/certgen/internal/render"
)

type apiArtifact struct {
	Stem  string `json:"stem"`
	Image string `json:"image"`
	PDF   string `json:"pdf,omitempty"`
}

// APIPreview renders one certificate and returns the JPEG without storing
// anything.
func (h *Handler) APIPreview(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseRenderForm(w, r)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	p, err := h.producer(r, form)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	img, err := p.Preview(form.Request)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	data, err := render.EncodeJPEG(img)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func (h *Handler) APICertificateCreate(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseRenderForm(w, r)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	p, err := h.producer(r, form)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	art, err := p.Produce(r.Context(), form.Request)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	resp := apiArtifact{Stem: art.Stem, Image: art.ImageName()}
	if art.PDF != nil {
		resp.PDF = art.PDFName()
	}
	renderJSON(w, http.StatusCreated, resp)
}

func (h *Handler) APICertificateDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		renderJSONError(w, http.StatusNotFound, "NOT_FOUND", "no such artifact")
		return
	}
	path := h.Output.Path(name)
	if _, err := os.Stat(path); err != nil {
		renderJSONError(w, http.StatusNotFound, "NOT_FOUND", "no such artifact")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+strings.ReplaceAll(name, `"`, "")+`"`)
	http.ServeFile(w, r, path)
}

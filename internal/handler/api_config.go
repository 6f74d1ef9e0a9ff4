package handler

import (
	"encoding/json"
	"math"
	"net/http"

	"github.com/YannKr/certgen/internal/model"
	"github.com/YannKr/certgen/internal/store"
)

func (h *Handler) APIConfigGet(w http.ResponseWriter, r *http.Request) {
	cfg, err := store.LoadOrDefault(r.Context(), h.Store)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, cfg)
}

// APIConfigPut replaces the saved layout. With ?template=<name> the
// positions are checked against that template's size as well.
func (h *Handler) APIConfigPut(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var cfg model.RenderConfig
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body: "+err.Error())
		return
	}

	width, height := math.MaxInt32, math.MaxInt32
	if name := r.URL.Query().Get("template"); name != "" {
		tpl, err := h.Templates.Open(name)
		if err != nil {
			renderErr(w, r, err)
			return
		}
		width, height = tpl.Bounds().Dx(), tpl.Bounds().Dy()
	}
	if err := cfg.Validate(width, height); err != nil {
		renderErr(w, r, err)
		return
	}

	if err := h.Store.Save(r.Context(), cfg); err != nil {
		renderErr(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, cfg)
}

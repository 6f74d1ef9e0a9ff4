package handler

import (
	"log/slog"
	"net/http"
)

func (h *Handler) APITemplateList(w http.ResponseWriter, r *http.Request) {
	names, err := h.Templates.List()
	if err != nil {
		renderErr(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	renderJSON(w, http.StatusOK, map[string][]string{"templates": names})
}

func (h *Handler) APITemplateUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		renderErr(w, r, badRequest(err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "missing 'file' field in form")
		return
	}
	defer file.Close()

	name, err := h.Templates.Save(r.Context(), header.Filename, file)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	slog.Info("template uploaded", "name", name, "size", header.Size)
	renderJSON(w, http.StatusCreated, map[string]string{"name": name})
}

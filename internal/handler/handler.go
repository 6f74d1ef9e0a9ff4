package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/YannKr/certgen/internal/bulk"
	"github.com/YannKr/certgen/internal/config"
	"github.com/YannKr/certgen/internal/model"
	"github.com/YannKr/certgen/internal/render"
	"github.com/YannKr/certgen/internal/storage"
	"github.com/YannKr/certgen/internal/store"
	"github.com/YannKr/certgen/internal/templates"
	"github.com/YannKr/certgen/internal/webhook"
)

type Handler struct {
	DB        *sql.DB
	Cfg       *config.Config
	Store     store.Store
	Templates *templates.Library
	Renderer  *render.Renderer
	// Output is the local artifact directory served by the download route.
	Output *storage.DirSink
	// Sink receives every generated file. It always includes Output.
	Sink     storage.Sink
	Archives *storage.DirSink
	// Notifier receives bulk job events. Nil disables notifications.
	Notifier *webhook.Notifier
}

func New(database *sql.DB, cfg *config.Config, st store.Store, sink storage.Sink) *Handler {
	output := &storage.DirSink{Dir: cfg.OutputDir}
	if sink == nil {
		sink = output
	}
	return &Handler{
		DB:        database,
		Cfg:       cfg,
		Store:     st,
		Templates: &templates.Library{Dir: cfg.TemplateDir},
		Renderer:  render.New(render.NewFontLoader(), cfg.FontPath),
		Output:    output,
		Sink:      sink,
		Archives:  &storage.DirSink{Dir: cfg.ArchiveDir()},
	}
}

var errBadRequest = errors.New("bad request")

func badRequest(err error) error {
	return fmt.Errorf("%w: %w", errBadRequest, err)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func renderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func renderJSONError(w http.ResponseWriter, status int, code, message string) {
	renderJSON(w, status, map[string]apiError{"error": {Code: code, Message: message}})
}

// renderErr maps domain errors to API errors. Anything unrecognised is
// logged and reported as an internal error.
func renderErr(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		renderJSONError(w, http.StatusRequestEntityTooLarge, "TOO_LARGE", "request body too large")
	case errors.Is(err, errBadRequest):
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	case errors.Is(err, model.ErrInvalidConfig):
		renderJSONError(w, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
	case errors.Is(err, bulk.ErrMissingColumn):
		renderJSONError(w, http.StatusBadRequest, "MISSING_COLUMN", err.Error())
	case errors.Is(err, bulk.ErrMalformedRow):
		renderJSONError(w, http.StatusBadRequest, "MALFORMED_ROW", err.Error())
	case errors.Is(err, templates.ErrTemplateUnavailable):
		renderJSONError(w, http.StatusNotFound, "TEMPLATE_UNAVAILABLE", err.Error())
	case errors.Is(err, templates.ErrUnsupportedType):
		renderJSONError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", err.Error())
	case errors.Is(err, store.ErrNotFound):
		renderJSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		renderJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.PingContext(r.Context()); err != nil {
		renderJSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "database unavailable")
		return
	}
	renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

package handler

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/YannKr/certgen/internal/db"
	"github.com/YannKr/certgen/internal/model"
)

type apiJob struct {
	ID          string     `json:"id"`
	Template    string     `json:"template"`
	State       string     `json:"state"`
	IncludePDF  bool       `json:"include_pdf"`
	Processed   int        `json:"processed"`
	Failed      int        `json:"failed"`
	HasArchive  bool       `json:"has_archive"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func jobToAPI(j *model.Job) apiJob {
	return apiJob{
		ID:          j.ID,
		Template:    j.Template,
		State:       j.State,
		IncludePDF:  j.IncludePDF,
		Processed:   j.Processed,
		Failed:      j.Failed,
		HasArchive:  j.ArchivePath != "",
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		CompletedAt: j.CompletedAt,
	}
}

func (h *Handler) APIJobList(w http.ResponseWriter, r *http.Request) {
	jobs, err := db.ListJobs(h.DB, 100)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	out := make([]apiJob, 0, len(jobs))
	for i := range jobs {
		out = append(out, jobToAPI(&jobs[i]))
	}
	renderJSON(w, http.StatusOK, map[string][]apiJob{"jobs": out})
}

func (h *Handler) APIJobGet(w http.ResponseWriter, r *http.Request) {
	j, err := db.GetJob(h.DB, chi.URLParam(r, "id"))
	if err != nil {
		renderErr(w, r, err)
		return
	}
	if j == nil {
		renderJSONError(w, http.StatusNotFound, "NOT_FOUND", "job not found")
		return
	}
	renderJSON(w, http.StatusOK, jobToAPI(j))
}

func (h *Handler) APIJobArchive(w http.ResponseWriter, r *http.Request) {
	j, err := db.GetJob(h.DB, chi.URLParam(r, "id"))
	if err != nil {
		renderErr(w, r, err)
		return
	}
	if j == nil || j.ArchivePath == "" {
		renderJSONError(w, http.StatusNotFound, "NOT_FOUND", "archive not found")
		return
	}
	if _, err := os.Stat(j.ArchivePath); err != nil {
		renderJSONError(w, http.StatusNotFound, "NOT_FOUND", "archive expired")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+j.ID+`.zip"`)
	http.ServeFile(w, r, j.ArchivePath)
}

package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/YannKr/certgen/internal/bulk"
	"github.com/YannKr/certgen/internal/db"
	"github.com/YannKr/certgen/internal/model"
	"github.com/YannKr/certgen/internal/webhook"
)

// APIBulk renders one certificate per CSV row and streams back the ZIP
// archive. Every artifact is also written to the output sink as it is
// produced, and the archive is kept for later download under the job id.
func (h *Handler) APIBulk(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseRenderForm(w, r)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	file, _, err := r.FormFile("csv")
	if err != nil {
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "missing 'csv' field in form")
		return
	}
	defer file.Close()

	p, err := h.producer(r, form)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	job, err := bulk.ParseTable(file, form.Lenient)
	if err != nil {
		renderErr(w, r, err)
		return
	}

	rec := &model.Job{ID: job.ID, Template: form.Template, IncludePDF: form.IncludePDF}
	if err := db.CreateJob(h.DB, rec); err != nil {
		renderErr(w, r, err)
		return
	}

	runner := &bulk.Runner{Lenient: form.Lenient}
	res, err := runner.Run(r.Context(), job, p.Produce)
	if err != nil {
		h.failJob(rec, err)
		renderErr(w, r, err)
		return
	}

	archiveName := job.ID + ".zip"
	if err := h.Archives.Put(r.Context(), archiveName, "application/zip", res.Archive); err != nil {
		h.failJob(rec, err)
		renderErr(w, r, err)
		return
	}
	if err := db.CompleteJob(h.DB, job.ID, res.Processed, len(res.Failed), h.Archives.Path(archiveName)); err != nil {
		slog.Error("mark job completed", "job", job.ID, "error", err)
	}
	h.Notifier.Notify(webhook.BulkCompleted, map[string]any{
		"job_id":    job.ID,
		"template":  form.Template,
		"processed": res.Processed,
		"failed":    res.Failed,
		"entries":   res.Entries,
	})

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="certificates.zip"`)
	w.Header().Set("X-Job-ID", job.ID)
	w.Header().Set("X-Processed-Count", strconv.Itoa(res.Processed))
	w.Header().Set("X-Failed-Count", strconv.Itoa(len(res.Failed)))
	w.Write(res.Archive)
}

func (h *Handler) failJob(rec *model.Job, cause error) {
	if err := db.FailJob(h.DB, rec.ID, cause.Error()); err != nil {
		slog.Error("mark job failed", "job", rec.ID, "error", err)
	}
	h.Notifier.Notify(webhook.BulkFailed, map[string]string{
		"job_id":   rec.ID,
		"template": rec.Template,
		"error":    cause.Error(),
	})
}

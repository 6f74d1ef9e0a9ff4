package bulk

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/YannKr/certgen/internal/metrics"
	"github.com/YannKr/certgen/internal/model"
)

// RenderFunc produces the artifact for one request.
type RenderFunc func(ctx context.Context, req model.CertificateRequest) (*model.Artifact, error)

// Runner processes a Job row by row. With Lenient set a row whose render
// fails is recorded in Result.Failed instead of aborting the job.
type Runner struct {
	Lenient bool
}

// Result is the outcome of a completed job.
type Result struct {
	JobID     string
	Archive   []byte
	Entries   []string
	Processed int
	Failed    []RowError
}

// Run renders every row in table order and packs the files into one ZIP
// archive. A later file with the same name replaces the earlier one and
// takes its position in the archive. No archive is returned on error.
func (r *Runner) Run(ctx context.Context, job *Job, fn RenderFunc) (*Result, error) {
	start := time.Now()
	res := &Result{JobID: job.ID, Failed: append([]RowError(nil), job.Skipped...)}
	metrics.BulkRows.WithLabelValues("skipped").Add(float64(len(job.Skipped)))

	var arc archive
	for _, row := range job.Rows {
		if err := ctx.Err(); err != nil {
			metrics.BulkJobs.WithLabelValues("failed").Inc()
			return nil, err
		}

		art, err := fn(ctx, row.Request)
		if err != nil {
			if !r.Lenient {
				metrics.BulkRows.WithLabelValues("failed").Inc()
				metrics.BulkJobs.WithLabelValues("failed").Inc()
				return nil, fmt.Errorf("line %d: %w", row.Line, err)
			}
			slog.Warn("bulk row failed", "job", job.ID, "line", row.Line, "error", err)
			metrics.BulkRows.WithLabelValues("failed").Inc()
			res.Failed = append(res.Failed, RowError{Line: row.Line, Name: row.Request.Name, Reason: err.Error()})
			continue
		}

		arc.put(art.ImageName(), art.Image)
		if art.PDF != nil {
			arc.put(art.PDFName(), art.PDF)
		}
		res.Processed++
		metrics.BulkRows.WithLabelValues("ok").Inc()
	}

	data, err := arc.bytes()
	if err != nil {
		metrics.BulkJobs.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("pack archive: %w", err)
	}
	res.Archive = data
	res.Entries = arc.names()
	metrics.BulkJobs.WithLabelValues("completed").Inc()

	slog.Info("bulk job done", "job", job.ID, "processed", res.Processed,
		"failed", len(res.Failed), "entries", len(res.Entries), "elapsed", time.Since(start))
	return res, nil
}

type entry struct {
	name string
	data []byte
}

// archive keeps entries in insertion order with last-write-wins per name.
type archive struct {
	entries []entry
}

func (a *archive) put(name string, data []byte) {
	for i, e := range a.entries {
		if e.name == name {
			a.entries = append(a.entries[:i], a.entries[i+1:]...)
			break
		}
	}
	a.entries = append(a.entries, entry{name: name, data: data})
}

func (a *archive) names() []string {
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.name
	}
	return out
}

func (a *archive) bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range a.entries {
		// JPEG and PDF payloads are already compressed.
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Store, Modified: time.Now()})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

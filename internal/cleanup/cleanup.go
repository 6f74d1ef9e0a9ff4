package cleanup

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/YannKr/certgen/internal/db"
)

// Cleaner removes generated artifacts and finished bulk jobs once they are
// older than Retention.
type Cleaner struct {
	DB        *sql.DB
	OutputDir string
	Retention time.Duration
	Interval  time.Duration
	cancel    context.CancelFunc
	done      chan struct{}
}

func (c *Cleaner) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go c.loop(ctx)
	slog.Info("cleanup scheduler started", "interval", c.Interval, "retention", c.Retention)
}

func (c *Cleaner) Stop() {
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}
	slog.Info("cleanup scheduler stopped")
}

func (c *Cleaner) loop(ctx context.Context) {
	defer close(c.done)

	c.RunOnce(time.Now())

	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			c.RunOnce(t)
		}
	}
}

// RunOnce deletes everything that expired before now minus Retention.
func (c *Cleaner) RunOnce(now time.Time) {
	cutoff := now.Add(-c.Retention)

	removed, err := pruneDir(c.OutputDir, cutoff)
	if err != nil {
		slog.Error("cleanup: prune output dir", "dir", c.OutputDir, "error", err)
	} else if removed > 0 {
		slog.Info("cleanup: removed expired artifacts", "count", removed)
	}

	jobs, err := db.ListJobsOlderThan(c.DB, cutoff)
	if err != nil {
		slog.Error("cleanup: list expired jobs", "error", err)
		return
	}
	for _, job := range jobs {
		if job.ArchivePath != "" {
			if err := os.Remove(job.ArchivePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				slog.Warn("cleanup: remove archive", "path", job.ArchivePath, "error", err)
				continue
			}
		}
		if err := db.DeleteJob(c.DB, job.ID); err != nil {
			slog.Error("cleanup: delete job", "id", job.ID, "error", err)
			continue
		}
		slog.Info("cleanup: removed expired job", "id", job.ID)
	}
}

// pruneDir removes regular files in dir last modified before cutoff,
// including stale temp files from interrupted writes.
func pruneDir(dir string, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil {
			slog.Warn("cleanup: remove file", "path", path, "error", err)
			continue
		}
		if !strings.HasPrefix(e.Name(), ".") {
			removed++
		}
	}
	return removed, nil
}

package db

import (
	"database/sql"
	"time"

	"github.com/YannKr/certgen/internal/model"
)

const jobColumns = `id, template, state, include_pdf, processed, failed,
	COALESCE(archive_path, ''), COALESCE(error_message, ''), created_at, completed_at`

func CreateJob(database *sql.DB, j *model.Job) error {
	_, err := database.Exec(
		`INSERT INTO jobs (id, template, state, include_pdf) VALUES (?, ?, 'RUNNING', ?)`,
		j.ID, j.Template, j.IncludePDF,
	)
	return err
}

func CompleteJob(database *sql.DB, id string, processed, failed int, archivePath string) error {
	_, err := database.Exec(
		`UPDATE jobs SET state = 'COMPLETED', processed = ?, failed = ?, archive_path = ?,
		        completed_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		 WHERE id = ?`, processed, failed, archivePath, id,
	)
	return err
}

func FailJob(database *sql.DB, id, errorMsg string) error {
	_, err := database.Exec(
		`UPDATE jobs SET state = 'FAILED', error_message = ?, completed_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		 WHERE id = ?`, errorMsg, id,
	)
	return err
}

// GetJob returns nil, nil when no job has the given id.
func GetJob(database *sql.DB, id string) (*model.Job, error) {
	j, err := scanJob(database.QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return j, err
}

// ListJobs returns the most recent jobs first.
func ListJobs(database *sql.DB, limit int) ([]model.Job, error) {
	return queryJobs(database, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC LIMIT ?`, limit)
}

// ListJobsOlderThan returns finished jobs created before cutoff.
func ListJobsOlderThan(database *sql.DB, cutoff time.Time) ([]model.Job, error) {
	return queryJobs(database,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE state != 'RUNNING' AND created_at < ?
		 ORDER BY created_at ASC`,
		cutoff.UTC().Format("2006-01-02T15:04:05.000Z"))
}

func DeleteJob(database *sql.DB, id string) error {
	_, err := database.Exec(`DELETE FROM jobs WHERE id = ?`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	j := &model.Job{}
	var createdAt, completedAt SQLiteTime
	err := row.Scan(&j.ID, &j.Template, &j.State, &j.IncludePDF, &j.Processed, &j.Failed,
		&j.ArchivePath, &j.Error, &createdAt, &completedAt)
	if err != nil {
		return nil, err
	}
	j.CreatedAt = createdAt.Time
	j.CompletedAt = completedAt.Ptr()
	return j, nil
}

func queryJobs(database *sql.DB, query string, args ...any) ([]model.Job, error) {
	rows, err := database.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

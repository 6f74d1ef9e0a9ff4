package db_test

import (
	"database/sql"
	"os"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YannKr/certgen"
	"github.com/YannKr/certgen/internal/db"
	"github.com/YannKr/certgen/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.Migrate(database, certgen.MigrationFS))
	return database
}

func TestMigrateIsIdempotent(t *testing.T) {
	database := openTestDB(t)
	require.NoError(t, db.Migrate(database, certgen.MigrationFS))

	v, err := db.SchemaVersion(database)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestOpenCreatesFileWithWAL(t *testing.T) {
	dir := t.TempDir()
	database, err := db.Open(dir)
	require.NoError(t, err)
	defer database.Close()

	_, err = os.Stat(db.Path(dir))
	require.NoError(t, err)

	var mode string
	require.NoError(t, database.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
	var fk int
	require.NoError(t, database.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestMigrateAppliesByVersion(t *testing.T) {
	database, err := db.Open(t.TempDir())
	require.NoError(t, err)
	defer database.Close()

	fsys := fstest.MapFS{
		"migrations/1_create.sql": {Data: []byte(`CREATE TABLE seq (v TEXT);`)},
		"migrations/2_b.sql":      {Data: []byte(`INSERT INTO seq VALUES ('b');`)},
		"migrations/README.md":    {Data: []byte(`ignored`)},
	}
	require.NoError(t, db.Migrate(database, fsys))

	// 10 sorts before 2 as text but must run after it
	fsys["migrations/10_c.sql"] = &fstest.MapFile{Data: []byte(`INSERT INTO seq VALUES ('c');`)}
	require.NoError(t, db.Migrate(database, fsys))
	require.NoError(t, db.Migrate(database, fsys))

	var got []string
	rows, err := database.Query(`SELECT v FROM seq ORDER BY rowid`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var v string
		require.NoError(t, rows.Scan(&v))
		got = append(got, v)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"b", "c"}, got)

	v, err := db.SchemaVersion(database)
	require.NoError(t, err)
	assert.Equal(t, 10, v)
}

func TestMigrateFailureKeepsVersion(t *testing.T) {
	database, err := db.Open(t.TempDir())
	require.NoError(t, err)
	defer database.Close()

	fsys := fstest.MapFS{
		"migrations/1_ok.sql":  {Data: []byte(`CREATE TABLE a (x INTEGER);`)},
		"migrations/2_bad.sql": {Data: []byte(`CREATE TABLE b (x INTEGER); INSERT INTO missing VALUES (1);`)},
	}
	require.Error(t, db.Migrate(database, fsys))

	v, err := db.SchemaVersion(database)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name = 'b'`).Scan(&n))
	assert.Zero(t, n, "failed migration is rolled back")
}

func TestMigrateRejectsBadNames(t *testing.T) {
	database, err := db.Open(t.TempDir())
	require.NoError(t, err)
	defer database.Close()

	cases := map[string]fstest.MapFS{
		"no version": {"migrations/init.sql": {Data: []byte(`SELECT 1;`)}},
		"duplicate": {
			"migrations/1_a.sql":  {Data: []byte(`SELECT 1;`)},
			"migrations/01_b.sql": {Data: []byte(`SELECT 1;`)},
		},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, db.Migrate(database, fsys))
		})
	}
}

func TestRenderConfigRoundTrip(t *testing.T) {
	database := openTestDB(t)

	got, err := db.GetRenderConfig(database, "default")
	require.NoError(t, err)
	assert.Nil(t, got)

	cfg := model.DefaultRenderConfig()
	cfg.FontColor = model.RGB{R: 200, G: 10, B: 30}
	require.NoError(t, db.SaveRenderConfig(database, "default", cfg))

	cfg.FontSizes.Name = 48
	require.NoError(t, db.SaveRenderConfig(database, "default", cfg))

	got, err = db.GetRenderConfig(database, "default")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cfg, *got)

	other, err := db.GetRenderConfig(database, "other")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestJobLifecycle(t *testing.T) {
	database := openTestDB(t)

	require.NoError(t, db.CreateJob(database, &model.Job{ID: "j1", Template: "a.png", IncludePDF: true}))
	require.NoError(t, db.CreateJob(database, &model.Job{ID: "j2", Template: "b.png"}))

	j, err := db.GetJob(database, "j1")
	require.NoError(t, err)
	require.NotNil(t, j)
	assert.Equal(t, model.JobRunning, j.State)
	assert.True(t, j.IncludePDF)
	assert.Nil(t, j.CompletedAt)
	assert.False(t, j.CreatedAt.IsZero())

	require.NoError(t, db.CompleteJob(database, "j1", 3, 1, "/data/archives/j1.zip"))
	require.NoError(t, db.FailJob(database, "j2", "missing required column: date"))

	j, err = db.GetJob(database, "j1")
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, j.State)
	assert.Equal(t, 3, j.Processed)
	assert.Equal(t, 1, j.Failed)
	assert.Equal(t, "/data/archives/j1.zip", j.ArchivePath)
	require.NotNil(t, j.CompletedAt)

	j, err = db.GetJob(database, "j2")
	require.NoError(t, err)
	assert.Equal(t, model.JobFailed, j.State)
	assert.Equal(t, "missing required column: date", j.Error)

	jobs, err := db.ListJobs(database, 10)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	old, err := db.ListJobsOlderThan(database, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, old, 2)
	old, err = db.ListJobsOlderThan(database, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, old)

	require.NoError(t, db.DeleteJob(database, "j2"))
	j, err = db.GetJob(database, "j2")
	require.NoError(t, err)
	assert.Nil(t, j)
}

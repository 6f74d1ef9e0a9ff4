package cleanup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YannKr/certgen"
	"github.com/YannKr/certgen/internal/db"
	"github.com/YannKr/certgen/internal/model"
)

func TestRunOnce(t *testing.T) {
	dir := t.TempDir()
	database, err := db.Open(dir)
	require.NoError(t, err)
	defer database.Close()
	require.NoError(t, db.Migrate(database, certgen.MigrationFS))

	out := filepath.Join(dir, "output")
	require.NoError(t, os.MkdirAll(out, 0755))
	old := filepath.Join(out, "old.jpg")
	fresh := filepath.Join(out, "fresh.jpg")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(old, time.Now().Add(-48*time.Hour), time.Now().Add(-48*time.Hour)))

	archive := filepath.Join(dir, "j1.zip")
	require.NoError(t, os.WriteFile(archive, []byte("zip"), 0644))
	require.NoError(t, db.CreateJob(database, &model.Job{ID: "j1", Template: "a.png"}))
	require.NoError(t, db.CompleteJob(database, "j1", 1, 0, archive))
	require.NoError(t, db.CreateJob(database, &model.Job{ID: "running", Template: "a.png"}))

	c := &Cleaner{DB: database, OutputDir: out, Retention: 24 * time.Hour}

	// Jobs were created just now, so only the backdated file expires.
	c.RunOnce(time.Now())
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
	j, err := db.GetJob(database, "j1")
	require.NoError(t, err)
	assert.NotNil(t, j)

	c.RunOnce(time.Now().Add(25 * time.Hour))
	assert.NoFileExists(t, fresh)
	assert.NoFileExists(t, archive)
	j, err = db.GetJob(database, "j1")
	require.NoError(t, err)
	assert.Nil(t, j)

	running, err := db.GetJob(database, "running")
	require.NoError(t, err)
	assert.NotNil(t, running, "running jobs are never pruned")
}

func TestPruneMissingDir(t *testing.T) {
	n, err := pruneDir(filepath.Join(t.TempDir(), "none"), time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const fileName = "certgen.db"

// connPragmas run on every new connection.
var connPragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(ON)",
}

// Path returns the database file location under dataDir.
func Path(dataDir string) string {
	return filepath.Join(dataDir, "db", fileName)
}

// Open opens (creating if needed) the job and config database under
// dataDir/db. The pool is capped at one connection since SQLite has a
// single writer.
func Open(dataDir string) (*sql.DB, error) {
	path := Path(dataDir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	dsn := path + "?" + url.Values{"_pragma": connPragmas}.Encode()
	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	database.SetMaxOpenConns(1)

	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return database, nil
}

// timeLayouts are the TEXT forms found in job rows, newest first.
var timeLayouts = []string{
	"2006-01-02T15:04:05.000Z",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// SQLiteTime scans a timestamp column. The driver returns a string for
// strftime defaults, a time.Time for values bound from Go and an int64 for
// unix seconds.
type SQLiteTime struct {
	Time time.Time
}

func (st *SQLiteTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		st.Time = time.Time{}
		return nil
	case time.Time:
		st.Time = v.UTC()
		return nil
	case int64:
		st.Time = time.Unix(v, 0).UTC()
		return nil
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				st.Time = t.UTC()
				return nil
			}
		}
		return fmt.Errorf("scan time: cannot parse %q", v)
	}
	return fmt.Errorf("scan time: unsupported type %T", src)
}

// Ptr returns nil for a NULL column and the time otherwise.
func (st SQLiteTime) Ptr() *time.Time {
	if st.Time.IsZero() {
		return nil
	}
	t := st.Time
	return &t
}

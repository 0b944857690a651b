package session

import (
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cadenroberts/ollamabot/internal/core"
)

// Index is a sqlite summary index kept beside the session files so
// enumeration does not re-parse every USF record. It is a cache: the
// JSON files remain the source of truth and the index rebuilds on
// damage.
type Index struct {
	db *sql.DB
}

const indexSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	description TEXT NOT NULL DEFAULT '',
	platform    TEXT NOT NULL DEFAULT '',
	step_count  INTEGER NOT NULL DEFAULT 0,
	format      TEXT NOT NULL DEFAULT '',
	updated_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at DESC);
`

// OpenIndex opens (or creates) the index database at a path.
func OpenIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, core.ErrIO("INDEX_OPEN_FAILED", "opening session index").WithCause(err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(indexSchema); err != nil {
		db.Close()
		return nil, core.ErrIO("INDEX_INIT_FAILED", "creating session index schema").WithCause(err)
	}
	return &Index{db: db}, nil
}

// Close releases the database handle.
func (i *Index) Close() error {
	return i.db.Close()
}

// Upsert inserts or refreshes one session summary.
func (i *Index) Upsert(info Info) error {
	_, err := i.db.Exec(`
		INSERT INTO sessions (id, description, platform, step_count, format, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			platform    = excluded.platform,
			step_count  = excluded.step_count,
			format      = excluded.format,
			updated_at  = excluded.updated_at`,
		info.ID, info.Description, string(info.Platform), info.StepCount, info.Format, info.UpdatedAt)
	if err != nil {
		return core.ErrIO("INDEX_WRITE_FAILED", "upserting session summary").WithCause(err)
	}
	return nil
}

// Get returns one session summary.
func (i *Index) Get(id string) (Info, error) {
	row := i.db.QueryRow(`
		SELECT id, description, platform, step_count, format, updated_at
		FROM sessions WHERE id = ?`, id)
	var info Info
	var platform string
	var updated time.Time
	if err := row.Scan(&info.ID, &info.Description, &platform, &info.StepCount, &info.Format, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Info{}, core.ErrValidation(core.CodeSessionNotFound, "session not indexed: "+id)
		}
		return Info{}, core.ErrIO("INDEX_READ_FAILED", "reading session summary").WithCause(err)
	}
	info.Platform = Platform(platform)
	info.UpdatedAt = updated
	return info, nil
}

// List returns all indexed ids, newest first.
func (i *Index) List() ([]string, error) {
	rows, err := i.db.Query(`SELECT id FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, core.ErrIO("INDEX_READ_FAILED", "listing sessions").WithCause(err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, core.ErrIO("INDEX_READ_FAILED", "scanning session id").WithCause(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, core.ErrIO("INDEX_READ_FAILED", "iterating sessions").WithCause(err)
	}
	return ids, nil
}

// Delete removes one summary.
func (i *Index) Delete(id string) error {
	_, err := i.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return core.ErrIO("INDEX_WRITE_FAILED", "deleting session summary").WithCause(err)
	}
	return nil
}

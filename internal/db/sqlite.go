package db

import (
	"database/sql"
	"errors"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound indicates the requested row doesn't exist.
var ErrNotFound = errors.New("not found")

type Database struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the catalog database and applies the schema.
// The handle is meant to be opened once at startup and injected into
// everything that needs it.
func NewSQLite(path string) (*Database, error) {
	sqlDB, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	d := &Database{db: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return d, nil
}

func (d *Database) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS media (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tmdb_id INTEGER,
		title TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'movie',
		poster_path TEXT NOT NULL DEFAULT '',
		file_path TEXT NOT NULL DEFAULT '',
		overview TEXT NOT NULL DEFAULT '',
		release_date TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS episodes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		media_id INTEGER NOT NULL,
		season_number INTEGER NOT NULL,
		episode_number INTEGER NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		file_path TEXT NOT NULL DEFAULT '',
		subtitle_path TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (media_id) REFERENCES media(id),
		UNIQUE(media_id, season_number, episode_number)
	);

	CREATE TABLE IF NOT EXISTS subtitles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		media_id INTEGER,
		episode_id INTEGER,
		language TEXT NOT NULL DEFAULT 'und',
		label TEXT NOT NULL DEFAULT '',
		file_path TEXT NOT NULL UNIQUE,
		is_default INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (media_id) REFERENCES media(id),
		FOREIGN KEY (episode_id) REFERENCES episodes(id)
	);

	CREATE TABLE IF NOT EXISTS extracted_subtitles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		video_file TEXT NOT NULL,
		language TEXT NOT NULL DEFAULT 'und',
		label TEXT NOT NULL DEFAULT '',
		file_path TEXT NOT NULL UNIQUE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_extracted_video ON extracted_subtitles(video_file);
	`
	_, err := d.db.Exec(schema)
	return err
}

func (d *Database) Close() error {
	return d.db.Close()
}

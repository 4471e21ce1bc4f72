package db

import (
	"database/sql"
	"fmt"
)

const (
	MediaTypeMovie = "movie"
	MediaTypeTV    = "tv"
)

// Media is one movie or one TV show. For movies FilePath points at the
// uploaded video; shows carry their videos on episodes instead.
type Media struct {
	ID          int64            `json:"id"`
	TMDBID      int64            `json:"tmdb_id"`
	Title       string           `json:"title"`
	Type        string           `json:"type"`
	PosterPath  string           `json:"poster_path"`
	FilePath    string           `json:"file_path"`
	Overview    string           `json:"overview"`
	ReleaseDate string           `json:"release_date"`
	Episodes    []*Episode       `json:"episodes,omitempty"`
	Subtitles   []*SubtitleTrack `json:"available_subtitles,omitempty"`
}

type Episode struct {
	ID            int64            `json:"id"`
	MediaID       int64            `json:"media_id"`
	SeasonNumber  int              `json:"season_number"`
	EpisodeNumber int              `json:"episode_number"`
	Title         string           `json:"title"`
	FilePath      string           `json:"file_path"`
	SubtitlePath  string           `json:"subtitle_path"`
	Subtitles     []*SubtitleTrack `json:"available_subtitles,omitempty"`
}

const mediaColumns = "id, tmdb_id, title, type, poster_path, file_path, overview, release_date"

func scanMedia(row interface{ Scan(...any) error }) (*Media, error) {
	m := &Media{}
	err := row.Scan(&m.ID, &m.TMDBID, &m.Title, &m.Type, &m.PosterPath, &m.FilePath, &m.Overview, &m.ReleaseDate)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// CreateMedia inserts a new media row and sets its ID.
// Movies are intentionally not deduplicated by tmdb_id.
func (d *Database) CreateMedia(m *Media) error {
	result, err := d.db.Exec(
		`INSERT INTO media (tmdb_id, title, type, poster_path, file_path, overview, release_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.TMDBID, m.Title, m.Type, m.PosterPath, m.FilePath, m.Overview, m.ReleaseDate,
	)
	if err != nil {
		return fmt.Errorf("insert media: %w", err)
	}
	m.ID, err = result.LastInsertId()
	return err
}

func (d *Database) GetMedia(id int64) (*Media, error) {
	return scanMedia(d.db.QueryRow("SELECT "+mediaColumns+" FROM media WHERE id = ?", id))
}

// GetShowByTMDBID finds an existing show so episode registration can attach
// to it instead of creating a duplicate. Returns ErrNotFound when absent.
func (d *Database) GetShowByTMDBID(tmdbID int64) (*Media, error) {
	return scanMedia(d.db.QueryRow(
		"SELECT "+mediaColumns+" FROM media WHERE tmdb_id = ? AND type = ?", tmdbID, MediaTypeTV,
	))
}

func (d *Database) ListMedia() ([]*Media, error) {
	rows, err := d.db.Query("SELECT " + mediaColumns + " FROM media ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	media := []*Media{}
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		media = append(media, m)
	}
	return media, rows.Err()
}

func (d *Database) DeleteMedia(id int64) error {
	if _, err := d.db.Exec("DELETE FROM subtitles WHERE media_id = ? OR episode_id IN (SELECT id FROM episodes WHERE media_id = ?)", id, id); err != nil {
		return err
	}
	if _, err := d.db.Exec("DELETE FROM episodes WHERE media_id = ?", id); err != nil {
		return err
	}
	_, err := d.db.Exec("DELETE FROM media WHERE id = ?", id)
	return err
}

const episodeColumns = "id, media_id, season_number, episode_number, title, file_path, subtitle_path"

func scanEpisode(row interface{ Scan(...any) error }) (*Episode, error) {
	e := &Episode{}
	err := row.Scan(&e.ID, &e.MediaID, &e.SeasonNumber, &e.EpisodeNumber, &e.Title, &e.FilePath, &e.SubtitlePath)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (d *Database) GetEpisode(id int64) (*Episode, error) {
	return scanEpisode(d.db.QueryRow("SELECT "+episodeColumns+" FROM episodes WHERE id = ?", id))
}

func (d *Database) ListEpisodes(mediaID int64) ([]*Episode, error) {
	rows, err := d.db.Query(
		"SELECT "+episodeColumns+" FROM episodes WHERE media_id = ? ORDER BY season_number, episode_number",
		mediaID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	episodes := []*Episode{}
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, e)
	}
	return episodes, rows.Err()
}

// UpsertEpisode inserts the episode, or updates the existing row when the
// (media, season, episode) triple is already present. Re-submitting an
// episode replaces its file and title rather than duplicating it.
// Sets ID on the struct either way.
func (d *Database) UpsertEpisode(e *Episode) error {
	existing := &Episode{}
	err := d.db.QueryRow(
		"SELECT id FROM episodes WHERE media_id = ? AND season_number = ? AND episode_number = ?",
		e.MediaID, e.SeasonNumber, e.EpisodeNumber,
	).Scan(&existing.ID)

	switch {
	case err == sql.ErrNoRows:
		result, err := d.db.Exec(
			`INSERT INTO episodes (media_id, season_number, episode_number, title, file_path, subtitle_path)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			e.MediaID, e.SeasonNumber, e.EpisodeNumber, e.Title, e.FilePath, e.SubtitlePath,
		)
		if err != nil {
			return fmt.Errorf("insert episode: %w", err)
		}
		e.ID, err = result.LastInsertId()
		return err
	case err != nil:
		return err
	default:
		_, err := d.db.Exec(
			"UPDATE episodes SET title = ?, file_path = ?, subtitle_path = ? WHERE id = ?",
			e.Title, e.FilePath, e.SubtitlePath, existing.ID,
		)
		e.ID = existing.ID
		return err
	}
}

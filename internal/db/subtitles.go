package db

import (
	"database/sql"
	"fmt"
)

// SubtitleTrack is an extracted (or uploaded) subtitle file linked to either
// a media row or an episode row, never both. FilePath is relative to the
// uploads root and unique across all tracks.
type SubtitleTrack struct {
	ID        int64  `json:"id"`
	MediaID   int64  `json:"media_id,omitempty"`
	EpisodeID int64  `json:"episode_id,omitempty"`
	Language  string `json:"language"`
	Label     string `json:"label"`
	FilePath  string `json:"file_path"`
	IsDefault bool   `json:"is_default"`
}

// ExtractedSubtitle is a manifest entry written by the extraction pipeline
// before any catalog row exists, keyed by the generated video filename.
type ExtractedSubtitle struct {
	VideoFile string `json:"video_file"`
	Language  string `json:"language"`
	Label     string `json:"label"`
	FilePath  string `json:"file_path"`
}

const subtitleColumns = "id, IFNULL(media_id, 0), IFNULL(episode_id, 0), language, label, file_path, is_default"

func scanSubtitle(row interface{ Scan(...any) error }) (*SubtitleTrack, error) {
	s := &SubtitleTrack{}
	var isDefault int
	err := row.Scan(&s.ID, &s.MediaID, &s.EpisodeID, &s.Language, &s.Label, &s.FilePath, &isDefault)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.IsDefault = isDefault != 0
	return s, nil
}

// InsertSubtitle adds a track for one owner. Exactly one of MediaID or
// EpisodeID must be set; the file path unique constraint is the dedup key.
func (d *Database) InsertSubtitle(s *SubtitleTrack) error {
	var mediaID, episodeID any
	if s.EpisodeID != 0 {
		episodeID = s.EpisodeID
	} else {
		mediaID = s.MediaID
	}
	isDefault := 0
	if s.IsDefault {
		isDefault = 1
	}
	result, err := d.db.Exec(
		`INSERT INTO subtitles (media_id, episode_id, language, label, file_path, is_default)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		mediaID, episodeID, s.Language, s.Label, s.FilePath, isDefault,
	)
	if err != nil {
		return fmt.Errorf("insert subtitle: %w", err)
	}
	s.ID, err = result.LastInsertId()
	return err
}

func (d *Database) GetSubtitle(id int64) (*SubtitleTrack, error) {
	return scanSubtitle(d.db.QueryRow("SELECT "+subtitleColumns+" FROM subtitles WHERE id = ?", id))
}

// GetSubtitleByFile looks a track up by its file reference. The linker
// calls this before every insert; ErrNotFound means the file is unlinked.
func (d *Database) GetSubtitleByFile(filePath string) (*SubtitleTrack, error) {
	return scanSubtitle(d.db.QueryRow("SELECT "+subtitleColumns+" FROM subtitles WHERE file_path = ?", filePath))
}

func (d *Database) listSubtitles(query string, arg int64) ([]*SubtitleTrack, error) {
	rows, err := d.db.Query(query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks := []*SubtitleTrack{}
	for rows.Next() {
		s, err := scanSubtitle(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, s)
	}
	return tracks, rows.Err()
}

func (d *Database) ListSubtitlesForMedia(mediaID int64) ([]*SubtitleTrack, error) {
	return d.listSubtitles("SELECT "+subtitleColumns+" FROM subtitles WHERE media_id = ? ORDER BY id", mediaID)
}

func (d *Database) ListSubtitlesForEpisode(episodeID int64) ([]*SubtitleTrack, error) {
	return d.listSubtitles("SELECT "+subtitleColumns+" FROM subtitles WHERE episode_id = ? ORDER BY id", episodeID)
}

// RecordExtraction upserts a manifest row for one extracted file. Re-running
// extraction for the same video overwrites in place, so the manifest always
// reflects what is on disk.
func (d *Database) RecordExtraction(rec *ExtractedSubtitle) error {
	_, err := d.db.Exec(
		`INSERT INTO extracted_subtitles (video_file, language, label, file_path)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(file_path) DO UPDATE SET video_file = ?, language = ?, label = ?`,
		rec.VideoFile, rec.Language, rec.Label, rec.FilePath,
		rec.VideoFile, rec.Language, rec.Label,
	)
	if err != nil {
		return fmt.Errorf("record extraction: %w", err)
	}
	return nil
}

// ListExtractionsForVideo returns the manifest entries produced when the
// given video file was uploaded, in extraction order.
func (d *Database) ListExtractionsForVideo(videoFile string) ([]*ExtractedSubtitle, error) {
	rows, err := d.db.Query(
		"SELECT video_file, language, label, file_path FROM extracted_subtitles WHERE video_file = ? ORDER BY id",
		videoFile,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := []*ExtractedSubtitle{}
	for rows.Next() {
		rec := &ExtractedSubtitle{}
		if err := rows.Scan(&rec.VideoFile, &rec.Language, &rec.Label, &rec.FilePath); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

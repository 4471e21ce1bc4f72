package subtitles

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/movie-server/backend/internal/db"
	"github.com/movie-server/backend/internal/storage"
)

// Catalog is the slice of the store the linker needs.
type Catalog interface {
	GetSubtitleByFile(filePath string) (*db.SubtitleTrack, error)
	InsertSubtitle(s *db.SubtitleTrack) error
	ListExtractionsForVideo(videoFile string) ([]*db.ExtractedSubtitle, error)
}

// Owner identifies which catalog row the subtitles belong to. EpisodeID
// wins when set; otherwise tracks attach to the media row.
type Owner struct {
	MediaID   int64
	EpisodeID int64
}

// Linker associates previously extracted subtitle files with catalog rows.
// Extraction happens at upload time, before any media/episode id exists, so
// linking runs later, when the caller registers the video file reference.
type Linker struct {
	catalog     Catalog
	subtitleDir string
}

func NewLinker(catalog Catalog, subtitleDir string) *Linker {
	return &Linker{catalog: catalog, subtitleDir: subtitleDir}
}

// Link finds every subtitle file extracted for videoFile and inserts a
// track row for each one not already in the catalog. Idempotent: the
// file-reference lookup before each insert means re-linking the same video
// never duplicates rows.
//
// The extraction manifest is the primary source. The directory scan below
// it catches files with no manifest row; that legacy path keeps its known
// fragilities (prefix false positives across videos sharing a base name,
// language tags containing underscores) and is unsynchronized across
// concurrent registrations.
func (l *Linker) Link(owner Owner, videoFile string) error {
	if videoFile == "" {
		return nil
	}

	candidates, err := l.catalog.ListExtractionsForVideo(filepath.Base(videoFile))
	if err != nil {
		return fmt.Errorf("read extraction manifest: %w", err)
	}

	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		seen[c.FilePath] = true
	}

	for _, c := range l.scanDirectory(videoFile) {
		if !seen[c.FilePath] {
			candidates = append(candidates, c)
		}
	}

	for _, c := range candidates {
		if err := l.linkOne(owner, c); err != nil {
			return err
		}
	}
	return nil
}

func (l *Linker) linkOne(owner Owner, rec *db.ExtractedSubtitle) error {
	_, err := l.catalog.GetSubtitleByFile(rec.FilePath)
	if err == nil {
		return nil // already linked
	}
	if !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("check subtitle %s: %w", rec.FilePath, err)
	}

	track := &db.SubtitleTrack{
		MediaID:   owner.MediaID,
		EpisodeID: owner.EpisodeID,
		Language:  rec.Language,
		Label:     rec.Label,
		FilePath:  rec.FilePath,
	}
	if track.EpisodeID != 0 {
		track.MediaID = 0
	}
	if err := l.catalog.InsertSubtitle(track); err != nil {
		return fmt.Errorf("link subtitle %s: %w", rec.FilePath, err)
	}
	log.Printf("Linked subtitle %s (%s) to media=%d episode=%d", rec.FilePath, rec.Language, owner.MediaID, owner.EpisodeID)
	return nil
}

// scanDirectory lists subtitle files whose name starts with the video's
// base name, deriving language and label from the filename convention
// <base>_<lang>_<index>.vtt.
func (l *Linker) scanDirectory(videoFile string) []*db.ExtractedSubtitle {
	prefix := strings.TrimSuffix(filepath.Base(videoFile), filepath.Ext(videoFile))

	entries, err := os.ReadDir(l.subtitleDir)
	if err != nil {
		// Directory may simply not exist yet (no extractions ever ran)
		return nil
	}

	var found []*db.ExtractedSubtitle
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !storage.IsSubtitleFile(name) || !strings.HasPrefix(name, prefix) {
			continue
		}
		lang := languageFromFilename(name)
		found = append(found, &db.ExtractedSubtitle{
			VideoFile: videoFile,
			Language:  lang,
			Label:     languageLabel(lang),
			FilePath:  path.Join("subtitles", name),
		})
	}
	return found
}

// languageFromFilename pulls the second-to-last underscore-delimited
// segment out of the convention <base>_<lang>_<index>.vtt. Anything that
// doesn't match cleanly is "und".
func languageFromFilename(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(base, "_")
	if len(parts) < 3 {
		return "und"
	}
	lang := parts[len(parts)-2]
	if lang == "" {
		return "und"
	}
	return lang
}

package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/movie-server/backend/internal/db"
	"github.com/movie-server/backend/internal/storage"
	"github.com/movie-server/backend/internal/subtitles"
)

type MediaHandler struct {
	db          *db.Database
	linker      *subtitles.Linker
	uploadsPath string
}

func NewMediaHandler(database *db.Database, linker *subtitles.Linker, uploadsPath string) *MediaHandler {
	return &MediaHandler{db: database, linker: linker, uploadsPath: uploadsPath}
}

func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	media, err := h.db.ListMedia()
	if err != nil {
		jsonError(w, "failed to list media", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, media, http.StatusOK)
}

// Get returns one catalog entry. Shows carry their episodes ordered by
// season/episode; every owner carries its linked subtitle tracks as
// available_subtitles.
func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		jsonError(w, "invalid media id", http.StatusBadRequest)
		return
	}

	media, err := h.db.GetMedia(id)
	if errors.Is(err, db.ErrNotFound) {
		jsonError(w, "media not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to load media", http.StatusInternalServerError)
		return
	}

	if media.Type == db.MediaTypeTV {
		episodes, err := h.db.ListEpisodes(media.ID)
		if err != nil {
			jsonError(w, "failed to load episodes", http.StatusInternalServerError)
			return
		}
		for _, ep := range episodes {
			ep.Subtitles, _ = h.db.ListSubtitlesForEpisode(ep.ID)
		}
		media.Episodes = episodes
	} else {
		media.Subtitles, _ = h.db.ListSubtitlesForMedia(media.ID)
	}

	jsonResponse(w, media, http.StatusOK)
}

type createMediaRequest struct {
	TMDBID        int64  `json:"tmdb_id"`
	Title         string `json:"title"`
	Type          string `json:"type"`
	PosterPath    string `json:"poster_path"`
	Overview      string `json:"overview"`
	ReleaseDate   string `json:"release_date"`
	FilePath      string `json:"file_path"`
	SubtitlePath  string `json:"subtitle_path"`
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	EpisodeTitle  string `json:"episode_title"`
}

// Create registers catalog metadata for an already uploaded file. Movies
// always insert a new row; shows are found (or created) by tmdb_id and the
// episode triple is upserted. Once the owning row's id is known the linker
// picks up whatever the upload's extraction produced. A linking failure is
// logged, never surfaced: playback matters more than subtitle completeness.
func (h *MediaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		jsonError(w, "title required", http.StatusBadRequest)
		return
	}

	if req.Type == db.MediaTypeTV {
		h.createEpisode(w, &req)
		return
	}

	media := &db.Media{
		TMDBID:      req.TMDBID,
		Title:       req.Title,
		Type:        db.MediaTypeMovie,
		PosterPath:  req.PosterPath,
		FilePath:    req.FilePath,
		Overview:    req.Overview,
		ReleaseDate: req.ReleaseDate,
	}
	if err := h.db.CreateMedia(media); err != nil {
		jsonError(w, "failed to save media", http.StatusInternalServerError)
		return
	}

	if err := h.linker.Link(subtitles.Owner{MediaID: media.ID}, req.FilePath); err != nil {
		log.Printf("Subtitle linking failed for media %d: %v", media.ID, err)
	}

	jsonResponse(w, map[string]int64{"id": media.ID}, http.StatusOK)
}

func (h *MediaHandler) createEpisode(w http.ResponseWriter, req *createMediaRequest) {
	show, err := h.db.GetShowByTMDBID(req.TMDBID)
	if errors.Is(err, db.ErrNotFound) {
		show = &db.Media{
			TMDBID:      req.TMDBID,
			Title:       req.Title,
			Type:        db.MediaTypeTV,
			PosterPath:  req.PosterPath,
			Overview:    req.Overview,
			ReleaseDate: req.ReleaseDate,
		}
		err = h.db.CreateMedia(show)
	}
	if err != nil {
		jsonError(w, "failed to save media", http.StatusInternalServerError)
		return
	}

	episode := &db.Episode{
		MediaID:       show.ID,
		SeasonNumber:  req.SeasonNumber,
		EpisodeNumber: req.EpisodeNumber,
		Title:         req.EpisodeTitle,
		FilePath:      req.FilePath,
		SubtitlePath:  req.SubtitlePath,
	}
	if err := h.db.UpsertEpisode(episode); err != nil {
		jsonError(w, "failed to save episode", http.StatusInternalServerError)
		return
	}

	if err := h.linker.Link(subtitles.Owner{MediaID: show.ID, EpisodeID: episode.ID}, req.FilePath); err != nil {
		log.Printf("Subtitle linking failed for episode %d: %v", episode.ID, err)
	}

	jsonResponse(w, map[string]int64{"id": show.ID}, http.StatusOK)
}

// Delete removes a catalog entry with its episodes, subtitle tracks, and
// files on disk.
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		jsonError(w, "invalid media id", http.StatusBadRequest)
		return
	}

	media, err := h.db.GetMedia(id)
	if errors.Is(err, db.ErrNotFound) {
		jsonError(w, "media not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to load media", http.StatusInternalServerError)
		return
	}

	h.removeFile(media.FilePath)
	for _, track := range h.collectTracks(media) {
		h.removeFile(track.FilePath)
	}

	episodes, _ := h.db.ListEpisodes(media.ID)
	for _, ep := range episodes {
		h.removeFile(ep.FilePath)
		h.removeFile(ep.SubtitlePath)
	}

	if err := h.db.DeleteMedia(media.ID); err != nil {
		jsonError(w, "failed to delete media", http.StatusInternalServerError)
		return
	}

	jsonResponse(w, map[string]string{"message": "Deleted successfully"}, http.StatusOK)
}

func (h *MediaHandler) collectTracks(media *db.Media) []*db.SubtitleTrack {
	tracks, _ := h.db.ListSubtitlesForMedia(media.ID)
	episodes, _ := h.db.ListEpisodes(media.ID)
	for _, ep := range episodes {
		epTracks, _ := h.db.ListSubtitlesForEpisode(ep.ID)
		tracks = append(tracks, epTracks...)
	}
	return tracks
}

func (h *MediaHandler) removeFile(fileRef string) {
	if err := storage.RemoveFromUploads(h.uploadsPath, fileRef); err != nil {
		log.Printf("Failed to remove %s: %v", fileRef, err)
	}
}

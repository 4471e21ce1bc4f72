package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movie-server/backend/internal/db"
	"github.com/movie-server/backend/internal/subtitles"
)

func setupMediaTest(t *testing.T) (*chi.Mux, *db.Database, string) {
	t.Helper()

	dir := t.TempDir()
	database, err := db.NewSQLite(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	uploadsDir := filepath.Join(dir, "uploads")
	subtitleDir := filepath.Join(uploadsDir, "subtitles")
	require.NoError(t, os.MkdirAll(subtitleDir, 0755))

	linker := subtitles.NewLinker(database, subtitleDir)
	handler := NewMediaHandler(database, linker, uploadsDir)
	r := chi.NewRouter()
	r.Get("/api/media", handler.List)
	r.Get("/api/media/{id}", handler.Get)
	r.Post("/api/media", handler.Create)
	r.Delete("/api/media/{id}", handler.Delete)
	return r, database, subtitleDir
}

func postJSON(t *testing.T, router *chi.Mux, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestMedia_CreateMovieLinksExtractedSubtitles(t *testing.T) {
	router, database, _ := setupMediaTest(t)

	// Extraction already ran at upload time and filled the manifest
	require.NoError(t, database.RecordExtraction(&db.ExtractedSubtitle{
		VideoFile: "gen123.mkv", Language: "eng", Label: "English", FilePath: "subtitles/gen123_eng_0.vtt",
	}))

	rec := postJSON(t, router, "/api/media",
		`{"tmdb_id": 550, "title": "Fight Club", "type": "movie", "file_path": "gen123.mkv"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.ID)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/media/%d", created.ID), nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, req)
	require.Equal(t, http.StatusOK, getRec.Code)

	var media db.Media
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &media))
	require.Len(t, media.Subtitles, 1)
	assert.Equal(t, "eng", media.Subtitles[0].Language)
	assert.Equal(t, "subtitles/gen123_eng_0.vtt", media.Subtitles[0].FilePath)
}

func TestMedia_EpisodeRegistrationUpsertsAndLinks(t *testing.T) {
	router, database, subtitleDir := setupMediaTest(t)
	require.NoError(t, os.WriteFile(filepath.Join(subtitleDir, "ep42_eng_0.vtt"), []byte("WEBVTT\n"), 0644))

	body := `{"tmdb_id": 1396, "title": "Breaking Bad", "type": "tv",
		"season_number": 1, "episode_number": 2, "episode_title": "Cat's in the Bag...",
		"file_path": "ep42.mkv"}`

	// Registering twice must not duplicate the show, the episode, or the track
	first := postJSON(t, router, "/api/media", body)
	require.Equal(t, http.StatusOK, first.Code)
	second := postJSON(t, router, "/api/media", body)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())

	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &created))

	episodes, err := database.ListEpisodes(created.ID)
	require.NoError(t, err)
	require.Len(t, episodes, 1)

	tracks, err := database.ListSubtitlesForEpisode(episodes[0].ID)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "eng", tracks[0].Language)

	media, err := database.ListMedia()
	require.NoError(t, err)
	assert.Len(t, media, 1)
}

func TestMedia_GetNotFound(t *testing.T) {
	router, _, _ := setupMediaTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/media/999", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMedia_DeleteRemovesRowsAndFiles(t *testing.T) {
	router, database, subtitleDir := setupMediaTest(t)

	uploadsDir := filepath.Dir(subtitleDir)
	require.NoError(t, os.WriteFile(filepath.Join(uploadsDir, "movie.mp4"), []byte("data"), 0644))
	subPath := filepath.Join(subtitleDir, "movie_eng_0.vtt")
	require.NoError(t, os.WriteFile(subPath, []byte("WEBVTT\n"), 0644))

	rec := postJSON(t, router, "/api/media",
		`{"title": "Movie", "type": "movie", "file_path": "movie.mp4"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/media/%d", created.ID), nil)
	delRec := httptest.NewRecorder()
	router.ServeHTTP(delRec, req)
	require.Equal(t, http.StatusOK, delRec.Code)

	_, err := database.GetMedia(created.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.NoFileExists(t, filepath.Join(uploadsDir, "movie.mp4"))
	assert.NoFileExists(t, subPath)
}

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movie-server/backend/internal/db"
	"github.com/movie-server/backend/internal/player"
)

const testVTT = `WEBVTT

00:00:02.000 --> 00:00:04.000
First cue

00:00:06.000 --> 00:00:08.000
Second cue
line two
`

func setupSubtitlesTest(t *testing.T) (*chi.Mux, *db.SubtitleTrack) {
	t.Helper()

	dir := t.TempDir()
	database, err := db.NewSQLite(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	uploadsDir := filepath.Join(dir, "uploads")
	require.NoError(t, os.MkdirAll(filepath.Join(uploadsDir, "subtitles"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(uploadsDir, "subtitles", "movie_eng_0.vtt"), []byte(testVTT), 0644))

	track := &db.SubtitleTrack{MediaID: 1, Language: "eng", Label: "English", FilePath: "subtitles/movie_eng_0.vtt"}
	require.NoError(t, database.InsertSubtitle(track))

	handler := NewSubtitlesHandler(database, uploadsDir)
	r := chi.NewRouter()
	r.Get("/api/subtitles/{id}/cues", handler.Cues)
	r.Get("/api/subtitles/{id}/at", handler.CueAt)
	return r, track
}

func TestSubtitles_Cues(t *testing.T) {
	router, track := setupSubtitlesTest(t)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/subtitles/%d/cues", track.ID), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var cues []player.Cue
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cues))
	require.Len(t, cues, 2)
	assert.Equal(t, player.Cue{Start: 2, End: 4, Text: "First cue"}, cues[0])
	assert.Equal(t, player.Cue{Start: 6, End: 8, Text: "Second cue\nline two"}, cues[1])
}

func TestSubtitles_CuesNotFound(t *testing.T) {
	router, _ := setupSubtitlesTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/subtitles/999/cues", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubtitles_CueAt(t *testing.T) {
	router, track := setupSubtitlesTest(t)

	tests := []struct {
		name       string
		query      string
		wantText   string
		wantActive bool
	}{
		{"inside first cue", "t=3", "First cue", true},
		{"between cues", "t=5", "", false},
		{"offset shifts window", "t=4.3&offset=0.5", "First cue", true},
		{"offset shifts window out", "t=2.3&offset=0.5", "", false},
		{"disabled", "t=3&enabled=false", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := fmt.Sprintf("/api/subtitles/%d/at?%s", track.ID, tt.query)
			req := httptest.NewRequest(http.MethodGet, url, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)

			var resp struct {
				Text   string `json:"text"`
				Active bool   `json:"active"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantActive, resp.Active)
			assert.Equal(t, tt.wantText, resp.Text)
		})
	}
}

func TestSubtitles_CueAtRequiresTime(t *testing.T) {
	router, track := setupSubtitlesTest(t)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/subtitles/%d/at", track.ID), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

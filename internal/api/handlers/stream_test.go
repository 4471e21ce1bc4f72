package handlers

import (
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
)

func setupStreamTest(t *testing.T, content []byte) (*chi.Mux, *db.Database) {
	t.Helper()

	dir := t.TempDir()
	database, err := db.NewSQLite(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	uploadsDir := filepath.Join(dir, "uploads")
	require.NoError(t, os.MkdirAll(uploadsDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(uploadsDir, "video.mp4"), content, 0644))

	handler := NewStreamHandler(database, uploadsDir)
	r := chi.NewRouter()
	r.Get("/api/stream/{id}", handler.StreamMedia)
	r.Get("/api/stream/episode/{id}", handler.StreamEpisode)
	return r, database
}

func streamRequest(t *testing.T, router *chi.Mux, url, rangeHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func testContent(n int) []byte {
	content := make([]byte, n)
	for i := range content {
		content[i] = byte(i % 251)
	}
	return content
}

func TestStream_FullResponseWithoutRange(t *testing.T) {
	content := testContent(1000)
	router, database := setupStreamTest(t, content)
	media := &db.Media{Title: "Movie", Type: db.MediaTypeMovie, FilePath: "video.mp4"}
	require.NoError(t, database.CreateMedia(media))

	rec := streamRequest(t, router, fmt.Sprintf("/api/stream/%d", media.ID), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1000", rec.Header().Get("Content-Length"))
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, content, rec.Body.Bytes())
}

func TestStream_PartialContent(t *testing.T) {
	content := testContent(1000)
	router, database := setupStreamTest(t, content)
	media := &db.Media{Title: "Movie", Type: db.MediaTypeMovie, FilePath: "video.mp4"}
	require.NoError(t, database.CreateMedia(media))
	url := fmt.Sprintf("/api/stream/%d", media.ID)

	tests := []struct {
		name        string
		rangeHeader string
		wantStart   int64
		wantEnd     int64
	}{
		{"inner span", "bytes=100-199", 100, 199},
		{"open-ended", "bytes=900-", 900, 999},
		{"from zero", "bytes=0-0", 0, 0},
		{"end clamped to size-1", "bytes=990-5000", 990, 999},
		{"empty start", "bytes=-500", 0, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := streamRequest(t, router, url, tt.rangeHeader)

			require.Equal(t, http.StatusPartialContent, rec.Code)
			assert.Equal(t, fmt.Sprintf("bytes %d-%d/1000", tt.wantStart, tt.wantEnd), rec.Header().Get("Content-Range"))
			assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
			assert.Equal(t, fmt.Sprintf("%d", tt.wantEnd-tt.wantStart+1), rec.Header().Get("Content-Length"))
			assert.Equal(t, content[tt.wantStart:tt.wantEnd+1], rec.Body.Bytes())
		})
	}
}

func TestStream_MultiRangeDegradesToFullResponse(t *testing.T) {
	content := testContent(1000)
	router, database := setupStreamTest(t, content)
	media := &db.Media{Title: "Movie", Type: db.MediaTypeMovie, FilePath: "video.mp4"}
	require.NoError(t, database.CreateMedia(media))

	rec := streamRequest(t, router, fmt.Sprintf("/api/stream/%d", media.ID), "bytes=0-99,200-299")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, content, rec.Body.Bytes())
}

func TestStream_MalformedRangeDegradesToFullResponse(t *testing.T) {
	content := testContent(100)
	router, database := setupStreamTest(t, content)
	media := &db.Media{Title: "Movie", Type: db.MediaTypeMovie, FilePath: "video.mp4"}
	require.NoError(t, database.CreateMedia(media))
	url := fmt.Sprintf("/api/stream/%d", media.ID)

	for _, header := range []string{"bytes=abc-def", "chunks=0-10", "bytes=-", "bytes=500-10"} {
		rec := streamRequest(t, router, url, header)
		assert.Equal(t, http.StatusOK, rec.Code, "header %q", header)
		assert.Equal(t, content, rec.Body.Bytes(), "header %q", header)
	}
}

func TestStream_NotFound(t *testing.T) {
	router, database := setupStreamTest(t, testContent(10))

	// Unknown media id
	rec := streamRequest(t, router, "/api/stream/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Media without a registered file
	noFile := &db.Media{Title: "Show", Type: db.MediaTypeTV}
	require.NoError(t, database.CreateMedia(noFile))
	rec = streamRequest(t, router, fmt.Sprintf("/api/stream/%d", noFile.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Registered file missing on disk
	gone := &db.Media{Title: "Gone", Type: db.MediaTypeMovie, FilePath: "deleted.mp4"}
	require.NoError(t, database.CreateMedia(gone))
	rec = streamRequest(t, router, fmt.Sprintf("/api/stream/%d", gone.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStream_Episode(t *testing.T) {
	content := testContent(64)
	router, database := setupStreamTest(t, content)

	show := &db.Media{Title: "Show", Type: db.MediaTypeTV, TMDBID: 5}
	require.NoError(t, database.CreateMedia(show))
	episode := &db.Episode{MediaID: show.ID, SeasonNumber: 1, EpisodeNumber: 1, FilePath: "video.mp4"}
	require.NoError(t, database.UpsertEpisode(episode))

	rec := streamRequest(t, router, fmt.Sprintf("/api/stream/episode/%d", episode.ID), "bytes=10-19")

	require.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 10-19/64", rec.Header().Get("Content-Range"))
	assert.Equal(t, content[10:20], rec.Body.Bytes())
}

package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/movie-server/backend/internal/db"
)

type StreamHandler struct {
	db          *db.Database
	uploadsPath string
}

func NewStreamHandler(database *db.Database, uploadsPath string) *StreamHandler {
	return &StreamHandler{db: database, uploadsPath: uploadsPath}
}

// StreamMedia serves the video file registered on a movie.
func (h *StreamHandler) StreamMedia(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		jsonError(w, "invalid media id", http.StatusBadRequest)
		return
	}

	media, err := h.db.GetMedia(id)
	if err != nil || media.FilePath == "" {
		jsonError(w, "media not found", http.StatusNotFound)
		return
	}

	h.serveFile(w, r, filepath.Join(h.uploadsPath, media.FilePath))
}

// StreamEpisode serves the video file registered on a TV episode.
func (h *StreamHandler) StreamEpisode(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		jsonError(w, "invalid episode id", http.StatusBadRequest)
		return
	}

	episode, err := h.db.GetEpisode(id)
	if err != nil || episode.FilePath == "" {
		jsonError(w, "episode not found", http.StatusNotFound)
		return
	}

	h.serveFile(w, r, filepath.Join(h.uploadsPath, episode.FilePath))
}

// Single-range form only: "bytes=<start>-<end>", either side optional.
var byteRangeRe = regexp.MustCompile(`^bytes=(\d*)-(\d*)$`)

// serveFile streams the file honoring a single byte-range request. The
// body is pumped straight from the file handle so large videos are never
// held in memory; an aborted connection just stops the copy.
//
// Multi-range requests (any comma in the header) are not supported and
// degrade to a full 200 response. Malformed ranges do the same instead of
// erroring. Content-Type is always video/mp4 regardless of container.
func (h *StreamHandler) serveFile(w http.ResponseWriter, r *http.Request, fullPath string) {
	file, err := os.Open(fullPath)
	if err != nil {
		jsonError(w, "file not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		jsonError(w, "file not found", http.StatusNotFound)
		return
	}
	size := stat.Size()

	start, end, ok := parseRange(r.Header.Get("Range"), size)
	w.Header().Set("Content-Type", "video/mp4")

	if !ok {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, file); err != nil {
			log.Printf("Stream aborted: %v", err)
		}
		return
	}

	if _, err := file.Seek(start, io.SeekStart); err != nil {
		jsonError(w, "failed to seek", http.StatusInternalServerError)
		return
	}

	chunkSize := end - start + 1
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Length", strconv.FormatInt(chunkSize, 10))
	w.WriteHeader(http.StatusPartialContent)

	if _, err := io.CopyN(w, file, chunkSize); err != nil {
		log.Printf("Stream aborted: %v", err)
	}
}

// parseRange interprets a Range header against the file size. Returns
// ok=false for absent, multi-range, or malformed headers, which all fall
// back to a full response. An omitted start means 0, an omitted or
// oversized end is clamped to size-1.
func parseRange(header string, size int64) (start, end int64, ok bool) {
	if header == "" || strings.Contains(header, ",") || size == 0 {
		return 0, 0, false
	}

	m := byteRangeRe.FindStringSubmatch(header)
	if m == nil {
		return 0, 0, false
	}

	start = 0
	if m[1] != "" {
		start, _ = strconv.ParseInt(m[1], 10, 64)
	}
	end = size - 1
	if m[2] != "" {
		end, _ = strconv.ParseInt(m[2], 10, 64)
		if end > size-1 {
			end = size - 1
		}
	}

	if m[1] == "" && m[2] == "" {
		return 0, 0, false
	}
	if start > end || start >= size {
		return 0, 0, false
	}
	return start, end, true
}

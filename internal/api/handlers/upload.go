package handlers

import (
	"errors"
	"log"
	"net/http"
	"path/filepath"

	"github.com/movie-server/backend/internal/storage"
	"github.com/movie-server/backend/internal/subtitles"
)

// maxUploadSize bounds a single multipart upload (video + optional subtitle).
const maxUploadSize = 8 << 30

type UploadHandler struct {
	uploadsPath string
	extractor   *subtitles.Extractor
}

func NewUploadHandler(uploadsPath string, extractor *subtitles.Extractor) *UploadHandler {
	return &UploadHandler{uploadsPath: uploadsPath, extractor: extractor}
}

type uploadResponse struct {
	FilePath     string `json:"file_path"`
	SubtitlePath string `json:"subtitle_path,omitempty"`
}

// Upload receives a multipart form with a required "video" field and an
// optional "subtitle" field. Embedded subtitle extraction runs before the
// response is sent: the caller registers catalog metadata right after this
// call returns, and linking needs the extracted files to already exist.
// Extraction failure degrades to "no subtitles", never a failed upload.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	video, videoHeader, err := r.FormFile("video")
	if err != nil {
		jsonError(w, "no video file uploaded", http.StatusBadRequest)
		return
	}
	defer video.Close()

	videoName, err := storage.SaveUpload(h.uploadsPath, video, videoHeader.Filename)
	if err != nil {
		log.Printf("Failed to store upload: %v", err)
		jsonError(w, "failed to store video", http.StatusInternalServerError)
		return
	}

	resp := uploadResponse{FilePath: videoName}

	if subtitle, subtitleHeader, err := r.FormFile("subtitle"); err == nil {
		defer subtitle.Close()
		name, err := storage.SaveUpload(h.uploadsPath, subtitle, subtitleHeader.Filename)
		if err != nil {
			log.Printf("Failed to store subtitle upload: %v", err)
		} else {
			resp.SubtitlePath = name
		}
	}

	if storage.IsVideoFile(videoName) {
		extracted, err := h.extractor.Extract(filepath.Join(h.uploadsPath, videoName))
		switch {
		case errors.Is(err, subtitles.ErrProbeFailed):
			log.Printf("Subtitle extraction skipped for %s: %v", videoName, err)
		case err != nil:
			log.Printf("Subtitle extraction failed for %s: %v", videoName, err)
		default:
			log.Printf("Extracted %d subtitle track(s) from %s", len(extracted), videoName)
		}
	}

	jsonResponse(w, resp, http.StatusOK)
}

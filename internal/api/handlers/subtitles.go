package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/movie-server/backend/internal/db"
	"github.com/movie-server/backend/internal/player"
)

type SubtitlesHandler struct {
	db          *db.Database
	uploadsPath string
}

func NewSubtitlesHandler(database *db.Database, uploadsPath string) *SubtitlesHandler {
	return &SubtitlesHandler{db: database, uploadsPath: uploadsPath}
}

func (h *SubtitlesHandler) loadCues(w http.ResponseWriter, r *http.Request) ([]player.Cue, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		jsonError(w, "invalid subtitle id", http.StatusBadRequest)
		return nil, false
	}

	track, err := h.db.GetSubtitle(id)
	if errors.Is(err, db.ErrNotFound) {
		jsonError(w, "subtitle not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		jsonError(w, "failed to load subtitle", http.StatusInternalServerError)
		return nil, false
	}

	data, err := os.ReadFile(filepath.Join(h.uploadsPath, track.FilePath))
	if err != nil {
		jsonError(w, "subtitle file not found", http.StatusNotFound)
		return nil, false
	}

	return player.Parse(string(data)), true
}

// Cues returns the parsed cue list for a stored track, so clients don't
// each need their own SRT/VTT parser.
func (h *SubtitlesHandler) Cues(w http.ResponseWriter, r *http.Request) {
	cues, ok := h.loadCues(w, r)
	if !ok {
		return
	}
	if cues == nil {
		cues = []player.Cue{}
	}
	jsonResponse(w, cues, http.StatusOK)
}

type cueAtResponse struct {
	Text   string  `json:"text"`
	Active bool    `json:"active"`
	Offset float64 `json:"offset"`
}

// CueAt resolves the cue visible at playback time t with the caller's
// offset and enabled flag. Thin clients poll this on their tick instead of
// running a sync engine of their own.
func (h *SubtitlesHandler) CueAt(w http.ResponseWriter, r *http.Request) {
	t, err := strconv.ParseFloat(r.URL.Query().Get("t"), 64)
	if err != nil {
		jsonError(w, "query parameter t required", http.StatusBadRequest)
		return
	}

	var offset float64
	if v := r.URL.Query().Get("offset"); v != "" {
		if offset, err = strconv.ParseFloat(v, 64); err != nil {
			jsonError(w, "invalid offset", http.StatusBadRequest)
			return
		}
	}
	enabled := r.URL.Query().Get("enabled") != "false"

	cues, ok := h.loadCues(w, r)
	if !ok {
		return
	}

	engine := player.NewSyncEngine(cues)
	engine.SetOffset(offset)
	engine.SetEnabled(enabled)

	text, active := engine.CueAt(t)
	jsonResponse(w, cueAtResponse{Text: text, Active: active, Offset: engine.Offset()}, http.StatusOK)
}

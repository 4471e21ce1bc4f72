package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/movie-server/backend/internal/tmdb"
)

type TMDBHandler struct {
	client *tmdb.Client
}

func NewTMDBHandler(client *tmdb.Client) *TMDBHandler {
	return &TMDBHandler{client: client}
}

func (h *TMDBHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		jsonError(w, "query required", http.StatusBadRequest)
		return
	}
	h.proxy(w, func() (json.RawMessage, error) {
		return h.client.SearchMulti(r.Context(), query)
	})
}

func (h *TMDBHandler) TVDetails(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, func() (json.RawMessage, error) {
		return h.client.TVDetails(r.Context(), chi.URLParam(r, "id"))
	})
}

func (h *TMDBHandler) TVSeason(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, func() (json.RawMessage, error) {
		return h.client.TVSeason(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "season"))
	})
}

func (h *TMDBHandler) proxy(w http.ResponseWriter, fetch func() (json.RawMessage, error)) {
	data, err := fetch()
	if errors.Is(err, tmdb.ErrNoAPIKey) {
		jsonError(w, "TMDB API key not configured", http.StatusInternalServerError)
		return
	}
	if err != nil {
		log.Printf("TMDB error: %v", err)
		jsonError(w, "failed to fetch from TMDB", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

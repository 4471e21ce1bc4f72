package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/movie-server/backend/internal/api/handlers"
	"github.com/movie-server/backend/internal/api/middleware"
	"github.com/movie-server/backend/internal/config"
	"github.com/movie-server/backend/internal/db"
	"github.com/movie-server/backend/internal/subtitles"
	"github.com/movie-server/backend/internal/tmdb"
)

func NewRouter(database *db.Database, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(middleware.CORSHandler(cfg.CORSOrigins)))

	// Wiring: extraction writes the manifest at upload time, the linker
	// consumes it at registration time.
	extractor := subtitles.NewExtractor(database, cfg.SubtitlePath)
	linker := subtitles.NewLinker(database, cfg.SubtitlePath)

	mediaHandler := handlers.NewMediaHandler(database, linker, cfg.UploadsPath)
	uploadHandler := handlers.NewUploadHandler(cfg.UploadsPath, extractor)
	streamHandler := handlers.NewStreamHandler(database, cfg.UploadsPath)
	subtitlesHandler := handlers.NewSubtitlesHandler(database, cfg.UploadsPath)
	tmdbHandler := handlers.NewTMDBHandler(tmdb.NewClient(cfg.TMDBAPIKey))

	tmdbLimiter := middleware.NewRateLimiter(30, time.Minute)

	r.Route("/api", func(r chi.Router) {
		// Streaming (Range-aware, body is the video itself)
		r.Get("/stream/{id}", streamHandler.StreamMedia)
		r.Get("/stream/episode/{id}", streamHandler.StreamEpisode)

		// Upload (multipart, sets its own body limit)
		r.Post("/upload", uploadHandler.Upload)

		// Catalog
		r.Group(func(r chi.Router) {
			r.Use(middleware.MaxBodySize(1 << 20))
			r.Get("/media", mediaHandler.List)
			r.Get("/media/{id}", mediaHandler.Get)
			r.Post("/media", mediaHandler.Create)
			r.Delete("/media/{id}", mediaHandler.Delete)
		})

		// Subtitles
		r.Get("/subtitles/{id}/cues", subtitlesHandler.Cues)
		r.Get("/subtitles/{id}/at", subtitlesHandler.CueAt)

		// TMDB proxy
		r.Group(func(r chi.Router) {
			r.Use(tmdbLimiter.Handler)
			r.Get("/search", tmdbHandler.Search)
			r.Get("/tmdb/tv/{id}", tmdbHandler.TVDetails)
			r.Get("/tmdb/tv/{id}/season/{season}", tmdbHandler.TVSeason)
		})
	})

	// Uploaded videos and extracted subtitle files, served by reference
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsPath))))

	return r
}

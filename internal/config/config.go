package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	UploadsPath  string
	SubtitlePath string
	DBPath       string
	TMDBAPIKey   string
	CORSOrigins  []string
}

func Load() *Config {
	// Optional .env file alongside the binary
	godotenv.Load()

	port, _ := strconv.Atoi(getEnv("PORT", "3000"))
	uploadsPath := getEnv("UPLOADS_PATH", "./uploads")

	if os.Getenv("TMDB_API_KEY") == "" {
		log.Println("WARNING: TMDB_API_KEY not set, metadata search will be unavailable")
	}

	// CORS origins: comma-separated list or "*" (default)
	corsOrigins := []string{"*"}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		corsOrigins = make([]string, 0, len(origins))
		for _, o := range origins {
			o = strings.TrimSpace(o)
			if o != "" {
				corsOrigins = append(corsOrigins, o)
			}
		}
	}

	return &Config{
		Port:         port,
		UploadsPath:  uploadsPath,
		SubtitlePath: getEnv("SUBTITLE_PATH", uploadsPath+"/subtitles"),
		DBPath:       getEnv("DB_PATH", "./database.sqlite"),
		TMDBAPIKey:   os.Getenv("TMDB_API_KEY"),
		CORSOrigins:  corsOrigins,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

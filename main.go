package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/movie-server/backend/internal/api"
	"github.com/movie-server/backend/internal/config"
	"github.com/movie-server/backend/internal/db"
)

func main() {
	cfg := config.Load()

	// Ensure the uploads tree exists before anything writes into it
	os.MkdirAll(cfg.UploadsPath, 0755)
	os.MkdirAll(cfg.SubtitlePath, 0755)

	database, err := db.NewSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	router := api.NewRouter(database, cfg)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Starting server on %s", addr)
	log.Printf("Uploads path: %s", cfg.UploadsPath)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		database.Close()
		os.Exit(0)
	}()

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

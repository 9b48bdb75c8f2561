package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"powerslide/internal/config"
	"powerslide/internal/db"
	"powerslide/internal/handlers"
	"powerslide/internal/logger"
	"powerslide/internal/persist"
	"powerslide/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info")
		logger.Logger.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Init(cfg.Log.Level)
	if cfg.Log.ToFile {
		if err := logger.AddFileLogger(cfg.Storage.DataPath); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to open log file")
		}
	}

	// Open the persistence sink
	sink, database, err := openSink(cfg.Storage)
	if err != nil {
		logger.Logger.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("Failed to open storage")
	}
	if database != nil {
		defer database.Close()
	}

	// Initialize services
	store := services.NewDeckStore(sink)
	hub := services.NewDeckHub()
	go hub.Run()
	defer hub.Stop()
	store.OnChange(hub.Publish)

	result, err := store.Load()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to load deck")
	}
	logger.Logger.Info().Str("result", result.String()).Msg("Deck loaded")

	snapshots := services.NewSnapshotStore(cfg.Storage.DataPath)

	// Initialize handlers
	deckHandler := handlers.NewDeckHandler(store, snapshots, cfg.Storage.MaxImageBytes)
	wsHandler := handlers.NewWebSocketHandler(hub, store)
	router := handlers.SetupRoutes(deckHandler, wsHandler)

	// Configure server
	server := &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		var err error
		if cfg.TLS.Enabled {
			server.TLSConfig = &tls.Config{
				MinVersion: getTLSVersion(cfg.TLS.MinVersion),
			}
			logger.Logger.Info().
				Str("addr", server.Addr).
				Str("cert_file", cfg.TLS.CertFile).
				Str("key_file", cfg.TLS.KeyFile).
				Str("min_version", cfg.TLS.MinVersion).
				Msg("Starting HTTPS server")
			err = server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			logger.Logger.Info().Str("addr", server.Addr).Msg("Starting HTTP server")
			logger.Logger.Warn().Msg("HTTP mode is not recommended for production")
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Error().Err(err).Msg("Server error")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("Shutdown error")
	}
}

// openSink builds the configured key-value sink. The database is returned
// so the caller can close it.
func openSink(cfg config.StorageConfig) (persist.KVStore, *sql.DB, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		database, err := db.InitDatabase(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return db.NewKVStore(database), database, nil
	case config.BackendFile:
		sink, err := persist.NewFileKV(filepath.Join(cfg.DataPath, "state"))
		return sink, nil, err
	default:
		return persist.NewMemoryKV(), nil, nil
	}
}

// getTLSVersion converts string version to tls.Version constant
func getTLSVersion(version string) uint16 {
	switch version {
	case "1.0":
		return tls.VersionTLS10
	case "1.1":
		return tls.VersionTLS11
	case "1.2":
		return tls.VersionTLS12
	case "1.3":
		return tls.VersionTLS13
	default:
		return tls.VersionTLS12
	}
}

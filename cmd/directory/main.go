package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MosinFAM/bizdirectory/internal/auth"
	"github.com/MosinFAM/bizdirectory/internal/config"
	"github.com/MosinFAM/bizdirectory/internal/db"
	"github.com/MosinFAM/bizdirectory/internal/directory"
	"github.com/MosinFAM/bizdirectory/internal/handlers"
	"github.com/MosinFAM/bizdirectory/internal/storage"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	setupLogging(cfg)

	store, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.StorageType, err)
	}
	defer store.Close()

	provider := auth.NewJWTProvider(cfg.JWTSecret, cfg.LoginURL, time.Duration(cfg.SessionTTL)*time.Hour, cfg.SSL)
	h := &handlers.Handler{
		Comments: directory.NewComments(store, store),
		Follows:  directory.NewFollows(store, store),
		Profiles: directory.NewProfiles(store),
		Sessions: provider,
	}

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(h, handlers.RouterConfig{
		CORSOrigins: cfg.CORSOrigins,
		SSL:         cfg.SSL,
		Auth:        provider.Middleware(),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Server is running on %s (storage: %s)", cfg.HTTPAddr, cfg.StorageType)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server shutdown: %v", err)
	}
}

func setupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)
	if cfg.Env != "local" {
		log.SetFormatter(&log.JSONFormatter{})
	}
}

func openStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageType {
	case config.StoragePostgres:
		conn, err := db.Connect("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		pgStore := storage.NewPostgresStorage(conn, cfg.DatabaseURL)
		if err := db.Migrate(conn, pgStore.Dialect(), cfg.MigrationsDir); err != nil {
			conn.Close()
			return nil, err
		}
		return pgStore, nil
	case config.StorageSQLite:
		conn, err := db.Connect("sqlite3", cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		sqliteStore := storage.NewSQLiteStorage(conn)
		if err := db.Migrate(conn, sqliteStore.Dialect(), cfg.MigrationsDir); err != nil {
			conn.Close()
			return nil, err
		}
		return sqliteStore, nil
	default:
		return storage.NewMemoryStorage(), nil
	}
}

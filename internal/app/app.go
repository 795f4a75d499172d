// Package app wires configuration into the use cases and owns process
// lifecycle: startup, HTTP serving, the maintenance schedule, and shutdown.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"SlateBuilder/internal/candidates"
	"SlateBuilder/internal/config"
	"SlateBuilder/internal/infrastructure/httpapi"
	"SlateBuilder/internal/infrastructure/ingest"
	"SlateBuilder/internal/infrastructure/scheduler"
	"SlateBuilder/internal/infrastructure/similarity"
	"SlateBuilder/internal/infrastructure/storage"
	"SlateBuilder/internal/logging"
	"SlateBuilder/internal/ports"
	"SlateBuilder/internal/scoring"
	"SlateBuilder/internal/usecase"
)

// Application hosts the wired components of one process.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *sql.DB
	server    *http.Server
	refresher *usecase.StatsRefresher
}

// New connects the database, applies migrations, and builds the pipeline
// with all its collaborators. The weight table is loaded once here; a
// missing or malformed file degrades to zero weights and is logged, never
// fatal.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := storage.NewPostgresStore(db)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	weights, degraded := scoring.LoadWeights(cfg.Recommender.WeightsPath)
	if degraded {
		baseLogger.Warn("weight table unavailable, scoring degraded to zero weights",
			"path", cfg.Recommender.WeightsPath)
	}

	source := candidates.NewSource(store, nil, baseLogger.With("component", "candidates"))
	persistor := usecase.NewPersistor(store, nil, baseLogger.With("component", "persistor"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:    source,
		Persistor: persistor,
		Deduper:   buildDeduper(cfg.Similarity),
		Weights:   weights,
		PoolLimit: cfg.Recommender.PoolLimit,
		Logger:    baseLogger.With("component", "pipeline"),
	})

	saver := usecase.NewSaver(store, ingest.NewPageMetaFetcher(nil), baseLogger.With("component", "ingest"))

	api := httpapi.NewServer(pipeline, saver,
		cfg.Recommender.DefaultK, cfg.Recommender.MaxK,
		baseLogger.With("component", "http"))

	cronDriver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
	refresher := usecase.NewStatsRefresher(cronDriver, store, baseLogger.With("component", "stats"))

	return &Application{
		cfg:    cfg,
		logger: baseLogger,
		db:     db,
		server: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           api.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		},
		refresher: refresher,
	}, nil
}

func buildDeduper(cfg config.SimilarityConfig) ports.Deduper {
	if !cfg.Enabled {
		return nil
	}

	var embedder ports.Embedder
	switch {
	case cfg.Local:
		embedder = similarity.LocalEmbedder{}
	case cfg.APIKey != "":
		embedder = similarity.NewOpenAIEmbedder(cfg.APIKey, cfg.Model)
	default:
		return nil
	}
	return similarity.NewDeduper(embedder, cfg.Threshold)
}

// Run serves HTTP and the maintenance schedule until ctx is canceled, then
// shuts both down and closes the database.
func (a *Application) Run(ctx context.Context) error {
	if err := a.refresher.Start(ctx); err != nil {
		return fmt.Errorf("start stats refresher: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http shutdown", "error", err)
	}
	if err := a.refresher.Stop(shutdownCtx); err != nil {
		a.logger.Error("scheduler shutdown", "error", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("database close", "error", err)
	}

	return nil
}

// Command server runs the thin reference HTTP binding: it loads
// configuration, constructs the configured repository behind the
// resilience decorator, mounts the chi router, and serves until an
// interrupt or terminate signal triggers a graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/obsforge/obsforge/internal/api"
	"github.com/obsforge/obsforge/internal/config"
	"github.com/obsforge/obsforge/internal/logging"
	"github.com/obsforge/obsforge/internal/repository"
	"github.com/obsforge/obsforge/internal/repository/duckrepo"
	"github.com/obsforge/obsforge/internal/repository/memrepo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	log := logging.Logger()

	repo, closeRepo, err := buildRepository(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize repository")
	}
	defer closeRepo()

	resilient := repository.NewResilient(repo, cfg.Resilience)
	router := api.NewRouter(resilient, cfg)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// buildRepository constructs the repository backend selected by
// cfg.Repository, returning a no-op close func for the in-memory backend.
func buildRepository(cfg *config.Config) (repository.Repository, func(), error) {
	switch cfg.Repository {
	case config.RepositoryRelational:
		repo, err := duckrepo.Open(cfg.Relational.ConnectionString)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	default:
		return memrepo.New(), func() {}, nil
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thanhnp/utxo-indexer/internal/balance"
	"github.com/thanhnp/utxo-indexer/internal/config"
	"github.com/thanhnp/utxo-indexer/internal/gate"
	"github.com/thanhnp/utxo-indexer/internal/httpapi"
	"github.com/thanhnp/utxo-indexer/internal/ingest"
	"github.com/thanhnp/utxo-indexer/internal/metrics"
	"github.com/thanhnp/utxo-indexer/internal/rollback"
	"github.com/thanhnp/utxo-indexer/internal/store/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Info().Msg("starting utxo indexer")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Open(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	g := gate.New()
	recorder := metrics.New(prometheus.DefaultRegisterer)
	handlers := httpapi.New(
		g,
		cfg.Gate.DefaultTTL(),
		ingest.New(db),
		rollback.New(db),
		balance.New(db),
		recorder,
	)
	router := httpapi.NewRouter(handlers)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Engine(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("server stopped")
}

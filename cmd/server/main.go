package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/backoffice/internal/config"
	"github.com/diewo77/backoffice/internal/db"
	"github.com/diewo77/backoffice/internal/server"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func main() {
	flag.Parse()
	_ = godotenv.Load()
	cfg := config.Load()
	log := newLogger(cfg.Env)

	dbConn, err := db.ConnectAndMigrate(cfg.DatabaseDSN, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database setup failed")
	}
	if *migrateOnlyFlag {
		log.Info().Msg("migrations completed, exiting as requested")
		return
	}
	if config.ParseBool("DB_SEED", false) {
		if err := db.Seed(dbConn, cfg, log); err != nil {
			log.Fatal().Err(err).Msg("seeding failed")
		}
	}

	app := server.New(dbConn, cfg, log)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(app, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("env", cfg.Env).Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("server stopped")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"quizreg/internal/config"
	"quizreg/internal/logging"
	"quizreg/internal/registration"
	"quizreg/internal/store"
)

// Migrate prepares the configured store: Mongo indexes or the Postgres table.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogPretty || cfg.Env == "dev")
	log.Logger = logger

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch cfg.StoreBackend {
	case "mongo":
		m, err := store.NewMongo(ctx, cfg.MongoURI, cfg.DatabaseName, cfg.DBTimeout)
		if err != nil {
			logger.Fatal().Err(err).Msg("mongo connect failed")
		}
		defer m.Close(context.Background())

		if err := registration.NewMongoRepository(m.DB).EnsureIndexes(ctx); err != nil {
			logger.Fatal().Err(err).Msg("index creation failed")
		}
		logger.Info().Str("database", cfg.DatabaseName).Msg("mongo indexes ready")

	case "postgres":
		db, err := store.NewDB(ctx, cfg.DatabaseURL, cfg.DBTimeout)
		if err != nil {
			logger.Fatal().Err(err).Msg("db connect failed")
		}
		defer db.Close()

		if err := registration.NewPostgresRepository(db.Client).Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Msg("postgres schema ready")

	default:
		logger.Info().Str("store", cfg.StoreBackend).Msg("nothing to migrate")
	}
}

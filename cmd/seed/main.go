// Command seed loads an admin account, drivers and leagues from a YAML file.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/csl-racing/api/internal/config"
	"github.com/csl-racing/api/internal/database"
	"github.com/csl-racing/api/internal/leagues"
	"github.com/csl-racing/api/internal/users"
)

func main() {
	path := flag.String("f", "seed.yaml", "seed file")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	f, err := loadSeed(*path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load seed file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.NewConnection(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize schema")
	}

	// Leagues run without a standings cache; new leagues have nothing cached
	sum, err := seed(ctx, f, users.NewService(users.NewRepository(db), nil, nil), leagues.NewService(leagues.NewRepository(db), nil))
	if err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().Int("created", sum.Created).Int("skipped", sum.Skipped).Msg("seed complete")
}

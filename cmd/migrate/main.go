package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"shopcart/internal/config"
	"shopcart/internal/database"

	"github.com/joho/godotenv"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [up|down|status]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	direction := "up"
	if flag.NArg() > 0 {
		direction = flag.Arg(0)
	}

	if err := run(direction); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(direction string) error {
	_ = godotenv.Load()

	logger := config.NewLogger(config.LoggerConfig{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: "console",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dbCfg := config.LoadDatabase()
	pool, err := database.NewPool(ctx, dbCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	var dbName string
	if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		return fmt.Errorf("failed to query current database: %w", err)
	}
	logger.Info().Str("database", dbName).Str("direction", direction).Msg("running migrations")

	if err := database.Migrate(ctx, pool, direction, logger); err != nil {
		return err
	}

	logger.Info().Msg("migrations finished")
	return nil
}

package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	_ "github.com/lib/pq"

	"github.com/vncsmyrnk/dood/internal/config"
	"github.com/vncsmyrnk/dood/internal/logger"
)

func main() {
	log := logger.New(os.Getenv("APP_ENV"))

	if len(os.Args) < 2 {
		log.Fatal().Msg("a migration name is required, e.g. create_poll_records.up")
	}
	migrationName := os.Args[1]

	cfg, err := config.LoadPostgres()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := sql.Open("postgres", cfg.ConnString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	basePath := filepath.Join(".", "internal", "adapters", "repository", "postgres", "migrations")
	fileContent, err := migrationFileContent(basePath, migrationName)
	if err != nil {
		log.Fatal().Err(err).Str("migration", migrationName).Msg("failed to read migration")
	}

	if _, err := db.Exec(string(fileContent)); err != nil {
		log.Fatal().Err(err).Str("migration", migrationName).Msg("failed to execute migration")
	}

	log.Info().Str("migration", migrationName).Msg("migration executed")
}

func migrationFileContent(basePath string, migrationName string) ([]byte, error) {
	fileName, err := migrationFileName(basePath, migrationName)
	if err != nil {
		return nil, err
	}

	return os.ReadFile(filepath.Join(basePath, fileName))
}

func migrationFileName(basePath string, migrationName string) (string, error) {
	regex, err := regexp.Compile(fmt.Sprintf(`^\d+_%s\.sql$`, regexp.QuoteMeta(migrationName)))
	if err != nil {
		return "", fmt.Errorf("invalid migration name: %w", err)
	}

	files, err := os.ReadDir(basePath)
	if err != nil {
		return "", fmt.Errorf("failed to list migrations: %w", err)
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		if regex.MatchString(f.Name()) {
			return f.Name(), nil
		}
	}

	return "", fmt.Errorf("migration file %q not found in %s", migrationName, basePath)
}

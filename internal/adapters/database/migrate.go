package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // register postgres driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// migrateLogger adapts zerolog to migrate.Logger
type migrateLogger struct {
	logger  *zerolog.Logger
	verbose bool
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.logger.Info().Msgf("db migration: "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return l.verbose
}

// Migrate applies the embedded schema migrations to dbURL. steps of zero
// migrates all the way up, a negative value rolls back that many versions.
func Migrate(dbURL string, steps int, verbose bool, logger *zerolog.Logger) error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dbURL)
	if err != nil {
		return fmt.Errorf("open migration target: %w", err)
	}
	defer m.Close()
	m.Log = &migrateLogger{logger: logger, verbose: verbose}

	if steps == 0 {
		err = m.Up()
	} else {
		err = m.Steps(steps)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info().Msg("database migration: no change needed")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("database migrated")
	return nil
}

package database

import (
	"embed"
	"errors"
	"time"

	"github.com/AnshRaj112/counseling-portal-backend/pkg/logger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

//go:embed migrations
var postgresMigrations embed.FS

var PostgresDB *sqlx.DB

// ConnectPostgres connects to PostgreSQL and applies pending migrations
func ConnectPostgres(postgresURI string) error {
	db, err := sqlx.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	if err = db.Ping(); err != nil {
		db.Close()
		return err
	}

	logger.Info("✅ Connected to PostgreSQL")

	if err = MigratePostgres(db); err != nil {
		db.Close()
		return err
	}

	PostgresDB = db
	return nil
}

// MigratePostgres runs the embedded migrations up to the latest version
func MigratePostgres(db *sqlx.DB) error {
	src, err := iofs.New(postgresMigrations, "migrations")
	if err != nil {
		return err
	}

	dst, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return err
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "postgres", dst)
	if err != nil {
		return err
	}

	err = migrator.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		// db already up to date
	case err != nil:
		return err
	}

	logger.Info("✅ PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}

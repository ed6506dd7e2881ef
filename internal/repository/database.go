package repository

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// NewPostgresDB establishes a new connection to the PostgreSQL database.
func NewPostgresDB(dataSourceName string, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	logger.Info("Connected to PostgreSQL entry store")
	return db, nil
}

// MigrateDB runs the embedded PostgreSQL migrations.
func MigrateDB(db *sqlx.DB, logger *zap.Logger) error {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("couldn't get database instance for migrations: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("couldn't open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "moodwatch", driver)
	if err != nil {
		return fmt.Errorf("couldn't create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("couldn't run database migration: %w", err)
	}

	logger.Info("Database migration was run successfully")
	return nil
}

// NewSQLiteDB opens (or creates) a SQLite database file and ensures the schema exists.
func NewSQLiteDB(path string, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("SQLite database initialized", zap.String("db_path", path))
	return db, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_handle TEXT NOT NULL,
	mood INTEGER NOT NULL,
	sleep_hours REAL,
	appetite INTEGER,
	concentration INTEGER,
	comment TEXT,
	created DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created);
CREATE INDEX IF NOT EXISTS idx_entries_user_handle ON entries(user_handle);

CREATE TABLE IF NOT EXISTS recommendations (
	id INTEGER PRIMARY KEY,
	risk_level TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	url TEXT
);

CREATE INDEX IF NOT EXISTS idx_recommendations_risk_level ON recommendations(risk_level);

INSERT OR IGNORE INTO recommendations (id, risk_level, title, description, url) VALUES
	(1, 'HIGH', 'Reach out to a professional', 'Your recent entries show warning signs. Please contact a mental health professional soon.', NULL),
	(2, 'HIGH', '24/7 crisis line', 'If you feel overwhelmed, your local crisis line is available at any hour.', NULL),
	(3, 'MODERATE', 'Relaxation techniques', 'Deep breathing and mindfulness exercises can help reduce stress.', NULL),
	(4, 'MODERATE', 'Regular physical activity', 'Regular exercise noticeably improves mood.', NULL),
	(5, 'LOW', 'Keep your healthy habits', 'Keep up regular exercise and balanced meals.', NULL),
	(6, 'LOW', 'Personal growth', 'Consider exploring new activities you enjoy.', NULL);
`

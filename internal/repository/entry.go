package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"moodwatch/internal/models"
)

// ErrReadOnly is returned by entry sources that cannot store new entries.
var ErrReadOnly = errors.New("entry source is read-only")

// EntryRepository supplies journal entries ordered by creation time.
type EntryRepository interface {
	ListEntries(ctx context.Context, filter models.EntryFilter) ([]models.Entry, error)
	// CreateEntry assigns ID (and Created when zero) on the passed entry.
	CreateEntry(ctx context.Context, entry *models.Entry) error
}

type entryRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewEntryRepository returns an EntryRepository over a PostgreSQL or SQLite handle.
func NewEntryRepository(db *sqlx.DB, logger *zap.Logger) EntryRepository {
	return &entryRepository{db: db, logger: logger}
}

func (r *entryRepository) ListEntries(ctx context.Context, filter models.EntryFilter) ([]models.Entry, error) {
	query := `SELECT id, user_handle, mood, sleep_hours, appetite, concentration, comment, created FROM entries`

	var conditions []string
	var args []interface{}
	if filter.Since != nil {
		conditions = append(conditions, "created >= ?")
		args = append(args, filter.Since.UTC())
	}
	if filter.Handle != "" {
		conditions = append(conditions, "user_handle = ?")
		args = append(args, filter.Handle)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created, id"

	entries := make([]models.Entry, 0)
	if err := r.db.SelectContext(ctx, &entries, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *entryRepository) CreateEntry(ctx context.Context, entry *models.Entry) error {
	if entry.Created.IsZero() {
		entry.Created = time.Now()
	}
	entry.Created = entry.Created.UTC()

	query := `INSERT INTO entries (user_handle, mood, sleep_hours, appetite, concentration, comment, created)
	          VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(query), entry.UserHandle, entry.Mood, entry.SleepHours,
		entry.Appetite, entry.Concentration, entry.Comment, entry.Created).Scan(&entry.ID)
	if err != nil {
		return err
	}

	r.logger.Debug("Entry stored", zap.Int64("entry_id", entry.ID), zap.String("user_handle", entry.UserHandle))
	return nil
}

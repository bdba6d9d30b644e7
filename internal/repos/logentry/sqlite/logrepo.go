// Package sqlite provides a log entry repository that stores its data inside a SQLite database
package sqlite

import (
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/derWhity/eventlink/internal/models"
	"github.com/derWhity/eventlink/internal/repos"
)

const (
	logFields = `category, level, origin, message, fields, createdAt`
)

// LogRepo stores log entries inside a SQLite database
// It does not log on its own as it is fed by the log hook
type LogRepo struct {
	db *sqlx.DB
}

// New creates a new log repository instance with the given database
func New(db *sqlx.DB) *LogRepo {
	return &LogRepo{db: db}
}

// Create stores a new log entry
func (r *LogRepo) Create(entry *models.LogEntry) error {
	id := uuid.New().String()
	query := `INSERT INTO Logs(id, ` + logFields + `) VALUES(?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query, id, entry.Category, entry.Level, entry.Origin, entry.Message, entry.Fields,
		entry.CreatedAt.UTC())
	if err != nil {
		return errors.Wrap(err, "Create")
	}
	entry.ID = id
	return nil
}

// Recent returns the latest log entries of the given category, newest first
func (r *LogRepo) Recent(category string, limit uint) ([]models.LogEntry, error) {
	if limit == 0 {
		limit = repos.DefaultLimit
	}
	ret := []models.LogEntry{}
	var err error
	if category == "" {
		err = r.db.Select(&ret, `SELECT id, `+logFields+` FROM Logs ORDER BY createdAt DESC, rowid DESC LIMIT ?`,
			limit)
	} else {
		err = r.db.Select(&ret, `SELECT id, `+logFields+` FROM Logs WHERE category = ?
            ORDER BY createdAt DESC, rowid DESC LIMIT ?`, category, limit)
	}
	if err != nil {
		return nil, errors.Wrap(err, "Recent")
	}
	return ret, nil
}

// Package sqlite provides an event repository that stores its data inside a SQLite database
package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/derWhity/eventlink/internal/log"
	"github.com/derWhity/eventlink/internal/models"
	"github.com/derWhity/eventlink/internal/repos"
)

// The natural key and the searchable fields get their own columns - everything else lives in the JSON document
type eventRow struct {
	ID       string `db:"id"`
	Document string `db:"document"`
}

func (row *eventRow) toEvent() (*models.Event, error) {
	var ev models.Event
	if err := json.Unmarshal([]byte(row.Document), &ev); err != nil {
		return nil, errors.Wrapf(err, "cannot decode event '%s'", row.ID)
	}
	ev.ID = row.ID
	return &ev, nil
}

// EventRepo is an repository that stores its data inside a SQLite database
type EventRepo struct {
	db     *sqlx.DB
	logger *logrus.Entry
}

// New creates a new event repository instance with the given database and logger
func New(db *sqlx.DB, logger *logrus.Entry) *EventRepo {
	return &EventRepo{
		db:     db,
		logger: logger,
	}
}

func isUniqueViolation(err error) bool {
	if sqliteErr, ok := errors.Cause(err).(sqlite3.Error); ok {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return repos.ErrInvalidID
	}
	return nil
}

// Create creates a new event
func (r *EventRepo) Create(ev *models.Event) error {
	if err := repos.ValidateEvent(ev); err != nil {
		return err
	}
	r.logger.WithFields(logrus.Fields{
		log.FldProvider:        ev.ProviderName,
		log.FldProviderEventID: ev.ProviderEventID,
	}).Debug("Adding new event")
	stored := *ev
	stored.ID = uuid.New().String()
	stored.CreatedAt = time.Now().UTC()
	stored.ModifiedAt = stored.CreatedAt
	doc, err := json.Marshal(&stored)
	if err != nil {
		return errors.Wrap(err, "Create: cannot encode event")
	}
	query := `INSERT INTO Events(id, providerEventId, providerName, name, isDeleted, document, createdAt, modifiedAt)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.Exec(query, stored.ID, stored.ProviderEventID, stored.ProviderName, stored.Name, stored.IsDeleted,
		string(doc), stored.CreatedAt, stored.ModifiedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repos.ErrEntityExists
		}
		return errors.Wrap(err, "Create")
	}
	*ev = stored
	return nil
}

// Replace replaces the stored event having the given ID with the event provided
func (r *EventRepo) Replace(id string, ev *models.Event) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := repos.ValidateEvent(ev); err != nil {
		return err
	}
	tx, err := r.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "Replace: cannot start transaction")
	}
	if err := r.replaceTx(tx, id, ev); err != nil {
		return repos.DoRollback(tx, err)
	}
	return errors.Wrap(tx.Commit(), "Replace: commit failed")
}

func (r *EventRepo) replaceTx(tx *sqlx.Tx, id string, ev *models.Event) error {
	r.logger.WithField(log.FldID, id).Debug("Replacing event")
	var createdAt time.Time
	if err := tx.Get(&createdAt, `SELECT createdAt FROM Events WHERE id = ?`, id); err != nil {
		if err == sql.ErrNoRows {
			return repos.ErrEntityNotExisting
		}
		return errors.Wrap(err, "Replace")
	}
	stored := *ev
	stored.ID = id
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = createdAt
	}
	stored.ModifiedAt = time.Now().UTC()
	doc, err := json.Marshal(&stored)
	if err != nil {
		return errors.Wrap(err, "Replace: cannot encode event")
	}
	query := `UPDATE Events SET providerEventId = ?, providerName = ?, name = ?, isDeleted = ?, document = ?,
        modifiedAt = ? WHERE id = ?`
	_, err = tx.Exec(query, stored.ProviderEventID, stored.ProviderName, stored.Name, stored.IsDeleted, string(doc),
		stored.ModifiedAt, id)
	if err != nil {
		if isUniqueViolation(err) {
			return repos.ErrEntityExists
		}
		return errors.Wrap(err, "Replace")
	}
	*ev = stored
	return nil
}

func (r *EventRepo) getOne(query string, args ...interface{}) (*models.Event, error) {
	var row eventRow
	if err := r.db.Get(&row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			// Nothing found
			return nil, repos.ErrEntityNotExisting
		}
		return nil, err
	}
	return row.toEvent()
}

func (r *EventRepo) selectMany(query string, args ...interface{}) ([]models.Event, error) {
	var rows []eventRow
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	ret := make([]models.Event, 0, len(rows))
	for i := range rows {
		ev, err := rows[i].toEvent()
		if err != nil {
			return nil, err
		}
		ret = append(ret, *ev)
	}
	return ret, nil
}

// GetByID returns the event with the given ID
func (r *EventRepo) GetByID(id string) (*models.Event, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	r.logger.WithField(log.FldID, id).Debug("Loading event")
	return r.getOne(`SELECT id, document FROM Events WHERE id = ?`, id)
}

// GetByProviderEventID returns the event a provider knows under the given ID
func (r *EventRepo) GetByProviderEventID(providerName string, providerEventID string) (*models.Event, error) {
	r.logger.WithFields(logrus.Fields{
		log.FldProvider:        providerName,
		log.FldProviderEventID: providerEventID,
	}).Debug("Loading event by provider event ID")
	return r.getOne(`SELECT id, document FROM Events WHERE providerName = ? AND providerEventId = ?`,
		providerName, providerEventID)
}

// Find searches for non-deleted events whose name matches the given search string - supports pagination
func (r *EventRepo) Find(search string, offset uint, limit uint) ([]models.Event, uint, error) {
	if limit == 0 {
		limit = repos.DefaultLimit
	}
	r.logger.WithFields(logrus.Fields{
		log.FldSearch: search,
		log.FldOffset: offset,
		log.FldLimit:  limit,
	}).Debug("Searching for event")
	// For now, we're using a simple LIKE search
	search = "%" + search + "%"
	ret, err := r.selectMany(`SELECT id, document FROM Events WHERE isDeleted = 0 AND name LIKE ?
        ORDER BY name, id LIMIT ? OFFSET ?`, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	// Query the full count
	var numRows uint
	if err = r.db.Get(&numRows, `SELECT COUNT(*) FROM Events WHERE isDeleted = 0 AND name LIKE ?`, search); err != nil {
		return nil, 0, err
	}
	return ret, numRows, nil
}

// All returns all stored events including the deleted ones
func (r *EventRepo) All() ([]models.Event, error) {
	return r.selectMany(`SELECT id, document FROM Events ORDER BY createdAt, id`)
}

// Delete marks the event with the given ID as deleted
func (r *EventRepo) Delete(id string) error {
	ev, err := r.GetByID(id)
	if err != nil {
		return err
	}
	r.logger.WithField(log.FldID, id).Debug("Deleting event")
	if ev.IsDeleted {
		return nil
	}
	now := time.Now().UTC()
	ev.IsDeleted = true
	ev.DeletedAt = &now
	return r.Replace(id, ev)
}

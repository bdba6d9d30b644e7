// Package repos contains the repository interfaces needed in EventLink
// It exists to prevent circular dependencies between eventlink and the repo implementations
package repos

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/derWhity/eventlink/internal/models"
)

var (
	// ErrEntityNotExisting is fired by a repository when an entity that is requested, updated or deleted does not exist
	ErrEntityNotExisting = fmt.Errorf("entity does not exist")
	// ErrEntityExists is fired by a repository when creating an entity whose natural key is already taken
	ErrEntityExists = fmt.Errorf("entity already exists")
	// ErrInvalidID is fired by a repository when an ID is not in the format the repository uses
	ErrInvalidID = fmt.Errorf("malformed entity ID")
	// ErrMissingProviderEventID is fired when storing an event without the ID it has at its provider
	ErrMissingProviderEventID = fmt.Errorf("event has no provider event ID")
	// ErrInvalidEntity is fired when storing an entity that misses required data
	ErrInvalidEntity = fmt.Errorf("entity is missing required data")
)

// EventRepo defines a repository that handles storing and querying events
// Implementations must be safe for concurrent use
type EventRepo interface {
	// Create stores a new event and assigns its ID. Fails with ErrEntityExists if an event with the same provider
	// event ID and provider name is already stored
	Create(ev *models.Event) error
	// Replace replaces the stored event having the given ID with the event provided
	Replace(id string, ev *models.Event) error
	// GetByID returns the event with the given ID
	GetByID(id string) (*models.Event, error)
	// GetByProviderEventID returns the event a provider knows under the given ID
	GetByProviderEventID(providerName string, providerEventID string) (*models.Event, error)
	// Find searches for events matching the given search string - supports pagination
	Find(search string, offset uint, limit uint) ([]models.Event, uint, error)
	// All returns all stored events including the deleted ones
	All() ([]models.Event, error)
	// Delete marks the event with the given ID as deleted
	Delete(id string) error
}

// LogRepo defines a repository that stores log entries
type LogRepo interface {
	// Create stores a new log entry
	Create(entry *models.LogEntry) error
	// Recent returns the latest log entries of the given category, newest first. An empty category returns entries
	// of all categories
	Recent(category string, limit uint) ([]models.LogEntry, error)
}

// ValidateEvent checks the data every stored event needs
func ValidateEvent(ev *models.Event) error {
	if ev == nil {
		return ErrInvalidEntity
	}
	if strings.TrimSpace(ev.ProviderEventID) == "" {
		return ErrMissingProviderEventID
	}
	if strings.TrimSpace(ev.Name) == "" {
		return ErrInvalidEntity
	}
	return nil
}

// DefaultLimit is used as search limit when none is given
const DefaultLimit = 50

// -- Helpers for SQLX repos -------------------------------------------------------------------------------------------

// DoRollback rolls back a transaction and catches any error resulting from it while appending the original error
func DoRollback(tx *sqlx.Tx, originalError error) error {
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("doRollback: Transaction rollback failed: %v; Recent error: %v", err, originalError)
	}
	return originalError
}

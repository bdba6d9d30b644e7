package log

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/derWhity/eventlink/internal/models"
)

// EntryStore is the storage the StoreHook writes to
type EntryStore interface {
	Create(entry *models.LogEntry) error
}

// StoreHook is a logrus hook persisting every log entry at or above a minimum level into a log entry storage
type StoreHook struct {
	store  EntryStore
	levels []logrus.Level
}

// NewStoreHook creates a hook persisting entries at or above the given level
func NewStoreHook(store EntryStore, minLevel logrus.Level) *StoreHook {
	levels := []logrus.Level{}
	for _, l := range logrus.AllLevels {
		if l <= minLevel {
			levels = append(levels, l)
		}
	}
	return &StoreHook{store: store, levels: levels}
}

// Levels returns the levels the hook fires for
func (h *StoreHook) Levels() []logrus.Level {
	return h.levels
}

// Fire persists the log entry. The category and origin fields are stored in their own columns
func (h *StoreHook) Fire(e *logrus.Entry) error {
	entry := models.LogEntry{
		Category:  CategorySystem,
		Level:     e.Level.String(),
		Message:   e.Message,
		CreatedAt: e.Time,
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	fields := make(map[string]interface{}, len(e.Data))
	for k, v := range e.Data {
		switch k {
		case FldCategory:
			entry.Category = fmt.Sprint(v)
		case FldOrigin:
			entry.Origin = fmt.Sprint(v)
		default:
			if err, ok := v.(error); ok {
				v = err.Error()
			}
			fields[k] = v
		}
	}
	if len(fields) > 0 {
		data, err := json.Marshal(fields)
		if err != nil {
			data = []byte(fmt.Sprintf("%q", fmt.Sprint(fields)))
		}
		entry.Fields = string(data)
	}
	if err := h.store.Create(&entry); err != nil {
		// Logging the failure would fire this hook again
		fmt.Fprintf(os.Stderr, "Failed to persist log entry: %v\n", err)
		return err
	}
	return nil
}

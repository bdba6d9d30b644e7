package models

import "time"

// LogEntry is a log line persisted by the log store hook
type LogEntry struct {
	// Internal ID
	ID string `db:"id" json:"id" bson:"-"`
	// The category the entry belongs to (system, event or statistics)
	Category string `db:"category" json:"category" bson:"category"`
	// Severity of the entry
	Level string `db:"level" json:"level" bson:"level"`
	// The component that wrote the entry
	Origin string `db:"origin" json:"origin" bson:"origin"`
	// The log message
	Message string `db:"message" json:"message" bson:"message"`
	// The remaining structured fields, JSON-encoded
	Fields string `db:"fields" json:"fields,omitempty" bson:"fields,omitempty"`
	// Time the entry was written
	CreatedAt time.Time `db:"createdAt" json:"createdAt" bson:"createdAt"`
}

// Package migrate handles SQL database migration for the internal EventLink database
package migrate

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var migrations []dbMigration

type dbMigration struct {
	Version uint
	Queries []string
}

// applied checks if the migration has already run successfully
func (mig *dbMigration) applied(db *sqlx.DB) (bool, error) {
	var success bool
	err := db.Get(&success, `SELECT success FROM Migrations WHERE version = ?`, mig.Version)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return success, err
}

// Execute runs the migration on the given database inside a single transaction
func (mig *dbMigration) Execute(db *sqlx.DB, logger *logrus.Entry) error {
	done, err := mig.applied(db)
	if err != nil {
		logger.WithError(err).Error("Failed to fetch version information")
		return err
	}
	if done {
		return nil
	}
	logger.Infof("Executing DB migration #%d", mig.Version)
	tx, err := db.Beginx()
	if err != nil {
		return errors.Wrap(err, "Execute: cannot start transaction")
	}
	for i, query := range mig.Queries {
		logger.Debugf("Query %d of %d...", i+1, len(mig.Queries))
		if _, err := tx.Exec(query); err != nil {
			logger.WithError(err).Errorf("Query #%d failed", i+1)
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.WithError(rbErr).Error("Rollback failed")
			}
			return errors.Wrapf(err, "Execute: migration #%d, query #%d", mig.Version, i+1)
		}
	}
	if _, err := tx.Exec(`REPLACE INTO Migrations(version, success) VALUES(?, 1)`, mig.Version); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "Execute: cannot store migration state")
	}
	return tx.Commit()
}

// ExecuteMigrationsOnDb executes the database migrations on the given database instance
func ExecuteMigrationsOnDb(db *sqlx.DB, logger *logrus.Entry) error {
	query := `CREATE TABLE IF NOT EXISTS Migrations (
                version   INTEGER NOT NULL,
                success   INTEGER NOT NULL DEFAULT 0,
                PRIMARY KEY(version)
            )`
	if _, err := db.Exec(query); err != nil {
		logger.WithError(err).Error("Failed to create migrations table")
		return err
	}
	for _, mig := range migrations {
		if err := mig.Execute(db, logger); err != nil {
			logger.WithError(err).Errorf("Failed to execute migration #%d", mig.Version)
			return err
		}
	}
	return nil
}

// For now, the migrations are part of the package...
func init() {
	migrations = []dbMigration{
		{
			Version: 1,
			Queries: []string{
				`CREATE TABLE "Events" (
                    id VARCHAR(36) NOT NULL PRIMARY KEY,
                    providerEventId VARCHAR(128) NOT NULL,
                    providerName VARCHAR(64) NOT NULL,
                    name VARCHAR(255) NOT NULL DEFAULT '',
                    isDeleted INTEGER NOT NULL DEFAULT 0,
                    document TEXT NOT NULL,
                    createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                    modifiedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                    UNIQUE(providerEventId, providerName)
                );`,
				`CREATE INDEX idx_event_name ON Events (name ASC);`,
			},
		},
		{
			Version: 2,
			Queries: []string{
				`CREATE TABLE "Logs" (
                    id VARCHAR(36) NOT NULL PRIMARY KEY,
                    category VARCHAR(16) NOT NULL DEFAULT 'system',
                    level VARCHAR(16) NOT NULL DEFAULT 'info',
                    origin VARCHAR(128) NOT NULL DEFAULT '',
                    message TEXT NOT NULL DEFAULT '',
                    fields TEXT NOT NULL DEFAULT '',
                    createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
                );`,
				`CREATE INDEX idx_log_category ON Logs (category ASC, createdAt DESC);`,
			},
		},
	}
}

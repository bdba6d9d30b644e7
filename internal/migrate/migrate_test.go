package migrate

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteMigrationsOnDb(t *testing.T) {
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	logger := logrus.NewEntry(logrus.New())
	require.NoError(t, ExecuteMigrationsOnDb(db, logger))
	// Running twice must not fail on the already existing tables
	require.NoError(t, ExecuteMigrationsOnDb(db, logger))

	var versions []uint
	require.NoError(t, db.Select(&versions, `SELECT version FROM Migrations WHERE success = 1 ORDER BY version`))
	assert.Equal(t, []uint{1, 2}, versions)

	for _, table := range []string{"Events", "Logs"} {
		var n int
		require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table))
		assert.Equal(t, 1, n, table)
	}
}

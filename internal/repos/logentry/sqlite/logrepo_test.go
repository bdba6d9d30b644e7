package sqlite

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/derWhity/eventlink/internal/migrate"
	"github.com/derWhity/eventlink/internal/repos"
	"github.com/derWhity/eventlink/internal/repos/repotest"
)

func TestLogRepo(t *testing.T) {
	repotest.RunLogRepoTests(t, func(t *testing.T) repos.LogRepo {
		db, err := sqlx.Open("sqlite3", ":memory:")
		require.NoError(t, err)
		db.SetMaxOpenConns(1)
		t.Cleanup(func() { db.Close() })
		require.NoError(t, migrate.ExecuteMigrationsOnDb(db, logrus.NewEntry(logrus.New())))
		return New(db)
	})
}

package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // Just needed for the sqlite driver
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/derWhity/eventlink/internal/log"
	"github.com/derWhity/eventlink/internal/migrate"
	"github.com/derWhity/eventlink/internal/models"
	"github.com/derWhity/eventlink/internal/repos"
	eventinmem "github.com/derWhity/eventlink/internal/repos/event/inmem"
	eventmongo "github.com/derWhity/eventlink/internal/repos/event/mongo"
	eventsqlite "github.com/derWhity/eventlink/internal/repos/event/sqlite"
	loginmem "github.com/derWhity/eventlink/internal/repos/logentry/inmem"
	logmongo "github.com/derWhity/eventlink/internal/repos/logentry/mongo"
	logsqlite "github.com/derWhity/eventlink/internal/repos/logentry/sqlite"
)

const dbFile = "eventlink.db"

// storage bundles the repositories of the configured storage driver
type storage struct {
	events repos.EventRepo
	logs   repos.LogRepo
	close  func() error
}

// Checks and tries to create the given directory recursively
func checkAndCreateDir(path string, logger *logrus.Entry) error {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if e, ok := err.(*os.PathError); ok && e.Err == syscall.ENOENT {
			logger.WithField(log.FldPath, path).Info("Directory does not exist - trying to create...")
			if err = os.MkdirAll(path, os.ModePerm); err != nil {
				return errors.Wrap(err, "failed to create directory")
			}
			logger.Info("Directory created successfully")
			return nil
		}
		return errors.Wrap(err, "stat has failed")
	}
	if !fileInfo.IsDir() {
		return errors.Errorf("'%s' is not a directory. Remove the plain file if you want to continue", path)
	}
	return nil
}

// openStorage connects to the storage selected in the configuration
func openStorage(ctx context.Context, conf models.AppConfig, logger *logrus.Entry) (*storage, error) {
	logger = logger.WithField(log.FldDriver, conf.Storage.Driver)
	switch conf.Storage.Driver {
	case models.StorageMemory:
		logger.Warn("Using the in-memory storage. Nothing will survive a restart")
		return &storage{
			events: eventinmem.New(),
			logs:   loginmem.New(loginmem.DefaultCapacity),
			close:  func() error { return nil },
		}, nil

	case models.StorageSQLite:
		logger.Infof("Using '%s' as data directory", conf.DataDir)
		if err := checkAndCreateDir(conf.DataDir, logger); err != nil {
			return nil, err
		}
		dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL",
			path.Join(conf.DataDir, dbFile), conf.Storage.Timeout().Milliseconds())
		db, err := sqlx.Open("sqlite3", dsn)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open database connection")
		}
		logger.Info("Performing database migrations...")
		if err = migrate.ExecuteMigrationsOnDb(db, logger); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "database migration has failed")
		}
		return &storage{
			events: eventsqlite.New(db, logger),
			logs:   logsqlite.New(db),
			close:  db.Close,
		}, nil

	case models.StorageMongo:
		connectCtx, cancel := context.WithTimeout(ctx, conf.Storage.Timeout())
		defer cancel()
		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(conf.Storage.MongoURI))
		if err != nil {
			return nil, errors.Wrap(err, "failed to connect to mongo")
		}
		disconnect := func() error {
			return client.Disconnect(context.Background())
		}
		if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
			disconnect()
			return nil, errors.Wrap(err, "mongo does not answer")
		}
		db := client.Database(conf.Storage.MongoDatabase)
		events, err := eventmongo.New(ctx, db, conf.Storage.Timeout(), logger)
		if err != nil {
			disconnect()
			return nil, err
		}
		logs, err := logmongo.New(ctx, db, conf.Storage.Timeout())
		if err != nil {
			disconnect()
			return nil, err
		}
		logger.WithField("database", conf.Storage.MongoDatabase).Info("Connected to mongo")
		return &storage{
			events: events,
			logs:   logs,
			close:  disconnect,
		}, nil
	}
	return nil, errors.Errorf("unknown storage driver '%s'", conf.Storage.Driver)
}

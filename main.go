package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kardianos/osext"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	eventlink "github.com/derWhity/eventlink/internal"
	"github.com/derWhity/eventlink/internal/ctxhelper"
	"github.com/derWhity/eventlink/internal/log"
	"github.com/derWhity/eventlink/internal/models"
)

const (
	appName = "EventLink"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"

	configFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "eventlink",
	Short: "EventLink - crawls event providers into one event store",
	Long: `EventLink periodically crawls the APIs of event providers like TicketMaster and
Eventful, maps their events into one common format and keeps them in an event store.

Without a subcommand, the crawler is started as a service.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	execDir, err := osext.ExecutableFolder()
	if err != nil {
		execDir = "."
	}
	rootCmd.PersistentFlags().StringVarP(
		&configFile,
		"config",
		"c",
		filepath.Join(execDir, "config.json"),
		"The configuration file to load the application's configuration from (JSON or YAML)",
	)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(expireCmd)
	initConfigCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
	rootCmd.AddCommand(initConfigCmd)
}

// app is everything a command needs after start-up
type app struct {
	conf   models.AppConfig
	logger *logrus.Entry
	store  *storage
}

// setup loads the configuration, opens the storage and attaches the log hook persisting log entries into it
func setup(ctx context.Context) (*app, error) {
	logger := logrus.WithField(log.FldVersion, Version)
	logger.Infof("%s version %s is starting up...", appName, Version)
	ctx = ctxhelper.WithLogger(ctx, logger)

	cs := eventlink.NewConfigService(configFile)
	if err := cs.Load(ctx); err != nil {
		return nil, errors.Wrap(err, "cannot load config")
	}
	conf := cs.GetConfig(ctx)

	level, err := logrus.ParseLevel(conf.LogLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level '%s'", conf.LogLevel)
	}
	persistLevel, err := logrus.ParseLevel(conf.PersistLogLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid persist log level '%s'", conf.PersistLogLevel)
	}
	logrus.SetLevel(level)
	if persistLevel > level {
		// Entries below the console level never reach the hooks
		logger.Warnf("Persist log level '%s' is more verbose than the log level - only '%s' entries are persisted",
			persistLevel, level)
	}

	store, err := openStorage(ctx, conf, logger)
	if err != nil {
		return nil, err
	}
	logrus.AddHook(log.NewStoreHook(store.logs, persistLevel))

	return &app{
		conf:   conf,
		logger: logger,
		store:  store,
	}, nil
}

func (a *app) close() {
	if err := a.store.close(); err != nil {
		a.logger.WithError(err).Error("Failed to close the storage")
	}
}

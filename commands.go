package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	eventlink "github.com/derWhity/eventlink/internal"
	"github.com/derWhity/eventlink/internal/crawler"
	"github.com/derWhity/eventlink/internal/ctxhelper"
	"github.com/derWhity/eventlink/internal/log"
	"github.com/derWhity/eventlink/internal/models"
	"github.com/derWhity/eventlink/internal/provider"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the crawler and the operator API until stopped",
	RunE:  runServe,
}

var crawlCmd = &cobra.Command{
	Use:   "crawl [provider...]",
	Short: "Run one crawl pass for the given providers (all enabled providers if none given) and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		registry, err := provider.NewRegistryFromConfig(a.conf.Providers, a.logger)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			for _, p := range registry.All() {
				args = append(args, p.Name())
			}
		}
		if len(args) == 0 {
			return errors.New("no provider is enabled")
		}
		scheduler := crawler.NewScheduler(registry, a.store.events, schedulerOptions(a.conf), a.logger)
		var failed []string
		for _, name := range args {
			stats, err := scheduler.RunOnce(ctx, name)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", name, err)
				failed = append(failed, name)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: Created (%d), Updated (%d), Error (%d)\n",
				name, stats.Created, stats.Updated, stats.Failed)
		}
		if len(failed) > 0 {
			return errors.Errorf("crawl failed for %s", strings.Join(failed, ", "))
		}
		return nil
	},
}

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Set all stored events inactive whose sale has ended and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(context.Background())
		if err != nil {
			return err
		}
		defer a.close()
		stats, err := crawler.NewSweeper(a.store.events, a.logger).Sweep()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Checked (%d), Expired (%d), Error (%d)\n", stats.Checked, stats.Expired,
			stats.Failed)
		return nil
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write the default configuration to the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(configFile); err == nil && !force {
			return errors.Errorf("'%s' already exists. Use --force to overwrite it", configFile)
		}
		ctx := ctxhelper.WithLogger(context.Background(), logrus.WithField(log.FldVersion, Version))
		if err := eventlink.NewConfigService(configFile).Write(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Default configuration written to %s\n", configFile)
		return nil
	},
}

// schedulerOptions builds the scheduler options from the application configuration
func schedulerOptions(conf models.AppConfig) crawler.Options {
	opts := crawler.Options{
		CountryCodes: conf.CountryCodes,
		Intervals:    make(map[string]time.Duration),
	}
	for name, p := range conf.Providers {
		opts.Intervals[name] = p.Interval()
	}
	return opts
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	logger := a.logger

	registry, err := provider.NewRegistryFromConfig(a.conf.Providers, logger)
	if err != nil {
		return err
	}
	if len(registry.All()) == 0 {
		logger.Warn("No provider is enabled - nothing will be crawled")
	}
	scheduler := crawler.NewScheduler(
		registry,
		a.store.events,
		schedulerOptions(a.conf),
		logger.WithField(log.FldOrigin, "crawler"),
	)

	httpLogger := logger.WithField(log.FldTransport, "HTTP")
	h := eventlink.MakeHTTPHandler(
		eventlink.NewCrawlService(scheduler, logger),
		eventlink.NewEventService(a.store.events, logger),
		eventlink.NewLogService(a.store.logs, logger),
		httpLogger,
	)
	srv := &http.Server{Addr: a.conf.ListenAddress, Handler: h}

	errs := make(chan error, 1)

	// Listen for stop signals that will end the service
	stop := make(chan os.Signal, 2)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	go func() {
		httpLogger.WithField("addr", a.conf.ListenAddress).Info("Starting listening port")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			errs <- err
		}
	}()

	crawlsDone := make(chan struct{})
	go func() {
		scheduler.Run(ctx)
		close(crawlsDone)
	}()

	// Watchdog for systemd
	go func() {
		interval, err := daemon.SdWatchdogEnabled(false)
		if err != nil || interval == 0 {
			return
		}
		logger.Info("Activating systemd watchdog goroutine")
		port := a.conf.ListenAddress[strings.LastIndex(a.conf.ListenAddress, ":")+1:]
		url := fmt.Sprintf("http://127.0.0.1:%s/alive", port)
		ticker := time.NewTicker(interval / 3)
		defer ticker.Stop()
		for {
			if res, err := http.Get(url); err == nil {
				res.Body.Close()
				daemon.SdNotify(false, "WATCHDOG=1")
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	// Notify systemd that we are ready to go (if available)
	daemon.SdNotify(false, "READY=1")

	var runErr error
	select {
	case sig := <-stop:
		logger.WithField("signal", sig.String()).Info("Caught signal to stop. Shutting down.")
	case runErr = <-errs:
		logger.WithError(runErr).Error("HTTP server failed. Shutting down.")
	}
	daemon.SdNotify(false, "STOPPING=1")
	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server did not shut down cleanly")
	}
	logger.Info("Waiting for running crawls to finish...")
	<-crawlsDone
	logger.Info("Shutdown complete")
	return runErr
}

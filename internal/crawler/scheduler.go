package crawler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/derWhity/eventlink/internal/log"
	"github.com/derWhity/eventlink/internal/metrics"
	"github.com/derWhity/eventlink/internal/provider"
	"github.com/derWhity/eventlink/internal/repos"
)

// DefaultInterval is the crawl interval of providers without one configured
const DefaultInterval = time.Hour

// Options configure a scheduler
type Options struct {
	// Country filter applied to all providers
	CountryCodes []string
	// Crawl interval by provider name
	Intervals map[string]time.Duration
}

// Scheduler runs the crawl passes of all providers of a registry - each provider on its own interval
type Scheduler struct {
	registry     *provider.Registry
	reconciler   *Reconciler
	sweeper      *Sweeper
	countryCodes []string
	logger       *logrus.Entry
	// Triggered crawls waiting to be run by the provider loops. Filled once on creation
	triggers map[string]chan struct{}
	mtx      sync.RWMutex
	crawls   map[string]*Crawl
}

// NewScheduler creates a scheduler for all providers inside the registry
func NewScheduler(registry *provider.Registry, repo repos.EventRepo, opts Options, logger *logrus.Entry) *Scheduler {
	s := &Scheduler{
		registry:     registry,
		reconciler:   NewReconciler(repo, logger),
		sweeper:      NewSweeper(repo, logger),
		countryCodes: opts.CountryCodes,
		logger:       logger,
		triggers:     make(map[string]chan struct{}),
		crawls:       make(map[string]*Crawl),
	}
	for _, p := range registry.All() {
		interval, ok := opts.Intervals[p.Name()]
		if !ok || interval <= 0 {
			interval = DefaultInterval
		}
		s.triggers[p.Name()] = make(chan struct{}, 1)
		s.crawls[p.Name()] = &Crawl{
			Provider: p.Name(),
			Status:   StatusIdle,
			Interval: interval.String(),
		}
	}
	return s
}

func (s *Scheduler) interval(name string) time.Duration {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	d, err := time.ParseDuration(s.crawls[name].Interval)
	if err != nil {
		return DefaultInterval
	}
	return d
}

// Run sweeps the expired events once and then crawls every provider immediately and on each tick of its interval
// until the context is cancelled. Passes of the same provider never overlap - ticks that pass while a crawl is still
// running are merged into one
func (s *Scheduler) Run(ctx context.Context) {
	if _, err := s.sweeper.Sweep(); err != nil {
		s.logger.WithError(err).Error("Expiration sweep failed")
	}
	var wg sync.WaitGroup
	for _, p := range s.registry.All() {
		wg.Add(1)
		go func(p provider.Provider) {
			defer wg.Done()
			s.loop(ctx, p)
		}(p)
	}
	wg.Wait()
	s.logger.Info("All crawl loops have stopped")
}

// loop is the goroutine crawling one provider
func (s *Scheduler) loop(ctx context.Context, p provider.Provider) {
	interval := s.interval(p.Name())
	logger := s.logger.WithFields(logrus.Fields{
		log.FldProvider:     p.Name(),
		log.FldInterval:     interval.String(),
		log.FldCountryCodes: s.countryCodes,
	})
	logger.Info("Starting crawl loop")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	trigger := s.triggers[p.Name()]
	s.pass(ctx, p)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping crawl loop")
			return
		case <-ticker.C:
			s.pass(ctx, p)
		case <-trigger:
			logger.Info("Running triggered crawl")
			s.setQueued(p.Name(), false)
			s.pass(ctx, p)
		}
	}
}

// RunOnce runs a single crawl pass for the provider with the given name right away
func (s *Scheduler) RunOnce(ctx context.Context, name string) (Stats, error) {
	p, err := s.registry.Get(name)
	if err != nil {
		return Stats{}, err
	}
	return s.pass(ctx, p)
}

// Sweep runs the expiration sweep
func (s *Scheduler) Sweep() (SweepStats, error) {
	return s.sweeper.Sweep()
}

// Trigger queues a crawl pass for the provider with the given name. It is run by the provider's loop as soon as the
// current pass is finished
func (s *Scheduler) Trigger(name string) error {
	trigger, ok := s.triggers[name]
	if !ok {
		return errors.Wrapf(provider.ErrUnknownProvider, "'%s'", name)
	}
	select {
	case trigger <- struct{}{}:
		s.setQueued(name, true)
		s.logger.WithField(log.FldProvider, name).Info("Crawl queued")
		return nil
	default:
		return ErrAlreadyQueued
	}
}

// Status returns the crawl state of the provider with the given name
func (s *Scheduler) Status(name string) (*Crawl, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	c, ok := s.crawls[name]
	if !ok {
		return nil, errors.Wrapf(provider.ErrUnknownProvider, "'%s'", name)
	}
	data := *c // Copy
	return &data, nil
}

// StatusAll returns the crawl state of all providers ordered by provider name
func (s *Scheduler) StatusAll() []Crawl {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	ret := make([]Crawl, 0, len(s.crawls))
	for _, c := range s.crawls {
		ret = append(ret, *c)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Provider < ret[j].Provider
	})
	return ret
}

func (s *Scheduler) update(name string, fn func(c *Crawl)) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if c, ok := s.crawls[name]; ok {
		fn(c)
	}
}

func (s *Scheduler) setStatus(name string, status CrawlStatus) {
	s.update(name, func(c *Crawl) {
		c.Status = status
	})
}

func (s *Scheduler) setQueued(name string, queued bool) {
	s.update(name, func(c *Crawl) {
		c.Queued = queued
	})
}

// finish records the end of a crawl pass
func (s *Scheduler) finish(name string, stats Stats, err error) {
	now := time.Now()
	s.update(name, func(c *Crawl) {
		c.Status = StatusIdle
		c.LastFinishedAt = &now
		c.Passes++
		if err != nil {
			c.Failures++
			c.LastError = err.Error()
			return
		}
		c.LastError = ""
		c.LastStats = stats
	})
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFailure
	}
	metrics.CrawlPassesTotal.WithLabelValues(name, result).Inc()
}

// pass fetches, maps and reconciles the events of one provider. A failing fetch or mapping aborts the pass before
// anything is stored
func (s *Scheduler) pass(ctx context.Context, p provider.Provider) (Stats, error) {
	name := p.Name()
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.CrawlPassDuration.WithLabelValues(name))
	logger := s.logger.WithFields(logrus.Fields{
		log.FldProvider: name,
		log.FldCategory: log.CategoryEvent,
	})
	started := time.Now()
	s.update(name, func(c *Crawl) {
		c.Status = StatusFetching
		c.LastStartedAt = &started
	})

	logger.Info("Crawling events")
	doc, err := p.Fetch(ctx, s.countryCodes)
	if err != nil {
		err = errors.Wrap(err, "fetch failed")
		logger.WithError(err).Error("Crawl pass aborted")
		s.finish(name, Stats{}, err)
		return Stats{}, err
	}

	s.setStatus(name, StatusMapping)
	events, err := p.Map(doc)
	if err != nil {
		err = errors.Wrap(err, "mapping failed")
		logger.WithError(err).Error("Crawl pass aborted")
		s.finish(name, Stats{}, err)
		return Stats{}, err
	}

	// Reconciliation always runs to completion - even when shutting down
	s.setStatus(name, StatusReconciling)
	stats := s.reconciler.Reconcile(events)
	logger.WithFields(logrus.Fields{
		log.FldCategory: log.CategoryStatistics,
		log.FldRecords:  len(events),
		log.FldCreated:  stats.Created,
		log.FldUpdated:  stats.Updated,
		log.FldFailed:   stats.Failed,
	}).Infof("%s data population statistics: Created (%d), Updated (%d), Error (%d).",
		name, stats.Created, stats.Updated, stats.Failed)
	s.finish(name, stats, nil)
	return stats, nil
}
